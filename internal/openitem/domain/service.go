package domain

import "context"

type ListOpenItemsRequest struct {
	Direction      string `form:"direction"`
	CounterpartyID string `form:"counterparty_id"`
	DueBefore      string `form:"due_before"`
}

type Service interface {
	ListOpenItems(ctx context.Context, req ListOpenItemsRequest) ([]OpenItem, error)
	GetOpenItem(ctx context.Context, id string) (OpenItem, error)
	History(ctx context.Context, counterpartyID string) ([]OpenItem, error)
}
