package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/partita/internal/ledgererr"
)

type JournalRequest struct {
	From string `form:"from"`
	To   string `form:"to"`
}

type AccountCardRequest struct {
	AccountID string `form:"account_id"`
	From      string `form:"from"`
	To        string `form:"to"`
}

type TrialBalanceRequest struct {
	AsOf string `form:"as_of"`
}

type Service interface {
	Journal(ctx context.Context, req JournalRequest) (Journal, error)
	AccountCard(ctx context.Context, req AccountCardRequest) (AccountCard, error)
	TrialBalance(ctx context.Context, req TrialBalanceRequest) (TrialBalance, error)
}

var (
	ErrInvalidCompany  = ledgererr.Validation("invalid_company")
	ErrInvalidRange    = ledgererr.Validation("invalid_date_range")
	ErrInvalidDate     = ledgererr.Validation("invalid_date")
	ErrInvalidAccount  = ledgererr.Validation("invalid_account_id")
	ErrAccountNotFound = ledgererr.NotFound("account_not_found")

	// ErrQueryFailed hides the underlying database error from callers.
	ErrQueryFailed = errors.New("report_query_failed")
)
