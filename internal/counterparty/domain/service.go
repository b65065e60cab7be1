package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/partita/internal/ledgererr"
	"gorm.io/gorm"
)

type CreateCounterpartyRequest struct {
	Name                string `json:"name"`
	VatNumber           string `json:"vat_number"`
	ReceivableAccountID string `json:"receivable_account_id"`
	PayableAccountID    string `json:"payable_account_id"`
}

type ListCounterpartyRequest struct {
	Name string `form:"name"`
}

type ListCounterpartyFilter struct {
	Name string
}

type Service interface {
	Create(ctx context.Context, req CreateCounterpartyRequest) (Counterparty, error)
	List(ctx context.Context, req ListCounterpartyRequest) ([]Counterparty, error)
	GetByID(ctx context.Context, id string) (Counterparty, error)
}

// Directory resolves a counterparty's sub-accounts inside a caller transaction.
type Directory interface {
	SubAccounts(ctx context.Context, db *gorm.DB, companyID, counterpartyID snowflake.ID) (SubAccounts, error)
}

var (
	ErrInvalidCompany = ledgererr.Validation("invalid_company")
	ErrInvalidName    = ledgererr.Validation("invalid_counterparty_name")
	ErrInvalidID      = ledgererr.Validation("invalid_counterparty_id")
	ErrInvalidAccount = ledgererr.Validation("invalid_counterparty_account")
	ErrMissingAccount = ledgererr.Validation("counterparty_account_required")
	ErrNotFound       = ledgererr.NotFound("counterparty_not_found")
)
