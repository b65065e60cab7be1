package domain

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/partita/internal/ledgererr"
)

type ListRegisterRequest struct {
	Register string `form:"register"`
	From     string `form:"from"`
	To       string `form:"to"`
}

type ListRegisterResponse struct {
	Register         Register           `json:"register"`
	Entries          []VatRegisterEntry `json:"entries"`
	Summary          []RateTotal        `json:"summary"`
	TotalTaxableBase decimal.Decimal    `json:"total_taxable_base"`
	TotalTaxAmount   decimal.Decimal    `json:"total_tax_amount"`
}

// Service is read-only: register rows are written by the posting engine only.
type Service interface {
	ListRegister(ctx context.Context, req ListRegisterRequest) (ListRegisterResponse, error)
}

var (
	ErrInvalidCompany  = ledgererr.Validation("invalid_company")
	ErrInvalidRegister = ledgererr.Validation("invalid_vat_register")
	ErrInvalidRange    = ledgererr.Validation("invalid_date_range")
)
