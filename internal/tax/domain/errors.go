package domain

import "github.com/smallbiznis/partita/internal/ledgererr"

var (
	ErrInvalidCompany     = ledgererr.Validation("invalid_company")
	ErrInvalidID          = ledgererr.Validation("invalid_tax_code_id")
	ErrInvalidTaxCode     = ledgererr.Validation("invalid_tax_code")
	ErrInvalidDescription = ledgererr.Validation("invalid_tax_description")
	ErrInvalidTaxRate     = ledgererr.Validation("invalid_tax_rate")
	ErrDuplicateTaxCode   = ledgererr.Validation("duplicate_tax_code")
	ErrNotFound           = ledgererr.NotFound("tax_code_not_found")
)
