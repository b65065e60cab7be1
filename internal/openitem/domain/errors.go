package domain

import "github.com/smallbiznis/partita/internal/ledgererr"

var (
	ErrInvalidCompany   = ledgererr.Validation("invalid_company")
	ErrInvalidID        = ledgererr.Validation("invalid_open_item_id")
	ErrInvalidDirection = ledgererr.Validation("invalid_open_item_direction")
	ErrInvalidDate      = ledgererr.Validation("invalid_due_date")
	ErrForeignItem      = ledgererr.Validation("open_item_belongs_to_other_counterparty")
	ErrNotFound         = ledgererr.NotFound("open_item_not_found")
)
