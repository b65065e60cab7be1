package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RateReference resolves tax codes inside a caller transaction.
type RateReference interface {
	Rates(ctx context.Context, db *gorm.DB, companyID snowflake.ID, ids []snowflake.ID) (map[snowflake.ID]TaxCode, error)
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (TaxCode, error)
	Get(ctx context.Context, id string) (TaxCode, error)
	List(ctx context.Context, req ListRequest) ([]TaxCode, error)
	Update(ctx context.Context, req UpdateRequest) (TaxCode, error)
}

type ListRequest struct {
	Code      string `form:"code"`
	IsEnabled *bool  `form:"is_enabled"`
}

type CreateRequest struct {
	Code        string          `json:"code"`
	Description string          `json:"description"`
	Rate        decimal.Decimal `json:"rate"`
	IsEnabled   *bool           `json:"is_enabled"`
}

type UpdateRequest struct {
	ID          string           `json:"-"`
	Description *string          `json:"description,omitempty"`
	Rate        *decimal.Decimal `json:"rate,omitempty"`
	IsEnabled   *bool            `json:"is_enabled,omitempty"`
}
