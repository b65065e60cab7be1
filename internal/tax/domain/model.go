package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// TaxCode is a company-scoped VAT rate.
// Code is the stable business identifier (e.g. "22", "10", "N4");
// rate is a percentage and may change over time. Posted VAT rows copy
// the rate, so editing it never rewrites history.
type TaxCode struct {
	ID          snowflake.ID    `gorm:"primaryKey" json:"id"`
	CompanyID   snowflake.ID    `gorm:"not null;uniqueIndex:ux_tax_codes_company_code,priority:1" json:"company_id"`
	Code        string          `gorm:"type:varchar(32);not null;uniqueIndex:ux_tax_codes_company_code,priority:2" json:"code"`
	Description string          `gorm:"type:text;not null" json:"description"`
	Rate        decimal.Decimal `gorm:"type:numeric(7,4);not null" json:"rate"`
	IsEnabled   bool            `gorm:"column:is_enabled;not null;default:true" json:"is_enabled"`
	CreatedAt   time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"not null" json:"updated_at"`
}

func (TaxCode) TableName() string { return "tax_codes" }

var maxRate = decimal.NewFromInt(100)

func (t *TaxCode) Validate() error {
	if strings.TrimSpace(t.Code) == "" {
		return ErrInvalidTaxCode
	}
	if strings.TrimSpace(t.Description) == "" {
		return ErrInvalidDescription
	}
	if t.Rate.IsNegative() || t.Rate.GreaterThan(maxRate) {
		return ErrInvalidTaxRate
	}
	return nil
}

// ComputeTax returns base * rate / 100 rounded to cents.
func ComputeTax(base, ratePercent decimal.Decimal) decimal.Decimal {
	if base.IsZero() || ratePercent.IsZero() {
		return decimal.Zero
	}
	return base.Mul(ratePercent).Div(maxRate).Round(2)
}
