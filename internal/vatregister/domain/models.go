package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type Register string

const (
	RegisterPurchases Register = "purchases"
	RegisterSales     Register = "sales"
)

func ParseRegister(value string) (Register, bool) {
	switch r := Register(strings.ToLower(strings.TrimSpace(value))); r {
	case RegisterPurchases, RegisterSales:
		return r, true
	}
	return "", false
}

// VatRegisterEntry is one tax-ledger row derived from a posted journal line.
// Rate is a copy taken at posting time.
type VatRegisterEntry struct {
	ID               snowflake.ID    `gorm:"primaryKey" json:"id"`
	CompanyID        snowflake.ID    `gorm:"not null;index:ix_vat_register_company_register_date,priority:1" json:"company_id"`
	Register         Register        `gorm:"type:varchar(16);not null;index:ix_vat_register_company_register_date,priority:2" json:"register"`
	EntryID          snowflake.ID    `gorm:"not null;index" json:"entry_id"`
	LineID           snowflake.ID    `gorm:"not null" json:"line_id"`
	ProtocolNumber   int64           `gorm:"not null" json:"protocol_number"`
	RegistrationDate time.Time       `gorm:"type:date;not null;index:ix_vat_register_company_register_date,priority:3" json:"registration_date"`
	DocumentDate     *time.Time      `gorm:"type:date" json:"document_date,omitempty"`
	DocumentNumber   *string         `gorm:"type:text" json:"document_number,omitempty"`
	CounterpartyID   *snowflake.ID   `json:"counterparty_id,omitempty"`
	TaxCodeID        snowflake.ID    `gorm:"not null" json:"tax_code_id"`
	TaxableBase      decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"taxable_base"`
	Rate             decimal.Decimal `gorm:"type:numeric(7,4);not null" json:"rate"`
	TaxAmount        decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"tax_amount"`
	CreatedAt        time.Time       `gorm:"not null" json:"created_at"`
}

func (VatRegisterEntry) TableName() string { return "vat_register_entries" }

// RateTotal sums a register period by rate.
type RateTotal struct {
	Rate        decimal.Decimal `json:"rate"`
	TaxableBase decimal.Decimal `json:"taxable_base"`
	TaxAmount   decimal.Decimal `json:"tax_amount"`
	Rows        int             `json:"rows"`
}

type ListFilter struct {
	Register Register
	From     time.Time
	To       time.Time
}
