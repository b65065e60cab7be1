package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Category string

const (
	CategoryPurchases     Category = "purchases"
	CategorySales         Category = "sales"
	CategoryPayments      Category = "payments"
	CategoryCorrispettivi Category = "corrispettivi"
	CategoryGeneric       Category = "generic"
)

type Type string

const (
	// TypeFinancial functions touch counterparties and may open or close items.
	TypeFinancial Type = "financial"
	TypePrimary   Type = "primary"
)

type Side string

const (
	SideDebit  Side = "debit"
	SideCredit Side = "credit"
)

// Role marks a predefined line the posting engine treats specially.
type Role string

const (
	RoleNone         Role = ""
	RoleCounterparty Role = "counterparty"
	RoleVAT          Role = "vat"
)

// AccountingFunction is a named posting template for one business operation.
type AccountingFunction struct {
	ID        snowflake.ID     `gorm:"primaryKey" json:"id"`
	CompanyID snowflake.ID     `gorm:"not null;uniqueIndex:ux_accounting_functions_company_code,priority:1;uniqueIndex:ux_accounting_functions_company_key,priority:1" json:"company_id"`
	Code      int64            `gorm:"not null;uniqueIndex:ux_accounting_functions_company_code,priority:2" json:"code"`
	Key       *string          `gorm:"column:function_key;type:varchar(64);uniqueIndex:ux_accounting_functions_company_key,priority:2" json:"key,omitempty"`
	Name      string           `gorm:"type:text;not null" json:"name"`
	Category  Category         `gorm:"type:text;not null" json:"category"`
	Type      Type             `gorm:"type:text;not null" json:"type"`
	CreatedAt time.Time        `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time        `gorm:"not null" json:"updated_at"`
	Lines     []PredefinedLine `gorm:"-" json:"lines"`
}

func (AccountingFunction) TableName() string { return "accounting_functions" }

// PredefinedLine is an advisory template line of a function.
type PredefinedLine struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	CompanyID   snowflake.ID `gorm:"not null;index" json:"-"`
	FunctionID  snowflake.ID `gorm:"not null;index" json:"function_id"`
	LineNo      int          `gorm:"not null" json:"line_no"`
	AccountID   snowflake.ID `gorm:"not null;index" json:"account_id"`
	Side        Side         `gorm:"type:text;not null" json:"side"`
	Description string       `gorm:"type:text" json:"description"`
	Role        Role         `gorm:"type:text;not null;default:''" json:"role,omitempty"`
}

func (PredefinedLine) TableName() string { return "predefined_lines" }

// VATTemplate returns the line used to post VAT amounts, if any.
func (f AccountingFunction) VATTemplate() (PredefinedLine, bool) {
	for _, line := range f.Lines {
		if line.Role == RoleVAT {
			return line, true
		}
	}
	return PredefinedLine{}, false
}

func ParseCategory(value string) (Category, bool) {
	switch c := Category(strings.ToLower(strings.TrimSpace(value))); c {
	case CategoryPurchases, CategorySales, CategoryPayments, CategoryCorrispettivi, CategoryGeneric:
		return c, true
	}
	return "", false
}

func ParseType(value string) (Type, bool) {
	switch t := Type(strings.ToLower(strings.TrimSpace(value))); t {
	case TypeFinancial, TypePrimary:
		return t, true
	}
	return "", false
}

func ParseSide(value string) (Side, bool) {
	switch s := Side(strings.ToLower(strings.TrimSpace(value))); s {
	case SideDebit, SideCredit:
		return s, true
	}
	return "", false
}

func ParseRole(value string) (Role, bool) {
	switch r := Role(strings.ToLower(strings.TrimSpace(value))); r {
	case RoleNone, RoleCounterparty, RoleVAT:
		return r, true
	}
	return "", false
}
