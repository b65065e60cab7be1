package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Kind is the level of an account in the chart.
type Kind string

const (
	KindMastro     Kind = "mastro"
	KindConto      Kind = "conto"
	KindSottoconto Kind = "sottoconto"
)

// Nature classifies a Conto or Sottoconto for reporting.
type Nature string

const (
	NatureAsset     Nature = "asset"
	NatureLiability Nature = "liability"
	NatureEquity    Nature = "equity"
	NatureCost      Nature = "cost"
	NatureRevenue   Nature = "revenue"
)

const (
	// FirstMastroCode is the code given to the first Mastro of a company.
	FirstMastroCode  = 101
	MaxMastroCode    = 999
	MaxContoSeq      = 99
	MaxSottocontoSeq = 999
)

// Account is one node of the chart of accounts.
type Account struct {
	ID          snowflake.ID  `gorm:"primaryKey" json:"id"`
	CompanyID   snowflake.ID  `gorm:"not null;uniqueIndex:ux_accounts_company_code,priority:1" json:"company_id"`
	Code        string        `gorm:"type:varchar(64);not null;uniqueIndex:ux_accounts_company_code,priority:2" json:"code"`
	Description string        `gorm:"type:text;not null" json:"description"`
	Kind        Kind          `gorm:"type:text;not null" json:"kind"`
	Nature      *Nature       `gorm:"type:text" json:"nature,omitempty"`
	ParentID    *snowflake.ID `gorm:"index" json:"parent_id,omitempty"`
	Locked      bool          `gorm:"not null;default:false" json:"locked"`
	CreatedAt   time.Time     `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time     `gorm:"not null" json:"updated_at"`
}

func (Account) TableName() string { return "accounts" }

// NatureValue returns the nature or "" for a Mastro.
func (a Account) NatureValue() Nature {
	if a.Nature == nil {
		return ""
	}
	return *a.Nature
}

// ParseKind normalizes user input into a Kind.
func ParseKind(value string) (Kind, bool) {
	switch Kind(strings.ToLower(strings.TrimSpace(value))) {
	case KindMastro:
		return KindMastro, true
	case KindConto:
		return KindConto, true
	case KindSottoconto:
		return KindSottoconto, true
	}
	return "", false
}

// ParseNature normalizes user input into a Nature.
func ParseNature(value string) (Nature, bool) {
	switch Nature(strings.ToLower(strings.TrimSpace(value))) {
	case NatureAsset:
		return NatureAsset, true
	case NatureLiability:
		return NatureLiability, true
	case NatureEquity:
		return NatureEquity, true
	case NatureCost:
		return NatureCost, true
	case NatureRevenue:
		return NatureRevenue, true
	}
	return "", false
}

// ParentKind is the kind a node of kind k must hang under.
func (k Kind) ParentKind() (Kind, bool) {
	switch k {
	case KindConto:
		return KindMastro, true
	case KindSottoconto:
		return KindConto, true
	}
	return "", false
}

// TreeNode is an account with its children, ordered by code.
type TreeNode struct {
	Account
	Children []*TreeNode `json:"children,omitempty"`
}

// References counts the rows that keep an account from being deleted.
type References struct {
	Children        int64
	JournalLines    int64
	PredefinedLines int64
	Counterparties  int64
}

// CodeUpdate rewrites one account's derived code and parent.
type CodeUpdate struct {
	ID       snowflake.ID
	Code     string
	ParentID *snowflake.ID
}

type ListFilter struct {
	Kind       Kind
	Nature     Nature
	CodePrefix string
}
