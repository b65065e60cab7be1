package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type Movement string

const (
	MovementOpenDebit   Movement = "open_debit"
	MovementOpenCredit  Movement = "open_credit"
	MovementCloseDebit  Movement = "close_debit"
	MovementCloseCredit Movement = "close_credit"
)

// Mirror is the movement recorded when an item with movement m is closed.
func (m Movement) Mirror() Movement {
	switch m {
	case MovementOpenDebit:
		return MovementCloseCredit
	case MovementOpenCredit:
		return MovementCloseDebit
	case MovementCloseDebit:
		return MovementOpenCredit
	case MovementCloseCredit:
		return MovementOpenDebit
	}
	return m
}

type Status string

const (
	StatusOpen   Status = "OPEN"
	StatusClosed Status = "CLOSED"
)

type Direction string

const (
	DirectionReceivable Direction = "receivable"
	DirectionPayable    Direction = "payable"
)

func ParseDirection(value string) (Direction, bool) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(value))); d {
	case DirectionReceivable, DirectionPayable:
		return d, true
	}
	return "", false
}

// OpenItem is one receivable/payable movement of a counterparty.
// Closing never edits amounts: the opened row flips to CLOSED and a mirror
// row pointing back at it records the close.
type OpenItem struct {
	ID              snowflake.ID    `gorm:"primaryKey" json:"id"`
	CompanyID       snowflake.ID    `gorm:"not null;index:ix_open_items_company_status,priority:1" json:"company_id"`
	CounterpartyID  snowflake.ID    `gorm:"not null;index" json:"counterparty_id"`
	AccountID       snowflake.ID    `gorm:"not null" json:"account_id"`
	EntryID         snowflake.ID    `gorm:"not null;index" json:"entry_id"`
	DocumentDate    *time.Time      `gorm:"type:date" json:"document_date,omitempty"`
	DocumentNumber  *string         `gorm:"type:text" json:"document_number,omitempty"`
	DueDate         *time.Time      `gorm:"type:date" json:"due_date,omitempty"`
	Amount          decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"amount"`
	Movement        Movement        `gorm:"type:text;not null" json:"movement"`
	Status          Status          `gorm:"type:varchar(16);not null;index:ix_open_items_company_status,priority:2" json:"status"`
	ClosesItemID    *snowflake.ID   `gorm:"index" json:"closes_item_id,omitempty"`
	ClosedByEntryID *snowflake.ID   `json:"closed_by_entry_id,omitempty"`
	ClosedAt        *time.Time      `json:"closed_at,omitempty"`
	CreatedAt       time.Time       `gorm:"not null" json:"created_at"`
}

func (OpenItem) TableName() string { return "open_items" }

type ListFilter struct {
	Direction      Direction
	CounterpartyID *snowflake.ID
	DueBefore      *time.Time
}
