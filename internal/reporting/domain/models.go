package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// JournalRow is one journal line joined with its header and account.
type JournalRow struct {
	EntryID            snowflake.ID    `json:"entry_id"`
	ProtocolNumber     int64           `json:"protocol_number"`
	RegistrationDate   time.Time       `json:"registration_date"`
	DocumentDate       *time.Time      `json:"document_date,omitempty"`
	DocumentNumber     *string         `json:"document_number,omitempty"`
	CounterpartyID     *snowflake.ID   `json:"counterparty_id,omitempty"`
	LineID             snowflake.ID    `json:"line_id"`
	LineNo             int             `json:"line_no"`
	AccountID          snowflake.ID    `json:"account_id"`
	AccountCode        string          `json:"account_code"`
	AccountDescription string          `json:"account_description"`
	Description        string          `json:"description"`
	Debit              decimal.Decimal `json:"debit"`
	Credit             decimal.Decimal `json:"credit"`
}

type Journal struct {
	From        time.Time       `json:"from"`
	To          time.Time       `json:"to"`
	Rows        []JournalRow    `json:"rows"`
	TotalDebit  decimal.Decimal `json:"total_debit"`
	TotalCredit decimal.Decimal `json:"total_credit"`
}

// CardMovement is a line on an account card. Balance is the running balance
// after the movement, starting from the card's opening balance.
type CardMovement struct {
	EntryID          snowflake.ID    `json:"entry_id"`
	ProtocolNumber   int64           `json:"protocol_number"`
	RegistrationDate time.Time       `json:"registration_date"`
	DocumentNumber   *string         `json:"document_number,omitempty"`
	LineID           snowflake.ID    `json:"line_id"`
	Description      string          `json:"description"`
	Debit            decimal.Decimal `json:"debit"`
	Credit           decimal.Decimal `json:"credit"`
	Balance          decimal.Decimal `gorm:"-" json:"balance"`
}

type AccountCard struct {
	AccountID          snowflake.ID    `json:"account_id"`
	AccountCode        string          `json:"account_code"`
	AccountDescription string          `json:"account_description"`
	From               time.Time       `json:"from"`
	To                 time.Time       `json:"to"`
	OpeningBalance     decimal.Decimal `json:"opening_balance"`
	Movements          []CardMovement  `json:"movements"`
	TotalDebit         decimal.Decimal `json:"total_debit"`
	TotalCredit        decimal.Decimal `json:"total_credit"`
	ClosingBalance     decimal.Decimal `json:"closing_balance"`
}

// TrialBalanceRow aggregates every line of an account up to the cutoff date.
// Balance is debit minus credit.
type TrialBalanceRow struct {
	AccountID   snowflake.ID    `json:"account_id"`
	Code        string          `json:"code"`
	Description string          `json:"description"`
	Kind        string          `json:"kind"`
	Nature      *string         `json:"nature,omitempty"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Balance     decimal.Decimal `gorm:"-" json:"balance"`
}

type TrialBalance struct {
	AsOf        time.Time         `json:"as_of"`
	Rows        []TrialBalanceRow `json:"rows"`
	TotalDebit  decimal.Decimal   `json:"total_debit"`
	TotalCredit decimal.Decimal   `json:"total_credit"`
}
