package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type PostRequest struct {
	// FunctionCode is a numeric function code or a function key.
	FunctionCode string      `json:"function_code"`
	Header       HeaderInput `json:"header"`
	Lines        []LineInput `json:"lines"`
	Vat          []VatInput  `json:"vat,omitempty"`
	CloseItemIDs []string    `json:"close_item_ids,omitempty"`
	Description  string      `json:"description"`
}

type HeaderInput struct {
	RegistrationDate string          `json:"registration_date"`
	DocumentDate     string          `json:"document_date,omitempty"`
	DocumentNumber   string          `json:"document_number,omitempty"`
	DueDate          string          `json:"due_date,omitempty"`
	CounterpartyID   string          `json:"counterparty_id,omitempty"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
}

type LineInput struct {
	AccountID   string          `json:"account_id"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description string          `json:"description"`
}

type VatInput struct {
	TaxCodeID   string          `json:"tax_code_id"`
	TaxableBase decimal.Decimal `json:"taxable_base"`
	TaxAmount   decimal.Decimal `json:"tax_amount"`
}

type PostResult struct {
	EntryID          snowflake.ID   `json:"entry_id"`
	ProtocolNumber   int64          `json:"protocol_number"`
	Category         string         `json:"category"`
	RegistrationDate time.Time      `json:"registration_date"`
	Lines            []JournalLine  `json:"lines"`
	OpenItemIDs      []snowflake.ID `json:"open_item_ids"`
	VatEntryIDs      []snowflake.ID `json:"vat_entry_ids"`
}

type Service interface {
	Post(ctx context.Context, req PostRequest) (PostResult, error)
	GetEntry(ctx context.Context, id string) (EntryDetail, error)
}
