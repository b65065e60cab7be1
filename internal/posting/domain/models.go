package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// JournalEntry is a posted header. It is never mutated after insert;
// corrections are new postings.
type JournalEntry struct {
	ID               snowflake.ID    `gorm:"primaryKey" json:"id"`
	CompanyID        snowflake.ID    `gorm:"not null;uniqueIndex:ux_journal_entries_company_protocol,priority:1;index:ix_journal_entries_company_date,priority:1" json:"company_id"`
	FunctionID       snowflake.ID    `gorm:"not null;index" json:"function_id"`
	AuthorID         string          `gorm:"type:text;not null" json:"author_id"`
	ProtocolNumber   int64           `gorm:"not null;uniqueIndex:ux_journal_entries_company_protocol,priority:2" json:"protocol_number"`
	RegistrationDate time.Time       `gorm:"type:date;not null;index:ix_journal_entries_company_date,priority:2" json:"registration_date"`
	DocumentDate     *time.Time      `gorm:"type:date" json:"document_date,omitempty"`
	DocumentNumber   *string         `gorm:"type:text" json:"document_number,omitempty"`
	CounterpartyID   *snowflake.ID   `gorm:"index" json:"counterparty_id,omitempty"`
	TotalAmount      decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"total_amount"`
	Description      string          `gorm:"type:text;not null;default:''" json:"description"`
	CreatedAt        time.Time       `gorm:"not null" json:"created_at"`
}

func (JournalEntry) TableName() string { return "journal_entries" }

type JournalLine struct {
	ID          snowflake.ID    `gorm:"primaryKey" json:"id"`
	CompanyID   snowflake.ID    `gorm:"not null;index:ix_journal_lines_company_account,priority:1" json:"-"`
	EntryID     snowflake.ID    `gorm:"not null;index" json:"entry_id"`
	AccountID   snowflake.ID    `gorm:"not null;index:ix_journal_lines_company_account,priority:2" json:"account_id"`
	LineNo      int             `gorm:"not null" json:"line_no"`
	Description string          `gorm:"type:text;not null;default:''" json:"description"`
	Debit       decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"debit"`
	Credit      decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"credit"`
}

func (JournalLine) TableName() string { return "journal_lines" }

// ProtocolSequence is the per-company protocol counter. NextNumber is the
// number the next posting receives; it only moves under a row lock.
type ProtocolSequence struct {
	CompanyID  snowflake.ID `gorm:"primaryKey;autoIncrement:false" json:"company_id"`
	NextNumber int64        `gorm:"not null" json:"next_number"`
	UpdatedAt  time.Time    `gorm:"not null" json:"updated_at"`
}

func (ProtocolSequence) TableName() string { return "protocol_sequences" }

// EntryDetail is a header with its lines.
type EntryDetail struct {
	JournalEntry
	Lines []JournalLine `json:"lines"`
}
