package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Counterparty is a customer or supplier with its ledger sub-accounts.
type Counterparty struct {
	ID                  snowflake.ID  `gorm:"primaryKey" json:"id"`
	CompanyID           snowflake.ID  `gorm:"not null;index" json:"company_id"`
	Name                string        `gorm:"type:text;not null" json:"name"`
	VatNumber           string        `gorm:"type:text" json:"vat_number,omitempty"`
	ReceivableAccountID *snowflake.ID `gorm:"index" json:"receivable_account_id,omitempty"`
	PayableAccountID    *snowflake.ID `gorm:"index" json:"payable_account_id,omitempty"`
	CreatedAt           time.Time     `gorm:"not null" json:"created_at"`
	UpdatedAt           time.Time     `gorm:"not null" json:"updated_at"`
}

func (Counterparty) TableName() string { return "counterparties" }

// SubAccounts are the ledger accounts a counterparty's open items live on.
type SubAccounts struct {
	ReceivableAccountID *snowflake.ID
	PayableAccountID    *snowflake.ID
}
