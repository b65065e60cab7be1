package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Repository reads committed ledger state. Callers run it inside a snapshot
// transaction so the queries of one report see the same commits.
type Repository interface {
	Journal(ctx context.Context, db *gorm.DB, companyID snowflake.ID, from, to time.Time) ([]JournalRow, error)
	OpeningBalance(ctx context.Context, db *gorm.DB, companyID, accountID snowflake.ID, before time.Time) (decimal.Decimal, error)
	CardMovements(ctx context.Context, db *gorm.DB, companyID, accountID snowflake.ID, from, to time.Time) ([]CardMovement, error)
	TrialBalance(ctx context.Context, db *gorm.DB, companyID snowflake.ID, asOf time.Time) ([]TrialBalanceRow, error)
}
