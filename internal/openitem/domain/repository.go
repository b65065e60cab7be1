package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, items []OpenItem) error
	LockByIDs(ctx context.Context, db *gorm.DB, companyID snowflake.ID, ids []snowflake.ID) ([]OpenItem, error)
	// MarkClosed flips OPEN rows to CLOSED and returns how many rows changed.
	MarkClosed(ctx context.Context, db *gorm.DB, companyID snowflake.ID, ids []snowflake.ID, entryID snowflake.ID, closedAt time.Time) (int64, error)
	FindByID(ctx context.Context, db *gorm.DB, companyID, id snowflake.ID) (*OpenItem, error)
	ListOpen(ctx context.Context, db *gorm.DB, companyID snowflake.ID, filter ListFilter) ([]OpenItem, error)
	History(ctx context.Context, db *gorm.DB, companyID, counterpartyID snowflake.ID) ([]OpenItem, error)
}
