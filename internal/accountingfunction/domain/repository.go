package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, fn *AccountingFunction) error
	Update(ctx context.Context, db *gorm.DB, fn *AccountingFunction) error
	Delete(ctx context.Context, db *gorm.DB, companyID, id snowflake.ID) error
	FindByID(ctx context.Context, db *gorm.DB, companyID, id snowflake.ID, forUpdate bool) (*AccountingFunction, error)
	FindByCode(ctx context.Context, db *gorm.DB, companyID snowflake.ID, code int64) (*AccountingFunction, error)
	FindByKey(ctx context.Context, db *gorm.DB, companyID snowflake.ID, key string) (*AccountingFunction, error)
	List(ctx context.Context, db *gorm.DB, companyID snowflake.ID, category Category) ([]*AccountingFunction, error)
	MaxCode(ctx context.Context, db *gorm.DB, companyID snowflake.ID) (int64, error)
	CountEntries(ctx context.Context, db *gorm.DB, companyID, id snowflake.ID) (int64, error)

	InsertLines(ctx context.Context, db *gorm.DB, lines []PredefinedLine) error
	DeleteLines(ctx context.Context, db *gorm.DB, companyID, functionID snowflake.ID) error
	ListLines(ctx context.Context, db *gorm.DB, companyID snowflake.ID, functionIDs []snowflake.ID) ([]PredefinedLine, error)
}
