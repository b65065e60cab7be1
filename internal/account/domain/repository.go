package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, account *Account) error
	FindByID(ctx context.Context, db *gorm.DB, companyID, id snowflake.ID) (*Account, error)
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, companyID, id snowflake.ID) (*Account, error)
	FindByIDs(ctx context.Context, db *gorm.DB, companyID snowflake.ID, ids []snowflake.ID) ([]*Account, error)
	LockByIDs(ctx context.Context, db *gorm.DB, companyID snowflake.ID, ids []snowflake.ID) error
	ListAll(ctx context.Context, db *gorm.DB, companyID snowflake.ID) ([]*Account, error)
	List(ctx context.Context, db *gorm.DB, companyID snowflake.ID, filter ListFilter) ([]*Account, error)
	SiblingCodes(ctx context.Context, db *gorm.DB, companyID snowflake.ID, kind Kind, parentID *snowflake.ID) ([]string, error)
	UpdateCodes(ctx context.Context, db *gorm.DB, companyID snowflake.ID, updates []CodeUpdate) error
	UpdateLocked(ctx context.Context, db *gorm.DB, companyID, id snowflake.ID, locked bool) error
	UpdateDescription(ctx context.Context, db *gorm.DB, companyID, id snowflake.ID, description string) error
	CountReferences(ctx context.Context, db *gorm.DB, companyID, id snowflake.ID) (References, error)
	Delete(ctx context.Context, db *gorm.DB, companyID, id snowflake.ID) error
}
