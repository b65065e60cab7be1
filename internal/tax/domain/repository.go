package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, code *TaxCode) error
	FindByID(ctx context.Context, db *gorm.DB, companyID, id snowflake.ID) (*TaxCode, error)
	FindByIDs(ctx context.Context, db *gorm.DB, companyID snowflake.ID, ids []snowflake.ID) ([]*TaxCode, error)
	List(ctx context.Context, db *gorm.DB, companyID snowflake.ID, filter ListRequest) ([]*TaxCode, error)
	Update(ctx context.Context, db *gorm.DB, code *TaxCode) error
}
