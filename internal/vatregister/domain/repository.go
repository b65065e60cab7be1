package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, rows []VatRegisterEntry) error
	List(ctx context.Context, db *gorm.DB, companyID snowflake.ID, filter ListFilter) ([]VatRegisterEntry, error)
	ListByEntry(ctx context.Context, db *gorm.DB, companyID, entryID snowflake.ID) ([]VatRegisterEntry, error)
}
