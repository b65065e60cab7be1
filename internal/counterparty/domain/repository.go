package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, counterparty *Counterparty) error
	FindByID(ctx context.Context, db *gorm.DB, companyID, id snowflake.ID) (*Counterparty, error)
	List(ctx context.Context, db *gorm.DB, companyID snowflake.ID, filter ListCounterpartyFilter) ([]*Counterparty, error)
}
