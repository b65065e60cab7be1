package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/partita/internal/counterparty/domain"
	"gorm.io/gorm"
)

type directory struct {
	repo domain.Repository
}

// NewDirectory exposes counterparty sub-accounts to the posting engine.
func NewDirectory(repo domain.Repository) domain.Directory {
	return &directory{repo: repo}
}

func (d *directory) SubAccounts(ctx context.Context, db *gorm.DB, companyID, counterpartyID snowflake.ID) (domain.SubAccounts, error) {
	item, err := d.repo.FindByID(ctx, db, companyID, counterpartyID)
	if err != nil {
		return domain.SubAccounts{}, err
	}
	if item == nil {
		return domain.SubAccounts{}, domain.ErrNotFound
	}
	return domain.SubAccounts{
		ReceivableAccountID: item.ReceivableAccountID,
		PayableAccountID:    item.PayableAccountID,
	}, nil
}
