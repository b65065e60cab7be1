package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	taxdomain "github.com/smallbiznis/partita/internal/tax/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

type ResolverParams struct {
	fx.In

	Repository taxdomain.Repository
}

type resolver struct {
	repo taxdomain.Repository
}

func NewResolver(p ResolverParams) taxdomain.RateReference {
	return &resolver{repo: p.Repository}
}

// Rates returns every requested tax code or ErrNotFound if any is missing.
func (r *resolver) Rates(ctx context.Context, db *gorm.DB, companyID snowflake.ID, ids []snowflake.ID) (map[snowflake.ID]taxdomain.TaxCode, error) {
	out := make(map[snowflake.ID]taxdomain.TaxCode, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	items, err := r.repo.FindByIDs(ctx, db, companyID, ids)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if item == nil {
			continue
		}
		out[item.ID] = *item
	}
	for _, id := range ids {
		if _, ok := out[id]; !ok {
			return nil, taxdomain.ErrNotFound
		}
	}
	return out, nil
}
