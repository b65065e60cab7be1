package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/partita/internal/companyctx"
	"github.com/smallbiznis/partita/internal/openitem/domain"
	"github.com/smallbiznis/partita/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo domain.Repository
}

type Service struct {
	db   *gorm.DB
	log  *zap.Logger
	repo domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:   p.DB,
		log:  p.Log.Named("openitem.service"),
		repo: p.Repo,
	}
}

func (s *Service) ListOpenItems(ctx context.Context, req domain.ListOpenItemsRequest) ([]domain.OpenItem, error) {
	companyID, ok := companyctx.CompanyIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidCompany
	}
	direction, ok := domain.ParseDirection(req.Direction)
	if !ok {
		return nil, domain.ErrInvalidDirection
	}

	filter := domain.ListFilter{Direction: direction}
	if raw := strings.TrimSpace(req.CounterpartyID); raw != "" {
		id, err := parseID(raw)
		if err != nil {
			return nil, err
		}
		filter.CounterpartyID = &id
	}
	if raw := strings.TrimSpace(req.DueBefore); raw != "" {
		due, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return nil, domain.ErrInvalidDate
		}
		filter.DueBefore = &due
	}

	var items []domain.OpenItem
	err := db.ReadSnapshot(ctx, s.db, func(tx *gorm.DB) error {
		var err error
		items, err = s.repo.ListOpen(ctx, tx, companyID, filter)
		return err
	})
	if err != nil {
		s.log.Error("list open items failed", zap.String("company_id", companyID.String()), zap.Error(err))
		return nil, err
	}
	if items == nil {
		items = []domain.OpenItem{}
	}
	return items, nil
}

func (s *Service) GetOpenItem(ctx context.Context, id string) (domain.OpenItem, error) {
	companyID, ok := companyctx.CompanyIDFromContext(ctx)
	if !ok {
		return domain.OpenItem{}, domain.ErrInvalidCompany
	}
	itemID, err := parseID(id)
	if err != nil {
		return domain.OpenItem{}, err
	}
	item, err := s.repo.FindByID(ctx, s.db, companyID, itemID)
	if err != nil {
		return domain.OpenItem{}, err
	}
	if item == nil {
		return domain.OpenItem{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) History(ctx context.Context, counterpartyID string) ([]domain.OpenItem, error) {
	companyID, ok := companyctx.CompanyIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidCompany
	}
	id, err := parseID(counterpartyID)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.History(ctx, s.db, companyID, id)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.OpenItem{}
	}
	return items, nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
