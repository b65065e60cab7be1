package service

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/partita/internal/companyctx"
	"github.com/smallbiznis/partita/internal/vatregister/domain"
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
		log:  p.Log.Named("vatregister.service"),
		repo: p.Repo,
	}
}

func (s *Service) ListRegister(ctx context.Context, req domain.ListRegisterRequest) (domain.ListRegisterResponse, error) {
	companyID, ok := companyctx.CompanyIDFromContext(ctx)
	if !ok {
		return domain.ListRegisterResponse{}, domain.ErrInvalidCompany
	}
	register, ok := domain.ParseRegister(req.Register)
	if !ok {
		return domain.ListRegisterResponse{}, domain.ErrInvalidRegister
	}
	from, err := parseDate(req.From)
	if err != nil {
		return domain.ListRegisterResponse{}, err
	}
	to, err := parseDate(req.To)
	if err != nil {
		return domain.ListRegisterResponse{}, err
	}
	if to.Before(from) {
		return domain.ListRegisterResponse{}, domain.ErrInvalidRange
	}

	var rows []domain.VatRegisterEntry
	err = db.ReadSnapshot(ctx, s.db, func(tx *gorm.DB) error {
		var err error
		rows, err = s.repo.List(ctx, tx, companyID, domain.ListFilter{Register: register, From: from, To: to})
		return err
	})
	if err != nil {
		s.log.Error("list vat register failed",
			zap.String("company_id", companyID.String()),
			zap.String("register", string(register)),
			zap.Error(err),
		)
		return domain.ListRegisterResponse{}, err
	}
	if rows == nil {
		rows = []domain.VatRegisterEntry{}
	}

	resp := domain.ListRegisterResponse{
		Register:         register,
		Entries:          rows,
		Summary:          domain.Summarize(rows),
		TotalTaxableBase: decimal.Zero,
		TotalTaxAmount:   decimal.Zero,
	}
	for _, row := range rows {
		resp.TotalTaxableBase = resp.TotalTaxableBase.Add(row.TaxableBase)
		resp.TotalTaxAmount = resp.TotalTaxAmount.Add(row.TaxAmount)
	}
	return resp, nil
}

func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, domain.ErrInvalidRange
	}
	parsed, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, domain.ErrInvalidRange
	}
	return parsed.UTC(), nil
}
