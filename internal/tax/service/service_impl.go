package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/partita/internal/audit/domain"
	"github.com/smallbiznis/partita/internal/clock"
	"github.com/smallbiznis/partita/internal/companyctx"
	taxdomain "github.com/smallbiznis/partita/internal/tax/domain"
	"github.com/smallbiznis/partita/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Repository taxdomain.Repository
	Audit      auditdomain.Service
	Clock      clock.Clock `optional:"true"`
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  taxdomain.Repository
	audit auditdomain.Service
	clock clock.Clock
}

func NewService(p ServiceParam) taxdomain.Service {
	c := p.Clock
	if c == nil {
		c = clock.System()
	}
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("tax.service"),
		genID: p.GenID,
		repo:  p.Repository,
		audit: p.Audit,
		clock: c,
	}
}

func (s *Service) Create(ctx context.Context, req taxdomain.CreateRequest) (taxdomain.TaxCode, error) {
	companyID, ok := companyctx.CompanyIDFromContext(ctx)
	if !ok {
		return taxdomain.TaxCode{}, taxdomain.ErrInvalidCompany
	}

	enabled := true
	if req.IsEnabled != nil {
		enabled = *req.IsEnabled
	}

	now := s.clock.Now().UTC()
	code := taxdomain.TaxCode{
		ID:          s.genID.Generate(),
		CompanyID:   companyID,
		Code:        strings.ToUpper(strings.TrimSpace(req.Code)),
		Description: strings.TrimSpace(req.Description),
		Rate:        req.Rate,
		IsEnabled:   enabled,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := code.Validate(); err != nil {
		return taxdomain.TaxCode{}, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, &code); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return taxdomain.ErrDuplicateTaxCode
			}
			return err
		}
		targetID := code.ID.String()
		return s.audit.AuditLogTx(ctx, tx, "tax_code.create", "tax_code", &targetID, map[string]any{
			"code": code.Code,
			"rate": code.Rate.String(),
		})
	})
	if err != nil {
		return taxdomain.TaxCode{}, err
	}
	return code, nil
}

func (s *Service) Get(ctx context.Context, id string) (taxdomain.TaxCode, error) {
	companyID, ok := companyctx.CompanyIDFromContext(ctx)
	if !ok {
		return taxdomain.TaxCode{}, taxdomain.ErrInvalidCompany
	}
	taxID, err := parseID(id)
	if err != nil {
		return taxdomain.TaxCode{}, err
	}
	item, err := s.repo.FindByID(ctx, s.db, companyID, taxID)
	if err != nil {
		return taxdomain.TaxCode{}, err
	}
	if item == nil {
		return taxdomain.TaxCode{}, taxdomain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) List(ctx context.Context, req taxdomain.ListRequest) ([]taxdomain.TaxCode, error) {
	companyID, ok := companyctx.CompanyIDFromContext(ctx)
	if !ok {
		return nil, taxdomain.ErrInvalidCompany
	}
	items, err := s.repo.List(ctx, s.db, companyID, req)
	if err != nil {
		return nil, err
	}
	out := make([]taxdomain.TaxCode, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		out = append(out, *item)
	}
	return out, nil
}

// Update edits description, rate and enablement. Already posted VAT rows keep
// the rate they captured.
func (s *Service) Update(ctx context.Context, req taxdomain.UpdateRequest) (taxdomain.TaxCode, error) {
	companyID, ok := companyctx.CompanyIDFromContext(ctx)
	if !ok {
		return taxdomain.TaxCode{}, taxdomain.ErrInvalidCompany
	}
	taxID, err := parseID(req.ID)
	if err != nil {
		return taxdomain.TaxCode{}, err
	}

	var updated taxdomain.TaxCode
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := s.repo.FindByID(ctx, tx, companyID, taxID)
		if err != nil {
			return err
		}
		if item == nil {
			return taxdomain.ErrNotFound
		}
		previousRate := item.Rate

		if req.Description != nil {
			item.Description = strings.TrimSpace(*req.Description)
		}
		if req.Rate != nil {
			item.Rate = *req.Rate
		}
		if req.IsEnabled != nil {
			item.IsEnabled = *req.IsEnabled
		}
		if err := item.Validate(); err != nil {
			return err
		}
		item.UpdatedAt = s.clock.Now().UTC()

		if err := s.repo.Update(ctx, tx, item); err != nil {
			return err
		}
		updated = *item

		targetID := item.ID.String()
		return s.audit.AuditLogTx(ctx, tx, "tax_code.update", "tax_code", &targetID, map[string]any{
			"code":          item.Code,
			"previous_rate": previousRate.String(),
			"rate":          item.Rate.String(),
			"is_enabled":    item.IsEnabled,
		})
	})
	if err != nil {
		return taxdomain.TaxCode{}, err
	}
	return updated, nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, taxdomain.ErrInvalidID
	}
	return id, nil
}
