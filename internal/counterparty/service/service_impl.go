package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/smallbiznis/partita/internal/account/domain"
	auditdomain "github.com/smallbiznis/partita/internal/audit/domain"
	"github.com/smallbiznis/partita/internal/clock"
	"github.com/smallbiznis/partita/internal/companyctx"
	"github.com/smallbiznis/partita/internal/counterparty/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Repo     domain.Repository
	Accounts accountdomain.Repository
	Audit    auditdomain.Service
	Clock    clock.Clock `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	repo     domain.Repository
	accounts accountdomain.Repository
	audit    auditdomain.Service
	clock    clock.Clock
}

func New(p Params) domain.Service {
	c := p.Clock
	if c == nil {
		c = clock.System()
	}
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("counterparty.service"),
		genID:    p.GenID,
		repo:     p.Repo,
		accounts: p.Accounts,
		audit:    p.Audit,
		clock:    c,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateCounterpartyRequest) (domain.Counterparty, error) {
	companyID, ok := companyctx.CompanyIDFromContext(ctx)
	if !ok {
		return domain.Counterparty{}, domain.ErrInvalidCompany
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Counterparty{}, domain.ErrInvalidName
	}

	receivable, err := parseOptionalID(req.ReceivableAccountID)
	if err != nil {
		return domain.Counterparty{}, err
	}
	payable, err := parseOptionalID(req.PayableAccountID)
	if err != nil {
		return domain.Counterparty{}, err
	}
	if receivable == nil && payable == nil {
		return domain.Counterparty{}, domain.ErrMissingAccount
	}

	now := s.clock.Now().UTC()
	counterparty := domain.Counterparty{
		ID:                  s.genID.Generate(),
		CompanyID:           companyID,
		Name:                name,
		VatNumber:           strings.ToUpper(strings.TrimSpace(req.VatNumber)),
		ReceivableAccountID: receivable,
		PayableAccountID:    payable,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, id := range []*snowflake.ID{receivable, payable} {
			if id == nil {
				continue
			}
			account, err := s.accounts.FindByID(ctx, tx, companyID, *id)
			if err != nil {
				return err
			}
			if account == nil {
				return accountdomain.ErrNotFound
			}
			if account.Kind != accountdomain.KindSottoconto {
				return domain.ErrInvalidAccount
			}
		}

		if err := s.repo.Insert(ctx, tx, &counterparty); err != nil {
			return err
		}

		targetID := counterparty.ID.String()
		return s.audit.AuditLogTx(ctx, tx, "counterparty.create", "counterparty", &targetID, map[string]any{
			"name": counterparty.Name,
		})
	})
	if err != nil {
		return domain.Counterparty{}, err
	}
	return counterparty, nil
}

func (s *Service) List(ctx context.Context, req domain.ListCounterpartyRequest) ([]domain.Counterparty, error) {
	companyID, ok := companyctx.CompanyIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidCompany
	}

	items, err := s.repo.List(ctx, s.db, companyID, domain.ListCounterpartyFilter{Name: req.Name})
	if err != nil {
		return nil, err
	}
	counterparties := make([]domain.Counterparty, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		counterparties = append(counterparties, *item)
	}
	return counterparties, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Counterparty, error) {
	companyID, ok := companyctx.CompanyIDFromContext(ctx)
	if !ok {
		return domain.Counterparty{}, domain.ErrInvalidCompany
	}
	counterpartyID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || counterpartyID == 0 {
		return domain.Counterparty{}, domain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, companyID, counterpartyID)
	if err != nil {
		return domain.Counterparty{}, err
	}
	if item == nil {
		return domain.Counterparty{}, domain.ErrNotFound
	}
	return *item, nil
}

func parseOptionalID(value string) (*snowflake.ID, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	id, err := snowflake.ParseString(value)
	if err != nil || id == 0 {
		return nil, domain.ErrInvalidAccount
	}
	return &id, nil
}
