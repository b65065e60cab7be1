package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	accountdomain "github.com/smallbiznis/partita/internal/account/domain"
	"github.com/smallbiznis/partita/internal/companyctx"
	"github.com/smallbiznis/partita/internal/observability/tracing"
	"github.com/smallbiznis/partita/internal/reporting/domain"
	"github.com/smallbiznis/partita/pkg/db"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Repo     domain.Repository
	Accounts accountdomain.Repository
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	repo     domain.Repository
	accounts accountdomain.Repository
	tracer   trace.Tracer
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("reporting.service"),
		repo:     p.Repo,
		accounts: p.Accounts,
		tracer:   otel.Tracer("partita/reporting"),
	}
}

func (s *Service) Journal(ctx context.Context, req domain.JournalRequest) (domain.Journal, error) {
	companyID, ok := companyctx.CompanyIDFromContext(ctx)
	if !ok {
		return domain.Journal{}, domain.ErrInvalidCompany
	}
	from, to, err := parseRange(req.From, req.To)
	if err != nil {
		return domain.Journal{}, err
	}

	ctx, span := s.start(ctx, "journal")
	defer span.End()

	var rows []domain.JournalRow
	err = db.ReadSnapshot(ctx, s.db, func(tx *gorm.DB) error {
		var err error
		rows, err = s.repo.Journal(ctx, tx, companyID, from, to)
		return err
	})
	if err != nil {
		return domain.Journal{}, s.queryFailed(span, "journal", companyID, err)
	}
	if rows == nil {
		rows = []domain.JournalRow{}
	}

	report := domain.Journal{From: from, To: to, Rows: rows, TotalDebit: decimal.Zero, TotalCredit: decimal.Zero}
	for i := range rows {
		rows[i].Debit = rows[i].Debit.Round(2)
		rows[i].Credit = rows[i].Credit.Round(2)
		report.TotalDebit = report.TotalDebit.Add(rows[i].Debit)
		report.TotalCredit = report.TotalCredit.Add(rows[i].Credit)
	}
	return report, nil
}

func (s *Service) AccountCard(ctx context.Context, req domain.AccountCardRequest) (domain.AccountCard, error) {
	companyID, ok := companyctx.CompanyIDFromContext(ctx)
	if !ok {
		return domain.AccountCard{}, domain.ErrInvalidCompany
	}
	accountID, err := snowflake.ParseString(strings.TrimSpace(req.AccountID))
	if err != nil || accountID == 0 {
		return domain.AccountCard{}, domain.ErrInvalidAccount
	}
	from, to, err := parseRange(req.From, req.To)
	if err != nil {
		return domain.AccountCard{}, err
	}

	ctx, span := s.start(ctx, "account_card")
	defer span.End()

	var (
		account   *accountdomain.Account
		opening   decimal.Decimal
		movements []domain.CardMovement
	)
	err = db.ReadSnapshot(ctx, s.db, func(tx *gorm.DB) error {
		var err error
		account, err = s.accounts.FindByID(ctx, tx, companyID, accountID)
		if err != nil || account == nil {
			return err
		}
		opening, err = s.repo.OpeningBalance(ctx, tx, companyID, accountID, from)
		if err != nil {
			return err
		}
		movements, err = s.repo.CardMovements(ctx, tx, companyID, accountID, from, to)
		return err
	})
	if err != nil {
		return domain.AccountCard{}, s.queryFailed(span, "account_card", companyID, err)
	}
	if account == nil {
		return domain.AccountCard{}, domain.ErrAccountNotFound
	}
	if movements == nil {
		movements = []domain.CardMovement{}
	}

	closing, debit, credit := domain.RunBalance(opening, movements)
	return domain.AccountCard{
		AccountID:          account.ID,
		AccountCode:        account.Code,
		AccountDescription: account.Description,
		From:               from,
		To:                 to,
		OpeningBalance:     opening.Round(2),
		Movements:          movements,
		TotalDebit:         debit,
		TotalCredit:        credit,
		ClosingBalance:     closing,
	}, nil
}

func (s *Service) TrialBalance(ctx context.Context, req domain.TrialBalanceRequest) (domain.TrialBalance, error) {
	companyID, ok := companyctx.CompanyIDFromContext(ctx)
	if !ok {
		return domain.TrialBalance{}, domain.ErrInvalidCompany
	}
	asOf, err := parseDate(req.AsOf)
	if err != nil {
		return domain.TrialBalance{}, err
	}

	ctx, span := s.start(ctx, "trial_balance")
	defer span.End()

	var rows []domain.TrialBalanceRow
	err = db.ReadSnapshot(ctx, s.db, func(tx *gorm.DB) error {
		var err error
		rows, err = s.repo.TrialBalance(ctx, tx, companyID, asOf)
		return err
	})
	if err != nil {
		return domain.TrialBalance{}, s.queryFailed(span, "trial_balance", companyID, err)
	}

	settled, debit, credit := domain.SettleTrialBalance(rows)
	return domain.TrialBalance{
		AsOf:        asOf,
		Rows:        settled,
		TotalDebit:  debit,
		TotalCredit: credit,
	}, nil
}

func (s *Service) start(ctx context.Context, kind string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "reporting."+kind,
		trace.WithAttributes(tracing.SafeAttributes(attribute.String("report.kind", kind))...),
	)
}

func (s *Service) queryFailed(span trace.Span, kind string, companyID snowflake.ID, err error) error {
	s.log.Error("report query failed",
		zap.String("report", kind),
		zap.String("company_id", companyID.String()),
		zap.Error(err),
	)
	span.RecordError(tracing.SafeError(err))
	span.SetStatus(codes.Error, "query failed")
	return domain.ErrQueryFailed
}

func parseRange(fromValue, toValue string) (time.Time, time.Time, error) {
	from, err := parseDate(fromValue)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := parseDate(toValue)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, domain.ErrInvalidRange
	}
	return from, to, nil
}

func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, domain.ErrInvalidDate
	}
	parsed, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, domain.ErrInvalidDate
	}
	return parsed.UTC(), nil
}
