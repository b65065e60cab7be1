package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/smallbiznis/partita/internal/account/domain"
	fndomain "github.com/smallbiznis/partita/internal/accountingfunction/domain"
	auditdomain "github.com/smallbiznis/partita/internal/audit/domain"
	"github.com/smallbiznis/partita/internal/config"
	counterpartydomain "github.com/smallbiznis/partita/internal/counterparty/domain"
	"github.com/smallbiznis/partita/internal/ledgererr"
	openitemdomain "github.com/smallbiznis/partita/internal/openitem/domain"
	"github.com/smallbiznis/partita/internal/posting/domain"
	taxdomain "github.com/smallbiznis/partita/internal/tax/domain"
	vatdomain "github.com/smallbiznis/partita/internal/vatregister/domain"
	"github.com/smallbiznis/partita/pkg/db"
	"go.uber.org/fx"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StoreParams struct {
	fx.In

	DB           *gorm.DB
	Config       config.Config `optional:"true"`
	Accounts     accountdomain.Repository
	Functions    fndomain.Repository
	OpenItems    openitemdomain.Repository
	VatRegister  vatdomain.Repository
	Counterparty counterpartydomain.Directory
	TaxRates     taxdomain.RateReference
	Audit        auditdomain.Service
}

type store struct {
	db          *gorm.DB
	lockTimeout time.Duration
	accounts    accountdomain.Repository
	functions   fndomain.Repository
	openItems   openitemdomain.Repository
	vatRegister vatdomain.Repository
	directory   counterpartydomain.Directory
	rates       taxdomain.RateReference
	audit       auditdomain.Service
}

func NewStore(p StoreParams) domain.Store {
	return &store{
		db:          p.DB,
		lockTimeout: p.Config.PostingLockTimeout,
		accounts:    p.Accounts,
		functions:   p.Functions,
		openItems:   p.OpenItems,
		vatRegister: p.VatRegister,
		directory:   p.Counterparty,
		rates:       p.TaxRates,
		audit:       p.Audit,
	}
}

func (s *store) InTx(ctx context.Context, fn func(tx domain.Tx) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if s.lockTimeout > 0 && db.IsPostgres(tx) {
			stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.lockTimeout.Milliseconds())
			if err := tx.Exec(stmt).Error; err != nil {
				return err
			}
		}
		return fn(&storeTx{store: s, tx: tx})
	})
	if err == nil {
		return nil
	}
	if ledgererr.KindOf(err) != nil {
		return err
	}
	// A duplicate protocol can only come from a concurrent writer bypassing the sequence lock.
	if db.IsConcurrencyErr(err) || db.IsDuplicateKeyErr(err) {
		return fmt.Errorf("%w: %v", domain.ErrProtocolContention, err)
	}
	return err
}

func (s *store) FindEntry(ctx context.Context, companyID, id snowflake.ID) (*domain.EntryDetail, error) {
	var detail *domain.EntryDetail
	err := db.ReadSnapshot(ctx, s.db, func(tx *gorm.DB) error {
		var entry domain.JournalEntry
		err := tx.Raw(
			`SELECT `+entryColumns+` FROM journal_entries WHERE company_id = ? AND id = ?`,
			companyID,
			id,
		).Scan(&entry).Error
		if err != nil {
			return err
		}
		if entry.ID == 0 {
			return nil
		}

		var lines []domain.JournalLine
		err = tx.Raw(
			`SELECT `+lineColumns+` FROM journal_lines WHERE company_id = ? AND entry_id = ? ORDER BY line_no ASC`,
			companyID,
			id,
		).Scan(&lines).Error
		if err != nil {
			return err
		}
		detail = &domain.EntryDetail{JournalEntry: entry, Lines: lines}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

const (
	entryColumns = `id, company_id, function_id, author_id, protocol_number, registration_date, document_date,
	document_number, counterparty_id, total_amount, description, created_at`
	lineColumns = `id, company_id, entry_id, account_id, line_no, description, debit, credit`
)

type storeTx struct {
	store *store
	tx    *gorm.DB
}

func (t *storeTx) ResolveFunction(ctx context.Context, companyID snowflake.ID, ref string) (*fndomain.AccountingFunction, error) {
	ref = strings.TrimSpace(ref)
	if code, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return t.store.functions.FindByCode(ctx, t.tx, companyID, code)
	}
	return t.store.functions.FindByKey(ctx, t.tx, companyID, strings.ToUpper(ref))
}

func (t *storeTx) Accounts(ctx context.Context, companyID snowflake.ID, ids []snowflake.ID) (map[snowflake.ID]accountdomain.Account, error) {
	items, err := t.store.accounts.FindByIDs(ctx, t.tx, companyID, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[snowflake.ID]accountdomain.Account, len(items))
	for _, item := range items {
		if item != nil {
			out[item.ID] = *item
		}
	}
	return out, nil
}

func (t *storeTx) SubAccounts(ctx context.Context, companyID, counterpartyID snowflake.ID) (counterpartydomain.SubAccounts, error) {
	return t.store.directory.SubAccounts(ctx, t.tx, companyID, counterpartyID)
}

func (t *storeTx) TaxRates(ctx context.Context, companyID snowflake.ID, ids []snowflake.ID) (map[snowflake.ID]taxdomain.TaxCode, error) {
	return t.store.rates.Rates(ctx, t.tx, companyID, ids)
}

func (t *storeTx) NextProtocol(ctx context.Context, companyID snowflake.ID, now time.Time) (int64, error) {
	seed := domain.ProtocolSequence{CompanyID: companyID, NextNumber: 1, UpdatedAt: now}
	err := t.tx.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "company_id"}}, DoNothing: true}).
		Create(&seed).Error
	if err != nil {
		return 0, err
	}

	var seq domain.ProtocolSequence
	err = t.tx.WithContext(ctx).Raw(
		`SELECT company_id, next_number, updated_at FROM protocol_sequences WHERE company_id = ?`+db.ForUpdate(t.tx),
		companyID,
	).Scan(&seq).Error
	if err != nil {
		return 0, err
	}
	if seq.NextNumber < 1 {
		return 0, domain.ErrProtocolContention
	}

	result := t.tx.WithContext(ctx).Exec(
		`UPDATE protocol_sequences SET next_number = ?, updated_at = ? WHERE company_id = ? AND next_number = ?`,
		seq.NextNumber+1,
		now,
		companyID,
		seq.NextNumber,
	)
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected != 1 {
		return 0, domain.ErrProtocolContention
	}
	return seq.NextNumber, nil
}

func (t *storeTx) InsertEntry(ctx context.Context, entry domain.JournalEntry, lines []domain.JournalLine) error {
	err := t.tx.WithContext(ctx).Exec(
		`INSERT INTO journal_entries (`+entryColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.CompanyID,
		entry.FunctionID,
		entry.AuthorID,
		entry.ProtocolNumber,
		entry.RegistrationDate,
		entry.DocumentDate,
		entry.DocumentNumber,
		entry.CounterpartyID,
		entry.TotalAmount,
		entry.Description,
		entry.CreatedAt,
	).Error
	if err != nil {
		return err
	}

	for _, line := range lines {
		if err := t.tx.WithContext(ctx).Exec(
			`INSERT INTO journal_lines (`+lineColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			line.ID,
			line.CompanyID,
			line.EntryID,
			line.AccountID,
			line.LineNo,
			line.Description,
			line.Debit,
			line.Credit,
		).Error; err != nil {
			return err
		}
	}
	return nil
}

func (t *storeTx) LockOpenItems(ctx context.Context, companyID snowflake.ID, ids []snowflake.ID) ([]openitemdomain.OpenItem, error) {
	return t.store.openItems.LockByIDs(ctx, t.tx, companyID, ids)
}

func (t *storeTx) CloseOpenItems(ctx context.Context, companyID snowflake.ID, ids []snowflake.ID, entryID snowflake.ID, closedAt time.Time) (int64, error) {
	return t.store.openItems.MarkClosed(ctx, t.tx, companyID, ids, entryID, closedAt)
}

func (t *storeTx) InsertOpenItems(ctx context.Context, items []openitemdomain.OpenItem) error {
	return t.store.openItems.Insert(ctx, t.tx, items)
}

func (t *storeTx) InsertVatRows(ctx context.Context, rows []vatdomain.VatRegisterEntry) error {
	return t.store.vatRegister.Insert(ctx, t.tx, rows)
}

func (t *storeTx) Audit(ctx context.Context, action, targetType, targetID string, metadata map[string]any) error {
	if t.store.audit == nil {
		return nil
	}
	return t.store.audit.AuditLogTx(ctx, t.tx, action, targetType, &targetID, metadata)
}
