package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/partita/internal/reporting/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Journal(ctx context.Context, db *gorm.DB, companyID snowflake.ID, from, to time.Time) ([]domain.JournalRow, error) {
	var rows []domain.JournalRow
	err := db.WithContext(ctx).Raw(
		`SELECT e.id AS entry_id, e.protocol_number, e.registration_date, e.document_date, e.document_number,
		        e.counterparty_id, l.id AS line_id, l.line_no, l.account_id, a.code AS account_code,
		        a.description AS account_description, l.description, l.debit, l.credit
		 FROM journal_lines l
		 JOIN journal_entries e ON e.id = l.entry_id AND e.company_id = l.company_id
		 JOIN accounts a ON a.id = l.account_id AND a.company_id = l.company_id
		 WHERE l.company_id = ? AND e.registration_date >= ? AND e.registration_date <= ?
		 ORDER BY e.registration_date ASC, e.protocol_number ASC, l.id ASC`,
		companyID,
		from.UTC(),
		to.UTC(),
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) OpeningBalance(ctx context.Context, db *gorm.DB, companyID, accountID snowflake.ID, before time.Time) (decimal.Decimal, error) {
	var row struct {
		Balance decimal.Decimal
	}
	err := db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(l.debit), 0) - COALESCE(SUM(l.credit), 0) AS balance
		 FROM journal_lines l
		 JOIN journal_entries e ON e.id = l.entry_id AND e.company_id = l.company_id
		 WHERE l.company_id = ? AND l.account_id = ? AND e.registration_date < ?`,
		companyID,
		accountID,
		before.UTC(),
	).Scan(&row).Error
	if err != nil {
		return decimal.Zero, err
	}
	return row.Balance, nil
}

func (r *repo) CardMovements(ctx context.Context, db *gorm.DB, companyID, accountID snowflake.ID, from, to time.Time) ([]domain.CardMovement, error) {
	var rows []domain.CardMovement
	err := db.WithContext(ctx).Raw(
		`SELECT e.id AS entry_id, e.protocol_number, e.registration_date, e.document_number,
		        l.id AS line_id, l.description, l.debit, l.credit
		 FROM journal_lines l
		 JOIN journal_entries e ON e.id = l.entry_id AND e.company_id = l.company_id
		 WHERE l.company_id = ? AND l.account_id = ? AND e.registration_date >= ? AND e.registration_date <= ?
		 ORDER BY e.registration_date ASC, e.protocol_number ASC, l.id ASC`,
		companyID,
		accountID,
		from.UTC(),
		to.UTC(),
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) TrialBalance(ctx context.Context, db *gorm.DB, companyID snowflake.ID, asOf time.Time) ([]domain.TrialBalanceRow, error) {
	var rows []domain.TrialBalanceRow
	err := db.WithContext(ctx).Raw(
		`SELECT a.id AS account_id, a.code, a.description, a.kind, a.nature,
		        COALESCE(SUM(l.debit), 0) AS debit, COALESCE(SUM(l.credit), 0) AS credit
		 FROM journal_lines l
		 JOIN journal_entries e ON e.id = l.entry_id AND e.company_id = l.company_id
		 JOIN accounts a ON a.id = l.account_id AND a.company_id = l.company_id
		 WHERE l.company_id = ? AND e.registration_date <= ?
		 GROUP BY a.id, a.code, a.description, a.kind, a.nature
		 ORDER BY a.code ASC`,
		companyID,
		asOf.UTC(),
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
