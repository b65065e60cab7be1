package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/partita/internal/openitem/domain"
	"github.com/smallbiznis/partita/pkg/db"
	"gorm.io/gorm"
)

const itemColumns = `id, company_id, counterparty_id, account_id, entry_id, document_date, document_number, due_date,
	amount, movement, status, closes_item_id, closed_by_entry_id, closed_at, created_at`

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, tx *gorm.DB, items []domain.OpenItem) error {
	for _, item := range items {
		err := tx.WithContext(ctx).Exec(
			`INSERT INTO open_items (`+itemColumns+`)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			item.ID,
			item.CompanyID,
			item.CounterpartyID,
			item.AccountID,
			item.EntryID,
			item.DocumentDate,
			item.DocumentNumber,
			item.DueDate,
			item.Amount,
			item.Movement,
			item.Status,
			item.ClosesItemID,
			item.ClosedByEntryID,
			item.ClosedAt,
			item.CreatedAt,
		).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repo) LockByIDs(ctx context.Context, tx *gorm.DB, companyID snowflake.ID, ids []snowflake.ID) ([]domain.OpenItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []domain.OpenItem
	// company_id is not filtered here so the caller can tell foreign ids from unknown ones.
	err := tx.WithContext(ctx).Raw(
		`SELECT `+itemColumns+` FROM open_items WHERE id IN ? ORDER BY id ASC`+db.ForUpdate(tx),
		ids,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) MarkClosed(ctx context.Context, tx *gorm.DB, companyID snowflake.ID, ids []snowflake.ID, entryID snowflake.ID, closedAt time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := tx.WithContext(ctx).Exec(
		`UPDATE open_items SET status = ?, closed_by_entry_id = ?, closed_at = ?
		 WHERE company_id = ? AND id IN ? AND status = ?`,
		domain.StatusClosed,
		entryID,
		closedAt,
		companyID,
		ids,
		domain.StatusOpen,
	)
	return result.RowsAffected, result.Error
}

func (r *repo) FindByID(ctx context.Context, tx *gorm.DB, companyID, id snowflake.ID) (*domain.OpenItem, error) {
	var item domain.OpenItem
	err := tx.WithContext(ctx).Raw(
		`SELECT `+itemColumns+` FROM open_items WHERE company_id = ? AND id = ?`,
		companyID,
		id,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) ListOpen(ctx context.Context, tx *gorm.DB, companyID snowflake.ID, filter domain.ListFilter) ([]domain.OpenItem, error) {
	accountColumn := "c.receivable_account_id"
	if filter.Direction == domain.DirectionPayable {
		accountColumn = "c.payable_account_id"
	}

	stmt := tx.WithContext(ctx).
		Table("open_items AS oi").
		Select("oi.*").
		Joins("JOIN counterparties AS c ON c.id = oi.counterparty_id AND c.company_id = oi.company_id").
		Where("oi.company_id = ? AND oi.status = ?", companyID, domain.StatusOpen).
		Where("oi.account_id = " + accountColumn)
	if filter.CounterpartyID != nil {
		stmt = stmt.Where("oi.counterparty_id = ?", *filter.CounterpartyID)
	}
	if filter.DueBefore != nil {
		stmt = stmt.Where("oi.due_date IS NOT NULL AND oi.due_date <= ?", filter.DueBefore.UTC())
	}

	var items []domain.OpenItem
	err := stmt.
		Order("oi.due_date ASC, oi.document_date ASC, oi.id ASC").
		Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) History(ctx context.Context, tx *gorm.DB, companyID, counterpartyID snowflake.ID) ([]domain.OpenItem, error) {
	var items []domain.OpenItem
	err := tx.WithContext(ctx).Raw(
		`SELECT `+itemColumns+` FROM open_items
		 WHERE company_id = ? AND counterparty_id = ?
		 ORDER BY created_at ASC, id ASC`,
		companyID,
		counterpartyID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
