package repository

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/partita/internal/account/domain"
	"github.com/smallbiznis/partita/pkg/db"
	"gorm.io/gorm"
)

const accountColumns = `id, company_id, code, description, kind, nature, parent_id, locked, created_at, updated_at`

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, tx *gorm.DB, account *domain.Account) error {
	return tx.WithContext(ctx).Exec(
		`INSERT INTO accounts (`+accountColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		account.ID,
		account.CompanyID,
		account.Code,
		account.Description,
		account.Kind,
		account.Nature,
		account.ParentID,
		account.Locked,
		account.CreatedAt,
		account.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, tx *gorm.DB, companyID, id snowflake.ID) (*domain.Account, error) {
	return r.findByID(ctx, tx, companyID, id, false)
}

func (r *repo) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, companyID, id snowflake.ID) (*domain.Account, error) {
	return r.findByID(ctx, tx, companyID, id, true)
}

func (r *repo) findByID(ctx context.Context, tx *gorm.DB, companyID, id snowflake.ID, forUpdate bool) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE company_id = ? AND id = ?`
	if forUpdate {
		query += db.ForUpdate(tx)
	}

	var account domain.Account
	if err := tx.WithContext(ctx).Raw(query, companyID, id).Scan(&account).Error; err != nil {
		return nil, err
	}
	if account.ID == 0 {
		return nil, nil
	}
	return &account, nil
}

func (r *repo) FindByIDs(ctx context.Context, tx *gorm.DB, companyID snowflake.ID, ids []snowflake.ID) ([]*domain.Account, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var accounts []*domain.Account
	err := tx.WithContext(ctx).Raw(
		`SELECT `+accountColumns+` FROM accounts WHERE company_id = ? AND id IN ?`,
		companyID,
		ids,
	).Scan(&accounts).Error
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

// LockByIDs row-locks the given accounts in ascending id order.
func (r *repo) LockByIDs(ctx context.Context, tx *gorm.DB, companyID snowflake.ID, ids []snowflake.ID) error {
	if len(ids) == 0 {
		return nil
	}
	var locked []snowflake.ID
	return tx.WithContext(ctx).Raw(
		`SELECT id FROM accounts WHERE company_id = ? AND id IN ? ORDER BY id ASC`+db.ForUpdate(tx),
		companyID,
		ids,
	).Scan(&locked).Error
}

func (r *repo) ListAll(ctx context.Context, tx *gorm.DB, companyID snowflake.ID) ([]*domain.Account, error) {
	var accounts []*domain.Account
	err := tx.WithContext(ctx).Raw(
		`SELECT `+accountColumns+` FROM accounts WHERE company_id = ? ORDER BY code ASC`,
		companyID,
	).Scan(&accounts).Error
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *repo) List(ctx context.Context, tx *gorm.DB, companyID snowflake.ID, filter domain.ListFilter) ([]*domain.Account, error) {
	var accounts []*domain.Account
	stmt := tx.WithContext(ctx).
		Model(&domain.Account{}).
		Where("company_id = ?", companyID)
	if filter.Kind != "" {
		stmt = stmt.Where("kind = ?", filter.Kind)
	}
	if filter.Nature != "" {
		stmt = stmt.Where("nature = ?", filter.Nature)
	}
	if prefix := strings.TrimSpace(filter.CodePrefix); prefix != "" {
		stmt = stmt.Where("code LIKE ?", prefix+"%")
	}
	if err := stmt.Order("code asc").Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *repo) SiblingCodes(ctx context.Context, tx *gorm.DB, companyID snowflake.ID, kind domain.Kind, parentID *snowflake.ID) ([]string, error) {
	var codes []string
	stmt := tx.WithContext(ctx).
		Model(&domain.Account{}).
		Where("company_id = ? AND kind = ?", companyID, kind)
	if parentID == nil {
		stmt = stmt.Where("parent_id IS NULL")
	} else {
		stmt = stmt.Where("parent_id = ?", *parentID)
	}
	if err := stmt.Pluck("code", &codes).Error; err != nil {
		return nil, err
	}
	return codes, nil
}

func (r *repo) UpdateCodes(ctx context.Context, tx *gorm.DB, companyID snowflake.ID, updates []domain.CodeUpdate) error {
	now := time.Now().UTC()
	for _, update := range updates {
		err := tx.WithContext(ctx).Exec(
			`UPDATE accounts SET code = ?, parent_id = ?, updated_at = ? WHERE company_id = ? AND id = ?`,
			update.Code,
			update.ParentID,
			now,
			companyID,
			update.ID,
		).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repo) UpdateLocked(ctx context.Context, tx *gorm.DB, companyID, id snowflake.ID, locked bool) error {
	return tx.WithContext(ctx).Exec(
		`UPDATE accounts SET locked = ?, updated_at = ? WHERE company_id = ? AND id = ?`,
		locked,
		time.Now().UTC(),
		companyID,
		id,
	).Error
}

func (r *repo) UpdateDescription(ctx context.Context, tx *gorm.DB, companyID, id snowflake.ID, description string) error {
	return tx.WithContext(ctx).Exec(
		`UPDATE accounts SET description = ?, updated_at = ? WHERE company_id = ? AND id = ?`,
		description,
		time.Now().UTC(),
		companyID,
		id,
	).Error
}

func (r *repo) CountReferences(ctx context.Context, tx *gorm.DB, companyID, id snowflake.ID) (domain.References, error) {
	var refs domain.References
	counts := []struct {
		query string
		args  []any
		dst   *int64
	}{
		{`SELECT COUNT(1) FROM accounts WHERE company_id = ? AND parent_id = ?`, []any{companyID, id}, &refs.Children},
		{`SELECT COUNT(1) FROM journal_lines WHERE company_id = ? AND account_id = ?`, []any{companyID, id}, &refs.JournalLines},
		{`SELECT COUNT(1) FROM predefined_lines WHERE company_id = ? AND account_id = ?`, []any{companyID, id}, &refs.PredefinedLines},
		{`SELECT COUNT(1) FROM counterparties WHERE company_id = ? AND (receivable_account_id = ? OR payable_account_id = ?)`, []any{companyID, id, id}, &refs.Counterparties},
	}
	for _, c := range counts {
		if err := tx.WithContext(ctx).Raw(c.query, c.args...).Scan(c.dst).Error; err != nil {
			return domain.References{}, err
		}
	}
	return refs, nil
}

func (r *repo) Delete(ctx context.Context, tx *gorm.DB, companyID, id snowflake.ID) error {
	return tx.WithContext(ctx).Exec(
		`DELETE FROM accounts WHERE company_id = ? AND id = ?`,
		companyID,
		id,
	).Error
}
