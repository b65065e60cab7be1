package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/partita/internal/accountingfunction/domain"
	"github.com/smallbiznis/partita/pkg/db"
	"gorm.io/gorm"
)

const functionColumns = `id, company_id, code, function_key, name, category, type, created_at, updated_at`

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, tx *gorm.DB, fn *domain.AccountingFunction) error {
	return tx.WithContext(ctx).Exec(
		`INSERT INTO accounting_functions (`+functionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		fn.ID,
		fn.CompanyID,
		fn.Code,
		fn.Key,
		fn.Name,
		fn.Category,
		fn.Type,
		fn.CreatedAt,
		fn.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, tx *gorm.DB, fn *domain.AccountingFunction) error {
	return tx.WithContext(ctx).Exec(
		`UPDATE accounting_functions SET function_key = ?, name = ?, category = ?, type = ?, updated_at = ?
		 WHERE company_id = ? AND id = ?`,
		fn.Key,
		fn.Name,
		fn.Category,
		fn.Type,
		fn.UpdatedAt,
		fn.CompanyID,
		fn.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, tx *gorm.DB, companyID, id snowflake.ID) error {
	return tx.WithContext(ctx).Exec(
		`DELETE FROM accounting_functions WHERE company_id = ? AND id = ?`,
		companyID,
		id,
	).Error
}

func (r *repo) FindByID(ctx context.Context, tx *gorm.DB, companyID, id snowflake.ID, forUpdate bool) (*domain.AccountingFunction, error) {
	query := `SELECT ` + functionColumns + ` FROM accounting_functions WHERE company_id = ? AND id = ?`
	if forUpdate {
		query += db.ForUpdate(tx)
	}
	return r.findOne(ctx, tx, query, companyID, id)
}

func (r *repo) FindByCode(ctx context.Context, tx *gorm.DB, companyID snowflake.ID, code int64) (*domain.AccountingFunction, error) {
	return r.findOne(ctx, tx,
		`SELECT `+functionColumns+` FROM accounting_functions WHERE company_id = ? AND code = ?`,
		companyID, code,
	)
}

func (r *repo) FindByKey(ctx context.Context, tx *gorm.DB, companyID snowflake.ID, key string) (*domain.AccountingFunction, error) {
	return r.findOne(ctx, tx,
		`SELECT `+functionColumns+` FROM accounting_functions WHERE company_id = ? AND function_key = ?`,
		companyID, key,
	)
}

func (r *repo) findOne(ctx context.Context, tx *gorm.DB, query string, args ...any) (*domain.AccountingFunction, error) {
	var fn domain.AccountingFunction
	if err := tx.WithContext(ctx).Raw(query, args...).Scan(&fn).Error; err != nil {
		return nil, err
	}
	if fn.ID == 0 {
		return nil, nil
	}
	lines, err := r.ListLines(ctx, tx, fn.CompanyID, []snowflake.ID{fn.ID})
	if err != nil {
		return nil, err
	}
	fn.Lines = lines
	return &fn, nil
}

func (r *repo) List(ctx context.Context, tx *gorm.DB, companyID snowflake.ID, category domain.Category) ([]*domain.AccountingFunction, error) {
	var items []*domain.AccountingFunction
	stmt := tx.WithContext(ctx).
		Model(&domain.AccountingFunction{}).
		Where("company_id = ?", companyID)
	if category != "" {
		stmt = stmt.Where("category = ?", category)
	}
	if err := stmt.Order("code asc").Find(&items).Error; err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return items, nil
	}

	ids := make([]snowflake.ID, 0, len(items))
	byID := make(map[snowflake.ID]*domain.AccountingFunction, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
		byID[item.ID] = item
	}
	lines, err := r.ListLines(ctx, tx, companyID, ids)
	if err != nil {
		return nil, err
	}
	for _, line := range lines {
		if fn, ok := byID[line.FunctionID]; ok {
			fn.Lines = append(fn.Lines, line)
		}
	}
	return items, nil
}

func (r *repo) MaxCode(ctx context.Context, tx *gorm.DB, companyID snowflake.ID) (int64, error) {
	var max int64
	err := tx.WithContext(ctx).Raw(
		`SELECT COALESCE(MAX(code), 0) FROM accounting_functions WHERE company_id = ?`,
		companyID,
	).Scan(&max).Error
	return max, err
}

func (r *repo) CountEntries(ctx context.Context, tx *gorm.DB, companyID, id snowflake.ID) (int64, error) {
	var count int64
	err := tx.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM journal_entries WHERE company_id = ? AND function_id = ?`,
		companyID,
		id,
	).Scan(&count).Error
	return count, err
}

func (r *repo) InsertLines(ctx context.Context, tx *gorm.DB, lines []domain.PredefinedLine) error {
	for _, line := range lines {
		err := tx.WithContext(ctx).Exec(
			`INSERT INTO predefined_lines (id, company_id, function_id, line_no, account_id, side, description, role)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			line.ID,
			line.CompanyID,
			line.FunctionID,
			line.LineNo,
			line.AccountID,
			line.Side,
			line.Description,
			line.Role,
		).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repo) DeleteLines(ctx context.Context, tx *gorm.DB, companyID, functionID snowflake.ID) error {
	return tx.WithContext(ctx).Exec(
		`DELETE FROM predefined_lines WHERE company_id = ? AND function_id = ?`,
		companyID,
		functionID,
	).Error
}

func (r *repo) ListLines(ctx context.Context, tx *gorm.DB, companyID snowflake.ID, functionIDs []snowflake.ID) ([]domain.PredefinedLine, error) {
	if len(functionIDs) == 0 {
		return nil, nil
	}
	var lines []domain.PredefinedLine
	err := tx.WithContext(ctx).Raw(
		`SELECT id, company_id, function_id, line_no, account_id, side, description, role
		 FROM predefined_lines
		 WHERE company_id = ? AND function_id IN ?
		 ORDER BY function_id ASC, line_no ASC`,
		companyID,
		functionIDs,
	).Scan(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}
