package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	taxdomain "github.com/smallbiznis/partita/internal/tax/domain"
	"gorm.io/gorm"
)

const taxCodeColumns = `id, company_id, code, description, rate, is_enabled, created_at, updated_at`

type repository struct{}

func Provide() taxdomain.Repository {
	return &repository{}
}

func (r *repository) Insert(ctx context.Context, db *gorm.DB, code *taxdomain.TaxCode) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO tax_codes (`+taxCodeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		code.ID,
		code.CompanyID,
		code.Code,
		code.Description,
		code.Rate,
		code.IsEnabled,
		code.CreatedAt,
		code.UpdatedAt,
	).Error
}

func (r *repository) FindByID(ctx context.Context, db *gorm.DB, companyID, id snowflake.ID) (*taxdomain.TaxCode, error) {
	var code taxdomain.TaxCode
	err := db.WithContext(ctx).Raw(
		`SELECT `+taxCodeColumns+` FROM tax_codes WHERE company_id = ? AND id = ?`,
		companyID,
		id,
	).Scan(&code).Error
	if err != nil {
		return nil, err
	}
	if code.ID == 0 {
		return nil, nil
	}
	return &code, nil
}

func (r *repository) FindByIDs(ctx context.Context, db *gorm.DB, companyID snowflake.ID, ids []snowflake.ID) ([]*taxdomain.TaxCode, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var codes []*taxdomain.TaxCode
	err := db.WithContext(ctx).Raw(
		`SELECT `+taxCodeColumns+` FROM tax_codes WHERE company_id = ? AND id IN ?`,
		companyID,
		ids,
	).Scan(&codes).Error
	if err != nil {
		return nil, err
	}
	return codes, nil
}

func (r *repository) List(ctx context.Context, db *gorm.DB, companyID snowflake.ID, filter taxdomain.ListRequest) ([]*taxdomain.TaxCode, error) {
	var items []*taxdomain.TaxCode
	stmt := db.WithContext(ctx).
		Model(&taxdomain.TaxCode{}).
		Where("company_id = ?", companyID)
	if code := strings.TrimSpace(filter.Code); code != "" {
		stmt = stmt.Where("code = ?", code)
	}
	if filter.IsEnabled != nil {
		stmt = stmt.Where("is_enabled = ?", *filter.IsEnabled)
	}
	if err := stmt.Order("code asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) Update(ctx context.Context, db *gorm.DB, code *taxdomain.TaxCode) error {
	return db.WithContext(ctx).Exec(
		`UPDATE tax_codes SET description = ?, rate = ?, is_enabled = ?, updated_at = ?
		 WHERE company_id = ? AND id = ?`,
		code.Description,
		code.Rate,
		code.IsEnabled,
		code.UpdatedAt,
		code.CompanyID,
		code.ID,
	).Error
}
