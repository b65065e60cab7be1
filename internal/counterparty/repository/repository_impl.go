package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/partita/internal/counterparty/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, counterparty *domain.Counterparty) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO counterparties (id, company_id, name, vat_number, receivable_account_id, payable_account_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		counterparty.ID,
		counterparty.CompanyID,
		counterparty.Name,
		counterparty.VatNumber,
		counterparty.ReceivableAccountID,
		counterparty.PayableAccountID,
		counterparty.CreatedAt,
		counterparty.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, companyID, id snowflake.ID) (*domain.Counterparty, error) {
	var counterparty domain.Counterparty
	err := db.WithContext(ctx).Raw(
		`SELECT id, company_id, name, vat_number, receivable_account_id, payable_account_id, created_at, updated_at
		 FROM counterparties WHERE company_id = ? AND id = ?`,
		companyID,
		id,
	).Scan(&counterparty).Error
	if err != nil {
		return nil, err
	}
	if counterparty.ID == 0 {
		return nil, nil
	}
	return &counterparty, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, companyID snowflake.ID, filter domain.ListCounterpartyFilter) ([]*domain.Counterparty, error) {
	var counterparties []*domain.Counterparty
	stmt := db.WithContext(ctx).
		Model(&domain.Counterparty{}).
		Where("company_id = ?", companyID)
	if name := strings.TrimSpace(filter.Name); name != "" {
		stmt = stmt.Where("name = ?", name)
	}
	if err := stmt.Order("name asc, id asc").Find(&counterparties).Error; err != nil {
		return nil, err
	}
	return counterparties, nil
}
