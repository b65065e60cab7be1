package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/partita/internal/vatregister/domain"
	"gorm.io/gorm"
)

const rowColumns = `id, company_id, register, entry_id, line_id, protocol_number, registration_date, document_date,
	document_number, counterparty_id, tax_code_id, taxable_base, rate, tax_amount, created_at`

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, tx *gorm.DB, rows []domain.VatRegisterEntry) error {
	for _, row := range rows {
		err := tx.WithContext(ctx).Exec(
			`INSERT INTO vat_register_entries (`+rowColumns+`)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			row.ID,
			row.CompanyID,
			row.Register,
			row.EntryID,
			row.LineID,
			row.ProtocolNumber,
			row.RegistrationDate,
			row.DocumentDate,
			row.DocumentNumber,
			row.CounterpartyID,
			row.TaxCodeID,
			row.TaxableBase,
			row.Rate,
			row.TaxAmount,
			row.CreatedAt,
		).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repo) List(ctx context.Context, tx *gorm.DB, companyID snowflake.ID, filter domain.ListFilter) ([]domain.VatRegisterEntry, error) {
	var rows []domain.VatRegisterEntry
	err := tx.WithContext(ctx).Raw(
		`SELECT `+rowColumns+` FROM vat_register_entries
		 WHERE company_id = ? AND register = ? AND registration_date >= ? AND registration_date <= ?
		 ORDER BY registration_date ASC, protocol_number ASC, id ASC`,
		companyID,
		filter.Register,
		filter.From.UTC(),
		filter.To.UTC(),
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) ListByEntry(ctx context.Context, tx *gorm.DB, companyID, entryID snowflake.ID) ([]domain.VatRegisterEntry, error) {
	var rows []domain.VatRegisterEntry
	err := tx.WithContext(ctx).Raw(
		`SELECT `+rowColumns+` FROM vat_register_entries
		 WHERE company_id = ? AND entry_id = ?
		 ORDER BY id ASC`,
		companyID,
		entryID,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
