package domain

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	fndomain "github.com/smallbiznis/partita/internal/accountingfunction/domain"
	taxdomain "github.com/smallbiznis/partita/internal/tax/domain"
)

// Line is a validated posting line before ids are assigned.
type Line struct {
	AccountID   snowflake.ID
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Description string
}

// Amount returns the non-zero side of the line.
func (l Line) Amount() decimal.Decimal {
	if l.Debit.IsPositive() {
		return l.Debit
	}
	return l.Credit
}

type VatLine struct {
	TaxCodeID   snowflake.ID
	TaxableBase decimal.Decimal
	TaxAmount   decimal.Decimal
}

// VatPlacement ties a VAT breakdown row to the line carrying its tax.
type VatPlacement struct {
	VatLine
	Rate    decimal.Decimal
	LineIdx int
}

// PlaceVat returns lines extended with the VAT lines the breakdown needs.
// A breakdown row with zero tax produces nothing. A row whose tax is already
// posted by a supplied line on the template's account and side reuses it.
func PlaceVat(lines []Line, vat []VatLine, rates map[snowflake.ID]taxdomain.TaxCode, template *fndomain.PredefinedLine) ([]Line, []VatPlacement, error) {
	out := append([]Line(nil), lines...)
	supplied := len(lines)

	var placements []VatPlacement
	for _, row := range vat {
		if row.TaxAmount.IsZero() {
			continue
		}
		if template == nil {
			return nil, nil, ErrMissingVatTemplate
		}
		code, ok := rates[row.TaxCodeID]
		if !ok {
			return nil, nil, taxdomain.ErrNotFound
		}

		idx := -1
		for i := 0; i < supplied; i++ {
			if out[i].AccountID != template.AccountID {
				continue
			}
			if (template.Side == fndomain.SideDebit && out[i].Debit.IsPositive()) ||
				(template.Side == fndomain.SideCredit && out[i].Credit.IsPositive()) {
				idx = i
				break
			}
		}
		if idx < 0 {
			line := Line{
				AccountID:   template.AccountID,
				Debit:       decimal.Zero,
				Credit:      decimal.Zero,
				Description: fmt.Sprintf("IVA %s%%", code.Rate.String()),
			}
			if template.Side == fndomain.SideDebit {
				line.Debit = row.TaxAmount
			} else {
				line.Credit = row.TaxAmount
			}
			out = append(out, line)
			idx = len(out) - 1
		}
		placements = append(placements, VatPlacement{VatLine: row, Rate: code.Rate, LineIdx: idx})
	}
	return out, placements, nil
}

// CheckBalance fails when total debits differ from total credits.
func CheckBalance(lines []Line) error {
	debit := decimal.Zero
	credit := decimal.Zero
	for _, line := range lines {
		debit = debit.Add(line.Debit)
		credit = credit.Add(line.Credit)
	}
	if !debit.Equal(credit) {
		return ErrImbalanced
	}
	return nil
}
