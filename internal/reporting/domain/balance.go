package domain

import "github.com/shopspring/decimal"

const amountScale = 2

// RunBalance fills the running balance of each movement in order and returns
// the card totals. Sums coming back from the database are rounded to cents
// first so float aggregation on sqlite does not leak into the figures.
func RunBalance(opening decimal.Decimal, movements []CardMovement) (closing, debit, credit decimal.Decimal) {
	closing = opening.Round(amountScale)
	debit, credit = decimal.Zero, decimal.Zero
	for i := range movements {
		m := &movements[i]
		m.Debit = m.Debit.Round(amountScale)
		m.Credit = m.Credit.Round(amountScale)
		closing = closing.Add(m.Debit).Sub(m.Credit)
		debit = debit.Add(m.Debit)
		credit = credit.Add(m.Credit)
		m.Balance = closing
	}
	return closing, debit, credit
}

// SettleTrialBalance rounds the aggregates, drops accounts whose debit and
// credit totals are both zero, and returns the grand totals.
func SettleTrialBalance(rows []TrialBalanceRow) ([]TrialBalanceRow, decimal.Decimal, decimal.Decimal) {
	out := make([]TrialBalanceRow, 0, len(rows))
	debit, credit := decimal.Zero, decimal.Zero
	for _, row := range rows {
		row.Debit = row.Debit.Round(amountScale)
		row.Credit = row.Credit.Round(amountScale)
		if row.Debit.IsZero() && row.Credit.IsZero() {
			continue
		}
		row.Balance = row.Debit.Sub(row.Credit)
		debit = debit.Add(row.Debit)
		credit = credit.Add(row.Credit)
		out = append(out, row)
	}
	return out, debit, credit
}
