package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Summarize groups rows by rate, ascending.
func Summarize(rows []VatRegisterEntry) []RateTotal {
	byRate := make(map[string]*RateTotal)
	for _, row := range rows {
		key := row.Rate.String()
		total, ok := byRate[key]
		if !ok {
			total = &RateTotal{Rate: row.Rate, TaxableBase: decimal.Zero, TaxAmount: decimal.Zero}
			byRate[key] = total
		}
		total.TaxableBase = total.TaxableBase.Add(row.TaxableBase)
		total.TaxAmount = total.TaxAmount.Add(row.TaxAmount)
		total.Rows++
	}

	out := make([]RateTotal, 0, len(byRate))
	for _, total := range byRate {
		out = append(out, *total)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rate.LessThan(out[j].Rate) })
	return out
}
