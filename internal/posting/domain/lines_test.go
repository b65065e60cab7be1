package domain

import (
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	fndomain "github.com/smallbiznis/partita/internal/accountingfunction/domain"
	taxdomain "github.com/smallbiznis/partita/internal/tax/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var d = decimal.RequireFromString

func TestPlaceVatAppendsTemplateLine(t *testing.T) {
	lines := []Line{
		{AccountID: 10, Debit: d("100"), Credit: decimal.Zero},
		{AccountID: 20, Debit: decimal.Zero, Credit: d("122")},
	}
	template := &fndomain.PredefinedLine{AccountID: 30, Side: fndomain.SideDebit, Role: fndomain.RoleVAT}
	rates := map[snowflake.ID]taxdomain.TaxCode{7: {ID: 7, Rate: d("22")}}

	out, placements, err := PlaceVat(lines, []VatLine{{TaxCodeID: 7, TaxableBase: d("100"), TaxAmount: d("22")}}, rates, template)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, snowflake.ID(30), out[2].AccountID)
	assert.True(t, out[2].Debit.Equal(d("22")))
	assert.Equal(t, "IVA 22%", out[2].Description)
	require.Len(t, placements, 1)
	assert.Equal(t, 2, placements[0].LineIdx)
	assert.True(t, placements[0].Rate.Equal(d("22")))
	assert.NoError(t, CheckBalance(out))
	assert.Len(t, lines, 2)
}

func TestPlaceVatReusesSuppliedLine(t *testing.T) {
	lines := []Line{
		{AccountID: 10, Debit: d("100"), Credit: decimal.Zero},
		{AccountID: 30, Debit: d("22"), Credit: decimal.Zero},
		{AccountID: 20, Debit: decimal.Zero, Credit: d("122")},
	}
	template := &fndomain.PredefinedLine{AccountID: 30, Side: fndomain.SideDebit}
	rates := map[snowflake.ID]taxdomain.TaxCode{7: {ID: 7, Rate: d("22")}}

	out, placements, err := PlaceVat(lines, []VatLine{{TaxCodeID: 7, TaxableBase: d("100"), TaxAmount: d("22")}}, rates, template)
	require.NoError(t, err)
	assert.Len(t, out, 3)
	require.Len(t, placements, 1)
	assert.Equal(t, 1, placements[0].LineIdx)
}

func TestPlaceVatSkipsZeroTaxAndNeedsTemplate(t *testing.T) {
	lines := []Line{{AccountID: 10, Debit: d("100"), Credit: decimal.Zero}}
	rates := map[snowflake.ID]taxdomain.TaxCode{7: {ID: 7, Rate: decimal.Zero}}

	out, placements, err := PlaceVat(lines, []VatLine{{TaxCodeID: 7, TaxableBase: d("100"), TaxAmount: decimal.Zero}}, rates, nil)
	require.NoError(t, err)
	assert.Len(t, out, 1)
	assert.Empty(t, placements)

	_, _, err = PlaceVat(lines, []VatLine{{TaxCodeID: 7, TaxableBase: d("100"), TaxAmount: d("1")}}, rates, nil)
	assert.ErrorIs(t, err, ErrMissingVatTemplate)

	template := &fndomain.PredefinedLine{AccountID: 30, Side: fndomain.SideCredit}
	_, _, err = PlaceVat(lines, []VatLine{{TaxCodeID: 8, TaxableBase: d("100"), TaxAmount: d("1")}}, rates, template)
	assert.ErrorIs(t, err, taxdomain.ErrNotFound)
}

func TestCheckBalance(t *testing.T) {
	assert.NoError(t, CheckBalance([]Line{
		{Debit: d("10.50"), Credit: decimal.Zero},
		{Debit: decimal.Zero, Credit: d("10.5")},
	}))
	assert.ErrorIs(t, CheckBalance([]Line{
		{Debit: d("10"), Credit: decimal.Zero},
		{Debit: decimal.Zero, Credit: d("9.99")},
	}), ErrImbalanced)
}
