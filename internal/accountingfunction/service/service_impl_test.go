package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/smallbiznis/partita/internal/account/domain"
	accountrepo "github.com/smallbiznis/partita/internal/account/repository"
	"github.com/smallbiznis/partita/internal/accountingfunction/domain"
	"github.com/smallbiznis/partita/internal/accountingfunction/repository"
	auditrepo "github.com/smallbiznis/partita/internal/audit/repository"
	auditservice "github.com/smallbiznis/partita/internal/audit/service"
	"github.com/smallbiznis/partita/internal/ledgererr"
	"github.com/smallbiznis/partita/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const companyID = snowflake.ID(4004)

type fixture struct {
	db     *gorm.DB
	svc    domain.Service
	ctx    context.Context
	cost   snowflake.ID
	vat    snowflake.ID
	conto  snowflake.ID
	vendor snowflake.ID
}

func setup(t *testing.T) fixture {
	t.Helper()
	db := testutil.NewDB(t)
	node := testutil.NewNode(t)
	audit := auditservice.NewService(auditservice.Params{DB: db, Log: zap.NewNop(), GenID: node, Repo: auditrepo.Provide()})
	svc := New(Params{
		DB:       db,
		Log:      zap.NewNop(),
		GenID:    node,
		Repo:     repository.Provide(),
		Accounts: accountrepo.Provide(),
		Audit:    audit,
	})

	f := fixture{db: db, svc: svc, ctx: testutil.CompanyContext(companyID, "controller-1"), cost: 31, vat: 32, conto: 30, vendor: 33}
	now := time.Now().UTC()
	repo := accountrepo.Provide()
	for _, a := range []accountdomain.Account{
		{ID: 29, Code: "101", Kind: accountdomain.KindMastro},
		{ID: f.conto, Code: "101.01", Kind: accountdomain.KindConto},
		{ID: f.cost, Code: "101.01.001", Kind: accountdomain.KindSottoconto},
		{ID: f.vat, Code: "101.01.002", Kind: accountdomain.KindSottoconto},
		{ID: f.vendor, Code: "101.01.003", Kind: accountdomain.KindSottoconto},
	} {
		a.CompanyID = companyID
		a.Description = a.Code
		a.CreatedAt, a.UpdatedAt = now, now
		require.NoError(t, repo.Insert(context.Background(), db, &a))
	}
	return f
}

func (f fixture) purchaseRequest() domain.CreateFunctionRequest {
	return domain.CreateFunctionRequest{
		Name:     "Registrazione fattura acquisto",
		Key:      "reg-fatt-acq",
		Category: "Purchases",
		Type:     "financial",
		Lines: []domain.PredefinedLineInput{
			{AccountID: f.cost.String(), Side: "debit", Description: "Costo"},
			{AccountID: f.vat.String(), Side: "debit", Description: "IVA a credito", Role: "vat"},
			{AccountID: f.vendor.String(), Side: "credit", Description: "Fornitore", Role: "counterparty"},
		},
	}
}

func TestCreateFunctionAssignsSequentialCodes(t *testing.T) {
	f := setup(t)

	first, err := f.svc.CreateFunction(f.ctx, f.purchaseRequest())
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.Code)
	require.NotNil(t, first.Key)
	assert.Equal(t, "REG-FATT-ACQ", *first.Key)
	assert.Equal(t, domain.CategoryPurchases, first.Category)
	require.Len(t, first.Lines, 3)

	vat, ok := first.VATTemplate()
	require.True(t, ok)
	assert.Equal(t, f.vat, vat.AccountID)

	second, err := f.svc.CreateFunction(f.ctx, domain.CreateFunctionRequest{Name: "Giroconto", Category: "generic", Type: "primary"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.Code)

	got, err := f.svc.GetFunction(f.ctx, first.ID.String())
	require.NoError(t, err)
	assert.Len(t, got.Lines, 3)
	assert.Equal(t, 1, got.Lines[0].LineNo)

	purchases, err := f.svc.ListFunctions(f.ctx, domain.ListFunctionsRequest{Category: "purchases"})
	require.NoError(t, err)
	require.Len(t, purchases, 1)
	assert.Len(t, purchases[0].Lines, 3)
}

func TestCreateFunctionValidation(t *testing.T) {
	f := setup(t)

	_, err := f.svc.CreateFunction(f.ctx, domain.CreateFunctionRequest{Name: "x", Category: "payroll", Type: "primary"})
	assert.ErrorIs(t, err, domain.ErrInvalidCategory)

	req := f.purchaseRequest()
	req.Lines[0].AccountID = f.conto.String()
	_, err = f.svc.CreateFunction(f.ctx, req)
	assert.ErrorIs(t, err, domain.ErrLineAccount)

	req = f.purchaseRequest()
	req.Lines[0].Role = "vat"
	_, err = f.svc.CreateFunction(f.ctx, req)
	assert.ErrorIs(t, err, domain.ErrDuplicateRole)

	req = f.purchaseRequest()
	req.Lines[0].AccountID = "404"
	_, err = f.svc.CreateFunction(f.ctx, req)
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)

	_, err = f.svc.CreateFunction(f.ctx, f.purchaseRequest())
	require.NoError(t, err)
	_, err = f.svc.CreateFunction(f.ctx, f.purchaseRequest())
	assert.ErrorIs(t, err, domain.ErrDuplicateKey)
}

func TestFunctionKeysCannotBeNumeric(t *testing.T) {
	f := setup(t)

	req := f.purchaseRequest()
	req.Key = " 2025 "
	_, err := f.svc.CreateFunction(f.ctx, req)
	assert.ErrorIs(t, err, domain.ErrInvalidKey)
	assert.ErrorIs(t, err, ledgererr.ErrValidation)

	req = f.purchaseRequest()
	req.Key = "fatt-2025"
	fn, err := f.svc.CreateFunction(f.ctx, req)
	require.NoError(t, err)
	require.NotNil(t, fn.Key)
	assert.Equal(t, "FATT-2025", *fn.Key)

	numeric := "42"
	_, err = f.svc.UpdateFunction(f.ctx, domain.UpdateFunctionRequest{ID: fn.ID.String(), Key: &numeric})
	assert.ErrorIs(t, err, domain.ErrInvalidKey)
}

func TestUpdateFunctionFreezesIdentityOnceReferenced(t *testing.T) {
	f := setup(t)
	fn, err := f.svc.CreateFunction(f.ctx, f.purchaseRequest())
	require.NoError(t, err)

	renamed := "Fattura acquisto"
	updated, err := f.svc.UpdateFunction(f.ctx, domain.UpdateFunctionRequest{ID: fn.ID.String(), Name: &renamed})
	require.NoError(t, err)
	assert.Equal(t, renamed, updated.Name)

	require.NoError(t, f.db.Exec(
		`INSERT INTO journal_entries (id, company_id, function_id, author_id, protocol_number, registration_date, total_amount, description, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snowflake.ID(900), companyID, fn.ID, "accountant-1", 1, time.Now().UTC(), "0", "", time.Now().UTC(),
	).Error)

	category := "sales"
	_, err = f.svc.UpdateFunction(f.ctx, domain.UpdateFunctionRequest{ID: fn.ID.String(), Category: &category})
	assert.ErrorIs(t, err, domain.ErrFunctionInUse)
	assert.ErrorIs(t, err, ledgererr.ErrReferentialIntegrity)

	lines := []domain.PredefinedLineInput{{AccountID: f.cost.String(), Side: "debit"}}
	updated, err = f.svc.UpdateFunction(f.ctx, domain.UpdateFunctionRequest{ID: fn.ID.String(), Name: &renamed, Lines: &lines})
	require.NoError(t, err)
	require.Len(t, updated.Lines, 1)

	got, err := f.svc.GetFunction(f.ctx, fn.ID.String())
	require.NoError(t, err)
	assert.Len(t, got.Lines, 1)
	assert.Equal(t, domain.CategoryPurchases, got.Category)

	err = f.svc.DeleteFunction(f.ctx, fn.ID.String())
	assert.ErrorIs(t, err, domain.ErrFunctionInUse)
}

func TestDeleteFunction(t *testing.T) {
	f := setup(t)
	fn, err := f.svc.CreateFunction(f.ctx, f.purchaseRequest())
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteFunction(f.ctx, fn.ID.String()))
	_, err = f.svc.GetFunction(f.ctx, fn.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	var lines int64
	require.NoError(t, f.db.Table("predefined_lines").Count(&lines).Error)
	assert.Zero(t, lines)
}
