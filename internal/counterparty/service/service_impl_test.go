package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/smallbiznis/partita/internal/account/domain"
	accountrepo "github.com/smallbiznis/partita/internal/account/repository"
	auditrepo "github.com/smallbiznis/partita/internal/audit/repository"
	auditservice "github.com/smallbiznis/partita/internal/audit/service"
	"github.com/smallbiznis/partita/internal/counterparty/domain"
	"github.com/smallbiznis/partita/internal/counterparty/repository"
	"github.com/smallbiznis/partita/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const companyID = snowflake.ID(2002)

func seedAccount(t *testing.T, db *gorm.DB, id snowflake.ID, code string, kind accountdomain.Kind) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, accountrepo.Provide().Insert(context.Background(), db, &accountdomain.Account{
		ID: id, CompanyID: companyID, Code: code, Description: code, Kind: kind, CreatedAt: now, UpdatedAt: now,
	}))
}

func setup(t *testing.T) (*gorm.DB, domain.Service, context.Context) {
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
	return db, svc, testutil.CompanyContext(companyID, "accountant-1")
}

func TestCreateCounterpartyValidatesSubAccounts(t *testing.T) {
	db, svc, ctx := setup(t)
	seedAccount(t, db, 10, "201", accountdomain.KindMastro)
	seedAccount(t, db, 11, "201.01", accountdomain.KindConto)
	seedAccount(t, db, 12, "201.01.001", accountdomain.KindSottoconto)

	_, err := svc.Create(ctx, domain.CreateCounterpartyRequest{Name: "Fornitore X", PayableAccountID: "11"})
	assert.ErrorIs(t, err, domain.ErrInvalidAccount)

	_, err = svc.Create(ctx, domain.CreateCounterpartyRequest{Name: "Fornitore X", PayableAccountID: "99"})
	assert.ErrorIs(t, err, accountdomain.ErrNotFound)

	_, err = svc.Create(ctx, domain.CreateCounterpartyRequest{Name: "Fornitore X"})
	assert.ErrorIs(t, err, domain.ErrMissingAccount)

	created, err := svc.Create(ctx, domain.CreateCounterpartyRequest{Name: " Fornitore X ", VatNumber: "it01234567890", PayableAccountID: "12"})
	require.NoError(t, err)
	assert.Equal(t, "Fornitore X", created.Name)
	assert.Equal(t, "IT01234567890", created.VatNumber)

	got, err := svc.GetByID(ctx, created.ID.String())
	require.NoError(t, err)
	require.NotNil(t, got.PayableAccountID)
	assert.Equal(t, snowflake.ID(12), *got.PayableAccountID)
	assert.Nil(t, got.ReceivableAccountID)

	list, err := svc.List(ctx, domain.ListCounterpartyRequest{})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	subs, err := NewDirectory(repository.Provide()).SubAccounts(ctx, db, companyID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, got.PayableAccountID, subs.PayableAccountID)

	_, err = NewDirectory(repository.Provide()).SubAccounts(ctx, db, companyID, snowflake.ID(404))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
