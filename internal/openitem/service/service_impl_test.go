package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/partita/internal/openitem/domain"
	"github.com/smallbiznis/partita/internal/openitem/repository"
	"github.com/smallbiznis/partita/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestListOpenItemsByDirection(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.Provide()
	svc := New(Params{DB: db, Log: zap.NewNop(), Repo: repo})

	companyID := snowflake.ID(5005)
	ctx := testutil.CompanyContext(companyID, "viewer-1")
	now := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)

	// counterparty 7 is both a customer (receivable 40) and a supplier (payable 41)
	require.NoError(t, db.Exec(
		`INSERT INTO counterparties (id, company_id, name, vat_number, receivable_account_id, payable_account_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		7, companyID, "Rossi Srl", "", 40, 41, now, now,
	).Error)

	due := now.AddDate(0, 1, 0)
	items := []domain.OpenItem{
		{ID: 1, CompanyID: companyID, CounterpartyID: 7, AccountID: 41, EntryID: 100, DueDate: &due, Amount: decimal.NewFromInt(122), Movement: domain.MovementOpenDebit, Status: domain.StatusOpen, CreatedAt: now},
		{ID: 2, CompanyID: companyID, CounterpartyID: 7, AccountID: 40, EntryID: 101, Amount: decimal.NewFromInt(50), Movement: domain.MovementOpenCredit, Status: domain.StatusOpen, CreatedAt: now},
		{ID: 3, CompanyID: companyID, CounterpartyID: 7, AccountID: 41, EntryID: 102, Amount: decimal.NewFromInt(10), Movement: domain.MovementOpenDebit, Status: domain.StatusOpen, CreatedAt: now},
	}
	require.NoError(t, repo.Insert(context.Background(), db, items))

	closed, err := repo.MarkClosed(context.Background(), db, companyID, []snowflake.ID{3}, 200, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), closed)

	again, err := repo.MarkClosed(context.Background(), db, companyID, []snowflake.ID{3}, 201, now)
	require.NoError(t, err)
	assert.Zero(t, again)

	payables, err := svc.ListOpenItems(ctx, domain.ListOpenItemsRequest{Direction: "payable"})
	require.NoError(t, err)
	require.Len(t, payables, 1)
	assert.Equal(t, snowflake.ID(1), payables[0].ID)
	assert.True(t, payables[0].Amount.Equal(decimal.NewFromInt(122)))

	receivables, err := svc.ListOpenItems(ctx, domain.ListOpenItemsRequest{Direction: "receivable", CounterpartyID: "7"})
	require.NoError(t, err)
	require.Len(t, receivables, 1)
	assert.Equal(t, snowflake.ID(2), receivables[0].ID)

	dueSoon, err := svc.ListOpenItems(ctx, domain.ListOpenItemsRequest{Direction: "payable", DueBefore: "2025-01-31"})
	require.NoError(t, err)
	assert.Empty(t, dueSoon)

	_, err = svc.ListOpenItems(ctx, domain.ListOpenItemsRequest{Direction: "sideways"})
	assert.ErrorIs(t, err, domain.ErrInvalidDirection)

	history, err := svc.History(ctx, "7")
	require.NoError(t, err)
	assert.Len(t, history, 3)

	got, err := svc.GetOpenItem(ctx, "3")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusClosed, got.Status)
	require.NotNil(t, got.ClosedByEntryID)
	assert.Equal(t, snowflake.ID(200), *got.ClosedByEntryID)
}
