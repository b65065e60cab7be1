package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	accountdomain "github.com/smallbiznis/partita/internal/account/domain"
	accountrepo "github.com/smallbiznis/partita/internal/account/repository"
	postingdomain "github.com/smallbiznis/partita/internal/posting/domain"
	"github.com/smallbiznis/partita/internal/reporting/domain"
	"github.com/smallbiznis/partita/internal/reporting/repository"
	"github.com/smallbiznis/partita/internal/seed"
	"github.com/smallbiznis/partita/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var d = decimal.RequireFromString

type ledgerFixture struct {
	db       *gorm.DB
	node     *snowflake.Node
	svc      domain.Service
	ctx      context.Context
	accounts map[string]snowflake.ID
	protocol map[snowflake.ID]int64
}

func newLedgerFixture(t *testing.T, companies ...snowflake.ID) *ledgerFixture {
	t.Helper()
	db := testutil.NewDB(t)
	node := testutil.NewNode(t)

	f := &ledgerFixture{
		db:       db,
		node:     node,
		accounts: map[string]snowflake.ID{},
		protocol: map[snowflake.ID]int64{},
		svc: New(Params{
			DB:       db,
			Log:      zap.NewNop(),
			Repo:     repository.Provide(),
			Accounts: accountrepo.Provide(),
		}),
		ctx: testutil.CompanyContext(companies[0], "viewer-1"),
	}
	for _, companyID := range companies {
		require.NoError(t, seed.EnsureCompany(db, node, companyID, zap.NewNop()))
		var accounts []accountdomain.Account
		require.NoError(t, db.Where("company_id = ?", companyID).Find(&accounts).Error)
		for _, account := range accounts {
			f.accounts[companyID.String()+"/"+account.Code] = account.ID
		}
	}
	return f
}

type fixtureLine struct {
	code   string
	debit  string
	credit string
}

func (f *ledgerFixture) post(t *testing.T, companyID snowflake.ID, date string, lines ...fixtureLine) snowflake.ID {
	t.Helper()
	registration, err := time.Parse(time.DateOnly, date)
	require.NoError(t, err)

	f.protocol[companyID]++
	entry := postingdomain.JournalEntry{
		ID:               f.node.Generate(),
		CompanyID:        companyID,
		FunctionID:       1,
		AuthorID:         "accountant-1",
		ProtocolNumber:   f.protocol[companyID],
		RegistrationDate: registration,
		TotalAmount:      decimal.Zero,
		CreatedAt:        registration,
	}
	require.NoError(t, f.db.Create(&entry).Error)

	for i, line := range lines {
		row := postingdomain.JournalLine{
			ID:          f.node.Generate(),
			CompanyID:   companyID,
			EntryID:     entry.ID,
			AccountID:   f.accounts[companyID.String()+"/"+line.code],
			LineNo:      i + 1,
			Description: line.code,
			Debit:       d(line.debit),
			Credit:      d(line.credit),
		}
		require.NoError(t, f.db.Create(&row).Error)
	}
	return entry.ID
}

const (
	bank    = "102.01.001"
	costs   = "105.01.001"
	revenue = "106.01.001"
)

func seedLedger(t *testing.T) (*ledgerFixture, snowflake.ID) {
	companyID, otherID := snowflake.ID(7100), snowflake.ID(7200)
	f := newLedgerFixture(t, companyID, otherID)

	f.post(t, companyID, "2025-01-10", fixtureLine{costs, "100", "0"}, fixtureLine{bank, "0", "100"})
	f.post(t, companyID, "2025-02-05", fixtureLine{bank, "50", "0"}, fixtureLine{revenue, "0", "50"})
	f.post(t, companyID, "2025-02-20", fixtureLine{costs, "30.25", "0"}, fixtureLine{bank, "0", "30.25"})
	f.post(t, companyID, "2025-03-15", fixtureLine{revenue, "10", "0"}, fixtureLine{bank, "0", "10"})
	f.post(t, otherID, "2025-02-10", fixtureLine{costs, "999", "0"}, fixtureLine{bank, "0", "999"})
	return f, companyID
}

func TestJournalFiltersByRegistrationDate(t *testing.T) {
	f, _ := seedLedger(t)

	journal, err := f.svc.Journal(f.ctx, domain.JournalRequest{From: "2025-02-01", To: "2025-02-28"})
	require.NoError(t, err)
	require.Len(t, journal.Rows, 4)

	assert.Equal(t, int64(2), journal.Rows[0].ProtocolNumber)
	assert.Equal(t, bank, journal.Rows[0].AccountCode)
	assert.Equal(t, "Banca c/c", journal.Rows[0].AccountDescription)
	assert.Equal(t, int64(2), journal.Rows[1].ProtocolNumber)
	assert.Equal(t, int64(3), journal.Rows[2].ProtocolNumber)
	assert.Equal(t, 1, journal.Rows[2].LineNo)
	assert.True(t, journal.TotalDebit.Equal(d("80.25")))
	assert.True(t, journal.TotalCredit.Equal(d("80.25")))

	empty, err := f.svc.Journal(f.ctx, domain.JournalRequest{From: "2024-01-01", To: "2024-12-31"})
	require.NoError(t, err)
	assert.NotNil(t, empty.Rows)
	assert.Empty(t, empty.Rows)
}

func TestAccountCardRunsBalanceFromOpening(t *testing.T) {
	f, companyID := seedLedger(t)
	bankID := f.accounts[companyID.String()+"/"+bank]

	card, err := f.svc.AccountCard(f.ctx, domain.AccountCardRequest{AccountID: bankID.String(), From: "2025-02-01", To: "2025-02-28"})
	require.NoError(t, err)

	assert.Equal(t, bank, card.AccountCode)
	assert.True(t, card.OpeningBalance.Equal(d("-100")))
	require.Len(t, card.Movements, 2)
	assert.True(t, card.Movements[0].Balance.Equal(d("-50")))
	assert.True(t, card.Movements[1].Balance.Equal(d("-80.25")))
	assert.True(t, card.TotalDebit.Equal(d("50")))
	assert.True(t, card.TotalCredit.Equal(d("30.25")))
	assert.True(t, card.ClosingBalance.Equal(d("-80.25")))
}

func TestTrialBalanceExcludesLaterEntries(t *testing.T) {
	f, _ := seedLedger(t)

	tb, err := f.svc.TrialBalance(f.ctx, domain.TrialBalanceRequest{AsOf: "2025-02-28"})
	require.NoError(t, err)
	require.Len(t, tb.Rows, 3)

	assert.Equal(t, bank, tb.Rows[0].Code)
	assert.True(t, tb.Rows[0].Debit.Equal(d("50")))
	assert.True(t, tb.Rows[0].Credit.Equal(d("130.25")))
	assert.True(t, tb.Rows[0].Balance.Equal(d("-80.25")))
	assert.Equal(t, "sottoconto", tb.Rows[0].Kind)
	require.NotNil(t, tb.Rows[0].Nature)
	assert.Equal(t, "asset", *tb.Rows[0].Nature)

	assert.Equal(t, costs, tb.Rows[1].Code)
	assert.True(t, tb.Rows[1].Debit.Equal(d("130.25")))
	assert.Equal(t, revenue, tb.Rows[2].Code)
	assert.True(t, tb.Rows[2].Credit.Equal(d("50")))
	assert.True(t, tb.Rows[2].Debit.IsZero())

	assert.True(t, tb.TotalDebit.Equal(d("180.25")))
	assert.True(t, tb.TotalCredit.Equal(d("180.25")))

	early, err := f.svc.TrialBalance(f.ctx, domain.TrialBalanceRequest{AsOf: "2025-01-09"})
	require.NoError(t, err)
	assert.Empty(t, early.Rows)
}

func TestReportValidation(t *testing.T) {
	f, _ := seedLedger(t)

	_, err := f.svc.Journal(f.ctx, domain.JournalRequest{From: "2025-03-01", To: "2025-02-01"})
	assert.ErrorIs(t, err, domain.ErrInvalidRange)

	_, err = f.svc.TrialBalance(f.ctx, domain.TrialBalanceRequest{AsOf: "28/02/2025"})
	assert.ErrorIs(t, err, domain.ErrInvalidDate)

	_, err = f.svc.AccountCard(f.ctx, domain.AccountCardRequest{AccountID: "abc", From: "2025-01-01", To: "2025-01-31"})
	assert.ErrorIs(t, err, domain.ErrInvalidAccount)

	_, err = f.svc.AccountCard(f.ctx, domain.AccountCardRequest{AccountID: "123456", From: "2025-01-01", To: "2025-01-31"})
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)

	foreign := f.accounts[snowflake.ID(7200).String()+"/"+bank]
	_, err = f.svc.AccountCard(f.ctx, domain.AccountCardRequest{AccountID: foreign.String(), From: "2025-01-01", To: "2025-01-31"})
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)

	_, err = f.svc.Journal(context.Background(), domain.JournalRequest{From: "2025-01-01", To: "2025-01-31"})
	assert.ErrorIs(t, err, domain.ErrInvalidCompany)
}

func TestReportQueryFailureIsGeneric(t *testing.T) {
	f, _ := seedLedger(t)
	sqlDB, err := f.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = f.svc.TrialBalance(f.ctx, domain.TrialBalanceRequest{AsOf: "2025-02-28"})
	assert.ErrorIs(t, err, domain.ErrQueryFailed)
}
