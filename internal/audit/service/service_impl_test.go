package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	auditdomain "github.com/smallbiznis/partita/internal/audit/domain"
	"github.com/smallbiznis/partita/internal/audit/repository"
	"github.com/smallbiznis/partita/internal/clock"
	"github.com/smallbiznis/partita/internal/companyctx"
	"github.com/smallbiznis/partita/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupService(t *testing.T) (*gorm.DB, auditdomain.Service, *clock.FakeClock) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&auditdomain.AuditLog{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC))

	svc := NewService(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
		Clock: fake,
	})
	return db, svc, fake
}

func TestAuditLogCapturesCompanyAndActor(t *testing.T) {
	db, svc, _ := setupService(t)

	ctx := companyctx.WithCompanyID(context.Background(), snowflake.ID(42))
	ctx = companyctx.WithActorID(ctx, "mario")
	ctx = companyctx.WithRequestID(ctx, "req-1")

	target := "7"
	require.NoError(t, svc.AuditLog(ctx, "account.create", "account", &target, map[string]any{"code": "101"}))

	var stored auditdomain.AuditLog
	require.NoError(t, db.First(&stored).Error)
	require.NotNil(t, stored.CompanyID)
	assert.Equal(t, snowflake.ID(42), *stored.CompanyID)
	assert.Equal(t, "user", stored.ActorType)
	require.NotNil(t, stored.ActorID)
	assert.Equal(t, "mario", *stored.ActorID)
	assert.Equal(t, "req-1", stored.Metadata["request_id"])
	assert.Equal(t, "101", stored.Metadata["code"])
}

func TestAuditLogRejectsEmptyAction(t *testing.T) {
	_, svc, _ := setupService(t)
	err := svc.AuditLog(context.Background(), "  ", "account", nil, nil)
	assert.ErrorIs(t, err, auditdomain.ErrInvalidAction)
}

func TestAuditLogTxRollsBackWithCaller(t *testing.T) {
	db, svc, _ := setupService(t)
	ctx := companyctx.WithCompanyID(context.Background(), snowflake.ID(42))

	_ = db.Transaction(func(tx *gorm.DB) error {
		require.NoError(t, svc.AuditLogTx(ctx, tx, "posting.create", "journal_entry", nil, nil))
		return assert.AnError
	})

	var count int64
	require.NoError(t, db.Model(&auditdomain.AuditLog{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestListPaginates(t *testing.T) {
	_, svc, fake := setupService(t)
	ctx := companyctx.WithCompanyID(context.Background(), snowflake.ID(42))

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.AuditLog(ctx, "account.create", "account", nil, nil))
		fake.Advance(time.Minute)
	}

	first, err := svc.List(ctx, auditdomain.ListAuditLogRequest{Pagination: pagination.Pagination{PageSize: 2}})
	require.NoError(t, err)
	require.Len(t, first.AuditLogs, 2)
	assert.True(t, first.HasMore)
	assert.True(t, first.AuditLogs[0].CreatedAt.After(first.AuditLogs[1].CreatedAt))

	second, err := svc.List(ctx, auditdomain.ListAuditLogRequest{
		Pagination: pagination.Pagination{PageSize: 2, PageToken: first.NextPageToken},
	})
	require.NoError(t, err)
	assert.Len(t, second.AuditLogs, 1)
	assert.False(t, second.HasMore)

	_, err = svc.List(context.Background(), auditdomain.ListAuditLogRequest{})
	assert.ErrorIs(t, err, auditdomain.ErrInvalidCompany)
}
