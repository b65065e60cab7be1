package authorization

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/partita/internal/audit/domain"
	auditrepo "github.com/smallbiznis/partita/internal/audit/repository"
	auditservice "github.com/smallbiznis/partita/internal/audit/service"
	"github.com/smallbiznis/partita/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	db := testutil.NewDB(t)
	enforcer, err := NewEnforcer(db)
	require.NoError(t, err)

	audit := auditservice.NewService(auditservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: testutil.NewNode(t),
		Repo:  auditrepo.Provide(),
	})
	return NewService(Params{DB: db, Log: zap.NewNop(), Enforcer: enforcer, AuditSvc: audit}), db
}

func TestAuthorizeRoleMatrix(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := testutil.CompanyContext(snowflake.ID(10), "user-1")

	cases := []struct {
		role    string
		object  string
		action  string
		allowed bool
	}{
		{RoleViewer, ObjectReport, ActionReportView, true},
		{RoleViewer, ObjectPosting, ActionPostingCreate, false},
		{RoleViewer, ObjectAuditLog, ActionAuditLogView, false},
		{RoleAccountant, ObjectPosting, ActionPostingCreate, true},
		{RoleAccountant, ObjectAccount, ActionAccountCreate, false},
		{RoleAccountant, ObjectVatRegister, ActionVatRegisterView, true},
		{RoleController, ObjectAccount, ActionAccountMove, true},
		{RoleController, ObjectAccountingFunction, ActionFunctionUpdate, true},
		{"CONTROLLER", ObjectPosting, ActionPostingCreate, true},
	}
	for _, tc := range cases {
		t.Run(tc.role+"/"+tc.action, func(t *testing.T) {
			err := svc.Authorize(ctx, tc.role, tc.object, tc.action)
			if tc.allowed {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrForbidden)
			}
		})
	}
}

func TestAuthorizeFollowsAssertedRole(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := testutil.CompanyContext(snowflake.ID(10), "user-2")

	require.NoError(t, svc.Authorize(ctx, RoleController, ObjectAccount, ActionAccountCreate))
	assert.ErrorIs(t, svc.Authorize(ctx, RoleViewer, ObjectAccount, ActionAccountCreate), ErrForbidden)

	other := testutil.CompanyContext(snowflake.ID(11), "user-2")
	assert.ErrorIs(t, svc.Authorize(other, RoleViewer, ObjectPosting, ActionPostingCreate), ErrForbidden)
	assert.NoError(t, svc.Authorize(other, RoleAccountant, ObjectPosting, ActionPostingCreate))
}

func TestAuthorizeRejectsIncompleteRequests(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := testutil.CompanyContext(snowflake.ID(10), "user-1")

	assert.ErrorIs(t, svc.Authorize(context.Background(), RoleViewer, ObjectReport, ActionReportView), ErrInvalidCompany)
	assert.ErrorIs(t, svc.Authorize(testutil.CompanyContext(snowflake.ID(10), ""), RoleViewer, ObjectReport, ActionReportView), ErrInvalidActor)
	assert.ErrorIs(t, svc.Authorize(ctx, "auditor", ObjectReport, ActionReportView), ErrInvalidRole)
	assert.ErrorIs(t, svc.Authorize(ctx, RoleViewer, "", ActionReportView), ErrInvalidObject)
	assert.ErrorIs(t, svc.Authorize(ctx, RoleViewer, ObjectReport, " "), ErrInvalidAction)
}

func TestAuthorizeAuditsDenialsAndSensitiveGrants(t *testing.T) {
	svc, db := newTestService(t)
	ctx := testutil.CompanyContext(snowflake.ID(10), "user-3")

	assert.ErrorIs(t, svc.Authorize(ctx, RoleViewer, ObjectAccount, ActionAccountDelete), ErrForbidden)
	require.NoError(t, svc.Authorize(ctx, RoleController, ObjectAccount, ActionAccountDelete))
	require.NoError(t, svc.Authorize(ctx, RoleController, ObjectReport, ActionReportView))

	var logs []auditdomain.AuditLog
	require.NoError(t, db.Order("created_at ASC, id ASC").Find(&logs).Error)
	require.Len(t, logs, 2)
	assert.Equal(t, "authorization.denied", logs[0].Action)
	assert.Equal(t, "authorization.granted", logs[1].Action)
	assert.Equal(t, ActionAccountDelete, logs[1].Metadata["action"])
}
