package authorization

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	auditdomain "github.com/smallbiznis/partita/internal/audit/domain"
	"github.com/smallbiznis/partita/internal/companyctx"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

const (
	RoleViewer     = "viewer"
	RoleAccountant = "accountant"
	RoleController = "controller"
	RoleSystem     = "system"
)

const (
	ObjectAccount            = "account"
	ObjectAccountingFunction = "accounting_function"
	ObjectPosting            = "posting"
	ObjectOpenItem           = "open_item"
	ObjectVatRegister        = "vat_register"
	ObjectReport             = "report"
	ObjectCounterparty       = "counterparty"
	ObjectTaxCode            = "tax_code"
	ObjectAuditLog           = "audit_log"
)

const (
	ActionAccountView   = "account.view"
	ActionAccountCreate = "account.create"
	ActionAccountUpdate = "account.update"
	ActionAccountMove   = "account.move"
	ActionAccountLock   = "account.lock"
	ActionAccountDelete = "account.delete"

	ActionFunctionView   = "accounting_function.view"
	ActionFunctionCreate = "accounting_function.create"
	ActionFunctionUpdate = "accounting_function.update"
	ActionFunctionDelete = "accounting_function.delete"

	ActionPostingView   = "posting.view"
	ActionPostingCreate = "posting.create"

	ActionOpenItemView    = "open_item.view"
	ActionVatRegisterView = "vat_register.view"
	ActionReportView      = "report.view"

	ActionCounterpartyView   = "counterparty.view"
	ActionCounterpartyCreate = "counterparty.create"

	ActionTaxCodeView   = "tax_code.view"
	ActionTaxCodeCreate = "tax_code.create"

	ActionAuditLogView = "audit_log.view"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
	AuditSvc auditdomain.Service `optional:"true"`
}

type ServiceImpl struct {
	db       *gorm.DB
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
	auditSvc auditdomain.Service
}

func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	enforcer.BuildRoleLinks()
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		db:       p.DB,
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
		auditSvc: p.AuditSvc,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, role string, object string, action string) error {
	companyID, ok := companyctx.CompanyIDFromContext(ctx)
	if !ok {
		return ErrInvalidCompany
	}
	actorID := companyctx.ActorIDFromContext(ctx)
	if actorID == "" {
		return ErrInvalidActor
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}
	roleName, err := roleFor(role)
	if err != nil {
		s.auditDenied(ctx, role, object, action)
		return err
	}

	subject := fmt.Sprintf("actor:%s", actorID)
	domain := fmt.Sprintf("company:%s", companyID.String())
	if err := s.ensureGrouping(subject, roleName, domain); err != nil {
		return err
	}

	allowed, err := s.enforcer.Enforce(subject, domain, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.log.Debug("authorization denied",
			zap.String("company_id", companyID.String()),
			zap.String("role", roleName),
			zap.String("action", action),
		)
		s.auditDenied(ctx, role, object, action)
		return ErrForbidden
	}

	if shouldAuditGrant(action) {
		s.auditGranted(ctx, role, object, action)
	}
	return nil
}

func roleFor(role string) (string, error) {
	role = strings.ToLower(strings.TrimSpace(role))
	switch role {
	case RoleViewer, RoleAccountant, RoleController, RoleSystem:
		return "role:" + role, nil
	default:
		return "", ErrInvalidRole
	}
}

// ensureGrouping keeps exactly one role per subject and company, following
// whatever role the caller asserts on this request.
func (s *ServiceImpl) ensureGrouping(subject string, roleName string, domain string) error {
	existing, err := s.enforcer.GetFilteredGroupingPolicy(0, subject, "", domain)
	if err != nil {
		return err
	}
	for _, rule := range existing {
		if len(rule) < 2 {
			continue
		}
		if rule[1] != roleName {
			params := make([]interface{}, 0, len(rule))
			for _, value := range rule {
				params = append(params, value)
			}
			_, _ = s.enforcer.RemoveGroupingPolicy(params...)
		}
	}

	has, err := s.enforcer.HasGroupingPolicy(subject, roleName, domain)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	_, err = s.enforcer.AddGroupingPolicy(subject, roleName, domain)
	return err
}

func (s *ServiceImpl) auditDenied(ctx context.Context, role string, object string, action string) {
	s.audit(ctx, "authorization.denied", role, object, action)
}

func (s *ServiceImpl) auditGranted(ctx context.Context, role string, object string, action string) {
	s.audit(ctx, "authorization.granted", role, object, action)
}

func (s *ServiceImpl) audit(ctx context.Context, kind string, role string, object string, action string) {
	if s.auditSvc == nil {
		return
	}
	targetID := "capability"
	err := s.auditSvc.AuditLog(ctx, kind, "authorization", &targetID, map[string]any{
		"object": object,
		"action": action,
		"role":   strings.TrimSpace(role),
	})
	if err != nil {
		s.log.Warn("failed to audit authorization decision", zap.String("action", action), zap.Error(err))
	}
}

func shouldAuditGrant(action string) bool {
	switch action {
	case ActionAccountDelete, ActionAccountMove, ActionFunctionDelete:
		return true
	default:
		return false
	}
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	readOnly := [][]string{
		{ObjectAccount, ActionAccountView},
		{ObjectAccountingFunction, ActionFunctionView},
		{ObjectPosting, ActionPostingView},
		{ObjectOpenItem, ActionOpenItemView},
		{ObjectVatRegister, ActionVatRegisterView},
		{ObjectReport, ActionReportView},
		{ObjectCounterparty, ActionCounterpartyView},
		{ObjectTaxCode, ActionTaxCodeView},
	}
	posting := [][]string{
		{ObjectPosting, ActionPostingCreate},
		{ObjectCounterparty, ActionCounterpartyCreate},
	}
	chart := [][]string{
		{ObjectAccount, ActionAccountCreate},
		{ObjectAccount, ActionAccountUpdate},
		{ObjectAccount, ActionAccountMove},
		{ObjectAccount, ActionAccountLock},
		{ObjectAccount, ActionAccountDelete},
		{ObjectAccountingFunction, ActionFunctionCreate},
		{ObjectAccountingFunction, ActionFunctionUpdate},
		{ObjectAccountingFunction, ActionFunctionDelete},
		{ObjectTaxCode, ActionTaxCodeCreate},
		{ObjectAuditLog, ActionAuditLogView},
	}

	grants := map[string][][][]string{
		"role:" + RoleViewer:     {readOnly},
		"role:" + RoleAccountant: {readOnly, posting},
		"role:" + RoleController: {readOnly, posting, chart},
		"role:" + RoleSystem:     {readOnly, posting, chart},
	}

	for role, groups := range grants {
		for _, group := range groups {
			for _, rule := range group {
				if _, err := enforcer.AddPolicy(role, rule[0], rule[1]); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
