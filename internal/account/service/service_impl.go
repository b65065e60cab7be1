package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/partita/internal/account/domain"
	auditdomain "github.com/smallbiznis/partita/internal/audit/domain"
	"github.com/smallbiznis/partita/internal/clock"
	"github.com/smallbiznis/partita/internal/companyctx"
	"github.com/smallbiznis/partita/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
	Audit auditdomain.Service
	Clock clock.Clock `optional:"true"`
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
	audit auditdomain.Service
	clock clock.Clock
}

func New(p Params) domain.Service {
	c := p.Clock
	if c == nil {
		c = clock.System()
	}
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("account.service"),
		genID: p.GenID,
		repo:  p.Repo,
		audit: p.Audit,
		clock: c,
	}
}

func (s *Service) CreateAccount(ctx context.Context, req domain.CreateAccountRequest) (domain.Account, error) {
	companyID, ok := companyctx.CompanyIDFromContext(ctx)
	if !ok {
		return domain.Account{}, domain.ErrInvalidCompany
	}

	kind, ok := domain.ParseKind(req.Kind)
	if !ok {
		return domain.Account{}, domain.ErrInvalidKind
	}
	description := strings.TrimSpace(req.Description)
	if description == "" {
		return domain.Account{}, domain.ErrInvalidDescription
	}

	var nature *domain.Nature
	if raw := strings.TrimSpace(req.Nature); raw != "" {
		parsed, ok := domain.ParseNature(raw)
		if !ok || kind == domain.KindMastro {
			return domain.Account{}, domain.ErrInvalidNature
		}
		nature = &parsed
	}
	if kind == domain.KindConto && nature == nil {
		return domain.Account{}, domain.ErrNatureRequired
	}

	var parentID *snowflake.ID
	if raw := strings.TrimSpace(req.ParentID); raw != "" {
		id, err := parseID(raw)
		if err != nil {
			return domain.Account{}, domain.ErrInvalidParent
		}
		parentID = &id
	}
	expectedParent, needsParent := kind.ParentKind()
	if needsParent != (parentID != nil) {
		return domain.Account{}, domain.ErrInvalidParent
	}

	now := s.clock.Now().UTC()
	account := domain.Account{
		ID:          s.genID.Generate(),
		CompanyID:   companyID,
		Description: description,
		Kind:        kind,
		Nature:      nature,
		ParentID:    parentID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		parentCode := ""
		if parentID != nil {
			parent, err := s.repo.FindByIDForUpdate(ctx, tx, companyID, *parentID)
			if err != nil {
				return err
			}
			if parent == nil {
				return domain.ErrParentNotFound
			}
			if parent.Kind != expectedParent {
				return domain.ErrInvalidParent
			}
			if account.Nature == nil && parent.Nature != nil {
				inherited := *parent.Nature
				account.Nature = &inherited
			}
			parentCode = parent.Code
		}

		siblings, err := s.repo.SiblingCodes(ctx, tx, companyID, kind, parentID)
		if err != nil {
			return err
		}
		code, err := domain.NextCode(kind, parentCode, siblings)
		if err != nil {
			return err
		}
		account.Code = code

		if err := s.repo.Insert(ctx, tx, &account); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return domain.ErrCodeConflict
			}
			return err
		}

		targetID := account.ID.String()
		return s.audit.AuditLogTx(ctx, tx, "account.create", "account", &targetID, map[string]any{
			"code": account.Code,
			"kind": string(account.Kind),
		})
	})
	if err != nil {
		return domain.Account{}, err
	}

	s.log.Info("account created",
		zap.String("company_id", companyID.String()),
		zap.String("account_id", account.ID.String()),
		zap.String("code", account.Code),
	)
	return account, nil
}

func (s *Service) GetAccount(ctx context.Context, id string) (domain.Account, error) {
	companyID, ok := companyctx.CompanyIDFromContext(ctx)
	if !ok {
		return domain.Account{}, domain.ErrInvalidCompany
	}
	accountID, err := parseID(id)
	if err != nil {
		return domain.Account{}, err
	}

	account, err := s.repo.FindByID(ctx, s.db, companyID, accountID)
	if err != nil {
		return domain.Account{}, err
	}
	if account == nil {
		return domain.Account{}, domain.ErrNotFound
	}
	return *account, nil
}

func (s *Service) ListAccounts(ctx context.Context, req domain.ListAccountsRequest) ([]domain.Account, error) {
	companyID, ok := companyctx.CompanyIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidCompany
	}

	filter := domain.ListFilter{CodePrefix: strings.TrimSpace(req.CodePrefix)}
	if raw := strings.TrimSpace(req.Kind); raw != "" {
		kind, ok := domain.ParseKind(raw)
		if !ok {
			return nil, domain.ErrInvalidKind
		}
		filter.Kind = kind
	}
	if raw := strings.TrimSpace(req.Nature); raw != "" {
		nature, ok := domain.ParseNature(raw)
		if !ok {
			return nil, domain.ErrInvalidNature
		}
		filter.Nature = nature
	}

	items, err := s.repo.List(ctx, s.db, companyID, filter)
	if err != nil {
		return nil, err
	}
	accounts := make([]domain.Account, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		accounts = append(accounts, *item)
	}
	return accounts, nil
}

func (s *Service) ListTree(ctx context.Context) ([]*domain.TreeNode, error) {
	companyID, ok := companyctx.CompanyIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidCompany
	}

	items, err := s.repo.ListAll(ctx, s.db, companyID)
	if err != nil {
		return nil, err
	}
	return BuildTree(items), nil
}

// BuildTree nests accounts under their parents. items must be ordered by code.
func BuildTree(items []*domain.Account) []*domain.TreeNode {
	nodes := make(map[snowflake.ID]*domain.TreeNode, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		nodes[item.ID] = &domain.TreeNode{Account: *item}
	}

	roots := make([]*domain.TreeNode, 0)
	for _, item := range items {
		if item == nil {
			continue
		}
		node := nodes[item.ID]
		if item.ParentID == nil {
			roots = append(roots, node)
			continue
		}
		parent, ok := nodes[*item.ParentID]
		if !ok {
			roots = append(roots, node)
			continue
		}
		parent.Children = append(parent.Children, node)
	}
	return roots
}

func (s *Service) MoveAccount(ctx context.Context, req domain.MoveAccountRequest) (domain.Account, error) {
	companyID, ok := companyctx.CompanyIDFromContext(ctx)
	if !ok {
		return domain.Account{}, domain.ErrInvalidCompany
	}
	accountID, err := parseID(req.ID)
	if err != nil {
		return domain.Account{}, err
	}
	newParentID, err := parseID(req.NewParentID)
	if err != nil {
		return domain.Account{}, domain.ErrInvalidParent
	}

	var (
		moved   domain.Account
		oldCode string
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		arena, err := s.lockMoveSubtree(ctx, tx, companyID, accountID, newParentID)
		if err != nil {
			return err
		}

		plan, err := arena.planMove(accountID, newParentID)
		if err != nil {
			return err
		}
		node := arena.nodes[accountID]
		oldCode = node.Code
		if len(plan) == 0 {
			moved = *node
			return nil
		}

		if err := s.repo.UpdateCodes(ctx, tx, companyID, plan); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return domain.ErrCodeConflict
			}
			return err
		}

		moved = *node
		moved.Code = plan[0].Code
		moved.ParentID = plan[0].ParentID

		targetID := accountID.String()
		return s.audit.AuditLogTx(ctx, tx, "account.move", "account", &targetID, map[string]any{
			"old_code":          oldCode,
			"new_code":          moved.Code,
			"rewritten_entries": len(plan),
		})
	})
	if err != nil {
		return domain.Account{}, err
	}

	s.log.Info("account moved",
		zap.String("company_id", companyID.String()),
		zap.String("account_id", accountID.String()),
		zap.String("old_code", oldCode),
		zap.String("new_code", moved.Code),
	)
	return moved, nil
}

// lockMoveSubtree locks both parents and the moved subtree, then re-reads the
// chart until no child committed by a concurrent create escapes the lock set.
func (s *Service) lockMoveSubtree(ctx context.Context, tx *gorm.DB, companyID, accountID, newParentID snowflake.ID) (*arena, error) {
	locked := make(map[snowflake.ID]struct{})
	for {
		items, err := s.repo.ListAll(ctx, tx, companyID)
		if err != nil {
			return nil, err
		}
		arena := newArena(items)
		if _, ok := arena.nodes[accountID]; !ok {
			return nil, domain.ErrNotFound
		}

		var pending []snowflake.ID
		for _, id := range arena.moveLockSet(accountID, newParentID) {
			if _, ok := locked[id]; !ok {
				pending = append(pending, id)
			}
		}
		if len(pending) == 0 {
			return arena, nil
		}
		if err := s.repo.LockByIDs(ctx, tx, companyID, pending); err != nil {
			if db.IsConcurrencyErr(err) {
				return nil, domain.ErrCodeConflict
			}
			return nil, err
		}
		for _, id := range pending {
			locked[id] = struct{}{}
		}
	}
}

func (s *Service) DeleteAccount(ctx context.Context, id string) error {
	companyID, ok := companyctx.CompanyIDFromContext(ctx)
	if !ok {
		return domain.ErrInvalidCompany
	}
	accountID, err := parseID(id)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		account, err := s.repo.FindByIDForUpdate(ctx, tx, companyID, accountID)
		if err != nil {
			return err
		}
		if account == nil {
			return domain.ErrNotFound
		}

		refs, err := s.repo.CountReferences(ctx, tx, companyID, accountID)
		if err != nil {
			return err
		}
		if refs.Children > 0 {
			return domain.ErrHasChildren
		}
		if refs.JournalLines > 0 || refs.PredefinedLines > 0 || refs.Counterparties > 0 {
			return domain.ErrReferenced
		}

		if err := s.repo.Delete(ctx, tx, companyID, accountID); err != nil {
			if db.IsForeignKeyErr(err) {
				return domain.ErrReferenced
			}
			return err
		}

		targetID := accountID.String()
		return s.audit.AuditLogTx(ctx, tx, "account.delete", "account", &targetID, map[string]any{
			"code": account.Code,
		})
	})
}

func (s *Service) SetLocked(ctx context.Context, id string, locked bool) (domain.Account, error) {
	action := "account.unlock"
	if locked {
		action = "account.lock"
	}
	return s.update(ctx, id, action, func(tx *gorm.DB, account *domain.Account) error {
		if err := s.repo.UpdateLocked(ctx, tx, account.CompanyID, account.ID, locked); err != nil {
			return err
		}
		account.Locked = locked
		return nil
	})
}

func (s *Service) UpdateDescription(ctx context.Context, id string, description string) (domain.Account, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return domain.Account{}, domain.ErrInvalidDescription
	}
	return s.update(ctx, id, "account.update", func(tx *gorm.DB, account *domain.Account) error {
		if err := s.repo.UpdateDescription(ctx, tx, account.CompanyID, account.ID, description); err != nil {
			return err
		}
		account.Description = description
		return nil
	})
}

func (s *Service) update(ctx context.Context, id string, action string, apply func(tx *gorm.DB, account *domain.Account) error) (domain.Account, error) {
	companyID, ok := companyctx.CompanyIDFromContext(ctx)
	if !ok {
		return domain.Account{}, domain.ErrInvalidCompany
	}
	accountID, err := parseID(id)
	if err != nil {
		return domain.Account{}, err
	}

	var updated domain.Account
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		account, err := s.repo.FindByIDForUpdate(ctx, tx, companyID, accountID)
		if err != nil {
			return err
		}
		if account == nil {
			return domain.ErrNotFound
		}
		if err := apply(tx, account); err != nil {
			return err
		}
		account.UpdatedAt = s.clock.Now().UTC()
		updated = *account

		targetID := accountID.String()
		return s.audit.AuditLogTx(ctx, tx, action, "account", &targetID, map[string]any{
			"code": account.Code,
		})
	})
	if err != nil {
		return domain.Account{}, err
	}
	return updated, nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
