package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/smallbiznis/partita/internal/account/domain"
	"github.com/smallbiznis/partita/internal/accountingfunction/domain"
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

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Repo     domain.Repository
	Accounts accountdomain.Repository
	Audit    auditdomain.Service
	Clock    clock.Clock `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	repo     domain.Repository
	accounts accountdomain.Repository
	audit    auditdomain.Service
	clock    clock.Clock
}

func New(p Params) domain.Service {
	c := p.Clock
	if c == nil {
		c = clock.System()
	}
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("accountingfunction.service"),
		genID:    p.GenID,
		repo:     p.Repo,
		accounts: p.Accounts,
		audit:    p.Audit,
		clock:    c,
	}
}

func (s *Service) CreateFunction(ctx context.Context, req domain.CreateFunctionRequest) (domain.AccountingFunction, error) {
	companyID, ok := companyctx.CompanyIDFromContext(ctx)
	if !ok {
		return domain.AccountingFunction{}, domain.ErrInvalidCompany
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.AccountingFunction{}, domain.ErrInvalidName
	}
	category, ok := domain.ParseCategory(req.Category)
	if !ok {
		return domain.AccountingFunction{}, domain.ErrInvalidCategory
	}
	fnType, ok := domain.ParseType(req.Type)
	if !ok {
		return domain.AccountingFunction{}, domain.ErrInvalidType
	}
	key, err := normalizeKey(req.Key)
	if err != nil {
		return domain.AccountingFunction{}, err
	}

	now := s.clock.Now().UTC()
	fn := domain.AccountingFunction{
		ID:        s.genID.Generate(),
		CompanyID: companyID,
		Key:       key,
		Name:      name,
		Category:  category,
		Type:      fnType,
		CreatedAt: now,
		UpdatedAt: now,
	}

	lines, err := s.buildLines(companyID, fn.ID, req.Lines)
	if err != nil {
		return domain.AccountingFunction{}, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.checkLineAccounts(ctx, tx, companyID, lines); err != nil {
			return err
		}

		if err := s.ensureKeyFree(ctx, tx, companyID, fn.ID, fn.Key); err != nil {
			return err
		}

		max, err := s.repo.MaxCode(ctx, tx, companyID)
		if err != nil {
			return err
		}
		fn.Code = max + 1

		if err := s.repo.Insert(ctx, tx, &fn); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return domain.ErrCodeConflict
			}
			return err
		}
		if err := s.repo.InsertLines(ctx, tx, lines); err != nil {
			return err
		}
		fn.Lines = lines

		targetID := fn.ID.String()
		return s.audit.AuditLogTx(ctx, tx, "accounting_function.create", "accounting_function", &targetID, map[string]any{
			"code":     fn.Code,
			"category": string(fn.Category),
			"type":     string(fn.Type),
		})
	})
	if err != nil {
		return domain.AccountingFunction{}, err
	}

	s.log.Info("accounting function created",
		zap.String("company_id", companyID.String()),
		zap.Int64("code", fn.Code),
		zap.String("category", string(fn.Category)),
	)
	return fn, nil
}

// UpdateFunction replaces template lines at any time. Identity fields (name,
// key, category, type) are frozen once a journal entry references the function.
func (s *Service) UpdateFunction(ctx context.Context, req domain.UpdateFunctionRequest) (domain.AccountingFunction, error) {
	companyID, ok := companyctx.CompanyIDFromContext(ctx)
	if !ok {
		return domain.AccountingFunction{}, domain.ErrInvalidCompany
	}
	fnID, err := parseID(req.ID)
	if err != nil {
		return domain.AccountingFunction{}, err
	}

	var updated domain.AccountingFunction
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fn, err := s.repo.FindByID(ctx, tx, companyID, fnID, true)
		if err != nil {
			return err
		}
		if fn == nil {
			return domain.ErrNotFound
		}

		identityChanged, err := applyIdentity(fn, req)
		if err != nil {
			return err
		}
		if identityChanged {
			used, err := s.repo.CountEntries(ctx, tx, companyID, fn.ID)
			if err != nil {
				return err
			}
			if used > 0 {
				return domain.ErrFunctionInUse
			}
		}

		if err := s.ensureKeyFree(ctx, tx, companyID, fn.ID, fn.Key); err != nil {
			return err
		}

		fn.UpdatedAt = s.clock.Now().UTC()
		if err := s.repo.Update(ctx, tx, fn); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return domain.ErrDuplicateKey
			}
			return err
		}

		if req.Lines != nil {
			lines, err := s.buildLines(companyID, fn.ID, *req.Lines)
			if err != nil {
				return err
			}
			if err := s.checkLineAccounts(ctx, tx, companyID, lines); err != nil {
				return err
			}
			if err := s.repo.DeleteLines(ctx, tx, companyID, fn.ID); err != nil {
				return err
			}
			if err := s.repo.InsertLines(ctx, tx, lines); err != nil {
				return err
			}
			fn.Lines = lines
		}
		updated = *fn

		targetID := fn.ID.String()
		return s.audit.AuditLogTx(ctx, tx, "accounting_function.update", "accounting_function", &targetID, map[string]any{
			"code":             fn.Code,
			"identity_changed": identityChanged,
			"lines_replaced":   req.Lines != nil,
		})
	})
	if err != nil {
		return domain.AccountingFunction{}, err
	}
	return updated, nil
}

func (s *Service) GetFunction(ctx context.Context, id string) (domain.AccountingFunction, error) {
	companyID, ok := companyctx.CompanyIDFromContext(ctx)
	if !ok {
		return domain.AccountingFunction{}, domain.ErrInvalidCompany
	}
	fnID, err := parseID(id)
	if err != nil {
		return domain.AccountingFunction{}, err
	}
	fn, err := s.repo.FindByID(ctx, s.db, companyID, fnID, false)
	if err != nil {
		return domain.AccountingFunction{}, err
	}
	if fn == nil {
		return domain.AccountingFunction{}, domain.ErrNotFound
	}
	return *fn, nil
}

func (s *Service) ListFunctions(ctx context.Context, req domain.ListFunctionsRequest) ([]domain.AccountingFunction, error) {
	companyID, ok := companyctx.CompanyIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidCompany
	}
	var category domain.Category
	if raw := strings.TrimSpace(req.Category); raw != "" {
		parsed, ok := domain.ParseCategory(raw)
		if !ok {
			return nil, domain.ErrInvalidCategory
		}
		category = parsed
	}

	items, err := s.repo.List(ctx, s.db, companyID, category)
	if err != nil {
		return nil, err
	}
	out := make([]domain.AccountingFunction, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		out = append(out, *item)
	}
	return out, nil
}

func (s *Service) DeleteFunction(ctx context.Context, id string) error {
	companyID, ok := companyctx.CompanyIDFromContext(ctx)
	if !ok {
		return domain.ErrInvalidCompany
	}
	fnID, err := parseID(id)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fn, err := s.repo.FindByID(ctx, tx, companyID, fnID, true)
		if err != nil {
			return err
		}
		if fn == nil {
			return domain.ErrNotFound
		}
		used, err := s.repo.CountEntries(ctx, tx, companyID, fnID)
		if err != nil {
			return err
		}
		if used > 0 {
			return domain.ErrFunctionInUse
		}
		if err := s.repo.DeleteLines(ctx, tx, companyID, fnID); err != nil {
			return err
		}
		if err := s.repo.Delete(ctx, tx, companyID, fnID); err != nil {
			return err
		}

		targetID := fnID.String()
		return s.audit.AuditLogTx(ctx, tx, "accounting_function.delete", "accounting_function", &targetID, map[string]any{
			"code": fn.Code,
		})
	})
}

func (s *Service) buildLines(companyID, functionID snowflake.ID, inputs []domain.PredefinedLineInput) ([]domain.PredefinedLine, error) {
	lines := make([]domain.PredefinedLine, 0, len(inputs))
	roles := make(map[domain.Role]struct{})
	for i, input := range inputs {
		accountID, err := snowflake.ParseString(strings.TrimSpace(input.AccountID))
		if err != nil || accountID == 0 {
			return nil, domain.ErrInvalidLine
		}
		side, ok := domain.ParseSide(input.Side)
		if !ok {
			return nil, domain.ErrInvalidLine
		}
		role, ok := domain.ParseRole(input.Role)
		if !ok {
			return nil, domain.ErrInvalidLine
		}
		if role != domain.RoleNone {
			if _, dup := roles[role]; dup {
				return nil, domain.ErrDuplicateRole
			}
			roles[role] = struct{}{}
		}

		lines = append(lines, domain.PredefinedLine{
			ID:          s.genID.Generate(),
			CompanyID:   companyID,
			FunctionID:  functionID,
			LineNo:      i + 1,
			AccountID:   accountID,
			Side:        side,
			Description: strings.TrimSpace(input.Description),
			Role:        role,
		})
	}
	return lines, nil
}

func (s *Service) checkLineAccounts(ctx context.Context, tx *gorm.DB, companyID snowflake.ID, lines []domain.PredefinedLine) error {
	if len(lines) == 0 {
		return nil
	}
	ids := make([]snowflake.ID, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.AccountID)
	}
	accounts, err := s.accounts.FindByIDs(ctx, tx, companyID, ids)
	if err != nil {
		return err
	}
	byID := make(map[snowflake.ID]*accountdomain.Account, len(accounts))
	for _, account := range accounts {
		byID[account.ID] = account
	}
	for _, line := range lines {
		account, ok := byID[line.AccountID]
		if !ok {
			return domain.ErrAccountNotFound
		}
		if account.Kind != accountdomain.KindSottoconto {
			return domain.ErrLineAccount
		}
	}
	return nil
}

func applyIdentity(fn *domain.AccountingFunction, req domain.UpdateFunctionRequest) (bool, error) {
	changed := false
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return false, domain.ErrInvalidName
		}
		if name != fn.Name {
			fn.Name = name
			changed = true
		}
	}
	if req.Key != nil {
		key, err := normalizeKey(*req.Key)
		if err != nil {
			return false, err
		}
		if !equalKey(key, fn.Key) {
			fn.Key = key
			changed = true
		}
	}
	if req.Category != nil {
		category, ok := domain.ParseCategory(*req.Category)
		if !ok {
			return false, domain.ErrInvalidCategory
		}
		if category != fn.Category {
			fn.Category = category
			changed = true
		}
	}
	if req.Type != nil {
		fnType, ok := domain.ParseType(*req.Type)
		if !ok {
			return false, domain.ErrInvalidType
		}
		if fnType != fn.Type {
			fn.Type = fnType
			changed = true
		}
	}
	return changed, nil
}

func (s *Service) ensureKeyFree(ctx context.Context, tx *gorm.DB, companyID, fnID snowflake.ID, key *string) error {
	if key == nil {
		return nil
	}
	existing, err := s.repo.FindByKey(ctx, tx, companyID, *key)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != fnID {
		return domain.ErrDuplicateKey
	}
	return nil
}

// normalizeKey upper-cases a business key. All-digit keys are rejected since
// a numeric reference always resolves by function code.
func normalizeKey(value string) (*string, error) {
	key := strings.ToUpper(strings.TrimSpace(value))
	if key == "" {
		return nil, nil
	}
	if _, err := strconv.ParseInt(key, 10, 64); err == nil {
		return nil, domain.ErrInvalidKey
	}
	return &key, nil
}

func equalKey(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
