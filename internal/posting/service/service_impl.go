package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	accountdomain "github.com/smallbiznis/partita/internal/account/domain"
	fndomain "github.com/smallbiznis/partita/internal/accountingfunction/domain"
	"github.com/smallbiznis/partita/internal/clock"
	"github.com/smallbiznis/partita/internal/companyctx"
	"github.com/smallbiznis/partita/internal/config"
	counterpartydomain "github.com/smallbiznis/partita/internal/counterparty/domain"
	obsmetrics "github.com/smallbiznis/partita/internal/observability/metrics"
	openitemdomain "github.com/smallbiznis/partita/internal/openitem/domain"
	"github.com/smallbiznis/partita/internal/posting/domain"
	vatdomain "github.com/smallbiznis/partita/internal/vatregister/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log            *zap.Logger
	GenID          *snowflake.Node
	Store          domain.Store
	Policy         *config.PostingPolicyHolder
	Clock          clock.Clock                `optional:"true"`
	ObsMetrics     *obsmetrics.Metrics        `optional:"true"`
	PostingMetrics *obsmetrics.PostingMetrics `optional:"true"`
}

type Service struct {
	log            *zap.Logger
	genID          *snowflake.Node
	store          domain.Store
	policy         *config.PostingPolicyHolder
	clock          clock.Clock
	obsMetrics     *obsmetrics.Metrics
	postingMetrics *obsmetrics.PostingMetrics
}

func New(p Params) domain.Service {
	c := p.Clock
	if c == nil {
		c = clock.System()
	}
	policy := p.Policy
	if policy == nil {
		policy = config.NewStaticPostingPolicy(config.DefaultPostingPolicy())
	}
	return &Service{
		log:            p.Log.Named("posting.service"),
		genID:          p.GenID,
		store:          p.Store,
		policy:         policy,
		clock:          c,
		obsMetrics:     p.ObsMetrics,
		postingMetrics: p.PostingMetrics,
	}
}

// input is a PostRequest with every id and date parsed.
type input struct {
	companyID        snowflake.ID
	authorID         string
	functionRef      string
	registrationDate time.Time
	documentDate     *time.Time
	documentNumber   *string
	dueDate          *time.Time
	counterpartyID   *snowflake.ID
	total            decimal.Decimal
	description      string
	lines            []domain.Line
	vat              []domain.VatLine
	closeItemIDs     []snowflake.ID
}

// outcome is what a committed posting wrote.
type outcome struct {
	category  fndomain.Category
	result    domain.PostResult
	movements map[openitemdomain.Movement]int
	register  string
	lockWait  time.Duration
}

func (s *Service) Post(ctx context.Context, req domain.PostRequest) (domain.PostResult, error) {
	start := time.Now()
	in, err := s.normalize(ctx, req)
	if err != nil {
		s.recordFailure(ctx, err)
		return domain.PostResult{}, err
	}

	policy := s.policy.Policy()
	var out outcome
	err = s.store.InTx(ctx, func(tx domain.Tx) error {
		var err error
		out, err = s.post(ctx, tx, policy, in)
		return err
	})
	if err != nil {
		s.recordFailure(ctx, err)
		s.log.Warn("posting rejected",
			zap.String("company_id", in.companyID.String()),
			zap.String("function", in.functionRef),
			zap.Error(err),
		)
		return domain.PostResult{}, err
	}

	s.recordSuccess(ctx, out, time.Since(start))
	s.log.Info("posting committed",
		zap.String("company_id", in.companyID.String()),
		zap.String("entry_id", out.result.EntryID.String()),
		zap.Int64("protocol_number", out.result.ProtocolNumber),
		zap.String("category", string(out.category)),
	)
	return out.result, nil
}

func (s *Service) post(ctx context.Context, tx domain.Tx, policy config.PostingPolicy, in input) (outcome, error) {
	fn, err := tx.ResolveFunction(ctx, in.companyID, in.functionRef)
	if err != nil {
		return outcome{}, err
	}
	if fn == nil {
		return outcome{}, domain.ErrFunctionNotFound
	}
	rules := policy.Category(string(fn.Category))

	if rules.VatRequired && len(in.vat) == 0 {
		return outcome{}, domain.ErrVatRequired
	}
	if rules.VatRegister == config.VatRegisterNone && hasTax(in.vat) {
		return outcome{}, domain.ErrVatNotAllowed
	}
	if len(in.closeItemIDs) > 0 {
		if rules.OpenItem != config.OpenItemClose || fn.Type != fndomain.TypeFinancial {
			return outcome{}, domain.ErrCloseNotAllowed
		}
		if in.counterpartyID == nil {
			return outcome{}, domain.ErrCounterpartyRequired
		}
	}

	rates, err := tx.TaxRates(ctx, in.companyID, taxCodeIDs(in.vat))
	if err != nil {
		return outcome{}, err
	}
	var template *fndomain.PredefinedLine
	if line, ok := fn.VATTemplate(); ok {
		template = &line
	}
	lines, placements, err := domain.PlaceVat(in.lines, in.vat, rates, template)
	if err != nil {
		return outcome{}, err
	}

	if err := s.checkAccounts(ctx, tx, in.companyID, lines); err != nil {
		return outcome{}, err
	}
	if policy.EnforceBalance {
		if err := domain.CheckBalance(lines); err != nil {
			return outcome{}, err
		}
	}

	now := s.clock.Now()
	entryID := s.genID.Generate()

	items, closePlan, err := s.planOpenItems(ctx, tx, rules, fn, in, lines, entryID, now)
	if err != nil {
		return outcome{}, err
	}

	// The protocol lock is taken last so it is held only for the writes below.
	lockStart := time.Now()
	protocol, err := tx.NextProtocol(ctx, in.companyID, now)
	if err != nil {
		return outcome{}, err
	}
	lockWait := time.Since(lockStart)

	entry := domain.JournalEntry{
		ID:               entryID,
		CompanyID:        in.companyID,
		FunctionID:       fn.ID,
		AuthorID:         in.authorID,
		ProtocolNumber:   protocol,
		RegistrationDate: in.registrationDate,
		DocumentDate:     in.documentDate,
		DocumentNumber:   in.documentNumber,
		CounterpartyID:   in.counterpartyID,
		TotalAmount:      in.total,
		Description:      in.description,
		CreatedAt:        now,
	}
	journalLines := make([]domain.JournalLine, 0, len(lines))
	for i, line := range lines {
		journalLines = append(journalLines, domain.JournalLine{
			ID:          s.genID.Generate(),
			CompanyID:   in.companyID,
			EntryID:     entryID,
			AccountID:   line.AccountID,
			LineNo:      i + 1,
			Description: line.Description,
			Debit:       line.Debit,
			Credit:      line.Credit,
		})
	}
	if err := tx.InsertEntry(ctx, entry, journalLines); err != nil {
		return outcome{}, err
	}

	if len(closePlan.Close) > 0 {
		closed, err := tx.CloseOpenItems(ctx, in.companyID, closePlan.Close, entryID, now)
		if err != nil {
			return outcome{}, err
		}
		if closed != int64(len(closePlan.Close)) {
			return outcome{}, domain.ErrOpenItemContention
		}
	}
	items = append(items, closePlan.Mirrors...)
	if len(items) > 0 {
		if err := tx.InsertOpenItems(ctx, items); err != nil {
			return outcome{}, err
		}
	}

	vatRows := make([]vatdomain.VatRegisterEntry, 0, len(placements))
	for _, placement := range placements {
		vatRows = append(vatRows, vatdomain.VatRegisterEntry{
			ID:               s.genID.Generate(),
			CompanyID:        in.companyID,
			Register:         vatdomain.Register(rules.VatRegister),
			EntryID:          entryID,
			LineID:           journalLines[placement.LineIdx].ID,
			ProtocolNumber:   protocol,
			RegistrationDate: in.registrationDate,
			DocumentDate:     in.documentDate,
			DocumentNumber:   in.documentNumber,
			CounterpartyID:   in.counterpartyID,
			TaxCodeID:        placement.TaxCodeID,
			TaxableBase:      placement.TaxableBase,
			Rate:             placement.Rate,
			TaxAmount:        placement.TaxAmount,
			CreatedAt:        now,
		})
	}
	if len(vatRows) > 0 {
		if err := tx.InsertVatRows(ctx, vatRows); err != nil {
			return outcome{}, err
		}
	}

	result := domain.PostResult{
		EntryID:          entryID,
		ProtocolNumber:   protocol,
		Category:         string(fn.Category),
		RegistrationDate: in.registrationDate,
		Lines:            journalLines,
		OpenItemIDs:      make([]snowflake.ID, 0, len(items)),
		VatEntryIDs:      make([]snowflake.ID, 0, len(vatRows)),
	}
	movements := make(map[openitemdomain.Movement]int)
	for _, item := range items {
		result.OpenItemIDs = append(result.OpenItemIDs, item.ID)
		movements[item.Movement]++
	}
	for _, row := range vatRows {
		result.VatEntryIDs = append(result.VatEntryIDs, row.ID)
	}

	metadata := map[string]any{
		"function_id":     fn.ID.String(),
		"function_code":   fn.Code,
		"category":        string(fn.Category),
		"protocol_number": protocol,
		"total_amount":    in.total.String(),
		"lines":           len(journalLines),
		"open_items":      len(items),
		"vat_rows":        len(vatRows),
	}
	if len(closePlan.Close) > 0 {
		metadata["closed_items"] = idStrings(closePlan.Close)
	}
	if err := tx.Audit(ctx, "posting.entry_created", "journal_entry", entryID.String(), metadata); err != nil {
		return outcome{}, err
	}

	if len(closePlan.AlreadyClosed) > 0 {
		s.log.Warn("close requested for items already closed",
			zap.String("company_id", in.companyID.String()),
			zap.String("entry_id", entryID.String()),
			zap.Strings("item_ids", idStrings(closePlan.AlreadyClosed)),
		)
	}

	return outcome{
		category:  fn.Category,
		result:    result,
		movements: movements,
		register:  rules.VatRegister,
		lockWait:  lockWait,
	}, nil
}

func (s *Service) checkAccounts(ctx context.Context, tx domain.Tx, companyID snowflake.ID, lines []domain.Line) error {
	ids := make([]snowflake.ID, 0, len(lines))
	seen := make(map[snowflake.ID]struct{}, len(lines))
	for _, line := range lines {
		if _, ok := seen[line.AccountID]; ok {
			continue
		}
		seen[line.AccountID] = struct{}{}
		ids = append(ids, line.AccountID)
	}

	accounts, err := tx.Accounts(ctx, companyID, ids)
	if err != nil {
		return err
	}
	for _, id := range ids {
		account, ok := accounts[id]
		if !ok {
			return domain.ErrAccountNotFound
		}
		if account.Kind != accountdomain.KindSottoconto {
			return domain.ErrAccountNotPostable
		}
		if account.Locked {
			return domain.ErrAccountLocked
		}
	}
	return nil
}

// planOpenItems decides the open-item writes of a posting. Items to close are
// locked here, before the protocol lock, so every posting takes locks in the same order.
func (s *Service) planOpenItems(
	ctx context.Context,
	tx domain.Tx,
	rules config.CategoryPolicy,
	fn *fndomain.AccountingFunction,
	in input,
	lines []domain.Line,
	entryID snowflake.ID,
	now time.Time,
) ([]openitemdomain.OpenItem, openitemdomain.ClosePlan, error) {
	if in.counterpartyID == nil {
		return nil, openitemdomain.ClosePlan{}, nil
	}
	accounts, err := tx.SubAccounts(ctx, in.companyID, *in.counterpartyID)
	if err != nil {
		return nil, openitemdomain.ClosePlan{}, err
	}
	if fn.Type != fndomain.TypeFinancial {
		return nil, openitemdomain.ClosePlan{}, nil
	}

	newItem := func(accountID snowflake.ID, amount decimal.Decimal, movement openitemdomain.Movement) openitemdomain.OpenItem {
		return openitemdomain.OpenItem{
			ID:             s.genID.Generate(),
			CompanyID:      in.companyID,
			CounterpartyID: *in.counterpartyID,
			AccountID:      accountID,
			EntryID:        entryID,
			DocumentDate:   in.documentDate,
			DocumentNumber: in.documentNumber,
			DueDate:        in.dueDate,
			Amount:         amount,
			Movement:       movement,
			Status:         openitemdomain.StatusOpen,
			CreatedAt:      now,
		}
	}

	switch rules.OpenItem {
	case config.OpenItemOpenDebit, config.OpenItemOpenCredit:
		accountID := accounts.PayableAccountID
		movement := openitemdomain.MovementOpenDebit
		if rules.OpenItem == config.OpenItemOpenCredit {
			accountID = accounts.ReceivableAccountID
			movement = openitemdomain.MovementOpenCredit
		}
		if accountID == nil {
			return nil, openitemdomain.ClosePlan{}, domain.ErrCounterpartyAccount
		}
		if !in.total.IsPositive() {
			return nil, openitemdomain.ClosePlan{}, domain.ErrInvalidTotal
		}
		return []openitemdomain.OpenItem{newItem(*accountID, in.total, movement)}, openitemdomain.ClosePlan{}, nil

	case config.OpenItemClose:
		line, ok := counterpartyLine(lines, accounts)
		if !ok {
			return nil, openitemdomain.ClosePlan{}, domain.ErrCounterpartyLine
		}
		if len(in.closeItemIDs) == 0 {
			movement := openitemdomain.MovementCloseCredit
			if line.Debit.IsPositive() {
				movement = openitemdomain.MovementCloseDebit
			}
			return []openitemdomain.OpenItem{newItem(line.AccountID, line.Amount(), movement)}, openitemdomain.ClosePlan{}, nil
		}

		locked, err := tx.LockOpenItems(ctx, in.companyID, in.closeItemIDs)
		if err != nil {
			return nil, openitemdomain.ClosePlan{}, err
		}
		plan, err := openitemdomain.PlanClose(openitemdomain.CloseRequest{
			CompanyID:      in.companyID,
			CounterpartyID: *in.counterpartyID,
			EntryID:        entryID,
			ItemIDs:        in.closeItemIDs,
			Now:            now,
		}, locked, s.genID.Generate)
		if err != nil {
			return nil, openitemdomain.ClosePlan{}, err
		}
		return nil, plan, nil
	}
	return nil, openitemdomain.ClosePlan{}, nil
}

func (s *Service) GetEntry(ctx context.Context, id string) (domain.EntryDetail, error) {
	companyID, ok := companyctx.CompanyIDFromContext(ctx)
	if !ok {
		return domain.EntryDetail{}, domain.ErrInvalidCompany
	}
	entryID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || entryID == 0 {
		return domain.EntryDetail{}, domain.ErrInvalidID
	}
	entry, err := s.store.FindEntry(ctx, companyID, entryID)
	if err != nil {
		return domain.EntryDetail{}, err
	}
	if entry == nil {
		return domain.EntryDetail{}, domain.ErrEntryNotFound
	}
	return *entry, nil
}

func (s *Service) normalize(ctx context.Context, req domain.PostRequest) (input, error) {
	companyID, ok := companyctx.CompanyIDFromContext(ctx)
	if !ok {
		return input{}, domain.ErrInvalidCompany
	}
	authorID := strings.TrimSpace(companyctx.ActorIDFromContext(ctx))
	if authorID == "" {
		return input{}, domain.ErrInvalidAuthor
	}

	in := input{
		companyID:   companyID,
		authorID:    authorID,
		functionRef: strings.TrimSpace(req.FunctionCode),
		total:       req.Header.TotalAmount,
		description: strings.TrimSpace(req.Description),
	}
	if in.functionRef == "" {
		return input{}, domain.ErrInvalidFunctionCode
	}
	if in.total.IsNegative() {
		return input{}, domain.ErrInvalidTotal
	}

	registration, err := parseDate(req.Header.RegistrationDate)
	if err != nil || registration == nil {
		return input{}, domain.ErrInvalidRegistrationDate
	}
	in.registrationDate = *registration
	if in.documentDate, err = parseDate(req.Header.DocumentDate); err != nil {
		return input{}, domain.ErrInvalidDocumentDate
	}
	if in.dueDate, err = parseDate(req.Header.DueDate); err != nil {
		return input{}, domain.ErrInvalidDueDate
	}
	if number := strings.TrimSpace(req.Header.DocumentNumber); number != "" {
		in.documentNumber = &number
	}
	if raw := strings.TrimSpace(req.Header.CounterpartyID); raw != "" {
		id, err := snowflake.ParseString(raw)
		if err != nil || id == 0 {
			return input{}, domain.ErrInvalidCounterparty
		}
		in.counterpartyID = &id
	}

	if len(req.Lines) == 0 {
		return input{}, domain.ErrNoLines
	}
	for _, line := range req.Lines {
		accountID, err := snowflake.ParseString(strings.TrimSpace(line.AccountID))
		if err != nil || accountID == 0 {
			return input{}, domain.ErrInvalidAccount
		}
		if line.Debit.IsNegative() || line.Credit.IsNegative() {
			return input{}, domain.ErrInvalidAmount
		}
		if line.Debit.IsZero() && line.Credit.IsZero() {
			return input{}, domain.ErrEmptyLine
		}
		in.lines = append(in.lines, domain.Line{
			AccountID:   accountID,
			Debit:       line.Debit,
			Credit:      line.Credit,
			Description: strings.TrimSpace(line.Description),
		})
	}

	for _, row := range req.Vat {
		taxCodeID, err := snowflake.ParseString(strings.TrimSpace(row.TaxCodeID))
		if err != nil || taxCodeID == 0 {
			return input{}, domain.ErrInvalidTaxCode
		}
		if row.TaxableBase.IsNegative() || row.TaxAmount.IsNegative() {
			return input{}, domain.ErrInvalidVatAmount
		}
		in.vat = append(in.vat, domain.VatLine{
			TaxCodeID:   taxCodeID,
			TaxableBase: row.TaxableBase,
			TaxAmount:   row.TaxAmount,
		})
	}

	for _, raw := range req.CloseItemIDs {
		id, err := snowflake.ParseString(strings.TrimSpace(raw))
		if err != nil || id == 0 {
			return input{}, domain.ErrInvalidCloseItem
		}
		in.closeItemIDs = append(in.closeItemIDs, id)
	}
	return in, nil
}

func (s *Service) recordSuccess(ctx context.Context, out outcome, elapsed time.Duration) {
	if s.obsMetrics != nil {
		s.obsMetrics.RecordPosting(ctx, string(out.category))
		for movement, count := range out.movements {
			s.obsMetrics.RecordOpenItem(ctx, string(movement), count)
		}
		if len(out.result.VatEntryIDs) > 0 {
			s.obsMetrics.RecordVatRows(ctx, out.register, len(out.result.VatEntryIDs))
		}
	}
	if s.postingMetrics != nil {
		s.postingMetrics.ObserveDuration(string(out.category), elapsed)
		s.postingMetrics.ObserveLockWait(out.lockWait)
	}
}

func (s *Service) recordFailure(ctx context.Context, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	if s.obsMetrics != nil {
		s.obsMetrics.RecordPostingFailure(ctx, obsmetrics.ClassifyPostingFailure(err))
	}
	if s.postingMetrics != nil {
		s.postingMetrics.IncFailure(err)
	}
}

// counterpartyLine finds the supplied line posting to one of the counterparty's sub-accounts.
func counterpartyLine(lines []domain.Line, accounts counterpartydomain.SubAccounts) (domain.Line, bool) {
	for _, line := range lines {
		if accounts.ReceivableAccountID != nil && line.AccountID == *accounts.ReceivableAccountID {
			return line, true
		}
		if accounts.PayableAccountID != nil && line.AccountID == *accounts.PayableAccountID {
			return line, true
		}
	}
	return domain.Line{}, false
}

func hasTax(rows []domain.VatLine) bool {
	for _, row := range rows {
		if !row.TaxAmount.IsZero() {
			return true
		}
	}
	return false
}

func taxCodeIDs(rows []domain.VatLine) []snowflake.ID {
	ids := make([]snowflake.ID, 0, len(rows))
	seen := make(map[snowflake.ID]struct{}, len(rows))
	for _, row := range rows {
		if _, ok := seen[row.TaxCodeID]; ok {
			continue
		}
		seen[row.TaxCodeID] = struct{}{}
		ids = append(ids, row.TaxCodeID)
	}
	return ids
}

func idStrings(ids []snowflake.ID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}

func parseDate(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
