package service

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/smallbiznis/partita/internal/account/domain"
	fndomain "github.com/smallbiznis/partita/internal/accountingfunction/domain"
	counterpartydomain "github.com/smallbiznis/partita/internal/counterparty/domain"
	openitemdomain "github.com/smallbiznis/partita/internal/openitem/domain"
	"github.com/smallbiznis/partita/internal/posting/domain"
	taxdomain "github.com/smallbiznis/partita/internal/tax/domain"
	vatdomain "github.com/smallbiznis/partita/internal/vatregister/domain"
)

var errInjected = errors.New("injected failure")

// fakeState is the whole store; InTx works on a copy and keeps it only on success.
type fakeState struct {
	functions      []fndomain.AccountingFunction
	accounts       map[snowflake.ID]accountdomain.Account
	counterparties map[snowflake.ID]counterpartydomain.SubAccounts
	taxCodes       map[snowflake.ID]taxdomain.TaxCode
	nextProtocol   map[snowflake.ID]int64
	entries        []domain.JournalEntry
	lines          []domain.JournalLine
	openItems      map[snowflake.ID]openitemdomain.OpenItem
	vatRows        []vatdomain.VatRegisterEntry
	audits         []string
}

func (s fakeState) clone() fakeState {
	out := s
	out.accounts = cloneMap(s.accounts)
	out.counterparties = cloneMap(s.counterparties)
	out.taxCodes = cloneMap(s.taxCodes)
	out.nextProtocol = cloneMap(s.nextProtocol)
	out.openItems = cloneMap(s.openItems)
	out.functions = append([]fndomain.AccountingFunction(nil), s.functions...)
	out.entries = append([]domain.JournalEntry(nil), s.entries...)
	out.lines = append([]domain.JournalLine(nil), s.lines...)
	out.vatRows = append([]vatdomain.VatRegisterEntry(nil), s.vatRows...)
	out.audits = append([]string(nil), s.audits...)
	return out
}

func cloneMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

type fakeStore struct {
	state  fakeState
	failOn string
}

func newFakeStore() *fakeStore {
	return &fakeStore{state: fakeState{
		accounts:       map[snowflake.ID]accountdomain.Account{},
		counterparties: map[snowflake.ID]counterpartydomain.SubAccounts{},
		taxCodes:       map[snowflake.ID]taxdomain.TaxCode{},
		nextProtocol:   map[snowflake.ID]int64{},
		openItems:      map[snowflake.ID]openitemdomain.OpenItem{},
	}}
}

func (f *fakeStore) InTx(ctx context.Context, fn func(tx domain.Tx) error) error {
	working := f.state.clone()
	if err := fn(&fakeTx{state: &working, failOn: f.failOn}); err != nil {
		return err
	}
	f.state = working
	return nil
}

func (f *fakeStore) FindEntry(ctx context.Context, companyID, id snowflake.ID) (*domain.EntryDetail, error) {
	for _, entry := range f.state.entries {
		if entry.CompanyID != companyID || entry.ID != id {
			continue
		}
		detail := &domain.EntryDetail{JournalEntry: entry}
		for _, line := range f.state.lines {
			if line.EntryID == id {
				detail.Lines = append(detail.Lines, line)
			}
		}
		return detail, nil
	}
	return nil, nil
}

type fakeTx struct {
	state  *fakeState
	failOn string
}

func (t *fakeTx) fail(step string) error {
	if t.failOn == step {
		return errInjected
	}
	return nil
}

func (t *fakeTx) ResolveFunction(ctx context.Context, companyID snowflake.ID, ref string) (*fndomain.AccountingFunction, error) {
	for _, fn := range t.state.functions {
		if fn.CompanyID != companyID {
			continue
		}
		if fn.Key != nil && strings.EqualFold(*fn.Key, ref) {
			return &fn, nil
		}
		if strconv.FormatInt(fn.Code, 10) == ref {
			return &fn, nil
		}
	}
	return nil, nil
}

func (t *fakeTx) Accounts(ctx context.Context, companyID snowflake.ID, ids []snowflake.ID) (map[snowflake.ID]accountdomain.Account, error) {
	out := make(map[snowflake.ID]accountdomain.Account)
	for _, id := range ids {
		if account, ok := t.state.accounts[id]; ok && account.CompanyID == companyID {
			out[id] = account
		}
	}
	return out, nil
}

func (t *fakeTx) SubAccounts(ctx context.Context, companyID, counterpartyID snowflake.ID) (counterpartydomain.SubAccounts, error) {
	accounts, ok := t.state.counterparties[counterpartyID]
	if !ok {
		return counterpartydomain.SubAccounts{}, counterpartydomain.ErrNotFound
	}
	return accounts, nil
}

func (t *fakeTx) TaxRates(ctx context.Context, companyID snowflake.ID, ids []snowflake.ID) (map[snowflake.ID]taxdomain.TaxCode, error) {
	out := make(map[snowflake.ID]taxdomain.TaxCode)
	for _, id := range ids {
		code, ok := t.state.taxCodes[id]
		if !ok {
			return nil, taxdomain.ErrNotFound
		}
		out[id] = code
	}
	return out, nil
}

func (t *fakeTx) NextProtocol(ctx context.Context, companyID snowflake.ID, now time.Time) (int64, error) {
	if err := t.fail("protocol"); err != nil {
		return 0, err
	}
	next := t.state.nextProtocol[companyID]
	if next == 0 {
		next = 1
	}
	t.state.nextProtocol[companyID] = next + 1
	return next, nil
}

func (t *fakeTx) InsertEntry(ctx context.Context, entry domain.JournalEntry, lines []domain.JournalLine) error {
	if err := t.fail("entry"); err != nil {
		return err
	}
	t.state.entries = append(t.state.entries, entry)
	t.state.lines = append(t.state.lines, lines...)
	return nil
}

func (t *fakeTx) LockOpenItems(ctx context.Context, companyID snowflake.ID, ids []snowflake.ID) ([]openitemdomain.OpenItem, error) {
	var out []openitemdomain.OpenItem
	for _, id := range ids {
		if item, ok := t.state.openItems[id]; ok {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *fakeTx) CloseOpenItems(ctx context.Context, companyID snowflake.ID, ids []snowflake.ID, entryID snowflake.ID, closedAt time.Time) (int64, error) {
	var closed int64
	for _, id := range ids {
		item, ok := t.state.openItems[id]
		if !ok || item.CompanyID != companyID || item.Status != openitemdomain.StatusOpen {
			continue
		}
		item.Status = openitemdomain.StatusClosed
		item.ClosedByEntryID = &entryID
		item.ClosedAt = &closedAt
		t.state.openItems[id] = item
		closed++
	}
	return closed, nil
}

func (t *fakeTx) InsertOpenItems(ctx context.Context, items []openitemdomain.OpenItem) error {
	if err := t.fail("open_items"); err != nil {
		return err
	}
	for _, item := range items {
		t.state.openItems[item.ID] = item
	}
	return nil
}

func (t *fakeTx) InsertVatRows(ctx context.Context, rows []vatdomain.VatRegisterEntry) error {
	if err := t.fail("vat"); err != nil {
		return err
	}
	t.state.vatRows = append(t.state.vatRows, rows...)
	return nil
}

func (t *fakeTx) Audit(ctx context.Context, action, targetType, targetID string, metadata map[string]any) error {
	if err := t.fail("audit"); err != nil {
		return err
	}
	t.state.audits = append(t.state.audits, action+":"+targetID)
	return nil
}
