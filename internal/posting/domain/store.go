package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/smallbiznis/partita/internal/account/domain"
	fndomain "github.com/smallbiznis/partita/internal/accountingfunction/domain"
	counterpartydomain "github.com/smallbiznis/partita/internal/counterparty/domain"
	openitemdomain "github.com/smallbiznis/partita/internal/openitem/domain"
	taxdomain "github.com/smallbiznis/partita/internal/tax/domain"
	vatdomain "github.com/smallbiznis/partita/internal/vatregister/domain"
)

// Store is everything the posting engine reads and writes.
type Store interface {
	// InTx runs fn in one transaction. Any error rolls back every write made through tx.
	InTx(ctx context.Context, fn func(tx Tx) error) error
	// FindEntry reads a committed entry, or nil when absent.
	FindEntry(ctx context.Context, companyID, id snowflake.ID) (*EntryDetail, error)
}

// Tx is the transactional view the engine posts through.
type Tx interface {
	// ResolveFunction looks a function up by numeric code or key; nil when absent.
	ResolveFunction(ctx context.Context, companyID snowflake.ID, ref string) (*fndomain.AccountingFunction, error)
	Accounts(ctx context.Context, companyID snowflake.ID, ids []snowflake.ID) (map[snowflake.ID]accountdomain.Account, error)
	SubAccounts(ctx context.Context, companyID, counterpartyID snowflake.ID) (counterpartydomain.SubAccounts, error)
	TaxRates(ctx context.Context, companyID snowflake.ID, ids []snowflake.ID) (map[snowflake.ID]taxdomain.TaxCode, error)

	// NextProtocol takes the company's protocol row lock and returns the allocated number.
	// The lock is held until the transaction ends.
	NextProtocol(ctx context.Context, companyID snowflake.ID, now time.Time) (int64, error)

	InsertEntry(ctx context.Context, entry JournalEntry, lines []JournalLine) error
	LockOpenItems(ctx context.Context, companyID snowflake.ID, ids []snowflake.ID) ([]openitemdomain.OpenItem, error)
	CloseOpenItems(ctx context.Context, companyID snowflake.ID, ids []snowflake.ID, entryID snowflake.ID, closedAt time.Time) (int64, error)
	InsertOpenItems(ctx context.Context, items []openitemdomain.OpenItem) error
	InsertVatRows(ctx context.Context, rows []vatdomain.VatRegisterEntry) error
	Audit(ctx context.Context, action, targetType, targetID string, metadata map[string]any) error
}
