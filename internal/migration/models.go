package migration

import (
	accountdomain "github.com/smallbiznis/partita/internal/account/domain"
	fndomain "github.com/smallbiznis/partita/internal/accountingfunction/domain"
	auditdomain "github.com/smallbiznis/partita/internal/audit/domain"
	counterpartydomain "github.com/smallbiznis/partita/internal/counterparty/domain"
	openitemdomain "github.com/smallbiznis/partita/internal/openitem/domain"
	postingdomain "github.com/smallbiznis/partita/internal/posting/domain"
	taxdomain "github.com/smallbiznis/partita/internal/tax/domain"
	vatdomain "github.com/smallbiznis/partita/internal/vatregister/domain"
	"gorm.io/gorm"
)

// Models lists every table of the accounting core in dependency order.
func Models() []any {
	return []any{
		&accountdomain.Account{},
		&fndomain.AccountingFunction{},
		&fndomain.PredefinedLine{},
		&counterpartydomain.Counterparty{},
		&taxdomain.TaxCode{},
		&postingdomain.ProtocolSequence{},
		&postingdomain.JournalEntry{},
		&postingdomain.JournalLine{},
		&openitemdomain.OpenItem{},
		&vatdomain.VatRegisterEntry{},
		&auditdomain.AuditLog{},
	}
}

// AutoMigrate creates the schema from the domain models. It serves sqlite
// and mysql deployments and tests; postgres runs the embedded SQL instead.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
