package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	accountdomain "github.com/smallbiznis/partita/internal/account/domain"
	fndomain "github.com/smallbiznis/partita/internal/accountingfunction/domain"
	postingdomain "github.com/smallbiznis/partita/internal/posting/domain"
	taxdomain "github.com/smallbiznis/partita/internal/tax/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type starterAccount struct {
	Code        string
	Parent      string
	Kind        accountdomain.Kind
	Nature      accountdomain.Nature
	Description string
}

var starterChart = []starterAccount{
	{"101", "", accountdomain.KindMastro, "", "Crediti"},
	{"101.01", "101", accountdomain.KindConto, accountdomain.NatureAsset, "Crediti verso clienti"},
	{"101.01.001", "101.01", accountdomain.KindSottoconto, accountdomain.NatureAsset, "Clienti Italia"},
	{"102", "", accountdomain.KindMastro, "", "Disponibilita liquide"},
	{"102.01", "102", accountdomain.KindConto, accountdomain.NatureAsset, "Banche"},
	{"102.01.001", "102.01", accountdomain.KindSottoconto, accountdomain.NatureAsset, "Banca c/c"},
	{"103", "", accountdomain.KindMastro, "", "Erario"},
	{"103.01", "103", accountdomain.KindConto, accountdomain.NatureAsset, "IVA"},
	{"103.01.001", "103.01", accountdomain.KindSottoconto, accountdomain.NatureAsset, "IVA a credito"},
	{"103.01.002", "103.01", accountdomain.KindSottoconto, accountdomain.NatureLiability, "IVA a debito"},
	{"104", "", accountdomain.KindMastro, "", "Debiti"},
	{"104.01", "104", accountdomain.KindConto, accountdomain.NatureLiability, "Debiti verso fornitori"},
	{"104.01.001", "104.01", accountdomain.KindSottoconto, accountdomain.NatureLiability, "Fornitori Italia"},
	{"105", "", accountdomain.KindMastro, "", "Costi"},
	{"105.01", "105", accountdomain.KindConto, accountdomain.NatureCost, "Acquisti"},
	{"105.01.001", "105.01", accountdomain.KindSottoconto, accountdomain.NatureCost, "Merci c/acquisti"},
	{"106", "", accountdomain.KindMastro, "", "Ricavi"},
	{"106.01", "106", accountdomain.KindConto, accountdomain.NatureRevenue, "Vendite"},
	{"106.01.001", "106.01", accountdomain.KindSottoconto, accountdomain.NatureRevenue, "Merci c/vendite"},
}

type starterLine struct {
	Account string
	Side    fndomain.Side
	Role    fndomain.Role
}

type starterFunction struct {
	Code     int64
	Key      string
	Name     string
	Category fndomain.Category
	Type     fndomain.Type
	Lines    []starterLine
}

var starterFunctions = []starterFunction{
	{1, "REG-FATT-ACQ", "Registrazione fattura di acquisto", fndomain.CategoryPurchases, fndomain.TypeFinancial, []starterLine{
		{"105.01.001", fndomain.SideDebit, fndomain.RoleNone},
		{"103.01.001", fndomain.SideDebit, fndomain.RoleVAT},
		{"104.01.001", fndomain.SideCredit, fndomain.RoleCounterparty},
	}},
	{2, "REG-FATT-VEN", "Registrazione fattura di vendita", fndomain.CategorySales, fndomain.TypeFinancial, []starterLine{
		{"101.01.001", fndomain.SideDebit, fndomain.RoleCounterparty},
		{"106.01.001", fndomain.SideCredit, fndomain.RoleNone},
		{"103.01.002", fndomain.SideCredit, fndomain.RoleVAT},
	}},
	{3, "PAGAMENTO", "Pagamento fornitore", fndomain.CategoryPayments, fndomain.TypeFinancial, []starterLine{
		{"104.01.001", fndomain.SideDebit, fndomain.RoleCounterparty},
		{"102.01.001", fndomain.SideCredit, fndomain.RoleNone},
	}},
	{4, "INCASSO", "Incasso da cliente", fndomain.CategoryPayments, fndomain.TypeFinancial, []starterLine{
		{"102.01.001", fndomain.SideDebit, fndomain.RoleNone},
		{"101.01.001", fndomain.SideCredit, fndomain.RoleCounterparty},
	}},
}

var starterTaxCodes = []struct {
	Code        string
	Description string
	Rate        string
}{
	{"22", "IVA ordinaria 22%", "22"},
	{"10", "IVA ridotta 10%", "10"},
	{"4", "IVA minima 4%", "4"},
}

// EnsureCompany seeds the starter chart, tax codes, accounting functions and
// protocol sequence for a company. A company that already has accounts is left alone.
func EnsureCompany(db *gorm.DB, node *snowflake.Node, companyID snowflake.ID, log *zap.Logger) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}
	if companyID == 0 {
		return errors.New("seed company id is required")
	}
	if node == nil {
		var err error
		node, err = snowflake.NewNode(1)
		if err != nil {
			return err
		}
	}
	if log == nil {
		log = zap.NewNop()
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureProtocolSequenceTx(ctx, tx, companyID); err != nil {
			return err
		}

		var existing int64
		if err := tx.Model(&accountdomain.Account{}).Where("company_id = ?", companyID).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			log.Info("company already seeded", zap.String("company_id", companyID.String()))
			return nil
		}

		accounts, err := ensureChartTx(ctx, tx, node, companyID)
		if err != nil {
			return err
		}
		if err := ensureTaxCodesTx(ctx, tx, node, companyID); err != nil {
			return err
		}
		if err := ensureFunctionsTx(ctx, tx, node, companyID, accounts); err != nil {
			return err
		}
		log.Info("company seeded",
			zap.String("company_id", companyID.String()),
			zap.Int("accounts", len(accounts)),
			zap.Int("functions", len(starterFunctions)),
		)
		return nil
	})
}

func ensureProtocolSequenceTx(ctx context.Context, tx *gorm.DB, companyID snowflake.ID) error {
	seq := postingdomain.ProtocolSequence{
		CompanyID:  companyID,
		NextNumber: 1,
		UpdatedAt:  time.Now().UTC(),
	}
	return tx.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "company_id"}}, DoNothing: true}).
		Create(&seq).Error
}

func ensureChartTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, companyID snowflake.ID) (map[string]snowflake.ID, error) {
	now := time.Now().UTC()
	ids := make(map[string]snowflake.ID, len(starterChart))
	for _, item := range starterChart {
		account := accountdomain.Account{
			ID:          node.Generate(),
			CompanyID:   companyID,
			Code:        item.Code,
			Description: item.Description,
			Kind:        item.Kind,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if item.Nature != "" {
			nature := item.Nature
			account.Nature = &nature
		}
		if item.Parent != "" {
			parentID := ids[item.Parent]
			account.ParentID = &parentID
		}
		if err := tx.WithContext(ctx).Create(&account).Error; err != nil {
			return nil, err
		}
		ids[item.Code] = account.ID
	}
	return ids, nil
}

func ensureTaxCodesTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, companyID snowflake.ID) error {
	now := time.Now().UTC()
	for _, item := range starterTaxCodes {
		code := taxdomain.TaxCode{
			ID:          node.Generate(),
			CompanyID:   companyID,
			Code:        item.Code,
			Description: item.Description,
			Rate:        decimal.RequireFromString(item.Rate),
			IsEnabled:   true,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		err := tx.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&code).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func ensureFunctionsTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, companyID snowflake.ID, accounts map[string]snowflake.ID) error {
	now := time.Now().UTC()
	for _, item := range starterFunctions {
		key := item.Key
		fn := fndomain.AccountingFunction{
			ID:        node.Generate(),
			CompanyID: companyID,
			Code:      item.Code,
			Key:       &key,
			Name:      item.Name,
			Category:  item.Category,
			Type:      item.Type,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.WithContext(ctx).Create(&fn).Error; err != nil {
			return err
		}
		for i, line := range item.Lines {
			predefined := fndomain.PredefinedLine{
				ID:         node.Generate(),
				CompanyID:  companyID,
				FunctionID: fn.ID,
				LineNo:     i + 1,
				AccountID:  accounts[line.Account],
				Side:       line.Side,
				Role:       line.Role,
			}
			if err := tx.WithContext(ctx).Create(&predefined).Error; err != nil {
				return err
			}
		}
	}
	return nil
}
