package seed_test

import (
	"testing"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/smallbiznis/partita/internal/account/domain"
	fndomain "github.com/smallbiznis/partita/internal/accountingfunction/domain"
	postingdomain "github.com/smallbiznis/partita/internal/posting/domain"
	"github.com/smallbiznis/partita/internal/seed"
	"github.com/smallbiznis/partita/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestEnsureCompanyIsIdempotent(t *testing.T) {
	db := testutil.NewDB(t)
	node := testutil.NewNode(t)
	companyID := snowflake.ID(77)

	require.NoError(t, seed.EnsureCompany(db, node, companyID, zap.NewNop()))
	require.NoError(t, seed.EnsureCompany(db, node, companyID, zap.NewNop()))

	var accounts int64
	require.NoError(t, db.Model(&accountdomain.Account{}).Where("company_id = ?", companyID).Count(&accounts).Error)
	assert.Equal(t, int64(19), accounts)

	var sottoconto accountdomain.Account
	require.NoError(t, db.Where("company_id = ? AND code = ?", companyID, "104.01.001").First(&sottoconto).Error)
	assert.Equal(t, accountdomain.KindSottoconto, sottoconto.Kind)
	require.NotNil(t, sottoconto.ParentID)

	var conto accountdomain.Account
	require.NoError(t, db.First(&conto, "id = ?", *sottoconto.ParentID).Error)
	assert.Equal(t, "104.01", conto.Code)

	var fn fndomain.AccountingFunction
	require.NoError(t, db.Where("company_id = ? AND function_key = ?", companyID, "REG-FATT-ACQ").First(&fn).Error)
	assert.Equal(t, int64(1), fn.Code)

	var vatLines int64
	require.NoError(t, db.Model(&fndomain.PredefinedLine{}).Where("function_id = ? AND role = ?", fn.ID, fndomain.RoleVAT).Count(&vatLines).Error)
	assert.Equal(t, int64(1), vatLines)

	var seq postingdomain.ProtocolSequence
	require.NoError(t, db.First(&seq, "company_id = ?", companyID).Error)
	assert.Equal(t, int64(1), seq.NextNumber)
}
