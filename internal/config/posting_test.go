package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDefaultPostingPolicy(t *testing.T) {
	policy := DefaultPostingPolicy()

	assert.True(t, policy.EnforceBalance)
	assert.True(t, policy.Category("purchases").VatRequired)
	assert.Equal(t, OpenItemOpenCredit, policy.Category("Sales").OpenItem)
	assert.False(t, policy.Category("corrispettivi").VatRequired)
	assert.Equal(t, VatRegisterSales, policy.Category("corrispettivi").VatRegister)
	assert.Equal(t, OpenItemNone, policy.Category("unknown").OpenItem)
}

func TestPostingPolicyFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "posting.yml")
	content := `posting:
  enforceBalance: false
  categories:
    corrispettivi:
      vatRequired: true
      openItem: none
      vatRegister: sales
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	holder, err := NewPostingPolicyHolder(Config{PostingPolicyPath: path}, zap.NewNop())
	require.NoError(t, err)

	policy := holder.Policy()
	assert.False(t, policy.EnforceBalance)
	assert.True(t, policy.Category("corrispettivi").VatRequired)
	// categories not in the file keep their defaults
	assert.True(t, policy.Category("purchases").VatRequired)
}

func TestPostingPolicyPartialOverrideKeepsCategoryDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "posting.yml")
	content := `posting:
  categories:
    purchases:
      vatRequired: false
    Rettifiche:
      openItem: none
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	holder, err := NewPostingPolicyHolder(Config{PostingPolicyPath: path}, zap.NewNop())
	require.NoError(t, err)

	policy := holder.Policy()
	assert.True(t, policy.EnforceBalance)

	purchases := policy.Category("purchases")
	assert.False(t, purchases.VatRequired)
	assert.Equal(t, OpenItemOpenDebit, purchases.OpenItem)
	assert.Equal(t, VatRegisterPurchases, purchases.VatRegister)

	// new categories start from an empty rule set
	assert.Equal(t, CategoryPolicy{OpenItem: OpenItemNone}, policy.Category("rettifiche"))
}

func TestPostingPolicyRejectsUnknownOpenItem(t *testing.T) {
	policy := DefaultPostingPolicy()
	policy.Categories["sales"] = CategoryPolicy{OpenItem: "sideways"}
	assert.Error(t, validatePostingPolicy(policy))
}
