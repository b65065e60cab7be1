package commands

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := NewRootCommand()

	names := make([]string, 0, len(root.Commands()))
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "migrate", "seed"}, names)
}

func TestSeedRequiresCompany(t *testing.T) {
	root := NewRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"seed", "--company", "0"})

	err := root.Execute()
	require.Error(t, err)
	assert.ErrorIs(t, err, errCompanyRequired)
}

func TestRegisterSnowflake(t *testing.T) {
	node, err := RegisterSnowflake()
	require.NoError(t, err)
	assert.NotZero(t, node.Generate().Int64())
}
