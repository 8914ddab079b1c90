package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandTree(t *testing.T) {
	for _, name := range []string{"migrate", "import-csv", "set-role", "cleanup-codes"} {
		cmd, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}

	flag := importCmd.Flags().Lookup("dir")
	require.NotNil(t, flag)
	assert.Empty(t, flag.DefValue)
}

func TestSetRole_RejectsUnknownRole(t *testing.T) {
	err := setRoleCmd.RunE(setRoleCmd, []string{"bob", "king"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown role "king"`)
}

func TestSetRole_RequiresTwoArgs(t *testing.T) {
	assert.Error(t, setRoleCmd.Args(setRoleCmd, []string{"bob"}))
	assert.NoError(t, setRoleCmd.Args(setRoleCmd, []string{"bob", "admin"}))
}
