package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "todo-api dev\n", out.String())
}

func TestServeFlagsRegistered(t *testing.T) {
	for _, name := range []string{"addr", "db-driver", "db-url"} {
		assert.NotNil(t, serveCmd.Flags().Lookup(name), name)
		assert.NotNil(t, rootCmd.Flags().Lookup(name), name)
	}
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
}
