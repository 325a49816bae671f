package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmdStructure(t *testing.T) {
	require.NotNil(t, rootCmd)
	assert.Equal(t, "pilotproxy-cli", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)

	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("format"))

	names := make(map[string]bool)
	for _, sub := range rootCmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"verify", "inspect", "version"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestGetVersionInfo(t *testing.T) {
	info := GetVersionInfo()
	require.NotNil(t, info)
	assert.NotEmpty(t, info.Version)
	assert.NotEmpty(t, info.GoVersion)
	assert.NotEmpty(t, info.GOOS)
	assert.NotEmpty(t, info.GOARCH)
}
