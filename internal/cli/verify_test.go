package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newVerifyTestCmd builds a fresh command carrying the verify flag set so
// tests do not share Changed state through the package-level command.
func newVerifyTestCmd(t *testing.T) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "verify"}
	cmd.Flags().String("format", "text", "")
	registerVerifyFlags(cmd)
	return cmd
}

func TestLoadVerifyConfiguration(t *testing.T) {
	t.Run("defaults only", func(t *testing.T) {
		cmd := newVerifyTestCmd(t)

		cfg, err := loadVerifyConfiguration(cmd)
		require.NoError(t, err)
		assert.Empty(t, cfg.Proxy.Path)
		assert.Equal(t, "none", cfg.Proxy.Lock)
		assert.Equal(t, 10, cfg.Proxy.MaxAttempts)
		assert.Equal(t, 500*time.Microsecond, cfg.Proxy.RetryPause)
		assert.False(t, cfg.Policy.RequireLimited)
	})

	t.Run("config file overrides defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cfg.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
proxy:
  path: /tmp/from-file
  lock: flock
policy:
  required_fqan_pattern: "*/Role=pilot*"
`), 0o600))
		cmd := newVerifyTestCmd(t)
		require.NoError(t, cmd.Flags().Set("config", path))

		cfg, err := loadVerifyConfiguration(cmd)
		require.NoError(t, err)
		assert.Equal(t, "/tmp/from-file", cfg.Proxy.Path)
		assert.Equal(t, "flock", cfg.Proxy.Lock)
		assert.Equal(t, "*/Role=pilot*", cfg.Policy.RequiredFQANPattern)
		// Untouched keys keep their defaults.
		assert.Equal(t, 10, cfg.Proxy.MaxAttempts)
	})

	t.Run("environment overrides config file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cfg.yaml")
		require.NoError(t, os.WriteFile(path, []byte("proxy:\n  lock: flock\n"), 0o600))
		t.Setenv("PILOTPROXY_PROXY_LOCK", "fcntl")
		t.Setenv("PILOTPROXY_PROXY_PATH", "/tmp/from-env")
		cmd := newVerifyTestCmd(t)
		require.NoError(t, cmd.Flags().Set("config", path))

		cfg, err := loadVerifyConfiguration(cmd)
		require.NoError(t, err)
		assert.Equal(t, "fcntl", cfg.Proxy.Lock)
		assert.Equal(t, "/tmp/from-env", cfg.Proxy.Path)
	})

	t.Run("flags override everything", func(t *testing.T) {
		t.Setenv("PILOTPROXY_PROXY_LOCK", "fcntl")
		cmd := newVerifyTestCmd(t)
		require.NoError(t, cmd.Flags().Set("lock", "flock"))
		require.NoError(t, cmd.Flags().Set("proxy", "/tmp/from-flag"))
		require.NoError(t, cmd.Flags().Set("max-attempts", "3"))
		require.NoError(t, cmd.Flags().Set("retry-pause", "1ms"))
		require.NoError(t, cmd.Flags().Set("require-limited", "true"))

		cfg, err := loadVerifyConfiguration(cmd)
		require.NoError(t, err)
		assert.Equal(t, "flock", cfg.Proxy.Lock)
		assert.Equal(t, "/tmp/from-flag", cfg.Proxy.Path)
		assert.Equal(t, 3, cfg.Proxy.MaxAttempts)
		assert.Equal(t, time.Millisecond, cfg.Proxy.RetryPause)
		assert.True(t, cfg.Policy.RequireLimited)
	})

	t.Run("unset flags do not override", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cfg.yaml")
		require.NoError(t, os.WriteFile(path, []byte("proxy:\n  lock: flock\n"), 0o600))
		cmd := newVerifyTestCmd(t)
		require.NoError(t, cmd.Flags().Set("config", path))

		cfg, err := loadVerifyConfiguration(cmd)
		require.NoError(t, err)
		assert.Equal(t, "flock", cfg.Proxy.Lock)
	})

	t.Run("missing config file", func(t *testing.T) {
		cmd := newVerifyTestCmd(t)
		require.NoError(t, cmd.Flags().Set("config", filepath.Join(t.TempDir(), "nope.yaml")))

		_, err := loadVerifyConfiguration(cmd)
		assert.Error(t, err)
	})

	t.Run("invalid lock policy fails validation", func(t *testing.T) {
		cmd := newVerifyTestCmd(t)
		require.NoError(t, cmd.Flags().Set("lock", "spinlock"))

		_, err := loadVerifyConfiguration(cmd)
		assert.Error(t, err)
	})
}

func TestVerifyCmdStructure(t *testing.T) {
	assert.Equal(t, "verify", verifyCmd.Use)
	assert.NotNil(t, verifyCmd.RunE)

	for _, flag := range []string{
		"config", "payload", "proxy", "lock", "pattern",
		"fqan", "require-limited", "max-attempts", "retry-pause",
	} {
		assert.NotNil(t, verifyCmd.Flags().Lookup(flag), "missing flag %s", flag)
	}
}
