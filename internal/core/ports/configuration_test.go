package ports_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridsec/pilotproxy/internal/core/domain"
	"github.com/gridsec/pilotproxy/internal/core/errors"
	"github.com/gridsec/pilotproxy/internal/core/ports"
)

func TestConfigurationProxyPath(t *testing.T) {
	t.Run("explicit path wins", func(t *testing.T) {
		t.Setenv(ports.EnvProxyPath, "/tmp/env-proxy")
		cfg := &ports.Configuration{Proxy: ports.ProxyConfig{Path: "/tmp/flag-proxy"}}

		path, err := cfg.ProxyPath()
		require.NoError(t, err)
		assert.Equal(t, "/tmp/flag-proxy", path)
	})

	t.Run("falls back to environment", func(t *testing.T) {
		t.Setenv(ports.EnvProxyPath, "/tmp/env-proxy")
		cfg := &ports.Configuration{}

		path, err := cfg.ProxyPath()
		require.NoError(t, err)
		assert.Equal(t, "/tmp/env-proxy", path)
	})

	t.Run("missing everywhere is an error", func(t *testing.T) {
		t.Setenv(ports.EnvProxyPath, "")
		cfg := &ports.Configuration{}

		_, err := cfg.ProxyPath()
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrMissingProxyPath)
	})

	t.Run("whitespace-only path falls through", func(t *testing.T) {
		t.Setenv(ports.EnvProxyPath, "/tmp/env-proxy")
		cfg := &ports.Configuration{Proxy: ports.ProxyConfig{Path: "   "}}

		path, err := cfg.ProxyPath()
		require.NoError(t, err)
		assert.Equal(t, "/tmp/env-proxy", path)
	})
}

func TestConfigurationLockPolicy(t *testing.T) {
	t.Parallel()

	t.Run("empty defaults to none", func(t *testing.T) {
		t.Parallel()
		cfg := &ports.Configuration{}

		policy, err := cfg.LockPolicy()
		require.NoError(t, err)
		assert.Equal(t, domain.LockNone, policy)
	})

	t.Run("parses configured value", func(t *testing.T) {
		t.Parallel()
		cfg := &ports.Configuration{Proxy: ports.ProxyConfig{Lock: "flock"}}

		policy, err := cfg.LockPolicy()
		require.NoError(t, err)
		assert.Equal(t, domain.LockFlock, policy)
	})

	t.Run("rejects unknown value", func(t *testing.T) {
		t.Parallel()
		cfg := &ports.Configuration{Proxy: ports.ProxyConfig{Lock: "mutex"}}

		_, err := cfg.LockPolicy()
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrInvalidLockPolicy)
	})
}

func TestConfigurationRetryDefaults(t *testing.T) {
	t.Parallel()

	t.Run("defaults apply when unset", func(t *testing.T) {
		t.Parallel()
		cfg := &ports.Configuration{}

		assert.Equal(t, ports.DefaultMaxAttempts, cfg.MaxAttempts())
		assert.Equal(t, ports.DefaultRetryPause, cfg.RetryPause())
	})

	t.Run("configured values win", func(t *testing.T) {
		t.Parallel()
		cfg := &ports.Configuration{Proxy: ports.ProxyConfig{
			MaxAttempts: 3,
			RetryPause:  2 * time.Millisecond,
		}}

		assert.Equal(t, 3, cfg.MaxAttempts())
		assert.Equal(t, 2*time.Millisecond, cfg.RetryPause())
	})
}

func TestConfigurationValidate(t *testing.T) {
	t.Parallel()

	t.Run("zero configuration is valid", func(t *testing.T) {
		t.Parallel()
		cfg := &ports.Configuration{}
		assert.NoError(t, cfg.Validate())
	})

	t.Run("fully populated configuration is valid", func(t *testing.T) {
		t.Parallel()
		cfg := &ports.Configuration{
			Proxy: ports.ProxyConfig{
				Path:        "/tmp/x509up_u1000",
				Lock:        "fcntl",
				MaxAttempts: 5,
				RetryPause:  time.Millisecond,
			},
			Policy: ports.PolicyConfig{
				RequiredFQANPattern: "*/Role=pilot*",
				RequireLimited:      true,
			},
		}
		assert.NoError(t, cfg.Validate())
	})

	t.Run("nil configuration", func(t *testing.T) {
		t.Parallel()
		var cfg *ports.Configuration
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration cannot be nil")
	})

	t.Run("bad lock policy", func(t *testing.T) {
		t.Parallel()
		cfg := &ports.Configuration{Proxy: ports.ProxyConfig{Lock: "spinlock"}}

		err := cfg.Validate()
		require.Error(t, err)
		var verr *errors.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "proxy.lock", verr.Field)
	})

	t.Run("negative max attempts", func(t *testing.T) {
		t.Parallel()
		cfg := &ports.Configuration{Proxy: ports.ProxyConfig{MaxAttempts: -1}}

		err := cfg.Validate()
		require.Error(t, err)
		var verr *errors.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "proxy.max_attempts", verr.Field)
	})

	t.Run("negative retry pause", func(t *testing.T) {
		t.Parallel()
		cfg := &ports.Configuration{Proxy: ports.ProxyConfig{RetryPause: -time.Second}}

		err := cfg.Validate()
		require.Error(t, err)
		var verr *errors.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "proxy.retry_pause", verr.Field)
	})
}
