// Package ports defines interfaces for core services and domain boundaries.
package ports

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gridsec/pilotproxy/internal/core/domain"
	"github.com/gridsec/pilotproxy/internal/core/errors"
)

// EnvProxyPath is the environment variable naming the pilot proxy file.
// The name is fixed by the grid middleware convention.
const EnvProxyPath = "X509_USER_PROXY"

// Defaults for the proxy file reader's stability retry loop. These preserve
// the timing the deployed middleware has always used; both are configurable
// policy, not hard-coded behavior.
const (
	DefaultMaxAttempts = 10
	DefaultRetryPause  = 500 * time.Microsecond
)

// Configuration holds the complete settings for a pilot sub-proxy
// authorization decision.
type Configuration struct {
	// Proxy configures retrieval of the pilot proxy file.
	Proxy ProxyConfig `yaml:"proxy" mapstructure:"proxy"`

	// Policy configures the trust checks applied to the payload chain.
	Policy PolicyConfig `yaml:"policy" mapstructure:"policy"`
}

// ProxyConfig configures the locked file reader.
type ProxyConfig struct {
	// Path is the pilot proxy file. When empty it is taken from the
	// X509_USER_PROXY environment variable; a missing value is a
	// configuration error.
	Path string `yaml:"path,omitempty" mapstructure:"path" validate:"omitempty"`

	// Lock selects the advisory locking mechanism: "none", "fcntl" or
	// "flock".
	Lock string `yaml:"lock,omitempty" mapstructure:"lock" validate:"omitempty,lock_policy"`

	// MaxAttempts bounds the read/stat stability loop.
	MaxAttempts int `yaml:"max_attempts,omitempty" mapstructure:"max_attempts" validate:"omitempty,min=1"`

	// RetryPause is the pause between stability-loop attempts.
	RetryPause time.Duration `yaml:"retry_pause,omitempty" mapstructure:"retry_pause" validate:"omitempty,min=0"`
}

// PolicyConfig configures the trust checks.
type PolicyConfig struct {
	// RequiredFQANPattern, when set, requires at least one payload FQAN to
	// match this glob pattern.
	RequiredFQANPattern string `yaml:"required_fqan_pattern,omitempty" mapstructure:"required_fqan_pattern"`

	// RequireLimited, when true, requires both the pilot and the payload
	// leaf to be limited proxies.
	RequireLimited bool `yaml:"require_limited,omitempty" mapstructure:"require_limited"`
}

// ProxyPath resolves the pilot proxy path, falling back to the
// X509_USER_PROXY environment variable.
func (c *Configuration) ProxyPath() (string, error) {
	if strings.TrimSpace(c.Proxy.Path) != "" {
		return c.Proxy.Path, nil
	}
	if path := os.Getenv(EnvProxyPath); path != "" {
		return path, nil
	}
	return "", errors.NewDomainError(errors.ErrMissingProxyPath,
		fmt.Errorf("proxy.path unset and environment variable %s unset", EnvProxyPath))
}

// LockPolicy resolves the configured lock policy, defaulting to "none".
func (c *Configuration) LockPolicy() (domain.LockPolicy, error) {
	if strings.TrimSpace(c.Proxy.Lock) == "" {
		return domain.LockNone, nil
	}
	return domain.ParseLockPolicy(c.Proxy.Lock)
}

// MaxAttempts returns the configured stability-loop bound or the default.
func (c *Configuration) MaxAttempts() int {
	if c.Proxy.MaxAttempts > 0 {
		return c.Proxy.MaxAttempts
	}
	return DefaultMaxAttempts
}

// RetryPause returns the configured inter-attempt pause or the default.
func (c *Configuration) RetryPause() time.Duration {
	if c.Proxy.RetryPause > 0 {
		return c.Proxy.RetryPause
	}
	return DefaultRetryPause
}

// Validate checks the configuration and returns any validation errors.
func (c *Configuration) Validate() error {
	if c == nil {
		return &errors.ValidationError{
			Field:   "configuration",
			Value:   nil,
			Message: "configuration cannot be nil",
		}
	}

	if c.Proxy.Lock != "" {
		if _, err := domain.ParseLockPolicy(c.Proxy.Lock); err != nil {
			return &errors.ValidationError{
				Field:   "proxy.lock",
				Value:   c.Proxy.Lock,
				Message: "must be one of none, fcntl, flock",
			}
		}
	}

	if c.Proxy.MaxAttempts < 0 {
		return &errors.ValidationError{
			Field:   "proxy.max_attempts",
			Value:   c.Proxy.MaxAttempts,
			Message: "cannot be negative",
		}
	}

	if c.Proxy.RetryPause < 0 {
		return &errors.ValidationError{
			Field:   "proxy.retry_pause",
			Value:   c.Proxy.RetryPause,
			Message: "cannot be negative",
		}
	}

	// Struct-tag validation covers the same ground plus pattern syntax;
	// run it last so explicit messages above win for the common mistakes.
	if err := domain.NewValidator().Validate(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	return nil
}
