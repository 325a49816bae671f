// Package config provides configuration loading for pilotproxy.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	yaml "gopkg.in/yaml.v3"

	"github.com/gridsec/pilotproxy/internal/core/errors"
	"github.com/gridsec/pilotproxy/internal/core/ports"
)

// FileProvider provides configurations from YAML files.
type FileProvider struct{}

// NewFileProvider creates a provider.
func NewFileProvider() *FileProvider {
	return &FileProvider{}
}

// LoadConfiguration loads and validates a configuration file.
func (p *FileProvider) LoadConfiguration(path string) (*ports.Configuration, error) {
	if strings.TrimSpace(path) == "" {
		return nil, &errors.ValidationError{
			Field:   "path",
			Value:   path,
			Message: "configuration file path cannot be empty or whitespace",
		}
	}

	absPath, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config file path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	// Decode in two steps so duration fields accept human-readable values
	// such as "500us" or "2ms", which yaml.v3 cannot produce directly.
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	var config ports.Configuration
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.StringToTimeDurationHookFunc(),
		Result:     &config,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build config decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in file %s: %w", path, err)
	}

	return &config, nil
}

// GetDefaultConfiguration returns the defaults: pilot proxy path from the
// X509_USER_PROXY environment variable, no locking, no pattern, limited
// checking off.
func (p *FileProvider) GetDefaultConfiguration() *ports.Configuration {
	return &ports.Configuration{
		Proxy: ports.ProxyConfig{
			Lock:        "none",
			MaxAttempts: ports.DefaultMaxAttempts,
			RetryPause:  ports.DefaultRetryPause,
		},
	}
}
