// Package pilotproxy decides whether an untrusted payload proxy chain was
// delegated by a trusted pilot proxy. It wraps the core trust pipeline
// (locked pilot proxy retrieval, PEM chain decoding, RFC 3820 policy
// inspection, delegation signature verification and FQAN pattern matching)
// behind a small facade suitable for embedding in an authorization
// framework.
package pilotproxy

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gridsec/pilotproxy/internal/adapters/secondary/creds"
	"github.com/gridsec/pilotproxy/internal/adapters/secondary/framework"
	"github.com/gridsec/pilotproxy/internal/adapters/secondary/proxyfile"
	"github.com/gridsec/pilotproxy/internal/core/ports"
	"github.com/gridsec/pilotproxy/internal/core/services"
)

// Decision is the outcome of one authorization run.
type Decision = services.Decision

// CredentialKind identifies the type of a published credential record.
type CredentialKind string

// Credential kinds delivered to a Store.
const (
	SubjectDN CredentialKind = CredentialKind(ports.CredentialSubjectDN)
	FQAN      CredentialKind = CredentialKind(ports.CredentialFQAN)
)

// Store receives the results of a positive trust decision. Each call is
// independent; failures do not roll back earlier records.
type Store interface {
	AddCredential(kind CredentialKind, value string) error
}

// Config holds verifier settings. The zero value reads the pilot proxy
// from $X509_USER_PROXY with no locking, no FQAN pattern, and limited
// checking off.
type Config struct {
	// ProxyPath is the pilot proxy file; empty falls back to the
	// X509_USER_PROXY environment variable.
	ProxyPath string

	// LockPolicy is "none", "fcntl" or "flock"; empty means "none".
	LockPolicy string

	// RequiredFQANPattern, when set, requires at least one payload FQAN to
	// match this glob pattern.
	RequiredFQANPattern string

	// RequireLimited requires both pilot and payload to be limited
	// proxies.
	RequireLimited bool

	// MaxAttempts and RetryPause tune the stability retry loop; zero
	// selects the defaults (10 attempts, 500µs).
	MaxAttempts int
	RetryPause  time.Duration
}

// Verifier runs trust decisions against a fixed configuration.
type Verifier struct {
	config *ports.Configuration
	store  Store
	logger *slog.Logger
}

// Option customizes a Verifier.
type Option func(*Verifier)

// WithStore directs positive decisions to store instead of an in-memory
// sink.
func WithStore(store Store) Option {
	return func(v *Verifier) {
		if store != nil {
			v.store = store
		}
	}
}

// WithLogger sets the logger used by the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Verifier) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// NewVerifier validates config and creates a Verifier.
func NewVerifier(config Config, opts ...Option) (*Verifier, error) {
	portsConfig := &ports.Configuration{
		Proxy: ports.ProxyConfig{
			Path:        config.ProxyPath,
			Lock:        config.LockPolicy,
			MaxAttempts: config.MaxAttempts,
			RetryPause:  config.RetryPause,
		},
		Policy: ports.PolicyConfig{
			RequiredFQANPattern: config.RequiredFQANPattern,
			RequireLimited:      config.RequireLimited,
		},
	}
	if err := portsConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	v := &Verifier{
		config: portsConfig,
		store:  memStore{inner: creds.NewMemoryStore()},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Verify runs the full pipeline: read the pilot proxy under lock, decode
// both chains, establish the delegation and policy facts, and publish the
// verified identity and tags to the configured store. A non-nil error
// reports an infrastructure failure; a failed trust check is a negative
// Decision with a nil error. The result is never "trusted by default".
func (v *Verifier) Verify(payloadPEM []byte, fqans []string) (*Decision, error) {
	proxyPath, err := v.config.ProxyPath()
	if err != nil {
		return nil, err
	}
	lockPolicy, err := v.config.LockPolicy()
	if err != nil {
		return nil, err
	}

	reader := proxyfile.NewReader(proxyPath, proxyfile.Options{
		Lock:        lockPolicy,
		MaxAttempts: v.config.MaxAttempts(),
		RetryPause:  v.config.RetryPause(),
		Logger:      v.logger,
	})

	arguments := framework.NewArguments().WithPayloadPEM(string(payloadPEM))
	if len(fqans) > 0 {
		arguments = arguments.WithFQANs(fqans)
	}

	service, err := services.NewTrustService(v.config, reader, arguments,
		storeAdapter{v.store}, services.WithLogger(v.logger))
	if err != nil {
		return nil, err
	}
	return service.Authorize()
}

// storeAdapter bridges the facade Store to the internal port.
type storeAdapter struct {
	store Store
}

func (a storeAdapter) AddCredential(kind ports.CredentialKind, value string) error {
	return a.store.AddCredential(CredentialKind(kind), value)
}

// memStore is the default sink: an in-memory store exposed through the
// facade interface.
type memStore struct {
	inner *creds.MemoryStore
}

func (m memStore) AddCredential(kind CredentialKind, value string) error {
	return m.inner.AddCredential(ports.CredentialKind(kind), value)
}
