package services

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/gridsec/pilotproxy/internal/core/domain"
	"github.com/gridsec/pilotproxy/internal/core/errors"
	"github.com/gridsec/pilotproxy/internal/core/ports"
)

// Pipeline stage names recorded on negative decisions.
const (
	StagePilotRead     = "pilot_read"
	StagePilotDecode   = "pilot_decode"
	StagePayload       = "payload"
	StageSignature     = "signature"
	StageRFCCompliance = "rfc_compliance"
	StageLimited       = "limited_policy"
	StageFQANMatch     = "fqan_match"
	StagePublish       = "publish"
)

// Decision is the outcome of one authorization run. It carries the
// independent facts the pipeline established so callers can log precisely;
// Permitted is their conjunction.
type Decision struct {
	ID        string `json:"id"`
	Permitted bool   `json:"permitted"`

	// Stage names the pipeline stage a negative decision failed at.
	Stage  string `json:"stage,omitempty"`
	Reason string `json:"reason,omitempty"`

	SubjectDN      string   `json:"subject_dn,omitempty"`
	SignatureValid bool     `json:"signature_valid"`
	PilotRFC       bool     `json:"pilot_rfc"`
	PayloadRFC     bool     `json:"payload_rfc"`
	PilotLimited   bool     `json:"pilot_limited"`
	PayloadLimited bool     `json:"payload_limited"`
	FQANMatched    bool     `json:"fqan_matched"`
	MatchedFQAN    string   `json:"matched_fqan,omitempty"`
	FQANs          []string `json:"fqans,omitempty"`

	// PayloadChainOwned reports whether this core constructed the payload
	// chain itself (from PEM text) rather than borrowing it from the
	// framework.
	PayloadChainOwned bool `json:"payload_chain_owned"`
}

// TrustService runs the pilot sub-proxy authorization pipeline: obtain both
// chains, establish the delegation signature and RFC-3820 policy facts,
// enforce the attribute pattern, and publish the verified identity.
//
// Execution is synchronous and single-threaded per invocation; the host
// invokes it once per authorization decision.
type TrustService struct {
	config  *ports.Configuration
	pilot   ports.PilotSource
	args    ports.ArgumentSource
	store   ports.CredentialStore
	metrics MetricsReporter
	logger  *slog.Logger
}

// NewTrustService creates a TrustService. pilot, args and store are
// required; metrics and logger fall back to no-op and slog.Default.
func NewTrustService(config *ports.Configuration, pilot ports.PilotSource, args ports.ArgumentSource, store ports.CredentialStore, opts ...TrustServiceOption) (*TrustService, error) {
	if config == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if pilot == nil {
		return nil, fmt.Errorf("pilot source cannot be nil")
	}
	if args == nil {
		return nil, fmt.Errorf("argument source cannot be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("credential store cannot be nil")
	}

	s := &TrustService{
		config:  config,
		pilot:   pilot,
		args:    args,
		store:   store,
		metrics: NoopMetrics{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// TrustServiceOption customizes a TrustService.
type TrustServiceOption func(*TrustService)

// WithMetrics sets the metrics reporter.
func WithMetrics(m MetricsReporter) TrustServiceOption {
	return func(s *TrustService) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) TrustServiceOption {
	return func(s *TrustService) {
		if l != nil {
			s.logger = l
		}
	}
}

// Authorize runs the full pipeline and returns the decision. A non-nil
// error reports an infrastructure failure (configuration, I/O, parsing);
// trust failures are a negative decision with a nil error. Neither is ever
// reported as a panic, and a verification error is never upgraded to a
// positive decision.
func (s *TrustService) Authorize() (*Decision, error) {
	decision := &Decision{ID: uuid.NewString()}
	logger := s.logger.With("decision_id", decision.ID)

	// Pilot proxy: locked file read, then PEM decode.
	pilotPEM, err := s.pilot.ReadPilot()
	if err != nil {
		s.metrics.RecordProxyRead(false)
		return s.deny(decision, StagePilotRead, err)
	}
	s.metrics.RecordProxyRead(true)

	pilotChain, err := domain.DecodeChain(pilotPEM)
	if err != nil {
		logger.Warn("cannot convert pilot PEM to chain", "error", err)
		return s.deny(decision, StagePilotDecode, err)
	}
	logger.Debug("pilot chain decoded", "length", pilotChain.Len(),
		"subject", domain.OnelineDN(pilotChain.Leaf()))

	// Payload proxy: pre-parsed chain preferred, PEM string fallback.
	payloadChain, owned, err := s.payloadChain(logger)
	if err != nil {
		return s.deny(decision, StagePayload, err)
	}
	decision.PayloadChainOwned = owned
	decision.SubjectDN = domain.OnelineDN(payloadChain.Leaf())

	// FQANs are optional; absence means zero tags, not failure.
	fqans, ok := s.args.FQANs()
	if !ok {
		logger.Info("no FQANs supplied by the framework")
	}
	decision.FQANs = fqans

	// Delegation signature: payload leaf signed by pilot leaf.
	decision.SignatureValid = domain.VerifySignedByLogged(payloadChain.Leaf(), pilotChain.Leaf(), logger)
	if !decision.SignatureValid {
		return s.denyTrust(decision, StageSignature, "payload certificate is not signed by pilot certificate")
	}

	// Both leaves must be RFC-3820 proxies.
	decision.PilotRFC = domain.IsRFCProxy(pilotChain.Leaf())
	decision.PayloadRFC = domain.IsRFCProxy(payloadChain.Leaf())
	if !decision.PilotRFC || !decision.PayloadRFC {
		return s.denyTrust(decision, StageRFCCompliance,
			fmt.Sprintf("pilot rfc=%t payload rfc=%t, both must be RFC proxies",
				decision.PilotRFC, decision.PayloadRFC))
	}

	// Limited-policy check, when enabled: both ends must be limited.
	decision.PilotLimited = domain.IsLimitedProxy(pilotChain.Leaf())
	decision.PayloadLimited = domain.IsLimitedProxy(payloadChain.Leaf())
	if s.config.Policy.RequireLimited && !(decision.PilotLimited && decision.PayloadLimited) {
		return s.denyTrust(decision, StageLimited,
			fmt.Sprintf("pilot limited=%t payload limited=%t, both must be limited proxies",
				decision.PilotLimited, decision.PayloadLimited))
	}

	// Attribute pattern, when configured.
	if pattern := s.config.Policy.RequiredFQANPattern; pattern != "" {
		matched, matchedTag := false, ""
		if matchedTag, matched = domain.FirstMatchingFQAN(fqans, pattern); matched {
			logger.Debug("found FQAN matching pattern", "pattern", pattern, "fqan", matchedTag)
		}
		s.metrics.RecordFQANMatch(matched)
		decision.FQANMatched = matched
		decision.MatchedFQAN = matchedTag
		if !matched {
			return s.denyTrust(decision, StageFQANMatch,
				fmt.Sprintf("no FQAN matches pattern %q", pattern))
		}
	}

	// Publish the verified identity and the tags.
	if err := s.publish(decision, logger); err != nil {
		return s.deny(decision, StagePublish, err)
	}

	decision.Permitted = true
	s.metrics.RecordDecision(true, "")
	logger.Info("payload proxy trusted", "subject", decision.SubjectDN)
	return decision, nil
}

// payloadChain obtains the payload chain from the framework arguments. The
// owned flag is true only when this core constructed the chain from PEM
// text; a chain borrowed from the framework is never released here.
func (s *TrustService) payloadChain(logger *slog.Logger) (*domain.Chain, bool, error) {
	if chain, ok := s.args.PayloadChain(); ok && chain != nil {
		return chain, false, nil
	}

	logger.Debug("no X.509 chain is set, trying PEM string")
	pem, ok := s.args.PayloadPEM()
	if !ok || pem == "" {
		return nil, false, errors.NewDomainError(errors.ErrTrustDenied,
			fmt.Errorf("no payload chain or PEM string is set"))
	}

	chain, err := domain.DecodeChain([]byte(pem))
	if err != nil {
		return nil, false, fmt.Errorf("cannot convert payload PEM to chain: %w", err)
	}
	return chain, true, nil
}

// publish hands the verified subject DN and each FQAN to the credential
// store. Tag stores are best-effort: a failed tag is reported but does not
// roll back earlier records.
func (s *TrustService) publish(decision *Decision, logger *slog.Logger) error {
	if err := s.store.AddCredential(ports.CredentialSubjectDN, decision.SubjectDN); err != nil {
		logger.Warn("failed to add subject DN to credential data",
			"subject", decision.SubjectDN, "error", err)
		return fmt.Errorf("storing subject DN: %w", err)
	}
	logger.Debug("added subject DN to credential data", "subject", decision.SubjectDN)

	stored := 0
	var lastErr error
	for _, fqan := range decision.FQANs {
		if err := s.store.AddCredential(ports.CredentialFQAN, fqan); err != nil {
			logger.Warn("failed to add FQAN to credential data", "fqan", fqan, "error", err)
			lastErr = err
			continue
		}
		stored++
	}
	logger.Debug("added FQANs to credential data", "stored", stored, "total", len(decision.FQANs))
	if lastErr != nil {
		return fmt.Errorf("storing FQANs (%d of %d stored): %w", stored, len(decision.FQANs), lastErr)
	}
	return nil
}

func (s *TrustService) deny(decision *Decision, stage string, err error) (*Decision, error) {
	decision.Permitted = false
	decision.Stage = stage
	decision.Reason = err.Error()
	s.metrics.RecordDecision(false, stage)
	s.logger.Warn("authorization failed", "decision_id", decision.ID, "stage", stage, "error", err)
	return decision, err
}

// denyTrust records a trust-negative outcome. Unlike deny it returns a nil
// error: a failed check is a valid negative decision, not an infrastructure
// failure.
func (s *TrustService) denyTrust(decision *Decision, stage, reason string) (*Decision, error) {
	decision.Permitted = false
	decision.Stage = stage
	decision.Reason = reason
	s.metrics.RecordDecision(false, stage)
	s.logger.Warn("payload proxy not trusted", "decision_id", decision.ID, "stage", stage, "reason", reason)
	return decision, nil
}
