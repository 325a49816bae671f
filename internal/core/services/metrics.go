// Package services provides core business logic services.
package services

// MetricsReporter abstracts metrics reporting so the core services don't
// depend on a concrete metrics system.
type MetricsReporter interface {
	// RecordProxyRead records one pilot proxy file read outcome.
	RecordProxyRead(success bool)

	// RecordReadRetry records one stability-loop retry.
	RecordReadRetry()

	// RecordDecision records a completed trust decision with the stage a
	// negative decision failed at ("" for positive decisions).
	RecordDecision(permitted bool, stage string)

	// RecordFQANMatch records the outcome of an attribute-pattern check.
	RecordFQANMatch(matched bool)
}

// NoopMetrics is a MetricsReporter that discards all measurements.
type NoopMetrics struct{}

func (NoopMetrics) RecordProxyRead(bool)        {}
func (NoopMetrics) RecordReadRetry()            {}
func (NoopMetrics) RecordDecision(bool, string) {}
func (NoopMetrics) RecordFQANMatch(bool)        {}
