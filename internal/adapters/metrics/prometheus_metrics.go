// Package metrics provides a Prometheus-based implementation of the core
// metrics reporting interface.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/gridsec/pilotproxy/internal/core/services"
)

var (
	proxyReadCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pilotproxy_proxy_read_total",
		Help: "Total number of pilot proxy file reads",
	}, []string{"result"}) // result: success, failure

	proxyReadRetryCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pilotproxy_proxy_read_retries_total",
		Help: "Total number of stability-loop retries while reading the pilot proxy",
	})

	decisionCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pilotproxy_decisions_total",
		Help: "Total number of trust decisions",
	}, []string{"permitted", "stage"}) // stage: failing pipeline stage, empty when permitted

	fqanMatchCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pilotproxy_fqan_match_total",
		Help: "Total number of FQAN pattern checks",
	}, []string{"matched"})
)

// PrometheusMetrics implements services.MetricsReporter using Prometheus.
type PrometheusMetrics struct{}

// NewPrometheusMetrics creates a new Prometheus metrics reporter.
func NewPrometheusMetrics() services.MetricsReporter {
	return &PrometheusMetrics{}
}

// RecordProxyRead records one pilot proxy read outcome.
func (m *PrometheusMetrics) RecordProxyRead(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	proxyReadCounter.WithLabelValues(result).Inc()
}

// RecordReadRetry records one stability-loop retry.
func (m *PrometheusMetrics) RecordReadRetry() {
	proxyReadRetryCounter.Inc()
}

// RecordDecision records a completed trust decision.
func (m *PrometheusMetrics) RecordDecision(permitted bool, stage string) {
	value := "false"
	if permitted {
		value = "true"
	}
	decisionCounter.WithLabelValues(value, stage).Inc()
}

// RecordFQANMatch records an attribute-pattern check outcome.
func (m *PrometheusMetrics) RecordFQANMatch(matched bool) {
	value := "false"
	if matched {
		value = "true"
	}
	fqanMatchCounter.WithLabelValues(value).Inc()
}
