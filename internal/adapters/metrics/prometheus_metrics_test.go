package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPrometheusMetricsCounters(t *testing.T) {
	m := NewPrometheusMetrics()

	before := testutil.ToFloat64(proxyReadCounter.WithLabelValues("success"))
	m.RecordProxyRead(true)
	assert.Equal(t, before+1, testutil.ToFloat64(proxyReadCounter.WithLabelValues("success")))

	before = testutil.ToFloat64(proxyReadCounter.WithLabelValues("failure"))
	m.RecordProxyRead(false)
	assert.Equal(t, before+1, testutil.ToFloat64(proxyReadCounter.WithLabelValues("failure")))

	before = testutil.ToFloat64(proxyReadRetryCounter)
	m.RecordReadRetry()
	assert.Equal(t, before+1, testutil.ToFloat64(proxyReadRetryCounter))

	before = testutil.ToFloat64(decisionCounter.WithLabelValues("false", "signature"))
	m.RecordDecision(false, "signature")
	assert.Equal(t, before+1, testutil.ToFloat64(decisionCounter.WithLabelValues("false", "signature")))

	before = testutil.ToFloat64(fqanMatchCounter.WithLabelValues("true"))
	m.RecordFQANMatch(true)
	assert.Equal(t, before+1, testutil.ToFloat64(fqanMatchCounter.WithLabelValues("true")))
}
