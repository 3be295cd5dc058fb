package monitoring

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestLeadMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewLeadMetrics(reg)

	m.ObserveSubmission("success")
	m.ObserveSubmission("success")
	m.ObserveSubmission("invalid")
	m.ObserveStageFailure("notifying")
	m.ObserveAnalysis("hiring", true)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.submissions.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.submissions.WithLabelValues("invalid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.stageFailures.WithLabelValues("notifying")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.analyzed.WithLabelValues("hiring", "true")))
}

func TestLeadMetrics_Latency(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewLeadMetrics(reg)

	m.ObserveStageLatency("analyzing", 1.5)

	assert.Equal(t, 1, testutil.CollectAndCount(m.stageLatency))
}

func TestLeadMetrics_Registered(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewLeadMetrics(reg)
	m.ObserveSubmission("success")

	n, err := testutil.GatherAndCount(reg, "leadflow_pipeline_submissions_total")
	assert.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestLeadMetrics_NilSafe(t *testing.T) {
	var m *LeadMetrics
	m.ObserveSubmission("success")
	m.ObserveStageFailure("analyzing")
	m.ObserveStageLatency("analyzing", 0.1)
	m.ObserveAnalysis("spam", false)
}
