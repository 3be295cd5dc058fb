// Package monitoring exposes Prometheus metrics for the lead pipeline.
package monitoring

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// LeadMetrics counts submissions and times pipeline stages.
// A nil *LeadMetrics is valid and records nothing.
type LeadMetrics struct {
	submissions   *prometheus.CounterVec
	stageFailures *prometheus.CounterVec
	stageLatency  *prometheus.HistogramVec
	analyzed      *prometheus.CounterVec
}

// NewLeadMetrics registers the lead metrics with reg, or the default
// registerer when reg is nil.
func NewLeadMetrics(reg prometheus.Registerer) *LeadMetrics {
	m := &LeadMetrics{
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadflow",
			Subsystem: "pipeline",
			Name:      "submissions_total",
			Help:      "Processed lead submissions by outcome",
		}, []string{"outcome"}),
		stageFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadflow",
			Subsystem: "pipeline",
			Name:      "stage_failures_total",
			Help:      "Pipeline failures by the stage that failed",
		}, []string{"stage"}),
		stageLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "leadflow",
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 45},
		}, []string{"stage"}),
		analyzed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadflow",
			Subsystem: "analyzer",
			Name:      "leads_total",
			Help:      "Analyzed leads by intent and ticket size",
		}, []string{"intent", "high_ticket"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissions, m.stageFailures, m.stageLatency, m.analyzed)
	return m
}

// ObserveSubmission counts one finished submission.
func (m *LeadMetrics) ObserveSubmission(outcome string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(outcome).Inc()
}

// ObserveStageFailure counts a failure in stage.
func (m *LeadMetrics) ObserveStageFailure(stage string) {
	if m == nil {
		return
	}
	m.stageFailures.WithLabelValues(stage).Inc()
}

// ObserveStageLatency records how long stage took.
func (m *LeadMetrics) ObserveStageLatency(stage string, seconds float64) {
	if m == nil {
		return
	}
	m.stageLatency.WithLabelValues(stage).Observe(seconds)
}

// ObserveAnalysis counts an analyzed lead.
func (m *LeadMetrics) ObserveAnalysis(intent string, highTicket bool) {
	if m == nil {
		return
	}
	m.analyzed.WithLabelValues(intent, strconv.FormatBool(highTicket)).Inc()
}
