package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the passport module.
type Metrics struct {
	// Issuance outcomes: "anchored", "mock", "failed"
	IssuanceOutcome *prometheus.CounterVec

	// Verification lookups: "found", "not_found", "mock"
	VerificationLookups *prometheus.CounterVec

	// Full issuance latency including upload and anchoring
	IssueLatency prometheus.Histogram
}

// New creates a Metrics instance with all passport module metrics registered.
func New() *Metrics {
	return &Metrics{
		IssuanceOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "agripass_passport_issuance_total",
			Help: "Total passport issuances by outcome",
		}, []string{"outcome"}),

		VerificationLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "agripass_passport_verifications_total",
			Help: "Total verification lookups by result",
		}, []string{"result"}),

		IssueLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "agripass_passport_issue_duration_seconds",
			Help:    "Duration of full passport issuance including upload and anchoring",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 15, 60, 120},
		}),
	}
}

// RecordIssuance records an issuance outcome.
func (m *Metrics) RecordIssuance(outcome string) {
	if m != nil {
		m.IssuanceOutcome.WithLabelValues(outcome).Inc()
	}
}

// RecordVerification records a verification lookup result.
func (m *Metrics) RecordVerification(result string) {
	if m != nil {
		m.VerificationLookups.WithLabelValues(result).Inc()
	}
}

// ObserveIssueLatency records the total issuance duration.
func (m *Metrics) ObserveIssueLatency(d time.Duration) {
	if m != nil {
		m.IssueLatency.Observe(d.Seconds())
	}
}
