package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the engine.
type Metrics struct {
	Verifications    *prometheus.CounterVec
	NullifierReplays prometheus.Counter
	AwardsIssued     *prometheus.CounterVec
	IssueDuration    prometheus.Histogram
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		Verifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vibegate_verifications_total",
			Help: "Proof verification attempts by result.",
		}, []string{"result"}),
		NullifierReplays: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vibegate_nullifier_replays_total",
			Help: "Registration attempts rejected because the nullifier was already bound elsewhere.",
		}),
		AwardsIssued: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vibegate_awards_issued_total",
			Help: "Successfully issued awards by award type.",
		}, []string{"award_type"}),
		IssueDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "vibegate_issue_duration_seconds",
			Help:    "Latency of the dual-ledger issuance path.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// ObserveVerification records the outcome of a verification attempt.
func (m *Metrics) ObserveVerification(result string) {
	m.Verifications.WithLabelValues(result).Inc()
}

// ObserveAward records a successful issuance for an award type.
func (m *Metrics) ObserveAward(awardType string, seconds float64) {
	m.AwardsIssued.WithLabelValues(awardType).Inc()
	m.IssueDuration.Observe(seconds)
}
