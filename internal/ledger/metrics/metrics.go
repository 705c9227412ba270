package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for ledger operations.
type Metrics struct {
	VerificationsSubmitted *prometheus.CounterVec
	VerificationsUpdated   *prometheus.CounterVec
	OperationsRejected     *prometheus.CounterVec
	CertificatesMinted     prometheus.Counter
	RewardsDistributed     prometheus.Counter
	RewardAmountTotal      prometheus.Counter
	RewardsFailed          prometheus.Counter
	FeesCollected          prometheus.Counter
	ConfigChanges          *prometheus.CounterVec
	SubmitLatency          prometheus.Histogram
}

// NewWithRegisterer registers ledger collectors with reg. Tests pass a fresh
// prometheus.NewRegistry() so repeated construction does not collide.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		VerificationsSubmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mastery_verifications_submitted_total",
			Help: "Total number of accepted verifications, labeled by type and status",
		}, []string{"type", "status"}),
		VerificationsUpdated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mastery_verifications_updated_total",
			Help: "Total number of verification updates, labeled by resulting status",
		}, []string{"status"}),
		OperationsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mastery_operations_rejected_total",
			Help: "Total number of rejected ledger operations, labeled by operation and error code",
		}, []string{"operation", "code"}),
		CertificatesMinted: factory.NewCounter(prometheus.CounterOpts{
			Name: "mastery_certificates_minted_total",
			Help: "Total number of certificates minted",
		}),
		RewardsDistributed: factory.NewCounter(prometheus.CounterOpts{
			Name: "mastery_rewards_distributed_total",
			Help: "Total number of reward payouts recorded",
		}),
		RewardAmountTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "mastery_reward_amount_total",
			Help: "Sum of reward amounts paid out",
		}),
		RewardsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "mastery_rewards_failed_total",
			Help: "Total number of reward payouts the collaborator rejected",
		}),
		FeesCollected: factory.NewCounter(prometheus.CounterOpts{
			Name: "mastery_fees_collected_total",
			Help: "Sum of verification fees collected",
		}),
		ConfigChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mastery_config_changes_total",
			Help: "Total number of configuration changes, labeled by setting",
		}, []string{"setting"}),
		SubmitLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "mastery_submit_latency_seconds",
			Help:    "Latency of verification submissions in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
	}
}

func (m *Metrics) IncrementSubmitted(verificationType string, passed bool) {
	m.VerificationsSubmitted.WithLabelValues(verificationType, statusLabel(passed)).Inc()
}

func (m *Metrics) IncrementUpdated(passed bool) {
	m.VerificationsUpdated.WithLabelValues(statusLabel(passed)).Inc()
}

func (m *Metrics) IncrementRejected(operation, code string) {
	m.OperationsRejected.WithLabelValues(operation, code).Inc()
}

func (m *Metrics) IncrementCertificatesMinted() {
	m.CertificatesMinted.Inc()
}

func (m *Metrics) RecordReward(amount int64) {
	m.RewardsDistributed.Inc()
	m.RewardAmountTotal.Add(float64(amount))
}

func (m *Metrics) IncrementRewardsFailed() {
	m.RewardsFailed.Inc()
}

func (m *Metrics) AddFeesCollected(amount int64) {
	m.FeesCollected.Add(float64(amount))
}

func (m *Metrics) IncrementConfigChanges(setting string) {
	m.ConfigChanges.WithLabelValues(setting).Inc()
}

func (m *Metrics) ObserveSubmitLatency(durationSeconds float64) {
	m.SubmitLatency.Observe(durationSeconds)
}

func statusLabel(passed bool) string {
	if passed {
		return "passed"
	}
	return "failed"
}
