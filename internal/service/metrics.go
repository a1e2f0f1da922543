package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the ledger's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	conflictRetries   *prometheus.CounterVec
	compensations     *prometheus.CounterVec
	rateLookups       *prometheus.CounterVec
	webhookOutcomes   *prometheus.CounterVec
}

// NewMetrics registers the collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		operationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "wallet_ledger",
				Subsystem: "engine",
				Name:      "operations_total",
				Help:      "Ledger operations partitioned by operation and result.",
			},
			[]string{"operation", "result"},
		),
		operationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "wallet_ledger",
				Subsystem: "engine",
				Name:      "operation_duration_seconds",
				Help:      "Latency of ledger operations including retries.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		conflictRetries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "wallet_ledger",
				Subsystem: "engine",
				Name:      "conflict_retries_total",
				Help:      "Protocol restarts caused by concurrent wallet modification.",
			},
			[]string{"operation"},
		),
		compensations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "wallet_ledger",
				Subsystem: "engine",
				Name:      "compensations_total",
				Help:      "Operations reversed after the debit leg was applied.",
			},
			[]string{"operation"},
		),
		rateLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "wallet_ledger",
				Subsystem: "rates",
				Name:      "lookups_total",
				Help:      "Exchange rate lookups partitioned by result.",
			},
			[]string{"result"},
		),
		webhookOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "wallet_ledger",
				Subsystem: "deposits",
				Name:      "webhook_deliveries_total",
				Help:      "Provider webhook deliveries partitioned by outcome.",
			},
			[]string{"outcome"},
		),
	}
}

func (m *Metrics) observeOperation(op string, started time.Time, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.operationsTotal.WithLabelValues(op, result).Inc()
	m.operationDuration.WithLabelValues(op).Observe(time.Since(started).Seconds())
}

func (m *Metrics) observeRetry(op string) {
	if m == nil {
		return
	}
	m.conflictRetries.WithLabelValues(op).Inc()
}

func (m *Metrics) observeCompensation(op string) {
	if m == nil {
		return
	}
	m.compensations.WithLabelValues(op).Inc()
}

func (m *Metrics) observeRateLookup(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.rateLookups.WithLabelValues("unavailable").Inc()
		return
	}
	m.rateLookups.WithLabelValues("ok").Inc()
}

func (m *Metrics) observeWebhook(outcome string) {
	if m == nil {
		return
	}
	m.webhookOutcomes.WithLabelValues(outcome).Inc()
}
