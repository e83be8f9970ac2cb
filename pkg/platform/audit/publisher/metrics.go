package publisher

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for audit publishing, labelled by category.
type Metrics struct {
	Emitted         *prometheus.CounterVec
	Sampled         *prometheus.CounterVec
	Dropped         *prometheus.CounterVec
	PersistFailures *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Emitted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lotellar_audit_events_emitted_total",
			Help: "Total number of audit events handed to the audit store",
		}, []string{"category"}),
		Sampled: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lotellar_audit_events_sampled_total",
			Help: "Total number of audit events dropped by sampling",
		}, []string{"category"}),
		Dropped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lotellar_audit_events_dropped_total",
			Help: "Total number of audit events dropped because the async buffer was full",
		}, []string{"category"}),
		PersistFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lotellar_audit_persist_failures_total",
			Help: "Total number of audit events the store failed to persist",
		}, []string{"category"}),
	}
}

func (m *Metrics) incEmitted(category string) {
	if m != nil {
		m.Emitted.WithLabelValues(category).Inc()
	}
}

func (m *Metrics) incSampled(category string) {
	if m != nil {
		m.Sampled.WithLabelValues(category).Inc()
	}
}

func (m *Metrics) incDropped(category string) {
	if m != nil {
		m.Dropped.WithLabelValues(category).Inc()
	}
}

func (m *Metrics) incPersistFailure(category string) {
	if m != nil {
		m.PersistFailures.WithLabelValues(category).Inc()
	}
}
