package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the lottery module.
// Tracks lifecycle transitions, rejected operations and operation durations.
type Metrics struct {
	LotteriesCreated   prometheus.Counter
	EntriesAccepted    prometheus.Counter
	LotteriesCompleted prometheus.Counter
	RegistryResets     prometheus.Counter
	Rejections         *prometheus.CounterVec
	OperationDuration  *prometheus.HistogramVec
}

// New creates a Metrics instance registered on reg. A nil reg registers on
// the default registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		LotteriesCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "lotellar_lotteries_created_total",
			Help: "Total number of lotteries created",
		}),
		EntriesAccepted: factory.NewCounter(prometheus.CounterOpts{
			Name: "lotellar_lottery_entries_total",
			Help: "Total number of accepted lottery entries",
		}),
		LotteriesCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "lotellar_lotteries_completed_total",
			Help: "Total number of lotteries completed with a winner",
		}),
		RegistryResets: factory.NewCounter(prometheus.CounterOpts{
			Name: "lotellar_registry_initializations_total",
			Help: "Total number of registry initializations",
		}),
		Rejections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lotellar_lottery_rejections_total",
			Help: "Operations rejected by a failed precondition, by operation and reason",
		}, []string{"operation", "reason"}),
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lotellar_lottery_operation_duration_seconds",
			Help:    "Duration of lottery service operations including storage round-trips",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
	}
}

func (m *Metrics) IncrementCreated() {
	m.LotteriesCreated.Inc()
}

func (m *Metrics) IncrementEntered() {
	m.EntriesAccepted.Inc()
}

func (m *Metrics) IncrementCompleted() {
	m.LotteriesCompleted.Inc()
}

func (m *Metrics) IncrementInitialized() {
	m.RegistryResets.Inc()
}

// IncrementRejected records a failed precondition for operation.
func (m *Metrics) IncrementRejected(operation, reason string) {
	m.Rejections.WithLabelValues(operation, reason).Inc()
}

// ObserveOperation records the duration of operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveOperation(operation string, start time.Time) {
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
