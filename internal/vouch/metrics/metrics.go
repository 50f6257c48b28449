package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the vouch module.
type Metrics struct {
	VouchesIssued      prometheus.Counter
	VouchesInvalidated prometheus.Counter
	GiveVouchDuration  prometheus.Histogram
	GraphProjectErrors prometheus.Counter
}

// New creates a new Metrics instance with all vouch module metrics registered.
func New() *Metrics {
	return &Metrics{
		VouchesIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fides_vouches_issued_total",
			Help: "Total number of vouches issued",
		}),
		VouchesInvalidated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fides_vouches_invalidated_total",
			Help: "Total number of vouches invalidated",
		}),
		GiveVouchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "fides_give_vouch_duration_seconds",
			Help:    "Duration of GiveVouch operations including score recompute",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		GraphProjectErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fides_graph_project_errors_total",
			Help: "Total number of failed graph projections",
		}),
	}
}

// IncrementVouchesIssued records a successful vouch issuance.
func (m *Metrics) IncrementVouchesIssued() {
	m.VouchesIssued.Inc()
}

// IncrementVouchesInvalidated records a vouch invalidation.
func (m *Metrics) IncrementVouchesInvalidated() {
	m.VouchesInvalidated.Inc()
}

// ObserveGiveVouch records the duration of a GiveVouch operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveGiveVouch(start time.Time) {
	m.GiveVouchDuration.Observe(time.Since(start).Seconds())
}

// IncrementGraphProjectErrors records a failed best-effort graph write.
func (m *Metrics) IncrementGraphProjectErrors() {
	m.GraphProjectErrors.Inc()
}
