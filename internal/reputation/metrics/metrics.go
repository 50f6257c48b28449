package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the reputation module.
type Metrics struct {
	Recomputes        prometheus.Counter
	CacheHits         prometheus.Counter
	CacheMisses       prometheus.Counter
	RecomputeDuration prometheus.Histogram
}

// New creates a new Metrics instance with all reputation module metrics registered.
func New() *Metrics {
	return &Metrics{
		Recomputes: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fides_reputation_recomputes_total",
			Help: "Total number of reputation recomputes",
		}),
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fides_reputation_cache_hits_total",
			Help: "Total number of score cache hits",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fides_reputation_cache_misses_total",
			Help: "Total number of score cache misses",
		}),
		RecomputeDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "fides_reputation_recompute_duration_seconds",
			Help:    "Duration of reputation recompute operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementRecomputes records a completed recompute.
func (m *Metrics) IncrementRecomputes() {
	m.Recomputes.Inc()
}

// IncrementCacheHits records a score served from cache.
func (m *Metrics) IncrementCacheHits() {
	m.CacheHits.Inc()
}

// IncrementCacheMisses records a score computed on a cache miss.
func (m *Metrics) IncrementCacheMisses() {
	m.CacheMisses.Inc()
}

// ObserveRecompute records the duration of a recompute.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveRecompute(start time.Time) {
	m.RecomputeDuration.Observe(time.Since(start).Seconds())
}
