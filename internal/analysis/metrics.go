package analysis

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the engine's Prometheus instruments. A nil *Metrics records
// nothing.
type Metrics struct {
	requests *prometheus.CounterVec
	cache    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers the engine instruments with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "analysis_requests_total",
				Help: "Analysis calls by record kind, analysis kind and outcome",
			},
			[]string{"record_kind", "analysis_kind", "outcome"},
		),
		cache: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "analysis_cache_lookups_total",
				Help: "Result cache lookups by analysis kind and result",
			},
			[]string{"analysis_kind", "result"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "analysis_duration_seconds",
				Help:    "Wall time of analysis calls, including cache lookups",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2, 5},
			},
			[]string{"analysis_kind"},
		),
	}
}

func (m *Metrics) observe(rk, ak string, outcome Outcome, took time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(rk, ak, outcome.String()).Inc()
	m.duration.WithLabelValues(ak).Observe(took.Seconds())
}

func (m *Metrics) lookup(ak string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cache.WithLabelValues(ak, result).Inc()
}
