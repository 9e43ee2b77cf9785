package retrieval

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks search activity by strategy.
type Metrics struct {
	searches     *prometheus.CounterVec
	resultCounts prometheus.Histogram
	fallbacks    prometheus.Counter
}

// NewMetrics registers retrieval metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		searches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "draftd",
			Subsystem: "retrieval",
			Name:      "searches_total",
			Help:      "Searches executed, labeled by strategy.",
		}, []string{"strategy"}),
		resultCounts: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "draftd",
			Subsystem: "retrieval",
			Name:      "results_per_search",
			Help:      "Result counts per search.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
		}),
		fallbacks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "draftd",
			Subsystem: "retrieval",
			Name:      "vector_fallbacks_total",
			Help:      "Searches that fell back from the vector path to lexical.",
		}),
	}
}

func (m *Metrics) observeSearch(strategy string, results int) {
	if m == nil {
		return
	}
	m.searches.WithLabelValues(strategy).Inc()
	m.resultCounts.Observe(float64(results))
}

func (m *Metrics) observeFallback() {
	if m == nil {
		return
	}
	m.fallbacks.Inc()
}
