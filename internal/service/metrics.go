package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// timeNow is a variable for testing purposes (allows mocking time).
var timeNow = time.Now

// Metrics tracks ingestion activity.
type Metrics struct {
	ingests *prometheus.CounterVec
	chunks  prometheus.Counter
}

// NewMetrics registers service metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ingests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "draftd",
			Subsystem: "ingest",
			Name:      "submissions_total",
			Help:      "Submissions processed, labeled by outcome.",
		}, []string{"outcome"}),
		chunks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "draftd",
			Subsystem: "ingest",
			Name:      "chunks_total",
			Help:      "Chunks created by ingestion.",
		}),
	}
}

func (m *Metrics) observeIngest(deduplicated bool, chunks int) {
	if m == nil {
		return
	}
	outcome := "stored"
	if deduplicated {
		outcome = "deduplicated"
	}
	m.ingests.WithLabelValues(outcome).Inc()
	m.chunks.Add(float64(chunks))
}
