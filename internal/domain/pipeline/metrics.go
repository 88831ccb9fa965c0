package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics instruments pipeline throughput. A nil *Metrics is a no-op so
// tests and one-shot CLI runs don't need a registry.
type Metrics struct {
	batchesProcessed prometheus.Counter
	chunksProcessed  prometheus.Counter
	rowsProcessed    prometheus.Counter
	chunkDuration    prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		batchesProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "statement_batches_processed_total",
			Help: "Number of statement files processed end to end.",
		}),
		chunksProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "statement_chunks_processed_total",
			Help: "Number of enrichment chunks completed.",
		}),
		rowsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "statement_rows_processed_total",
			Help: "Number of transaction rows enriched.",
		}),
		chunkDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "statement_chunk_duration_seconds",
			Help:    "Wall time spent enriching one chunk.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) ObserveChunk(rows int, d time.Duration) {
	if m == nil {
		return
	}
	m.chunksProcessed.Inc()
	m.rowsProcessed.Add(float64(rows))
	m.chunkDuration.Observe(d.Seconds())
}

func (m *Metrics) ObserveBatch() {
	if m == nil {
		return
	}
	m.batchesProcessed.Inc()
}
