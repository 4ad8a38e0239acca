package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Metrics holds the Prometheus collectors of the report engine.
type Metrics struct {
	ReportsTotal       *prometheus.CounterVec
	RepairsTotal       *prometheus.CounterVec
	GenerationDuration *prometheus.HistogramVec
	BatchSize          prometheus.Histogram
	CacheHitsTotal     prometheus.Counter
	CacheMissesTotal   prometheus.Counter
	QueueDroppedTotal  prometheus.Counter
}

// NewMetrics registers the collectors once per process and returns them.
//
// Metrics:
//   - report_generated_total{type,outcome}
//   - report_reconcile_repairs_total{kind}
//   - report_generation_duration_seconds{outcome}
//   - report_batch_size
//   - report_cache_hits_total / report_cache_misses_total
//   - report_queue_dropped_total
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			ReportsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "report_generated_total",
					Help: "Total number of report runs by type and outcome",
				},
				[]string{"type", "outcome"},
			),

			RepairsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "report_reconcile_repairs_total",
					Help: "Total number of recommendation repairs applied to generator replies",
				},
				[]string{"kind"}, // "by_name", "fallback_id", "duplicate", "synthesized"
			),

			GenerationDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "report_generation_duration_seconds",
					Help:    "Duration of generator calls in seconds",
					Buckets: prometheus.ExponentialBuckets(0.25, 2, 10), // 250ms to ~2m
				},
				[]string{"outcome"},
			),

			BatchSize: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "report_batch_size",
					Help:    "Number of bundles per batch run",
					Buckets: prometheus.ExponentialBuckets(1, 2, 10),
				},
			),

			CacheHitsTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "report_cache_hits_total",
					Help: "Total number of latest-report cache hits",
				},
			),

			CacheMissesTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "report_cache_misses_total",
					Help: "Total number of latest-report cache misses",
				},
			),

			QueueDroppedTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "report_queue_dropped_total",
					Help: "Total number of background batches dropped because the queue was full",
				},
			),
		}
	})

	return globalMetrics
}

func (m *Metrics) RecordReport(reportType, outcome string) {
	if m == nil {
		return
	}
	m.ReportsTotal.WithLabelValues(reportType, outcome).Inc()
}

// RecordRepairs adds non-zero repair counts.
func (m *Metrics) RecordRepairs(byName, fallback, duplicates, synthesized int) {
	if m == nil {
		return
	}
	for kind, n := range map[string]int{
		"by_name":     byName,
		"fallback_id": fallback,
		"duplicate":   duplicates,
		"synthesized": synthesized,
	} {
		if n > 0 {
			m.RepairsTotal.WithLabelValues(kind).Add(float64(n))
		}
	}
}

func (m *Metrics) ObserveGeneration(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.GenerationDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

func (m *Metrics) ObserveBatch(size int) {
	if m == nil {
		return
	}
	m.BatchSize.Observe(float64(size))
}

func (m *Metrics) RecordCacheHit() {
	if m == nil {
		return
	}
	m.CacheHitsTotal.Inc()
}

func (m *Metrics) RecordCacheMiss() {
	if m == nil {
		return
	}
	m.CacheMissesTotal.Inc()
}

func (m *Metrics) RecordQueueDrop() {
	if m == nil {
		return
	}
	m.QueueDroppedTotal.Inc()
}
