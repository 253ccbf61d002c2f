package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ArchiveMetrics contains Prometheus metrics for the SQL archive
type ArchiveMetrics struct {
	registry *prometheus.Registry

	// Insert metrics
	insertOperationsTotal *prometheus.CounterVec
	insertDuration        *prometheus.HistogramVec
	recordsArchivedTotal  prometheus.Counter

	// Error metrics
	errorsTotal *prometheus.CounterVec

	collectors []prometheus.Collector
}

// NewArchiveMetrics creates and registers archive metrics on registry
func NewArchiveMetrics(registry *prometheus.Registry) (*ArchiveMetrics, error) {
	m := &ArchiveMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *ArchiveMetrics) initMetrics() {
	m.insertOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "halias_archive_operations_total",
			Help: "Total number of archive operations",
		},
		[]string{"operation", "status"}, // operation: begin_run, save, finish_run
	)
	m.insertDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "halias_archive_operation_duration_seconds",
			Help:    "Time taken by archive operations",
			Buckets: prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount12), // 1ms to ~4s
		},
		[]string{"operation"},
	)
	m.recordsArchivedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "halias_archive_records_total",
		Help: "Total number of observation records stored in the archive",
	})
	m.errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "halias_archive_errors_total",
			Help: "Total number of archive errors by category",
		},
		[]string{"operation", "category"},
	)

	m.collectors = []prometheus.Collector{
		m.insertOperationsTotal,
		m.insertDuration,
		m.recordsArchivedTotal,
		m.errorsTotal,
	}
}

// Describe implements the Collector interface
func (m *ArchiveMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, collector := range m.collectors {
		collector.Describe(ch)
	}
}

// Collect implements the Collector interface
func (m *ArchiveMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, collector := range m.collectors {
		collector.Collect(ch)
	}
}

// RecordOperation records an archive operation and its status
func (m *ArchiveMetrics) RecordOperation(operation, status string) {
	m.insertOperationsTotal.WithLabelValues(operation, status).Inc()
}

// RecordDuration records the duration of an archive operation in seconds
func (m *ArchiveMetrics) RecordDuration(operation string, seconds float64) {
	m.insertDuration.WithLabelValues(operation).Observe(seconds)
}

// RecordError records an archive failure
func (m *ArchiveMetrics) RecordError(operation, errorType string) {
	m.errorsTotal.WithLabelValues(operation, errorType).Inc()
}

// RecordArchived counts records committed to the archive
func (m *ArchiveMetrics) RecordArchived(records int) {
	m.recordsArchivedTotal.Add(float64(records))
}

var _ Recorder = (*ArchiveMetrics)(nil)
