package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/halias/halias-go/internal/logger"
)

// RunMetrics contains Prometheus metrics for one conversion run
type RunMetrics struct {
	registry *prometheus.Registry

	// Row level counters
	rowsTotal             prometheus.Counter
	recordsTotal          prometheus.Counter
	validationErrorsTotal *prometheus.CounterVec
	rowsSkippedTotal      *prometheus.CounterVec

	// Output
	batchesWrittenTotal prometheus.Counter
	triplesWrittenTotal prometheus.Counter

	// Taxonomy
	taxaRetainedGauge     prometheus.Gauge
	abbreviationsGauge    prometheus.Gauge
	abbreviationConflicts prometheus.Gauge
	rarityGauge           *prometheus.GaugeVec

	// Phases
	phaseOperationsTotal   *prometheus.CounterVec
	phaseDurationHistogram *prometheus.HistogramVec
	phaseErrorsTotal       *prometheus.CounterVec

	collectors []prometheus.Collector
}

// NewRunMetrics creates and registers run metrics on registry
func NewRunMetrics(registry *prometheus.Registry) (*RunMetrics, error) {
	m := &RunMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *RunMetrics) initMetrics() {
	m.rowsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "halias_rows_total",
		Help: "Total number of observation rows read",
	})
	m.recordsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "halias_records_total",
		Help: "Total number of observation records emitted",
	})
	m.validationErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "halias_validation_errors_total",
			Help: "Total number of validation errors by kind",
		},
		[]string{"kind"},
	)
	m.rowsSkippedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "halias_rows_skipped_total",
			Help: "Total number of rows that produced no record, by reason",
		},
		[]string{"reason"},
	)

	m.batchesWrittenTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "halias_batches_written_total",
		Help: "Total number of observation documents flushed",
	})
	m.triplesWrittenTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "halias_triples_written_total",
		Help: "Total number of triples in flushed observation documents",
	})

	m.taxaRetainedGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "halias_taxa_retained",
		Help: "Number of taxa kept in the reduced taxonomy",
	})
	m.abbreviationsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "halias_abbreviations",
		Help: "Number of codes in the resolved abbreviation table",
	})
	m.abbreviationConflicts = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "halias_abbreviation_conflicts",
		Help: "Number of abbreviation collisions seen while resolving",
	})
	m.rarityGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "halias_species_by_rarity",
			Help: "Number of retained species per rarity class",
		},
		[]string{"rarity"},
	)

	m.phaseOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "halias_phase_operations_total",
			Help: "Total number of completed phases by status",
		},
		[]string{"phase", "status"},
	)
	m.phaseDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "halias_phase_duration_seconds",
			Help:    "Time spent in each phase of a run",
			Buckets: prometheus.ExponentialBuckets(BucketStart10ms, BucketFactor2, BucketCount14), // 10ms to ~80s
		},
		[]string{"phase"},
	)
	m.phaseErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "halias_phase_errors_total",
			Help: "Total number of phase failures by error category",
		},
		[]string{"phase", "category"},
	)

	m.collectors = []prometheus.Collector{
		m.rowsTotal,
		m.recordsTotal,
		m.validationErrorsTotal,
		m.rowsSkippedTotal,
		m.batchesWrittenTotal,
		m.triplesWrittenTotal,
		m.taxaRetainedGauge,
		m.abbreviationsGauge,
		m.abbreviationConflicts,
		m.rarityGauge,
		m.phaseOperationsTotal,
		m.phaseDurationHistogram,
		m.phaseErrorsTotal,
	}
}

// Describe implements the Collector interface
func (m *RunMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, collector := range m.collectors {
		collector.Describe(ch)
	}
}

// Collect implements the Collector interface
func (m *RunMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, collector := range m.collectors {
		collector.Collect(ch)
	}
}

// RecordRow counts one row read from the observation file
func (m *RunMetrics) RecordRow() {
	m.rowsTotal.Inc()
}

// RecordRecord counts one emitted observation record
func (m *RunMetrics) RecordRecord() {
	m.recordsTotal.Inc()
}

// AddValidationErrors counts n validation issues of the given kind
func (m *RunMetrics) AddValidationErrors(kind string, n int) {
	m.validationErrorsTotal.WithLabelValues(kind).Add(float64(n))
}

// RecordSkip counts one row dropped for reason
func (m *RunMetrics) RecordSkip(reason string) {
	m.rowsSkippedTotal.WithLabelValues(reason).Inc()
}

// RecordBatch counts one flushed observation document of triples triples
func (m *RunMetrics) RecordBatch(triples int) {
	m.batchesWrittenTotal.Inc()
	m.triplesWrittenTotal.Add(float64(triples))
}

// SetTaxonomy publishes the size of the abbreviation table and the reduced taxonomy
func (m *RunMetrics) SetTaxonomy(abbreviations, conflicts, retained int) {
	m.abbreviationsGauge.Set(float64(abbreviations))
	m.abbreviationConflicts.Set(float64(conflicts))
	m.taxaRetainedGauge.Set(float64(retained))
}

// SetRarity publishes the number of species in one rarity class
func (m *RunMetrics) SetRarity(rarity string, species int) {
	m.rarityGauge.WithLabelValues(rarity).Set(float64(species))
}

// RecordOperation implements Recorder for phase outcomes
func (m *RunMetrics) RecordOperation(operation, status string) {
	m.phaseOperationsTotal.WithLabelValues(operation, status).Inc()
}

// RecordDuration implements Recorder for phase timings
func (m *RunMetrics) RecordDuration(operation string, seconds float64) {
	m.phaseDurationHistogram.WithLabelValues(operation).Observe(seconds)
}

// RecordError implements Recorder for phase failures
func (m *RunMetrics) RecordError(operation, errorType string) {
	m.phaseErrorsTotal.WithLabelValues(operation, errorType).Inc()
	log.Debug("phase failure recorded",
		logger.String("phase", operation),
		logger.String("category", errorType))
}
