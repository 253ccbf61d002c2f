package observability

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/halias/halias-go/internal/errors"
	"github.com/halias/halias-go/internal/logger"
	"github.com/halias/halias-go/internal/observability/metrics"
)

// Metrics holds all the metric collectors for a run.
type Metrics struct {
	registry *prometheus.Registry
	Run      *metrics.RunMetrics
	Archive  *metrics.ArchiveMetrics
}

// NewMetrics creates a private registry with every collector registered.
// Each call returns an independent registry.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	runMetrics, err := metrics.NewRunMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create run metrics: %w", err)
	}

	archiveMetrics, err := metrics.NewArchiveMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create archive metrics: %w", err)
	}

	if err := registry.Register(collectors.NewGoCollector()); err != nil {
		return nil, fmt.Errorf("failed to register go collector: %w", err)
	}

	return &Metrics{
		registry: registry,
		Run:      runMetrics,
		Archive:  archiveMetrics,
	}, nil
}

// Registry exposes the underlying registry for gathering.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the registry in the node_exporter textfile format.
// The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.New(err).
			Component("observability").
			Category(errors.CategoryFileIO).
			Context("operation", "create-metrics-dir").
			FileContext(path, 0).
			Build()
	}

	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return errors.New(err).
			Component("observability").
			Category(errors.CategoryOutput).
			Context("operation", "write-metrics-textfile").
			FileContext(path, 0).
			Build()
	}

	log.Info("metrics textfile written", logger.String("path", path))
	return nil
}
