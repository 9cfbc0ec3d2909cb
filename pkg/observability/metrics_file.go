package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// MetricsFile collects OTel metrics into a private Prometheus registry and
// writes them in the text exposition format, for node_exporter's textfile
// collector or for inspection after a batch run.
type MetricsFile struct {
	path     string
	registry *prometheus.Registry
	exporter *promexporter.Exporter
}

// NewMetricsFile creates a MetricsFile writing to path. Attach Reader to a
// MeterProvider for the file to receive data.
func NewMetricsFile(path string) (*MetricsFile, error) {
	registry := prometheus.NewRegistry()

	exporter, err := promexporter.New(promexporter.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	return &MetricsFile{path: path, registry: registry, exporter: exporter}, nil
}

// Reader returns the metric reader feeding the file.
func (f *MetricsFile) Reader() sdkmetric.Reader {
	return f.exporter
}

// Write gathers the current metrics and atomically replaces the file.
func (f *MetricsFile) Write() error {
	err := prometheus.WriteToTextfile(f.path, f.registry)
	if err != nil {
		return fmt.Errorf("write metrics file %s: %w", f.path, err)
	}

	return nil
}
