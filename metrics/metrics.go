// Package metrics exposes Prometheus instrumentation for the native bootstrap.
//
// Metrics:
//   - nativeboot_initializations_total: Initialization attempts by result
//   - nativeboot_initialization_duration_seconds: Duration of full protocol runs
//   - nativeboot_initialized: 1 once the engine is loaded
//   - nativeboot_extracted_files_total: Libraries copied out of the bundle
//   - nativeboot_extracted_bytes_total: Bytes copied out of the bundle
//   - nativeboot_activations_total: Library activations by mode and result
//
// A nil *Collector is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "nativeboot"

// Collector records bootstrap metrics.
type Collector struct {
	initializations *prometheus.CounterVec
	duration        prometheus.Histogram
	initialized     prometheus.Gauge
	extractedFiles  prometheus.Counter
	extractedBytes  prometheus.Counter
	activations     *prometheus.CounterVec
}

// NewCollector creates and registers bootstrap metrics with registry.
func NewCollector(registry prometheus.Registerer) *Collector {
	c := &Collector{
		initializations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "initializations_total",
				Help:      "Total number of initialization attempts",
			},
			[]string{"result"},
		),

		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "initialization_duration_seconds",
				Help:      "Duration of initialization protocol runs in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8), // 1ms to ~16s
			},
		),

		initialized: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "initialized",
				Help:      "1 when the native engine is loaded",
			},
		),

		extractedFiles: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "extracted_files_total",
				Help:      "Total number of libraries extracted from the bundle",
			},
		),

		extractedBytes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "extracted_bytes_total",
				Help:      "Total number of bytes extracted from the bundle",
			},
		),

		activations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "activations_total",
				Help:      "Total number of library activations",
			},
			[]string{"mode", "result"},
		),
	}

	registry.MustRegister(
		c.initializations,
		c.duration,
		c.initialized,
		c.extractedFiles,
		c.extractedBytes,
		c.activations,
	)

	return c
}

// RecordInitialization records one protocol run
func (c *Collector) RecordInitialization(err error, d time.Duration) {
	if c == nil {
		return
	}
	c.duration.Observe(d.Seconds())
	if err != nil {
		c.initializations.WithLabelValues("failure").Inc()
		return
	}
	c.initializations.WithLabelValues("success").Inc()
	c.initialized.Set(1)
}

// RecordExtraction records one extracted library
func (c *Collector) RecordExtraction(bytes int64) {
	if c == nil {
		return
	}
	c.extractedFiles.Inc()
	c.extractedBytes.Add(float64(bytes))
}

// RecordActivation records one activation attempt
func (c *Collector) RecordActivation(mode string, err error) {
	if c == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	c.activations.WithLabelValues(mode, result).Inc()
}
