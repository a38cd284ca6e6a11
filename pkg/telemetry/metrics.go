package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides Prometheus metrics for the console.
type Metrics struct {
	config MetricsConfig

	// Execution metrics
	executionsTotal   *prometheus.CounterVec
	executionDuration *prometheus.HistogramVec

	// Bulk run metrics
	bulkRunsTotal  *prometheus.CounterVec
	unitsTotal     *prometheus.CounterVec
	activeBulkRuns prometheus.Gauge

	// Catalog metrics
	playbooksManaged prometheus.Gauge
	vmsManaged       prometheus.Gauge

	// AI collaborator metrics
	assistCalls    *prometheus.CounterVec
	assistDuration *prometheus.HistogramVec

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics collector with the given configuration.
// When disabled, all recording methods are no-ops.
func NewMetrics(cfg MetricsConfig) *Metrics {
	if !cfg.Enabled {
		return &Metrics{config: cfg}
	}

	namespace := cfg.Namespace
	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		executionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "executions_total",
				Help:      "Total number of simulated playbook executions",
			},
			[]string{"mode", "status"},
		),
		executionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "execution_duration_seconds",
				Help:      "Duration of simulated executions in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"mode"},
		),

		bulkRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bulk_runs_total",
				Help:      "Total number of bulk runs",
			},
			[]string{"status"},
		),
		unitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bulk_units_total",
				Help:      "Total number of bulk execution units by terminal status",
			},
			[]string{"status"},
		),
		activeBulkRuns: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_bulk_runs",
				Help:      "Number of bulk runs currently executing",
			},
		),

		playbooksManaged: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "playbooks_managed",
				Help:      "Current number of playbooks in the catalog",
			},
		),
		vmsManaged: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "vms_managed",
				Help:      "Current number of VMs in the registry",
			},
		),

		assistCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "assist_calls_total",
				Help:      "Total number of AI collaborator calls",
			},
			[]string{"operation", "status"},
		),
		assistDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "assist_call_duration_seconds",
				Help:      "Duration of AI collaborator calls in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}

	registry.MustRegister(
		m.executionsTotal,
		m.executionDuration,
		m.bulkRunsTotal,
		m.unitsTotal,
		m.activeBulkRuns,
		m.playbooksManaged,
		m.vmsManaged,
		m.assistCalls,
		m.assistDuration,
	)

	return m
}

// RecordExecution records a completed execution attempt.
func (m *Metrics) RecordExecution(mode, status string, duration time.Duration) {
	if m.registry == nil {
		return
	}
	m.executionsTotal.WithLabelValues(mode, status).Inc()
	m.executionDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

// RecordBulkRun records a completed bulk run.
func (m *Metrics) RecordBulkRun(status string) {
	if m.registry == nil {
		return
	}
	m.bulkRunsTotal.WithLabelValues(status).Inc()
}

// RecordUnit records a unit reaching a terminal status.
func (m *Metrics) RecordUnit(status string) {
	if m.registry == nil {
		return
	}
	m.unitsTotal.WithLabelValues(status).Inc()
}

// SetActiveBulkRuns sets the active bulk run gauge.
func (m *Metrics) SetActiveBulkRuns(n float64) {
	if m.registry == nil {
		return
	}
	m.activeBulkRuns.Set(n)
}

// SetCatalogSizes updates the catalog gauges.
func (m *Metrics) SetCatalogSizes(playbooks, vms int) {
	if m.registry == nil {
		return
	}
	m.playbooksManaged.Set(float64(playbooks))
	m.vmsManaged.Set(float64(vms))
}

// RecordAssistCall records an AI collaborator call.
func (m *Metrics) RecordAssistCall(operation, status string, duration time.Duration) {
	if m.registry == nil {
		return
	}
	m.assistCalls.WithLabelValues(operation, status).Inc()
	m.assistDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// Handler returns the HTTP handler exposing the metrics.
func (m *Metrics) Handler() http.Handler {
	if m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve starts an HTTP server exposing the metrics endpoint. It blocks
// until the server exits.
func (m *Metrics) Serve() error {
	if m.registry == nil {
		return nil
	}
	mux := http.NewServeMux()
	path := m.config.Path
	if path == "" {
		path = "/metrics"
	}
	mux.Handle(path, m.Handler())
	return http.ListenAndServe(m.config.ListenAddress, mux)
}
