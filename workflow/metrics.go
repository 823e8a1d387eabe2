package workflow

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics provides Prometheus-compatible metrics collection for
// workflow execution monitoring in production environments.
//
// Metrics exposed (all namespaced with "zenflow_"):
//
// 1. steps_processed_total (counter): Workflow steps processed.
// Labels: tool, status (success/validation_error/filesystem_error/unexpected).
//
// 2. consultations_total (counter): Model consultations performed.
// Labels: model, provider, status (success/error).
//
// 3. consultation_latency_ms (histogram): Model consultation duration.
// Labels: model, provider.
// Buckets: [50, 100, 500, 1000, 5000, 10000, 30000, 60000].
//
// 4. panel_size (gauge): Size of the most recently built consensus panel.
//
// Usage:
//
//	registry := prometheus.NewRegistry()
//	metrics := NewPrometheusMetrics(registry)
//	http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
//
// Thread-safe: the Prometheus client handles concurrent updates.
type PrometheusMetrics struct {
	stepsProcessed      *prometheus.CounterVec
	consultations       *prometheus.CounterVec
	consultationLatency *prometheus.HistogramVec
	panelSize           prometheus.Gauge

	registry prometheus.Registerer

	mu      sync.RWMutex
	enabled bool
}

// NewPrometheusMetrics creates and registers all workflow metrics with the
// provided Prometheus registry.
//
// Pass prometheus.DefaultRegisterer for the global registry, or a dedicated
// registry for isolation (recommended in tests).
func NewPrometheusMetrics(registry prometheus.Registerer) *PrometheusMetrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	pm := &PrometheusMetrics{
		registry: registry,
		enabled:  true,
	}

	pm.stepsProcessed = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "zenflow",
		Name:      "steps_processed_total",
		Help:      "Cumulative count of workflow steps processed",
	}, []string{"tool", "status"})

	pm.consultations = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "zenflow",
		Name:      "consultations_total",
		Help:      "Cumulative count of model consultations",
	}, []string{"model", "provider", "status"})

	pm.consultationLatency = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "zenflow",
		Name:      "consultation_latency_ms",
		Help:      "Model consultation duration in milliseconds",
		Buckets:   []float64{50, 100, 500, 1000, 5000, 10000, 30000, 60000},
	}, []string{"model", "provider"})

	pm.panelSize = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: "zenflow",
		Name:      "panel_size",
		Help:      "Size of the most recently built consensus panel",
	})

	return pm
}

func (pm *PrometheusMetrics) recording() bool {
	if pm == nil {
		return false
	}
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return pm.enabled
}

// RecordStep increments the step counter for a tool and outcome.
func (pm *PrometheusMetrics) RecordStep(tool, status string) {
	if !pm.recording() {
		return
	}
	pm.stepsProcessed.WithLabelValues(tool, status).Inc()
}

// RecordConsultation records one model consultation's outcome and latency.
func (pm *PrometheusMetrics) RecordConsultation(model, provider, status string, latency time.Duration) {
	if !pm.recording() {
		return
	}
	pm.consultations.WithLabelValues(model, provider, status).Inc()
	pm.consultationLatency.WithLabelValues(model, provider).Observe(float64(latency.Milliseconds()))
}

// RecordPanelSize sets the panel size gauge.
func (pm *PrometheusMetrics) RecordPanelSize(size int) {
	if !pm.recording() {
		return
	}
	pm.panelSize.Set(float64(size))
}

// Disable temporarily disables metric recording (useful for testing).
func (pm *PrometheusMetrics) Disable() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.enabled = false
}

// Enable re-enables metric recording after Disable().
func (pm *PrometheusMetrics) Enable() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.enabled = true
}
