// Package metrics exposes Prometheus collectors for the marketplace.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Load results.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Metrics holds the marketplace collectors and their registry.
type Metrics struct {
	registry *prometheus.Registry

	interactions     *prometheus.CounterVec
	rejections       *prometheus.CounterVec
	poolLoads        *prometheus.CounterVec
	poolLoadSeconds  *prometheus.HistogramVec
	poolEntries      *prometheus.GaugeVec
	inferenceSeconds *prometheus.HistogramVec
	inflight         prometheus.Gauge
}

// New creates the collectors and registers them on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		interactions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketplace_interactions_total",
				Help: "Interactions by status transition",
			},
			[]string{"capability", "status"},
		),
		rejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketplace_rejections_total",
				Help: "Queries rejected before an interaction was created",
			},
			[]string{"code"},
		),
		poolLoads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketplace_model_loads_total",
				Help: "Model loads by result",
			},
			[]string{"capability", "result"},
		),
		poolLoadSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "marketplace_model_load_seconds",
				Help:    "Time taken to load a model",
				Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
			},
			[]string{"capability"},
		),
		poolEntries: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "marketplace_model_pool_entries",
				Help: "Model pool entries by state",
			},
			[]string{"state"},
		),
		inferenceSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "marketplace_inference_seconds",
				Help:    "Time taken to execute one capability handler",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"capability", "result"},
		),
		inflight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "marketplace_inflight_interactions",
				Help: "Interactions currently executing",
			},
		),
	}

	m.registry.MustRegister(
		m.interactions,
		m.rejections,
		m.poolLoads,
		m.poolLoadSeconds,
		m.poolEntries,
		m.inferenceSeconds,
		m.inflight,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// InteractionStatus counts an interaction entering status.
func (m *Metrics) InteractionStatus(capability, status string) {
	m.interactions.WithLabelValues(capability, status).Inc()
}

// Rejected counts a query rejected with code.
func (m *Metrics) Rejected(code string) {
	m.rejections.WithLabelValues(code).Inc()
}

// ModelLoaded records one load attempt.
func (m *Metrics) ModelLoaded(capability string, elapsed time.Duration, err error) {
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	m.poolLoads.WithLabelValues(capability, result).Inc()
	m.poolLoadSeconds.WithLabelValues(capability).Observe(elapsed.Seconds())
}

// PoolEntries sets the pool gauge.
func (m *Metrics) PoolEntries(loading, ready, failed int) {
	m.poolEntries.WithLabelValues("loading").Set(float64(loading))
	m.poolEntries.WithLabelValues("ready").Set(float64(ready))
	m.poolEntries.WithLabelValues("failed").Set(float64(failed))
}

// Inference records the duration of one handler execution.
func (m *Metrics) Inference(capability string, elapsed time.Duration, err error) {
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	m.inferenceSeconds.WithLabelValues(capability, result).Observe(elapsed.Seconds())
}

// Started marks a handler as running. The returned func marks it done.
func (m *Metrics) Started() func() {
	m.inflight.Inc()
	return m.inflight.Dec
}
