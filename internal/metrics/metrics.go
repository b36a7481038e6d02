// Package metrics exposes prometheus collectors for the conversation
// pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Turn outcomes used as label values.
const (
	OutcomeOK              = "ok"
	OutcomeCommand         = "command"
	OutcomeGenerationError = "generation_error"
)

// Collector bundles the pipeline metrics on a private registry.
type Collector struct {
	registry *prometheus.Registry

	TurnsTotal         *prometheus.CounterVec
	GenerationLatency  prometheus.Histogram
	GenerationFailures prometheus.Counter
	ActiveSessions     prometheus.Gauge
	LinesAdded         prometheus.Counter
	LinesRemoved       prometheus.Counter
}

// NewCollector creates and registers all collectors.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		TurnsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "waiter_turns_total",
				Help: "Conversation turns processed, by outcome",
			},
			[]string{"outcome"},
		),
		GenerationLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "waiter_generation_duration_seconds",
				Help:    "Latency of LLM generation calls",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
			},
		),
		GenerationFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "waiter_generation_failures_total",
				Help: "Failed LLM generation calls",
			},
		),
		ActiveSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "waiter_active_sessions",
				Help: "Currently open conversation sessions",
			},
		),
		LinesAdded: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "waiter_order_lines_added_total",
				Help: "Order lines added through extraction",
			},
		),
		LinesRemoved: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "waiter_order_lines_removed_total",
				Help: "Order lines removed through extraction",
			},
		),
	}

	c.registry.MustRegister(
		c.TurnsTotal,
		c.GenerationLatency,
		c.GenerationFailures,
		c.ActiveSessions,
		c.LinesAdded,
		c.LinesRemoved,
	)
	return c
}

// Handler serves the registry in prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
