// Package metrics provides Prometheus metrics export for the orchestration
// pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Exporter exports orchestration metrics in Prometheus format.
// A nil Exporter is valid and records nothing.
type Exporter struct {
	registry *prometheus.Registry

	queryLatency  *prometheus.HistogramVec
	queryRequests *prometheus.CounterVec
	agentRequests *prometheus.CounterVec
	llmTokens     *prometheus.CounterVec
	retries       prometheus.Counter
}

// Config configures the Prometheus exporter.
type Config struct {
	// Registry to use (if nil, creates a new one).
	Registry *prometheus.Registry

	// Buckets for latency histograms, in seconds.
	LatencyBuckets []float64
}

// DefaultConfig returns default Prometheus configuration.
func DefaultConfig() Config {
	return Config{
		LatencyBuckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
	}
}

// NewExporter creates a new Prometheus metrics exporter.
func NewExporter(cfg Config) *Exporter {
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = DefaultConfig().LatencyBuckets
	}
	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	e := &Exporter{registry: registry}

	e.queryLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "saborai",
			Subsystem: "supervisor",
			Name:      "query_latency_seconds",
			Help:      "End-to-end query latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"mode"},
	)
	e.queryRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "saborai",
			Subsystem: "supervisor",
			Name:      "query_requests_total",
			Help:      "Total number of orchestrated queries",
		},
		[]string{"mode", "status"},
	)
	e.agentRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "saborai",
			Subsystem: "agents",
			Name:      "requests_total",
			Help:      "Total number of specialist agent invocations",
		},
		[]string{"agent", "status"},
	)
	e.llmTokens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "saborai",
			Subsystem: "llm",
			Name:      "tokens_total",
			Help:      "Total LLM tokens consumed",
		},
		[]string{"kind"},
	)
	e.retries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "saborai",
			Subsystem: "llm",
			Name:      "retries_total",
			Help:      "Total retry attempts against the LLM provider",
		},
	)

	registry.MustRegister(e.queryLatency, e.queryRequests, e.agentRequests, e.llmTokens, e.retries)
	return e
}

// Handler returns the HTTP handler for the /metrics endpoint.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// ObserveQuery records one orchestrated query.
func (e *Exporter) ObserveQuery(mode, status string, seconds float64) {
	if e == nil {
		return
	}
	e.queryLatency.WithLabelValues(mode).Observe(seconds)
	e.queryRequests.WithLabelValues(mode, status).Inc()
}

// ObserveAgent records one specialist invocation.
func (e *Exporter) ObserveAgent(agent, status string) {
	if e == nil {
		return
	}
	e.agentRequests.WithLabelValues(agent, status).Inc()
}

// AddTokens records LLM token consumption.
func (e *Exporter) AddTokens(prompt, completion int) {
	if e == nil {
		return
	}
	e.llmTokens.WithLabelValues("prompt").Add(float64(prompt))
	e.llmTokens.WithLabelValues("completion").Add(float64(completion))
}

// IncRetry records one retry attempt.
func (e *Exporter) IncRetry() {
	if e == nil {
		return
	}
	e.retries.Inc()
}
