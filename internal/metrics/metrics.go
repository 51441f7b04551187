// Package metrics provides Prometheus metrics for the MCP server.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the server.
type Metrics struct {
	ToolCallsTotal      *prometheus.CounterVec
	ToolCallDuration    *prometheus.HistogramVec
	RemoteAttemptsTotal *prometheus.CounterVec
	ErrorsTotal         *prometheus.CounterVec
	DocsLookupsTotal    *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates and registers all metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		ToolCallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "googleads_mcp_tool_calls_total",
				Help: "Total number of tool calls by tool and status.",
			},
			[]string{"tool", "status"},
		),
		ToolCallDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "googleads_mcp_tool_call_duration_seconds",
				Help:    "Tool call duration including retries.",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"tool"},
		),
		RemoteAttemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "googleads_mcp_remote_attempts_total",
				Help: "Google Ads API attempts by operation and retry outcome.",
			},
			[]string{"op", "outcome"},
		),
		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "googleads_mcp_errors_total",
				Help: "Classified Google Ads errors by type and retryability.",
			},
			[]string{"type", "retryable"},
		),
		DocsLookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "googleads_mcp_docs_lookups_total",
				Help: "Documentation lookups by result.",
			},
			[]string{"result"},
		),
		registry: reg,
	}

	reg.MustRegister(m.ToolCallsTotal)
	reg.MustRegister(m.ToolCallDuration)
	reg.MustRegister(m.RemoteAttemptsTotal)
	reg.MustRegister(m.ErrorsTotal)
	reg.MustRegister(m.DocsLookupsTotal)

	return m
}

// Handler returns an http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordToolCall counts a finished tool call and observes its duration.
func (m *Metrics) RecordToolCall(tool, status string, d time.Duration) {
	m.ToolCallsTotal.WithLabelValues(tool, status).Inc()
	m.ToolCallDuration.WithLabelValues(tool).Observe(d.Seconds())
}

// RecordAttempt implements retry.Recorder.
func (m *Metrics) RecordAttempt(op, outcome string) {
	m.RemoteAttemptsTotal.WithLabelValues(op, outcome).Inc()
}

// RecordError counts one classified error.
func (m *Metrics) RecordError(errType string, retryable bool) {
	r := "false"
	if retryable {
		r = "true"
	}
	m.ErrorsTotal.WithLabelValues(errType, r).Inc()
}

// RecordDocsLookup implements docs.Recorder.
func (m *Metrics) RecordDocsLookup(result string) {
	m.DocsLookupsTotal.WithLabelValues(result).Inc()
}
