package mcp

import (
	"context"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exports MCP request activity. A nil *Metrics records nothing.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates MCP metrics and registers them with reg when reg is non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voicenotes",
			Subsystem: "mcp",
			Name:      "requests_total",
			Help:      "MCP requests by method, tool, and outcome.",
		}, []string{"method", "tool", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "voicenotes",
			Subsystem: "mcp",
			Name:      "request_duration_seconds",
			Help:      "MCP request latency by method and tool.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "tool"}),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.duration)
	}
	return m
}

func (m *Metrics) observe(method, tool, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, tool, outcome).Inc()
	m.duration.WithLabelValues(method, tool).Observe(elapsed.Seconds())
}

// metricsMiddleware counts every inbound request. Tool calls are labelled with
// the tool name, and a tool result carrying IsError counts as "tool_error".
func metricsMiddleware(metrics *Metrics) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			if metrics == nil {
				return next(ctx, method, req)
			}
			start := time.Now()
			result, err := next(ctx, method, req)
			metrics.observe(method, toolName(req), outcome(result, err), time.Since(start))
			return result, err
		}
	}
}

func toolName(req sdkmcp.Request) string {
	if params, ok := safeParams(req).(*sdkmcp.CallToolParamsRaw); ok && params != nil {
		return params.Name
	}
	return ""
}

func outcome(result sdkmcp.Result, err error) string {
	if err != nil {
		return "error"
	}
	if res, ok := result.(*sdkmcp.CallToolResult); ok && res != nil && res.IsError {
		return "tool_error"
	}
	return "ok"
}
