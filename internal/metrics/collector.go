// Package metrics provides Prometheus metrics for go-port-killer.
//
// Metrics cover the four upstream operations (query by port, query by name,
// detail, terminate) and every external tool invocation beneath them.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "port_killer"

// Outcome labels for operations.
const (
	OutcomeOK       = "ok"
	OutcomeEmpty    = "empty"
	OutcomeInvalid  = "invalid"
	OutcomeToolFail = "tool_failure"
	OutcomeFailed   = "failed"
)

// Result labels for tool invocations.
const (
	ToolOK               = "ok"
	ToolExitNonZero      = "exit_nonzero"
	ToolTimeout          = "timeout"
	ToolInvocationFailed = "invocation_failed"
)

// =============================================================================
// Collector
// =============================================================================

// Collector owns all Prometheus metrics for the engine.
type Collector struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	toolCallsTotal    *prometheus.CounterVec
	toolDuration      *prometheus.HistogramVec
	signalsTotal      *prometheus.CounterVec
	processesMatched  *prometheus.CounterVec
}

// NewCollectorWithRegistry creates a collector with a custom registry.
// Useful for testing.
func NewCollectorWithRegistry(registry prometheus.Registerer) *Collector {
	c := &Collector{
		operationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Upstream operations by name and outcome",
			},
			[]string{"operation", "outcome"},
		),
		operationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Wall time of upstream operations",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"operation"},
		),
		toolCallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tool_invocations_total",
				Help:      "External tool invocations by tool and result",
			},
			[]string{"tool", "result"},
		),
		toolDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "tool_duration_seconds",
				Help:      "Wall time of external tool invocations",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 5.0},
			},
			[]string{"tool"},
		),
		signalsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "signals_sent_total",
				Help:      "Termination signals delivered successfully, by signal",
			},
			[]string{"signal"},
		),
		processesMatched: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "processes_matched_total",
				Help:      "Process records returned by queries",
			},
			[]string{"operation"},
		),
	}

	registry.MustRegister(
		c.operationsTotal,
		c.operationDuration,
		c.toolCallsTotal,
		c.toolDuration,
		c.signalsTotal,
		c.processesMatched,
	)

	return c
}

// RecordOperation records one upstream operation.
func (c *Collector) RecordOperation(op, outcome string, d time.Duration) {
	if c == nil {
		return
	}
	c.operationsTotal.WithLabelValues(op, outcome).Inc()
	c.operationDuration.WithLabelValues(op).Observe(d.Seconds())
}

// RecordMatches adds n matched processes for op.
func (c *Collector) RecordMatches(op string, n int) {
	if c == nil || n <= 0 {
		return
	}
	c.processesMatched.WithLabelValues(op).Add(float64(n))
}

// RecordTool records one external tool invocation.
func (c *Collector) RecordTool(tool, result string, d time.Duration) {
	if c == nil {
		return
	}
	c.toolCallsTotal.WithLabelValues(tool, result).Inc()
	c.toolDuration.WithLabelValues(tool).Observe(d.Seconds())
}

// RecordSignal records a successfully delivered signal.
func (c *Collector) RecordSignal(signal string) {
	if c == nil {
		return
	}
	c.signalsTotal.WithLabelValues(signal).Inc()
}
