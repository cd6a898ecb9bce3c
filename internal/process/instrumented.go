package process

import (
	"context"
	"time"

	"github.com/randomizedcoder/go-port-killer/internal/metrics"
	"github.com/randomizedcoder/go-port-killer/internal/stats"
)

// InstrumentedRunner wraps a Runner and records metrics and latency for
// every invocation.
type InstrumentedRunner struct {
	next    Runner
	metrics *metrics.Collector
	latency *stats.LatencyTracker
}

// NewInstrumentedRunner wraps next. Either recorder may be nil.
func NewInstrumentedRunner(next Runner, m *metrics.Collector, l *stats.LatencyTracker) *InstrumentedRunner {
	return &InstrumentedRunner{
		next:    next,
		metrics: m,
		latency: l,
	}
}

// Run implements Runner.
func (r *InstrumentedRunner) Run(ctx context.Context, c Command) (*Result, error) {
	start := time.Now()
	res, err := r.next.Run(ctx, c)
	elapsed := time.Since(start)

	tool := c.Name()
	r.metrics.RecordTool(tool, classify(res, err), elapsed)
	if err == nil {
		r.latency.Record(tool, elapsed)
	}
	return res, err
}

func classify(res *Result, err error) string {
	switch {
	case err != nil:
		return metrics.ToolInvocationFailed
	case res.TimedOut:
		return metrics.ToolTimeout
	case res.ExitCode != 0:
		return metrics.ToolExitNonZero
	default:
		return metrics.ToolOK
	}
}
