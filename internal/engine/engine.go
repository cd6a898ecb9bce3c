// Package engine wires the resolver, detail enricher and lifecycle
// controller over one tool runner and exposes the four upstream operations
// with string-valued errors, so UI and API layers can render results
// uniformly.
package engine

import (
	"context"
	"log/slog"

	"github.com/randomizedcoder/go-port-killer/internal/detail"
	"github.com/randomizedcoder/go-port-killer/internal/lifecycle"
	"github.com/randomizedcoder/go-port-killer/internal/metrics"
	"github.com/randomizedcoder/go-port-killer/internal/model"
	"github.com/randomizedcoder/go-port-killer/internal/process"
	"github.com/randomizedcoder/go-port-killer/internal/resolver"
	"github.com/randomizedcoder/go-port-killer/internal/stats"
)

// Engine is the upstream boundary. It is stateless apart from metrics and
// is safe for concurrent use.
type Engine struct {
	resolver   *resolver.Resolver
	enricher   *detail.Enricher
	controller *lifecycle.Controller
	latency    *stats.LatencyTracker
}

// Config holds configuration for creating a new Engine.
type Config struct {
	// Runner executes tools. Wrapped with instrumentation when Metrics or
	// Latency is set.
	Runner  process.Runner
	Tools   process.Tools
	Logger  *slog.Logger
	Metrics *metrics.Collector
	Latency *stats.LatencyTracker

	// Callbacks observes terminate state transitions.
	Callbacks lifecycle.Callbacks
}

// New creates an Engine.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	runner := cfg.Runner
	if cfg.Metrics != nil || cfg.Latency != nil {
		runner = process.NewInstrumentedRunner(runner, cfg.Metrics, cfg.Latency)
	}

	return &Engine{
		resolver: resolver.New(resolver.Config{
			Runner:  runner,
			Tools:   cfg.Tools,
			Logger:  logger.With("component", "resolver"),
			Metrics: cfg.Metrics,
		}),
		enricher: detail.New(detail.Config{
			Runner:  runner,
			Tools:   cfg.Tools,
			Logger:  logger.With("component", "detail"),
			Metrics: cfg.Metrics,
		}),
		controller: lifecycle.New(lifecycle.Config{
			Runner:    runner,
			Tools:     cfg.Tools,
			Logger:    logger.With("component", "lifecycle"),
			Metrics:   cfg.Metrics,
			Callbacks: cfg.Callbacks,
		}),
		latency: cfg.Latency,
	}
}

// CheckPort reports the processes listening on port.
func (e *Engine) CheckPort(ctx context.Context, port string) model.PortQueryResult {
	return e.resolver.QueryByPort(ctx, port)
}

// SearchByName reports the processes whose name contains name.
func (e *Engine) SearchByName(ctx context.Context, name string) model.NameQueryResult {
	return e.resolver.QueryByName(ctx, name)
}

// Detail returns the enriched record for pid.
func (e *Engine) Detail(ctx context.Context, pid string) model.DetailResult {
	d, err := e.enricher.Get(ctx, pid)
	return model.DetailResult{Detail: d, Error: model.ErrorString(err)}
}

// Kill terminates pid with SIGKILL when force is set, SIGTERM otherwise.
func (e *Engine) Kill(ctx context.Context, pid string, force bool) model.KillResult {
	msg, err := e.controller.Terminate(ctx, pid, lifecycle.ModeFromForce(force))
	return model.KillResult{Message: msg, Error: model.ErrorString(err)}
}

// ToolLatency returns per-tool latency percentiles, or nil if untracked.
func (e *Engine) ToolLatency() []stats.ToolLatency {
	return e.latency.Summary()
}
