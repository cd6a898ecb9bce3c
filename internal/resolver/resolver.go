// Package resolver answers "which processes hold this port" and "which
// processes match this name" by running introspection tools and parsing
// their output.
package resolver

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/randomizedcoder/go-port-killer/internal/metrics"
	"github.com/randomizedcoder/go-port-killer/internal/model"
	"github.com/randomizedcoder/go-port-killer/internal/parser"
	"github.com/randomizedcoder/go-port-killer/internal/process"
)

const (
	opQueryByPort = "query_by_port"
	opQueryByName = "query_by_name"
)

// Resolver resolves processes by port or by name.
// It holds no per-query state and is safe for concurrent use.
type Resolver struct {
	runner  process.Runner
	tools   process.Tools
	logger  *slog.Logger
	metrics *metrics.Collector
}

// Config holds configuration for creating a new Resolver.
type Config struct {
	Runner  process.Runner
	Tools   process.Tools
	Logger  *slog.Logger
	Metrics *metrics.Collector // optional
}

// New creates a Resolver.
func New(cfg Config) *Resolver {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		runner:  cfg.Runner,
		tools:   cfg.Tools,
		logger:  logger,
		metrics: cfg.Metrics,
	}
}

// QueryByPort reports the processes listening on port.
//
// A non-zero exit from the listing tool means nothing matched and is not an
// error. Only an invalid port or a tool that cannot be launched populates
// Error.
func (r *Resolver) QueryByPort(ctx context.Context, port string) model.PortQueryResult {
	start := time.Now()
	r.logger.Debug("query_by_port_start", "port", port)

	res, outcome := r.queryByPort(ctx, port)

	r.metrics.RecordOperation(opQueryByPort, outcome, time.Since(start))
	r.metrics.RecordMatches(opQueryByPort, len(res.Processes))
	r.logger.Info("query_by_port_done",
		"port", port,
		"occupied", res.Occupied,
		"processes", len(res.Processes),
		"error", res.Error,
		"duration", time.Since(start).String(),
	)
	return res
}

func (r *Resolver) queryByPort(ctx context.Context, port string) (model.PortQueryResult, string) {
	empty := model.PortQueryResult{Processes: []model.ProcessRecord{}}

	portNum, err := model.ParsePort(port)
	if err != nil {
		empty.Error = err.Error()
		return empty, metrics.OutcomeInvalid
	}

	out, err := r.runner.Run(ctx, r.tools.ListenersCommand(portNum))
	if err != nil {
		empty.Error = err.Error()
		return empty, metrics.OutcomeToolFail
	}
	if !out.Success() {
		// lsof exits 1 when no socket matches
		r.logger.Debug("query_by_port_no_match",
			"port", port,
			"exit_code", out.ExitCode,
			"timed_out", out.TimedOut,
		)
		return empty, metrics.OutcomeEmpty
	}

	processes := parser.ParseListeners(out.Stdout, port)
	if len(processes) == 0 {
		return empty, metrics.OutcomeEmpty
	}
	return model.PortQueryResult{
		Occupied:  true,
		Processes: processes,
	}, metrics.OutcomeOK
}

// QueryByName returns processes whose command name contains name,
// case-insensitively. Unlike QueryByPort, a failing listing is an error.
func (r *Resolver) QueryByName(ctx context.Context, name string) model.NameQueryResult {
	start := time.Now()
	r.logger.Debug("query_by_name_start", "name", name)

	res, outcome := r.queryByName(ctx, name)

	r.metrics.RecordOperation(opQueryByName, outcome, time.Since(start))
	r.metrics.RecordMatches(opQueryByName, len(res.Processes))
	r.logger.Info("query_by_name_done",
		"name", name,
		"processes", len(res.Processes),
		"error", res.Error,
		"duration", time.Since(start).String(),
	)
	return res
}

func (r *Resolver) queryByName(ctx context.Context, name string) (model.NameQueryResult, string) {
	empty := model.NameQueryResult{Processes: []model.ProcessRecord{}}

	search := strings.TrimSpace(name)
	if search == "" {
		empty.Error = (&model.Error{
			Kind:    model.KindValueValidation,
			Op:      opQueryByName,
			Message: "Process name cannot be empty",
		}).Error()
		return empty, metrics.OutcomeInvalid
	}

	cmd := r.tools.ProcessListCommand()
	out, err := r.runner.Run(ctx, cmd)
	if err != nil {
		empty.Error = err.Error()
		return empty, metrics.OutcomeToolFail
	}
	if !out.Success() {
		empty.Error = (&model.Error{
			Kind:    model.KindToolExecution,
			Op:      cmd.Name(),
			Message: "Process listing failed: " + out.Diagnostic(),
		}).Error()
		return empty, metrics.OutcomeToolFail
	}

	processes := parser.ParseProcessList(out.Stdout, search)
	if len(processes) == 0 {
		return model.NameQueryResult{Processes: processes}, metrics.OutcomeEmpty
	}
	return model.NameQueryResult{Processes: processes}, metrics.OutcomeOK
}
