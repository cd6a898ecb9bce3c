// Package detail builds an enriched view of a single process from several
// targeted introspection calls.
package detail

import (
	"context"
	"log/slog"
	"time"

	"github.com/randomizedcoder/go-port-killer/internal/metrics"
	"github.com/randomizedcoder/go-port-killer/internal/model"
	"github.com/randomizedcoder/go-port-killer/internal/parser"
	"github.com/randomizedcoder/go-port-killer/internal/process"
)

const opDetail = "detail"

// Stage names a sub-query of a detail lookup.
type Stage string

const (
	StageIdentity  Stage = "identity"
	StageResources Stage = "resources"
	StageStartTime Stage = "start_time"
	StagePorts     Stage = "ports"
)

// Enricher runs the identity, resource, start-time and port sub-queries
// for one PID and merges them into a model.ProcessDetail.
type Enricher struct {
	runner  process.Runner
	tools   process.Tools
	logger  *slog.Logger
	metrics *metrics.Collector
}

// Config holds configuration for creating a new Enricher.
type Config struct {
	Runner  process.Runner
	Tools   process.Tools
	Logger  *slog.Logger
	Metrics *metrics.Collector // optional
}

// New creates an Enricher.
func New(cfg Config) *Enricher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Enricher{
		runner:  cfg.Runner,
		tools:   cfg.Tools,
		logger:  logger,
		metrics: cfg.Metrics,
	}
}

// Get returns the detail record for pid.
//
// The identity sub-query is required: if it cannot run, fails, or prints
// fewer than three fields the whole lookup fails. Resource and start-time
// failures leave their fields nil. The port lookup never fails the call and
// degrades to model.UnknownPort.
func (e *Enricher) Get(ctx context.Context, pid string) (*model.ProcessDetail, error) {
	start := time.Now()
	e.logger.Debug("detail_start", "pid", pid)

	d, err := e.get(ctx, pid)

	outcome := metrics.OutcomeOK
	switch {
	case err == nil:
	case model.KindOf(err) == model.KindValueValidation:
		outcome = metrics.OutcomeInvalid
	default:
		outcome = metrics.OutcomeToolFail
	}
	e.metrics.RecordOperation(opDetail, outcome, time.Since(start))

	if err != nil {
		e.logger.Warn("detail_failed", "pid", pid, "error", err)
		return nil, err
	}
	e.logger.Info("detail_done",
		"pid", pid,
		"name", d.Name,
		"port", d.Port,
		"duration", time.Since(start).String(),
	)
	return d, nil
}

func (e *Enricher) get(ctx context.Context, pid string) (*model.ProcessDetail, error) {
	pidNum, err := model.ParsePID(pid)
	if err != nil {
		return nil, err
	}

	id, err := e.identity(ctx, pidNum)
	if err != nil {
		return nil, err
	}

	d := &model.ProcessDetail{
		PID:  id.PID,
		Name: id.Name,
		User: model.StringPtr(id.User),
	}
	if id.Command != "" {
		d.Command = model.StringPtr(id.Command)
	}

	if out, ok := e.optional(ctx, StageResources, e.tools.ResourcesCommand(pidNum)); ok {
		if cpu, mem, ok := parser.ParseResources(out); ok {
			d.CPUUsage = model.StringPtr(cpu)
			d.MemoryUsage = model.StringPtr(mem)
		}
	}

	if out, ok := e.optional(ctx, StageStartTime, e.tools.StartTimeCommand(pidNum)); ok {
		if ts, ok := parser.ParseStartTime(out); ok {
			d.StartTime = model.StringPtr(ts)
		}
	}

	d.Port = model.UnknownPort
	if out, ok := e.optional(ctx, StagePorts, e.tools.PortsCommand(pidNum)); ok {
		d.Port = parser.JoinPorts(parser.ExtractPorts(out))
	}

	return d, nil
}

// identity runs the required sub-queries: pid, user and arguments, then
// the command name on its own.
func (e *Enricher) identity(ctx context.Context, pid uint32) (parser.Identity, error) {
	out, err := e.required(ctx, e.tools.IdentityCommand(pid))
	if err != nil {
		return parser.Identity{}, err
	}
	id, ok := parser.ParseIdentity(out)
	if !ok {
		return parser.Identity{}, notFound()
	}

	out, err = e.required(ctx, e.tools.NameCommand(pid))
	if err != nil {
		return parser.Identity{}, err
	}
	if id.Name, ok = parser.ParseCommandName(out); !ok {
		return parser.Identity{}, notFound()
	}
	return id, nil
}

// required runs a sub-query whose failure fails the whole lookup.
func (e *Enricher) required(ctx context.Context, cmd process.Command) (string, error) {
	out, err := e.runner.Run(ctx, cmd)
	if err != nil {
		return "", &model.Error{
			Kind:    model.KindToolInvocation,
			Op:      string(StageIdentity),
			Message: "Failed to get process info: " + err.Error(),
			Err:     err,
		}
	}
	if !out.Success() {
		return "", &model.Error{
			Kind:    model.KindToolExecution,
			Op:      string(StageIdentity),
			Message: "Failed to get process info: " + out.Diagnostic(),
		}
	}
	return out.Stdout, nil
}

func notFound() error {
	return &model.Error{
		Kind:    model.KindToolExecution,
		Op:      string(StageIdentity),
		Message: "Failed to get process info: process not found",
	}
}

// optional runs a sub-query whose failure only drops its fields.
func (e *Enricher) optional(ctx context.Context, stage Stage, cmd process.Command) (string, bool) {
	out, err := e.runner.Run(ctx, cmd)
	if err != nil {
		e.logger.Warn("detail_stage_unavailable", "stage", string(stage), "error", err)
		return "", false
	}
	if !out.Success() {
		e.logger.Debug("detail_stage_failed",
			"stage", string(stage),
			"exit_code", out.ExitCode,
			"diagnostic", out.Diagnostic(),
		)
		return "", false
	}
	return out.Stdout, true
}
