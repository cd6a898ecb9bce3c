package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/randomizedcoder/go-port-killer/internal/metrics"
	"github.com/randomizedcoder/go-port-killer/internal/model"
	"github.com/randomizedcoder/go-port-killer/internal/process"
)

const opTerminate = "terminate"

// Callbacks contains optional callback functions for lifecycle events.
type Callbacks struct {
	// OnStateChange is called on every state transition of a terminate call.
	OnStateChange func(pid string, oldState, newState State)
}

// Controller terminates processes. It performs no retries and never
// escalates from Graceful to Forceful on its own.
type Controller struct {
	runner    process.Runner
	tools     process.Tools
	logger    *slog.Logger
	metrics   *metrics.Collector
	callbacks Callbacks
}

// Config holds configuration for creating a new Controller.
type Config struct {
	Runner    process.Runner
	Tools     process.Tools
	Logger    *slog.Logger
	Metrics   *metrics.Collector // optional
	Callbacks Callbacks
}

// New creates a Controller.
func New(cfg Config) *Controller {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		runner:    cfg.Runner,
		tools:     cfg.Tools,
		logger:    logger,
		metrics:   cfg.Metrics,
		callbacks: cfg.Callbacks,
	}
}

// Terminate signals pid according to mode and returns a confirmation
// message. Failures are *model.Error with KindInvalidFormat (nothing was
// sent) or KindTerminationFailed.
func (c *Controller) Terminate(ctx context.Context, pid string, mode Mode) (string, error) {
	start := time.Now()
	c.logger.Info("terminate_start", "pid", pid, "mode", mode.String())

	msg, err := c.terminate(ctx, pid, mode)

	outcome := metrics.OutcomeOK
	switch {
	case err == nil:
	case model.KindOf(err) == model.KindInvalidFormat:
		outcome = metrics.OutcomeInvalid
	default:
		outcome = metrics.OutcomeFailed
	}
	c.metrics.RecordOperation(opTerminate, outcome, time.Since(start))

	if err != nil {
		c.logger.Warn("terminate_failed",
			"pid", pid,
			"mode", mode.String(),
			"kind", model.KindOf(err).String(),
			"error", err,
		)
		return "", err
	}
	c.logger.Info("terminate_done", "pid", pid, "mode", mode.String())
	return msg, nil
}

func (c *Controller) terminate(ctx context.Context, pid string, mode Mode) (string, error) {
	state := StateValidating
	transition := func(next State) {
		if state.IsTerminal() {
			return
		}
		if c.callbacks.OnStateChange != nil && next != state {
			c.callbacks.OnStateChange(pid, state, next)
		}
		state = next
	}

	pidNum, err := model.ParsePID(pid)
	if err != nil {
		transition(StateFailed)
		return "", &model.Error{
			Kind:    model.KindInvalidFormat,
			Op:      opTerminate,
			Message: "Invalid PID format: " + pid,
			Err:     err,
		}
	}
	if !signalable(pidNum) {
		transition(StateFailed)
		return "", &model.Error{
			Kind:    model.KindInvalidFormat,
			Op:      opTerminate,
			Message: "Invalid PID format: " + pid + " does not address a single process",
		}
	}

	transition(StateSignaling)
	sig := signalFor(mode)
	cmd := c.tools.KillCommand(pidNum, sig)

	out, err := c.runner.Run(ctx, cmd)
	if err != nil {
		transition(StateFailed)
		return "", &model.Error{
			Kind:    model.KindTerminationFailed,
			Op:      opTerminate,
			Message: "Failed to execute kill command: " + err.Error(),
			Err:     err,
		}
	}
	if !out.Success() {
		transition(StateFailed)
		return "", &model.Error{
			Kind:    model.KindTerminationFailed,
			Op:      opTerminate,
			Message: fmt.Sprintf("Failed to kill process %s: %s", pid, out.Diagnostic()),
		}
	}

	transition(StateSucceeded)
	c.metrics.RecordSignal(string(sig))
	return fmt.Sprintf("Process %s %s successfully", pid, mode.action()), nil
}

func signalFor(mode Mode) process.Signal {
	if mode == Forceful {
		return process.SignalKill
	}
	return process.SignalTerm
}

// signalable reports whether kill delivers to exactly one process for pid.
// kill treats 0 as the caller's process group, and values above MaxInt32
// wrap to negative group ids (4294967295 becomes -1, every process).
func signalable(pid uint32) bool {
	return pid != 0 && pid <= math.MaxInt32
}
