// Package process provides abstractions for running external introspection tools.
package process

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/randomizedcoder/go-port-killer/internal/logging"
	"github.com/randomizedcoder/go-port-killer/internal/model"
)

// Runner executes a single external command and waits for it to finish.
// This interface allows the resolver, enricher and lifecycle controller to be
// tested without spawning real processes.
type Runner interface {
	// Run executes the command. The returned error is non-nil only when the
	// binary could not be launched; a failing exit status is reported in Result.
	Run(ctx context.Context, cmd Command) (*Result, error)
}

const (
	// waitDelay bounds Wait after the timeout kills the tool. lsof forks a
	// helper that can keep the output pipes open after its parent dies.
	waitDelay = time.Second

	// diagnosticLines is how many classified stderr lines a Result keeps.
	diagnosticLines = 5
)

// Result captures the outcome of a command execution.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
	TimedOut bool

	// StderrTail holds the last non-blank stderr lines, truncated to
	// logging.MaxLineLength. Set by ExecRunner.
	StderrTail []string
}

// Success reports whether the command exited with status 0.
func (r *Result) Success() bool {
	return r != nil && r.ExitCode == 0 && !r.TimedOut
}

// Diagnostic returns the most useful failure text: the stderr tail (or raw
// stderr), a timeout note, stdout, then the exit status.
func (r *Result) Diagnostic() string {
	if r == nil {
		return ""
	}
	if len(r.StderrTail) > 0 {
		return strings.Join(r.StderrTail, "; ")
	}
	if s := strings.TrimSpace(r.Stderr); s != "" {
		return s
	}
	if r.TimedOut {
		return "timed out"
	}
	if s := strings.TrimSpace(r.Stdout); s != "" {
		return s
	}
	return "exit status " + strconv.Itoa(r.ExitCode)
}

// ExecRunner runs commands with os/exec under a bounded timeout.
type ExecRunner struct {
	timeout time.Duration
	logger  *slog.Logger
}

// NewExecRunner creates a runner. A zero timeout disables the per-call bound.
func NewExecRunner(timeout time.Duration, logger *slog.Logger) *ExecRunner {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExecRunner{
		timeout: timeout,
		logger:  logger,
	}
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, c Command) (*Result, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	cmd.WaitDelay = waitDelay
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		r.logger.Debug("tool_start_failed", "cmd", c.String(), "error", err)
		return nil, &model.Error{
			Kind:    model.KindToolInvocation,
			Op:      c.Name(),
			Message: "Failed to execute " + c.Name() + ": " + err.Error(),
			Err:     err,
		}
	}

	waitErr := cmd.Wait()
	res := &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: extractExitCode(waitErr),
		Duration: time.Since(start),
		TimedOut: errors.Is(ctx.Err(), context.DeadlineExceeded),
	}

	if res.Stderr != "" {
		h := logging.NewStderrHandler(c.Name(), r.logger)
		h.HandleReader(strings.NewReader(res.Stderr))
		res.StderrTail = h.RecentLines(diagnosticLines)
	}

	r.logger.Debug("tool_exec",
		"cmd", c.String(),
		"exit_code", res.ExitCode,
		"duration", res.Duration.String(),
		"timed_out", res.TimedOut,
	)

	return res, nil
}

// extractExitCode extracts the exit code from a Wait() error.
func extractExitCode(err error) int {
	if err == nil {
		return 0
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok {
			if status.Signaled() {
				// Signal exit: 128 + signal number
				return 128 + int(status.Signal())
			}
			return status.ExitStatus()
		}
	}

	// Unknown error, assume exit code 1
	return 1
}
