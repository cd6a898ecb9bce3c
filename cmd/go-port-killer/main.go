// Package main provides the go-port-killer CLI entry point.
//
// go-port-killer finds the processes listening on a TCP port or matching a
// name, shows their details, and terminates them with SIGTERM or SIGKILL.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/randomizedcoder/go-port-killer/internal/config"
	"github.com/randomizedcoder/go-port-killer/internal/engine"
	"github.com/randomizedcoder/go-port-killer/internal/lifecycle"
	"github.com/randomizedcoder/go-port-killer/internal/logging"
	"github.com/randomizedcoder/go-port-killer/internal/metrics"
	"github.com/randomizedcoder/go-port-killer/internal/model"
	"github.com/randomizedcoder/go-port-killer/internal/preflight"
	"github.com/randomizedcoder/go-port-killer/internal/process"
	"github.com/randomizedcoder/go-port-killer/internal/server"
	"github.com/randomizedcoder/go-port-killer/internal/stats"
	"github.com/randomizedcoder/go-port-killer/internal/tui"
)

// version is set at build time via ldflags:
//
//	go build -ldflags "-X main.version=1.0.0" ./cmd/go-port-killer
var version = "dev"

// Placeholders used by -print-cmd when no port or pid was given.
const (
	examplePort = 8080
	examplePID  = 12345
)

func main() {
	os.Exit(run())
}

func run() int {
	// Handle version flag early (before flag parsing)
	if len(os.Args) > 1 {
		arg := os.Args[1]
		if arg == "-version" || arg == "--version" || arg == "version" {
			fmt.Printf("go-port-killer %s\n", version)
			return 0
		}
	}

	cfg, err := config.ParseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		return 1
	}

	// When TUI is enabled, suppress logs to avoid interfering with TUI rendering
	var logger *slog.Logger
	if cfg.TUIEnabled {
		logger = logging.NewLoggerWithWriter(io.Discard, "json", "info")
	} else {
		logger = logging.NewLogger(cfg.LogFormat, cfg.LogLevel, cfg.Verbose)
	}
	logging.SetDefault(logger)

	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		return 1
	}

	tools := process.Tools{
		LsofPath: cfg.LsofPath,
		PsPath:   cfg.PsPath,
		KillPath: cfg.KillPath,
	}

	if cfg.PrintCmd {
		printCommands(cfg, tools)
		return 0
	}

	if !cfg.SkipPreflight {
		result := preflight.RunAll(tools)
		if !result.Passed || cfg.Verbose {
			preflight.PrintResults(os.Stderr, result)
		}
	}

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollectorWithRegistry(registry)
	latency := stats.NewLatencyTracker()

	eng := engine.New(engine.Config{
		Runner:  process.NewExecRunner(cfg.CommandTimeout, logger.With("component", "runner")),
		Tools:   tools,
		Logger:  logger,
		Metrics: collector,
		Latency: latency,
		Callbacks: lifecycle.Callbacks{
			OnStateChange: func(pid string, from, to lifecycle.State) {
				logger.Debug("terminate_state", "pid", pid, "from", from.String(), "to", to.String())
			},
		},
	})

	if cfg.MetricsDump {
		defer func() {
			if err := metrics.WriteText(os.Stderr, registry); err != nil {
				logger.Warn("metrics_dump_failed", "error", err)
			}
		}()
	}

	logger.Info("starting",
		"version", version,
		"tui", cfg.TUIEnabled,
		"listen_addr", cfg.ListenAddr,
		"command_timeout", cfg.CommandTimeout,
	)

	start := time.Now()
	var code int
	if cfg.Interactive() {
		code = runInteractive(cfg, eng, registry, logger)
	} else {
		code = runAction(context.Background(), cfg, eng, os.Stdout)
	}

	// The TUI shows latency in its footer; API sessions and -v runs get a summary.
	if !cfg.TUIEnabled && (cfg.ListenAddr != "" || cfg.Verbose) {
		printSummary(os.Stderr, eng, registry, cfg, time.Since(start), logger)
	}
	return code
}

// printSummary prints operation counts and tool latency to w.
func printSummary(w io.Writer, eng *engine.Engine, registry *prometheus.Registry, cfg *config.Config, elapsed time.Duration, logger *slog.Logger) {
	ops, err := metrics.OperationCounts(registry)
	if err != nil {
		logger.Warn("summary_metrics_failed", "error", err)
	}
	fmt.Fprint(w, stats.FormatExitSummary(eng.ToolLatency(), stats.SummaryConfig{
		Duration:   elapsed,
		ListenAddr: cfg.ListenAddr,
		Operations: ops,
	}))
}

// runInteractive serves the API and/or the TUI until interrupted.
func runInteractive(cfg *config.Config, eng *engine.Engine, registry *prometheus.Registry, logger *slog.Logger) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.ListenAddr != "" {
		srv := metrics.NewServer(cfg.ListenAddr, registry, logger.With("component", "server"))
		srv.Handle("/api/", server.NewAPI(eng, registry, logger.With("component", "api")))
		if err := srv.Start(); err != nil {
			logger.Error("server_start_failed", "error", err)
			return 1
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("server_shutdown_failed", "error", err)
			}
		}()
		if !cfg.TUIEnabled {
			fmt.Fprintf(os.Stderr, "Serving API on http://%s/api/ (metrics at /metrics). Press Ctrl+C to stop.\n", cfg.ListenAddr)
		}
	}

	if !cfg.TUIEnabled {
		<-ctx.Done()
		logger.Info("shutdown")
		return 0
	}

	p := tea.NewProgram(tui.New(tui.Config{
		Engine:      eng,
		Timeout:     4 * cfg.CommandTimeout,
		InitialPort: cfg.Port,
	}), tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
		return 1
	}
	return 0
}

// runAction performs the single one-shot action selected by flags.
// Returns the process exit code.
func runAction(ctx context.Context, cfg *config.Config, eng *engine.Engine, w io.Writer) int {
	var (
		out    any
		errMsg string
	)

	switch {
	case cfg.Port != "":
		res := eng.CheckPort(ctx, cfg.Port)
		out, errMsg = res, res.Error
		if !cfg.JSON && errMsg == "" {
			printPortResult(w, cfg.Port, res)
		}
	case cfg.Name != "":
		res := eng.SearchByName(ctx, cfg.Name)
		out, errMsg = res, res.Error
		if !cfg.JSON && errMsg == "" {
			printNameResult(w, cfg.Name, res)
		}
	case cfg.Detail != "":
		res := eng.Detail(ctx, cfg.Detail)
		out, errMsg = res, res.Error
		if !cfg.JSON && errMsg == "" {
			printDetail(w, res.Detail)
		}
	case cfg.Kill != "":
		res := eng.Kill(ctx, cfg.Kill, cfg.Force)
		out, errMsg = res, res.Error
		if !cfg.JSON && errMsg == "" {
			fmt.Fprintln(w, res.Message)
		}
	}

	if cfg.JSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding result: %v\n", err)
			return 1
		}
	} else if errMsg != "" {
		fmt.Fprintf(os.Stderr, "Error: %s\n", errMsg)
	}

	if errMsg != "" {
		return 1
	}
	return 0
}

func printPortResult(w io.Writer, port string, res model.PortQueryResult) {
	if !res.Occupied {
		fmt.Fprintf(w, "Port %s is free\n", port)
		return
	}
	fmt.Fprintf(w, "Port %s is in use by:\n", port)
	printProcessTable(w, res.Processes)
}

func printNameResult(w io.Writer, name string, res model.NameQueryResult) {
	if len(res.Processes) == 0 {
		fmt.Fprintf(w, "No processes matching %q\n", name)
		return
	}
	printProcessTable(w, res.Processes)
}

func printProcessTable(w io.Writer, procs []model.ProcessRecord) {
	fmt.Fprintf(w, "  %-8s %-24s %s\n", "PID", "NAME", "PORT")
	for _, p := range procs {
		fmt.Fprintf(w, "  %-8s %-24s %s\n", p.PID, p.Name, p.Port)
	}
}

func printDetail(w io.Writer, d *model.ProcessDetail) {
	opt := func(s *string) string {
		if s == nil {
			return "-"
		}
		return *s
	}
	fmt.Fprintf(w, "  PID:      %s\n", d.PID)
	fmt.Fprintf(w, "  Name:     %s\n", d.Name)
	fmt.Fprintf(w, "  User:     %s\n", opt(d.User))
	fmt.Fprintf(w, "  Ports:    %s\n", d.Port)
	fmt.Fprintf(w, "  CPU:      %s\n", opt(d.CPUUsage))
	fmt.Fprintf(w, "  Memory:   %s\n", opt(d.MemoryUsage))
	fmt.Fprintf(w, "  Started:  %s\n", opt(d.StartTime))
	fmt.Fprintf(w, "  Command:  %s\n", opt(d.Command))
}

// printCommands prints the tool commands that would be run.
func printCommands(cfg *config.Config, tools process.Tools) {
	port := uint16(examplePort)
	if p, err := model.ParsePort(cfg.Port); err == nil {
		port = p
	}
	pid := uint32(examplePID)
	for _, s := range []string{cfg.Detail, cfg.Kill} {
		if p, err := model.ParsePID(s); err == nil {
			pid = p
			break
		}
	}

	fmt.Printf("# port %d, pid %d\n", port, pid)
	for _, c := range tools.All(port, pid) {
		fmt.Println(c.String())
	}
	fmt.Printf("# timeout per call: %s\n", cfg.CommandTimeout)
}
