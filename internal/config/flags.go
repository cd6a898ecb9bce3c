package config

import (
	"flag"
	"fmt"
	"os"
	"time"
)

// ParseFlags parses command-line flags and returns a Config.
func ParseFlags() (*Config, error) {
	return ParseArgs(flag.CommandLine, os.Args[1:])
}

// ParseArgs parses args with fs. Split out from ParseFlags for testing.
//
// If -config names a YAML file, its settings replace the defaults before the
// flags are registered, so explicit flags still win.
func ParseArgs(fs *flag.FlagSet, args []string) (*Config, error) {
	cfg := DefaultConfig()

	if path := configArg(args); path != "" {
		fc, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		fc.Apply(cfg)
		cfg.ConfigFile = path
	}

	// Custom usage message
	fs.Usage = func() {
		out := fs.Output()
		fmt.Fprintf(out, `go-port-killer - find and terminate processes by port or name

Usage:
  go-port-killer [flags] [PORT]

Actions:
`)
		printFlagCategory(fs, []string{"port", "name", "detail", "kill", "force"})

		fmt.Fprintf(out, "\nModes:\n")
		printFlagCategory(fs, []string{"tui", "listen", "json"})

		fmt.Fprintf(out, "\nTools:\n")
		printFlagCategory(fs, []string{"lsof", "ps", "kill-bin", "timeout"})

		fmt.Fprintf(out, "\nObservability:\n")
		printFlagCategory(fs, []string{"v", "log-format", "log-level", "metrics-dump"})

		fmt.Fprintf(out, "\nDiagnostics:\n")
		printFlagCategory(fs, []string{"config", "print-cmd", "skip-preflight"})

		fmt.Fprintf(out, `
Examples:
  # Who is listening on 3000?
  go-port-killer 3000

  # Find node processes, then ask one to exit
  go-port-killer -name node
  go-port-killer -kill 1234

  # It ignored SIGTERM
  go-port-killer -kill 1234 -force

  # Serve the JSON API and /metrics
  go-port-killer -listen 127.0.0.1:17092

`)
	}

	// Actions
	fs.StringVar(&cfg.Port, "port", cfg.Port, "Show processes listening on this TCP port")
	fs.StringVar(&cfg.Name, "name", cfg.Name, "Show processes whose name contains this text")
	fs.StringVar(&cfg.Detail, "detail", cfg.Detail, "Show details for this PID")
	fs.StringVar(&cfg.Kill, "kill", cfg.Kill, "Terminate this PID (SIGTERM)")
	fs.BoolVar(&cfg.Force, "force", cfg.Force, "With -kill, send SIGKILL instead of SIGTERM")

	// Modes
	fs.BoolVar(&cfg.TUIEnabled, "tui", cfg.TUIEnabled, "Interactive terminal UI")
	fs.StringVar(&cfg.ListenAddr, "listen", cfg.ListenAddr, "Serve the JSON API and /metrics on this loopback address")
	fs.BoolVar(&cfg.JSON, "json", cfg.JSON, "Print results as JSON")

	// Tools
	fs.StringVar(&cfg.LsofPath, "lsof", cfg.LsofPath, "Path to lsof")
	fs.StringVar(&cfg.PsPath, "ps", cfg.PsPath, "Path to ps")
	fs.StringVar(&cfg.KillPath, "kill-bin", cfg.KillPath, "Path to kill")
	fs.DurationVar(&cfg.CommandTimeout, "timeout", cfg.CommandTimeout, "Timeout for each external tool call")

	// Observability
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "Verbose logging")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, `Log format: "json" or "text"`)
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, `Log level: "debug", "info", "warn" or "error"`)
	fs.BoolVar(&cfg.MetricsDump, "metrics-dump", cfg.MetricsDump, "Print Prometheus metrics to stderr on exit")

	// Diagnostics
	fs.StringVar(&cfg.ConfigFile, "config", cfg.ConfigFile, "YAML settings file (tools, log, listen)")
	fs.BoolVar(&cfg.PrintCmd, "print-cmd", cfg.PrintCmd, "Print the tool commands that would run and exit")
	fs.BoolVar(&cfg.SkipPreflight, "skip-preflight", cfg.SkipPreflight, "Skip tool availability checks")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Positional argument: port
	if rest := fs.Args(); len(rest) >= 1 && cfg.Port == "" {
		cfg.Port = rest[0]
	}

	return cfg, nil
}

// printFlagCategory prints flags matching the given names (helper for usage).
func printFlagCategory(fs *flag.FlagSet, names []string) {
	out := fs.Output()
	fs.VisitAll(func(f *flag.Flag) {
		for _, name := range names {
			if f.Name == name {
				fmt.Fprintf(out, "  -%s %s\n    \t%s", f.Name, flagType(f), f.Usage)
				if f.DefValue != "" && f.DefValue != "false" && f.DefValue != "0" && f.DefValue != "0s" {
					fmt.Fprintf(out, " (default %s)", f.DefValue)
				}
				fmt.Fprintln(out)
				return
			}
		}
	})
}

// flagType returns a type hint for the flag value.
func flagType(f *flag.Flag) string {
	switch f.DefValue {
	case "true", "false":
		return ""
	}

	if _, err := time.ParseDuration(f.DefValue); err == nil {
		return "duration"
	}

	return "string"
}
