// Package config provides configuration management for go-port-killer.
package config

import "time"

// Config holds all configuration options.
type Config struct {
	// Actions (exactly one unless TUI or API mode)
	Port   string `json:"port"`
	Name   string `json:"name"`
	Detail string `json:"detail"`
	Kill   string `json:"kill"`
	Force  bool   `json:"force"`

	// Tools
	LsofPath       string        `json:"lsof_path"`
	PsPath         string        `json:"ps_path"`
	KillPath       string        `json:"kill_path"`
	CommandTimeout time.Duration `json:"command_timeout"`

	// Output
	JSON       bool `json:"json"`
	TUIEnabled bool `json:"tui"`

	// Servers
	ListenAddr  string `json:"listen_addr"`  // JSON API + metrics, empty = disabled
	MetricsDump bool   `json:"metrics_dump"` // print metrics to stderr on exit

	// Observability
	Verbose   bool   `json:"verbose"`
	LogFormat string `json:"log_format"` // json, text
	LogLevel  string `json:"log_level"`

	// Diagnostic modes
	ConfigFile    string `json:"config_file"`
	PrintCmd      bool   `json:"print_cmd"`
	SkipPreflight bool   `json:"skip_preflight"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		// Tools
		LsofPath:       "lsof",
		PsPath:         "ps",
		KillPath:       "kill",
		CommandTimeout: 5 * time.Second,

		// Observability
		LogFormat: "text",
		LogLevel:  "warn",
	}
}

// ActionCount returns how many one-shot actions are set.
func (c *Config) ActionCount() int {
	n := 0
	for _, v := range []string{c.Port, c.Name, c.Detail, c.Kill} {
		if v != "" {
			n++
		}
	}
	return n
}

// Interactive reports whether the process runs until interrupted.
func (c *Config) Interactive() bool {
	return c.TUIEnabled || c.ListenAddr != ""
}
