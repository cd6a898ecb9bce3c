package config

import (
	"bytes"
	"errors"
	"flag"
	"strings"
	"testing"
	"time"
)

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("go-port-killer", flag.ContinueOnError)
	fs.SetOutput(&bytes.Buffer{})
	return fs
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.LsofPath != "lsof" || cfg.PsPath != "ps" || cfg.KillPath != "kill" {
		t.Errorf("tool paths = %q %q %q", cfg.LsofPath, cfg.PsPath, cfg.KillPath)
	}
	if cfg.CommandTimeout != 5*time.Second {
		t.Errorf("CommandTimeout = %v, want 5s", cfg.CommandTimeout)
	}
	if cfg.LogFormat != "text" || cfg.LogLevel != "warn" {
		t.Errorf("log = %q/%q, want text/warn", cfg.LogFormat, cfg.LogLevel)
	}
	if cfg.ActionCount() != 0 || cfg.Interactive() {
		t.Error("default config should have no action and not be interactive")
	}
}

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, cfg *Config)
	}{
		{
			name: "positional port",
			args: []string{"3000"},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Port != "3000" {
					t.Errorf("Port = %q, want 3000", cfg.Port)
				}
			},
		},
		{
			name: "flag port wins over positional",
			args: []string{"-port", "8080", "3000"},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Port != "8080" {
					t.Errorf("Port = %q, want 8080", cfg.Port)
				}
			},
		},
		{
			name: "force kill",
			args: []string{"-kill", "1234", "-force"},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Kill != "1234" || !cfg.Force {
					t.Errorf("Kill = %q Force = %v", cfg.Kill, cfg.Force)
				}
			},
		},
		{
			name: "tools and timeout",
			args: []string{"-name", "node", "-lsof", "/usr/sbin/lsof", "-kill-bin", "/bin/kill", "-timeout", "2s"},
			check: func(t *testing.T, cfg *Config) {
				if cfg.LsofPath != "/usr/sbin/lsof" || cfg.KillPath != "/bin/kill" {
					t.Errorf("paths = %q %q", cfg.LsofPath, cfg.KillPath)
				}
				if cfg.CommandTimeout != 2*time.Second {
					t.Errorf("timeout = %v", cfg.CommandTimeout)
				}
				if cfg.PsPath != "ps" {
					t.Errorf("PsPath = %q, want default", cfg.PsPath)
				}
			},
		},
		{
			name: "modes",
			args: []string{"-tui", "-listen", "127.0.0.1:17092", "-v", "-log-format", "json"},
			check: func(t *testing.T, cfg *Config) {
				if !cfg.TUIEnabled || cfg.ListenAddr != "127.0.0.1:17092" || !cfg.Verbose || cfg.LogFormat != "json" {
					t.Errorf("cfg = %+v", cfg)
				}
				if !cfg.Interactive() {
					t.Error("Interactive() = false")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ParseArgs(newFlagSet(), tt.args)
			if err != nil {
				t.Fatalf("ParseArgs() error = %v", err)
			}
			tt.check(t, cfg)
		})
	}
}

func TestParseArgs_UnknownFlag(t *testing.T) {
	if _, err := ParseArgs(newFlagSet(), []string{"-bogus"}); err == nil {
		t.Error("ParseArgs() with unknown flag should fail")
	}
}

func TestParseArgs_Usage(t *testing.T) {
	var out bytes.Buffer
	fs := flag.NewFlagSet("go-port-killer", flag.ContinueOnError)
	fs.SetOutput(&out)

	if _, err := ParseArgs(fs, []string{"-h"}); !errors.Is(err, flag.ErrHelp) {
		t.Fatalf("err = %v, want flag.ErrHelp", err)
	}
	usage := out.String()
	for _, want := range []string{"Actions:", "-kill string", "-timeout duration", "(default 5s)", "-force\n"} {
		if !strings.Contains(usage, want) {
			t.Errorf("usage missing %q", want)
		}
	}
}

func TestFlagType(t *testing.T) {
	tests := []struct {
		name     string
		defValue string
		want     string
	}{
		{"bool false", "false", ""},
		{"bool true", "true", ""},
		{"duration", "5s", "duration"},
		{"string", "lsof", "string"},
		{"ps is not a duration", "ps", "string"},
		{"empty", "", "string"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := flagType(&flag.Flag{DefValue: tc.defValue}); got != tc.want {
				t.Errorf("flagType(%q) = %q, want %q", tc.defValue, got, tc.want)
			}
		})
	}
}

func TestValidate_Valid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port", func(c *Config) { c.Port = "3000" }},
		{"kill force", func(c *Config) { c.Kill = "1"; c.Force = true }},
		{"tui alone", func(c *Config) { c.TUIEnabled = true }},
		{"tui with initial port", func(c *Config) { c.TUIEnabled = true; c.Port = "3000" }},
		{"listen alone", func(c *Config) { c.ListenAddr = "127.0.0.1:17092" }},
		{"listen localhost", func(c *Config) { c.ListenAddr = "localhost:17092" }},
		{"listen ipv6 loopback", func(c *Config) { c.ListenAddr = "[::1]:17092" }},
		{"print-cmd alone", func(c *Config) { c.PrintCmd = true }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := Validate(cfg); err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
		})
	}
}

func TestValidate_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"no action", func(c *Config) {}, "action"},
		{"two actions", func(c *Config) { c.Port = "3000"; c.Name = "node" }, "action"},
		{"force without kill", func(c *Config) { c.Port = "3000"; c.Force = true }, "force"},
		{"tui json", func(c *Config) { c.TUIEnabled = true; c.JSON = true }, "json"},
		{"empty lsof", func(c *Config) { c.Port = "1"; c.LsofPath = "" }, "lsof_path"},
		{"zero timeout", func(c *Config) { c.Port = "1"; c.CommandTimeout = 0 }, "command_timeout"},
		{"bad log format", func(c *Config) { c.Port = "1"; c.LogFormat = "xml" }, "log_format"},
		{"bad log level", func(c *Config) { c.Port = "1"; c.LogLevel = "loud" }, "log_level"},
		{"bad listen addr", func(c *Config) { c.ListenAddr = "17092" }, "listen_addr"},
		{"listen all interfaces", func(c *Config) { c.ListenAddr = ":17092" }, "listen_addr"},
		{"listen wildcard", func(c *Config) { c.ListenAddr = "0.0.0.0:17092" }, "listen_addr"},
		{"listen lan address", func(c *Config) { c.ListenAddr = "192.168.1.10:17092" }, "listen_addr"},
		{"listen hostname", func(c *Config) { c.ListenAddr = "example.com:17092" }, "listen_addr"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.field+":") {
				t.Errorf("error %q should name field %q", err, tt.field)
			}
		})
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Port = "1"
	cfg.PsPath = ""
	cfg.CommandTimeout = -time.Second
	cfg.LogFormat = "yaml"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Validate() = nil")
	}

	var ve ValidationError
	if !errors.As(err, &ve) {
		t.Error("errors.As should find a ValidationError")
	}
	for _, field := range []string{"ps_path", "command_timeout", "log_format"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("combined error missing %s: %v", field, err)
		}
	}
}

func TestValidationError_Error(t *testing.T) {
	err := ValidationError{Field: "kill_path", Message: "must not be empty"}
	if err.Error() != "kill_path: must not be empty" {
		t.Errorf("Error() = %q", err.Error())
	}
}
