package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/randomizedcoder/go-port-killer/internal/config"
	"github.com/randomizedcoder/go-port-killer/internal/engine"
	"github.com/randomizedcoder/go-port-killer/internal/model"
	"github.com/randomizedcoder/go-port-killer/internal/process"
)

type cannedRunner map[string]string

func (c cannedRunner) Run(_ context.Context, cmd process.Command) (*process.Result, error) {
	out, ok := c[cmd.String()]
	if !ok {
		return &process.Result{ExitCode: 1}, nil
	}
	return &process.Result{Stdout: out}, nil
}

func testEngine() *engine.Engine {
	return engine.New(engine.Config{
		Runner: cannedRunner{
			"lsof -n -P -iTCP:3000 -sTCP:LISTEN": "COMMAND PID USER FD TYPE DEVICE SIZE/OFF NODE NAME\n" +
				"node 1234 alice 20u IPv4 0x1 0t0 TCP *:3000 (LISTEN)\n",
			"kill -s KILL 1234": "",
		},
		Tools:  process.DefaultTools(),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func TestRunAction(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*config.Config)
		wantCode int
		wantOut  string
	}{
		{
			name:    "occupied port",
			mutate:  func(c *config.Config) { c.Port = "3000" },
			wantOut: "Port 3000 is in use by:",
		},
		{
			name:    "free port",
			mutate:  func(c *config.Config) { c.Port = "4000" },
			wantOut: "Port 4000 is free",
		},
		{
			name:     "invalid port",
			mutate:   func(c *config.Config) { c.Port = "x" },
			wantCode: 1,
		},
		{
			name:    "force kill",
			mutate:  func(c *config.Config) { c.Kill = "1234"; c.Force = true },
			wantOut: "Process 1234 force killed successfully",
		},
		{
			name:     "graceful kill fails",
			mutate:   func(c *config.Config) { c.Kill = "1234" },
			wantCode: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			tt.mutate(cfg)

			var out bytes.Buffer
			code := runAction(context.Background(), cfg, testEngine(), &out)

			if code != tt.wantCode {
				t.Errorf("exit code = %d, want %d", code, tt.wantCode)
			}
			if !strings.Contains(out.String(), tt.wantOut) {
				t.Errorf("output %q missing %q", out.String(), tt.wantOut)
			}
		})
	}
}

func TestRunAction_JSON(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Port = "3000"
	cfg.JSON = true

	var out bytes.Buffer
	if code := runAction(context.Background(), cfg, testEngine(), &out); code != 0 {
		t.Fatalf("exit code = %d", code)
	}

	var res model.PortQueryResult
	if err := json.Unmarshal(out.Bytes(), &res); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out.String())
	}
	if !res.Occupied || res.Processes[0].PID != "1234" {
		t.Errorf("result = %+v", res)
	}
}
