package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the configuration for errors and inconsistencies.
// Returns nil if valid, or an error describing every problem.
//
// Port and PID values are not checked here: the engine validates them
// per call and reports them in the result.
func Validate(cfg *Config) error {
	var errs []error

	// Exactly one action, unless running interactively
	switch n := cfg.ActionCount(); {
	case n == 0 && !cfg.Interactive() && !cfg.PrintCmd:
		errs = append(errs, ValidationError{
			Field:   "action",
			Message: "one of -port, -name, -detail, -kill, -tui or -listen is required",
		})
	case n > 1:
		errs = append(errs, ValidationError{
			Field:   "action",
			Message: fmt.Sprintf("only one of -port, -name, -detail, -kill may be given (got %d)", n),
		})
	}

	if cfg.Force && cfg.Kill == "" {
		errs = append(errs, ValidationError{
			Field:   "force",
			Message: "-force requires -kill",
		})
	}

	if cfg.TUIEnabled && cfg.JSON {
		errs = append(errs, ValidationError{
			Field:   "json",
			Message: "-json cannot be combined with -tui",
		})
	}

	// Tool paths must be set
	for field, path := range map[string]string{
		"lsof_path": cfg.LsofPath,
		"ps_path":   cfg.PsPath,
		"kill_path": cfg.KillPath,
	} {
		if path == "" {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: "must not be empty",
			})
		}
	}

	// Timeout must be positive
	if cfg.CommandTimeout <= 0 {
		errs = append(errs, ValidationError{
			Field:   "command_timeout",
			Message: "must be positive",
		})
	}

	// Log format must be valid
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[cfg.LogFormat] {
		errs = append(errs, ValidationError{
			Field:   "log_format",
			Message: fmt.Sprintf("must be 'json' or 'text' (got %q)", cfg.LogFormat),
		})
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}
	if !validLevels[cfg.LogLevel] {
		errs = append(errs, ValidationError{
			Field:   "log_level",
			Message: fmt.Sprintf("must be debug, info, warn or error (got %q)", cfg.LogLevel),
		})
	}

	// The API can kill processes, so it only binds loopback
	if cfg.ListenAddr != "" {
		if host, _, err := net.SplitHostPort(cfg.ListenAddr); err != nil {
			errs = append(errs, ValidationError{
				Field:   "listen_addr",
				Message: err.Error(),
			})
		} else if !isLoopback(host) {
			errs = append(errs, ValidationError{
				Field:   "listen_addr",
				Message: fmt.Sprintf("host must be loopback (localhost, 127.0.0.1 or ::1), got %q", host),
			})
		}
	}

	// Return combined errors
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// isLoopback reports whether host only accepts local connections.
// An empty host binds every interface.
func isLoopback(host string) bool {
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
