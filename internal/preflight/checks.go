// Package preflight provides startup validation checks.
package preflight

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"

	"github.com/randomizedcoder/go-port-killer/internal/process"
)

// Check represents the result of a single preflight check.
type Check struct {
	Name    string // Name of the check
	Passed  bool   // Whether the check passed
	Warning bool   // True if it's a warning (non-fatal)
	Message string // Additional context
}

// Result holds the results of all preflight checks.
type Result struct {
	Checks []Check
	Passed bool
}

// String returns a human-readable summary of the check.
func (c Check) String() string {
	status := "✓"
	if !c.Passed {
		status = "✗"
	} else if c.Warning {
		status = "⚠"
	}
	return fmt.Sprintf("  %s %s: %s", status, c.Name, c.Message)
}

// lookPath is swapped in tests.
var lookPath = exec.LookPath

// euid is swapped in tests.
var euid = os.Geteuid

// RunAll executes all preflight checks.
//
// A missing tool fails the check but is not fatal to the program: the
// engine reports it per call as a tool invocation failure.
func RunAll(tools process.Tools) *Result {
	result := &Result{
		Checks: make([]Check, 0, 4),
		Passed: true,
	}

	for _, c := range []Check{
		checkTool("lsof", tools.LsofPath),
		checkTool("ps", tools.PsPath),
		checkTool("kill", tools.KillPath),
	} {
		result.Checks = append(result.Checks, c)
		if !c.Passed {
			result.Passed = false
		}
	}

	// Privilege check (warning only)
	result.Checks = append(result.Checks, checkPrivileges())

	return result
}

// checkTool verifies a tool binary can be resolved.
func checkTool(name, path string) Check {
	resolved, err := lookPath(path)
	if err != nil {
		return Check{
			Name:    name,
			Passed:  false,
			Message: fmt.Sprintf("not found at %s: %v", path, err),
		}
	}
	return Check{
		Name:    name,
		Passed:  true,
		Message: "found at " + resolved,
	}
}

// checkPrivileges warns that sockets and processes of other users may be
// invisible or unkillable without root.
func checkPrivileges() Check {
	if euid() == 0 {
		return Check{
			Name:    "privileges",
			Passed:  true,
			Message: "running as root",
		}
	}
	return Check{
		Name:    "privileges",
		Passed:  true,
		Warning: true,
		Message: "not root; other users' processes may be hidden or protected",
	}
}

// PrintResults prints the preflight check results to w.
func PrintResults(w io.Writer, result *Result) {
	fmt.Fprintln(w, "Preflight checks:")
	for _, check := range result.Checks {
		fmt.Fprintln(w, check.String())
		if !check.Passed {
			fmt.Fprintf(w, "    Fix: %s\n", suggestFix(check.Name))
		}
	}
	fmt.Fprintln(w)
}

// suggestFix returns a suggestion for fixing a failed check.
func suggestFix(name string) string {
	switch name {
	case "lsof":
		if runtime.GOOS == "darwin" {
			return "lsof ships with macOS; check PATH or pass -lsof /usr/sbin/lsof"
		}
		return "install lsof (apt install lsof / dnf install lsof)"
	case "ps":
		return "install procps (apt install procps / dnf install procps-ng)"
	case "kill":
		return "install procps or util-linux, or pass -kill-bin /bin/kill"
	default:
		return "see documentation"
	}
}
