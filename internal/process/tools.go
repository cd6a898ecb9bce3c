package process

import (
	"path/filepath"
	"strconv"
	"strings"
)

// Command is a fully built external tool invocation.
type Command struct {
	Path string
	Args []string
}

// Name returns the base name of the tool binary.
func (c Command) Name() string {
	return filepath.Base(c.Path)
}

// String returns the command line that would be executed (for debugging).
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Path
	}
	return c.Path + " " + strings.Join(c.Args, " ")
}

// Signal selects which termination signal the kill tool delivers.
type Signal string

const (
	// SignalKill terminates the process unconditionally.
	SignalKill Signal = "KILL"

	// SignalTerm asks the process to terminate; it may be ignored.
	SignalTerm Signal = "TERM"
)

// Tools holds the paths of the three external collaborators.
type Tools struct {
	// LsofPath is the listening-socket query tool.
	LsofPath string

	// PsPath is the process-listing tool.
	PsPath string

	// KillPath is the signal-delivery tool.
	KillPath string
}

// DefaultTools resolves all tools from PATH.
func DefaultTools() Tools {
	return Tools{
		LsofPath: "lsof",
		PsPath:   "ps",
		KillPath: "kill",
	}
}

// ListenersCommand lists TCP sockets in LISTEN state on a single port.
//
//	-n no host name resolution
//	-P no port name resolution
//	-iTCP:<port> restrict to one TCP port
//	-sTCP:LISTEN restrict to LISTEN state
func (t Tools) ListenersCommand(port uint16) Command {
	return Command{
		Path: t.LsofPath,
		Args: []string{"-n", "-P", "-iTCP:" + strconv.Itoa(int(port)), "-sTCP:LISTEN"},
	}
}

// ProcessListCommand lists every process as "pid command" without a header.
func (t Tools) ProcessListCommand() Command {
	return Command{
		Path: t.PsPath,
		Args: []string{"-axo", "pid=,comm="},
	}
}

// IdentityCommand prints pid, owning user and full argument line.
// args is last because it may contain spaces.
func (t Tools) IdentityCommand(pid uint32) Command {
	return t.psFields(pid, "pid=,user=,args=")
}

// NameCommand prints only the command name. It gets its own call because
// names may contain spaces ("Web Content", macOS executable paths).
func (t Tools) NameCommand(pid uint32) Command {
	return t.psFields(pid, "comm=")
}

// ResourcesCommand prints pid, CPU percentage and memory percentage.
func (t Tools) ResourcesCommand(pid uint32) Command {
	return t.psFields(pid, "pid=,%cpu=,%mem=")
}

// StartTimeCommand prints pid and the full start timestamp.
func (t Tools) StartTimeCommand(pid uint32) Command {
	return t.psFields(pid, "pid=,lstart=")
}

func (t Tools) psFields(pid uint32, format string) Command {
	return Command{
		Path: t.PsPath,
		Args: []string{"-p", formatPID(pid), "-o", format},
	}
}

// PortsCommand lists the TCP sockets held by one process.
// -a ANDs the -p and -i selections.
func (t Tools) PortsCommand(pid uint32) Command {
	return Command{
		Path: t.LsofPath,
		Args: []string{"-n", "-P", "-a", "-p", formatPID(pid), "-iTCP"},
	}
}

// KillCommand delivers sig to pid.
func (t Tools) KillCommand(pid uint32, sig Signal) Command {
	return Command{
		Path: t.KillPath,
		Args: []string{"-s", string(sig), formatPID(pid)},
	}
}

// All returns every command the engine may run for the given port and pid.
// Used by the -print-cmd diagnostic mode.
func (t Tools) All(port uint16, pid uint32) []Command {
	return []Command{
		t.ListenersCommand(port),
		t.ProcessListCommand(),
		t.IdentityCommand(pid),
		t.NameCommand(pid),
		t.ResourcesCommand(pid),
		t.StartTimeCommand(pid),
		t.PortsCommand(pid),
		t.KillCommand(pid, SignalTerm),
		t.KillCommand(pid, SignalKill),
	}
}

func formatPID(pid uint32) string {
	return strconv.FormatUint(uint64(pid), 10)
}
