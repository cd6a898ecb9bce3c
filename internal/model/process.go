// Package model defines the request-scoped records produced by the port killer.
//
// All values are transient: they are built for a single query, handed to the
// caller and never cached or shared between calls.
package model

// UnknownPort is the port label used when a record carries no port context.
const UnknownPort = "Unknown"

// ProcessRecord is a process matched by a port or name query.
type ProcessRecord struct {
	PID  string `json:"pid"`
	Name string `json:"name"`
	// Port is the queried port, a comma-joined list of ports, or UnknownPort.
	Port string `json:"port"`
}

// ProcessDetail is the enriched view of a single process.
// Optional fields are nil when the sub-query that provides them failed.
type ProcessDetail struct {
	PID         string  `json:"pid"`
	Name        string  `json:"name"`
	Port        string  `json:"port"`
	User        *string `json:"user,omitempty"`
	Command     *string `json:"command,omitempty"`
	CPUUsage    *string `json:"cpu_usage,omitempty"`
	MemoryUsage *string `json:"memory_usage,omitempty"`
	StartTime   *string `json:"start_time,omitempty"`
}

// PortQueryResult is the outcome of a query by port.
// Occupied is true if and only if Processes is non-empty.
type PortQueryResult struct {
	Occupied  bool            `json:"is_occupied"`
	Processes []ProcessRecord `json:"processes"`
	Error     string          `json:"error,omitempty"`
}

// NameQueryResult is the outcome of a query by name.
type NameQueryResult struct {
	Processes []ProcessRecord `json:"processes"`
	Error     string          `json:"error,omitempty"`
}

// DetailResult wraps a detail lookup for callers that render errors as strings.
type DetailResult struct {
	Detail *ProcessDetail `json:"detail,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// KillResult is the outcome of a terminate request.
type KillResult struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}
