// Package lifecycle validates process ids and delivers termination signals.
package lifecycle

// State is the phase of a single terminate call. It is never persisted.
type State int

const (
	// StateValidating is the initial state while the PID is parsed.
	StateValidating State = iota

	// StateSignaling indicates the signal-delivery tool is running.
	StateSignaling

	// StateSucceeded indicates the signal was delivered.
	StateSucceeded

	// StateFailed indicates validation or delivery failed.
	StateFailed
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case StateValidating:
		return "validating"
	case StateSignaling:
		return "signaling"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// IsTerminal returns true if the call has finished.
func (s State) IsTerminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// Mode selects how a process is terminated.
type Mode int

const (
	// Graceful sends SIGTERM; the process may handle or ignore it.
	Graceful Mode = iota

	// Forceful sends SIGKILL.
	Forceful
)

// ModeFromForce maps the upstream boolean flag to a Mode.
func ModeFromForce(force bool) Mode {
	if force {
		return Forceful
	}
	return Graceful
}

// String returns a human-readable name for the mode.
func (m Mode) String() string {
	if m == Forceful {
		return "forceful"
	}
	return "graceful"
}

// action is the past-tense phrase used in confirmation messages.
func (m Mode) action() string {
	if m == Forceful {
		return "force killed"
	}
	return "gracefully terminated"
}
