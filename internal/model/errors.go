package model

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures surfaced by the engine.
type ErrorKind int

const (
	// KindUnknown is used for errors that did not originate in the engine.
	KindUnknown ErrorKind = iota

	// KindValueValidation is a malformed port or PID string, rejected before any external call.
	KindValueValidation

	// KindToolInvocation means the external tool binary could not be launched.
	KindToolInvocation

	// KindToolExecution means the tool ran but reported a failing status.
	KindToolExecution

	// KindInvalidFormat is a terminate request with a malformed PID.
	KindInvalidFormat

	// KindTerminationFailed means signal delivery could not be invoked or was refused.
	KindTerminationFailed
)

// String returns a human-readable name for the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindValueValidation:
		return "value_validation"
	case KindToolInvocation:
		return "tool_invocation"
	case KindToolExecution:
		return "tool_execution"
	case KindInvalidFormat:
		return "invalid_format"
	case KindTerminationFailed:
		return "termination_failed"
	default:
		return "unknown"
	}
}

// Error is a classified engine failure.
type Error struct {
	Kind    ErrorKind
	Op      string // operation or tool that failed
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Op + ": " + e.Kind.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// ErrorString renders err for result structs; nil becomes "".
func ErrorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
