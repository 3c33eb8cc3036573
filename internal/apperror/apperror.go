// Package apperror defines the error taxonomy shared across the appliance:
// record log, ring buffer, local handle, connection workers and the
// supervisor all classify failures into one of a small set of kinds instead
// of returning bare errors, so callers can decide what's retryable, what's
// fatal, and what just means "bad argument".
package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the purposes of recovery and propagation.
type Kind int

const (
	// TransientIo is recoverable by retrying inside the same loop (e.g. a
	// short read, a partial send).
	TransientIo Kind = iota
	// PermanentIo terminates the current worker or aborts startup.
	PermanentIo
	// OutOfMemory terminates the current worker without affecting others.
	OutOfMemory
	// OutOfRange surfaces as an invalid argument to the caller; state is
	// left unchanged.
	OutOfRange
	// Interrupted means a blocking lock acquisition was cancelled by
	// shutdown.
	Interrupted
	// Fatal aborts the process during startup with a non-zero exit code.
	Fatal
)

func (k Kind) String() string {
	switch k {
	case TransientIo:
		return "transient_io"
	case PermanentIo:
		return "permanent_io"
	case OutOfMemory:
		return "out_of_memory"
	case OutOfRange:
		return "out_of_range"
	case Interrupted:
		return "interrupted"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Error wraps a Kind with a message and an optional cause.
type Error struct {
	Kind  Kind
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an *Error of the given kind.
func New(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, Cause: cause}
}

// Is reports whether err is, or wraps, an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
