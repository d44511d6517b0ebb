// Package hyerr defines the unified failure taxonomy surfaced by every
// Hyperion component: wire primitives, header codec, framing engine, and
// dispatcher all return *Error so callers can switch on Kind instead of
// sentinel identity.
package hyerr

import (
	"errors"
	"fmt"
)

// Kind classifies a Hyperion failure.
type Kind uint8

const (
	// ArgumentInvalid marks a null/unusable transport handle or a
	// non-writable/non-readable transport.
	ArgumentInvalid Kind = iota
	// Cancelled marks cancellation observed at a checkpoint.
	Cancelled
	// EndOfStream marks a short read: the peer closed mid-frame.
	EndOfStream
	// ProtocolViolation marks a header/validation invariant failure.
	ProtocolViolation
	// SerializerError marks a rejection from the pluggable serializer.
	SerializerError
	// TransportError marks an underlying transport I/O error other than
	// EOF or cancellation.
	TransportError
)

func (k Kind) String() string {
	switch k {
	case ArgumentInvalid:
		return "argument_invalid"
	case Cancelled:
		return "cancelled"
	case EndOfStream:
		return "end_of_stream"
	case ProtocolViolation:
		return "protocol_violation"
	case SerializerError:
		return "serializer_error"
	case TransportError:
		return "transport_error"
	default:
		return "unknown"
	}
}

// Error is the typed failure every Hyperion operation returns. Cause is
// preserved so errors.Unwrap/errors.Is keeps working against lower-level
// causes (io errors, serializer errors) wrapped exactly once.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("hyperion: %s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("hyperion: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New builds an Error with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an Error that preserves cause as its wrapped error. A nil
// cause returns nil, so call sites can write `return hyerr.Wrap(...)`
// unconditionally after an `if err != nil` check without double-wrapping.
func Wrap(kind Kind, message string, cause error) *Error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Is reports whether err is a Hyperion error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}
