// Package ehterr provides the single structured error type the core
// returns instead of the original C library's thread-local error
// buffer (spec.md ยง9 "Out-parameter error strings via process-wide
// storage"). It is grounded on
// WhileEndless-go-rawhttp/pkg/errors: one Error struct carrying a
// Kind, an Op, a Message, and an optional Cause, satisfying error,
// Unwrap and Is.
package ehterr

import (
	"fmt"
	"time"
)

// Kind enumerates the error categories named in spec.md ยง7.
type Kind string

const (
	// Protocol covers bad start lines, bad headers, and limits exceeded.
	Protocol Kind = "protocol"
	// UnsupportedMethod is an unrecognized request method.
	UnsupportedMethod Kind = "unsupported_method"
	// RouteMismatch covers 404/405 outcomes from the route base.
	RouteMismatch Kind = "route_mismatch"
	// HandlerRefusal is a status a handler chose explicitly.
	HandlerRefusal Kind = "handler_refusal"
	// IO covers socket read/write, allocation, or reactor registration failure.
	IO Kind = "io"
	// Timeout is a connection-inactivity timeout.
	Timeout Kind = "timeout"
)

// Error is the structured error value returned throughout the core.
type Error struct {
	Kind      Kind
	Op        string
	Status    int // HTTP status to report, if any (0 when not applicable)
	Message   string
	Cause     error
	Timestamp time.Time
}

// New builds an Error, stamping Timestamp with the given clock read (the
// caller supplies "now" so this package never calls time.Now() itself,
// keeping every timestamp traceable to a single clock source per connection).
func New(kind Kind, op string, status int, message string, cause error, now time.Time) *Error {
	return &Error{Kind: kind, Op: op, Status: status, Message: message, Cause: cause, Timestamp: now}
}

// Protocolf builds a Protocol-kind error carrying the HTTP status the
// connection layer should emit, per spec.md ยง4.1's error semantics.
func Protocolf(status int, now time.Time, format string, args ...any) *Error {
	return New(Protocol, "parse", status, fmt.Sprintf(format, args...), nil, now)
}

// IOErrorf builds an IO-kind error with no associated status (spec.md ยง7:
// "Connection-level I/O errors never attempt to write a response").
func IOErrorf(op string, cause error, now time.Time) *Error {
	return New(IO, op, 0, fmt.Sprintf("I/O error during %s", op), cause, now)
}

func (e *Error) Error() string {
	s := fmt.Sprintf("[%s]", e.Kind)
	if e.Op != "" {
		s += " " + e.Op
	}
	if e.Message != "" {
		s += ": " + e.Message
	}
	if e.Cause != nil {
		s += ": " + e.Cause.Error()
	}
	return s
}

// Unwrap exposes the underlying cause to errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.Cause }

// Is reports equality by Kind, letting callers test with errors.Is against
// a bare &Error{Kind: ehterr.Timeout}.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e.Kind == t.Kind
}
