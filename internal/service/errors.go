package service

import (
	"errors"
	"fmt"
)

// Kind classifies a backend failure.
type Kind int

const (
	// KindTransient is a failure likely to resolve itself: network errors,
	// timeouts, missing status codes and 5xx responses.
	KindTransient Kind = iota + 1

	// KindRejected is a permanent rejection of the request (non-5xx failure status).
	KindRejected

	// KindUsage is an invalid call that was never sent over the wire.
	KindUsage
)

// String returns a human-readable representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindRejected:
		return "rejected"
	case KindUsage:
		return "usage"
	default:
		return "unknown"
	}
}

// Sentinels matched by *Error through errors.Is.
var (
	ErrTransient = errors.New("transient backend failure")
	ErrRejected  = errors.New("rejected by backend")
	ErrUsage     = errors.New("invalid backend call")
)

// Error is the error type returned by Remote implementations.
type Error struct {
	Kind    Kind
	Op      string // list, create, update, delete
	Status  int    // HTTP status, 0 when no response was received
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (http %d): %s", e.Op, e.Kind, e.Status, msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrTransient:
		return e.Kind == KindTransient
	case ErrRejected:
		return e.Kind == KindRejected
	case ErrUsage:
		return e.Kind == KindUsage
	}
	return false
}

// StatusKind classifies an HTTP failure status. A zero status means no
// response was received.
func StatusKind(status int) Kind {
	if status == 0 || status >= 500 {
		return KindTransient
	}
	return KindRejected
}

// Transient wraps a transport-level failure.
func Transient(op string, err error) *Error {
	return &Error{Kind: KindTransient, Op: op, Err: err}
}

// HTTPFailure builds an error from a non-2xx status.
func HTTPFailure(op string, status int, message string) *Error {
	return &Error{Kind: StatusKind(status), Op: op, Status: status, Message: message}
}

// Usage reports an invalid call.
func Usage(op, message string) *Error {
	return &Error{Kind: KindUsage, Op: op, Message: message}
}

// IsTransient reports whether err is a transient backend failure.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

// IsRejected reports whether err is a rejection by the backend.
func IsRejected(err error) bool {
	return errors.Is(err, ErrRejected)
}
