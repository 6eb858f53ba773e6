package domain

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindNotFound          ErrorKind = "NOT_FOUND"
	KindForbidden         ErrorKind = "FORBIDDEN"
	KindValidation        ErrorKind = "VALIDATION_ERROR"
	KindInvalidState      ErrorKind = "INVALID_STATE"
	KindInvalidTransition ErrorKind = "INVALID_TRANSITION"
	KindConflict          ErrorKind = "CONFLICT"
	KindInternal          ErrorKind = "INTERNAL"
)

// Error is the error type returned across the booking core boundary.
// Callers branch on Kind, never on Message.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error {
	return NewError(KindNotFound, format, args...)
}

func Forbidden(format string, args ...any) *Error {
	return NewError(KindForbidden, format, args...)
}

func Validation(format string, args ...any) *Error {
	return NewError(KindValidation, format, args...)
}

func InvalidState(format string, args ...any) *Error {
	return NewError(KindInvalidState, format, args...)
}

func InvalidTransition(from, to OrderStatus) *Error {
	return NewError(KindInvalidTransition, "invalid status transition from %s to %s", from, to)
}

func Conflict(format string, args ...any) *Error {
	return NewError(KindConflict, format, args...)
}

// Internal wraps an unexpected infrastructure failure.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "internal error", Err: err}
}

// KindOf returns the taxonomy kind carried by err, or KindInternal for
// anything that is not a *Error.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}
