// Package apperr defines the error taxonomy shared by the core services.
// Every failure surfaced to a caller carries a stable Kind; the transport
// layer maps kinds to status codes and never inspects messages.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers.
type Kind string

const (
	// Validation marks malformed or missing input.
	Validation Kind = "validation"
	// Authentication marks bad credentials or an expired, malformed, or
	// reused token.
	Authentication Kind = "authentication"
	// Authorization marks an actor mutating a resource it does not own.
	Authorization Kind = "authorization"
	// Conflict marks a uniqueness violation, e.g. a duplicate username.
	Conflict Kind = "conflict"
	// NotFound marks a missing account, video, comment, post, or channel.
	NotFound Kind = "not_found"
)

// Error is a typed failure with a stable kind and a human-readable message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap constructs an Error of the given kind around an underlying cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Validationf builds a Validation error with a formatted message.
func Validationf(format string, args ...any) *Error {
	return New(Validation, fmt.Sprintf(format, args...))
}

// Authenticationf builds an Authentication error with a formatted message.
func Authenticationf(format string, args ...any) *Error {
	return New(Authentication, fmt.Sprintf(format, args...))
}

// Authorizationf builds an Authorization error with a formatted message.
func Authorizationf(format string, args ...any) *Error {
	return New(Authorization, fmt.Sprintf(format, args...))
}

// Conflictf builds a Conflict error with a formatted message.
func Conflictf(format string, args ...any) *Error {
	return New(Conflict, fmt.Sprintf(format, args...))
}

// NotFoundf builds a NotFound error with a formatted message.
func NotFoundf(format string, args ...any) *Error {
	return New(NotFound, fmt.Sprintf(format, args...))
}

// KindOf extracts the kind from err, or "" when err carries no kind.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool { return KindOf(err) == kind }
