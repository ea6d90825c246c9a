package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for the HTTP layer.
type Kind string

const (
	KindInvalidInput    Kind = "INVALID_INPUT"
	KindUnauthorized    Kind = "UNAUTHORIZED"
	KindForbidden       Kind = "FORBIDDEN"
	KindNotFound        Kind = "NOT_FOUND"
	KindConflict        Kind = "CONFLICT"
	KindUpstreamFailure Kind = "UPSTREAM_FAILURE"
	KindInternal        Kind = "INTERNAL"
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func InvalidInput(message string) *Error    { return New(KindInvalidInput, message) }
func Unauthorized(message string) *Error    { return New(KindUnauthorized, message) }
func Forbidden(message string) *Error       { return New(KindForbidden, message) }
func NotFound(message string) *Error        { return New(KindNotFound, message) }
func Conflict(message string) *Error        { return New(KindConflict, message) }
func Upstream(message string, err error) *Error {
	return Wrap(KindUpstreamFailure, message, err)
}

// KindOf extracts the kind from an error chain, defaulting to internal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
