// Package apperror defines the typed application errors raised by the
// service layer.  Each error carries a Kind that determines the HTTP status
// and the machine-readable code written into the response envelope, so
// handlers never have to decide status codes themselves.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindForbidden
	KindInvalidState
	KindInvalidTransition
	KindExpired
	KindConflict
	KindUnauthorized
	KindRateLimited
)

var kindInfo = map[Kind]struct {
	status int
	code   string
}{
	KindInternal:          {http.StatusInternalServerError, "INTERNAL_ERROR"},
	KindValidation:        {http.StatusBadRequest, "VALIDATION_ERROR"},
	KindNotFound:          {http.StatusNotFound, "NOT_FOUND"},
	KindForbidden:         {http.StatusForbidden, "FORBIDDEN"},
	KindInvalidState:      {http.StatusBadRequest, "INVALID_STATE"},
	KindInvalidTransition: {http.StatusBadRequest, "INVALID_TRANSITION"},
	KindExpired:           {http.StatusBadRequest, "EXPIRED"},
	KindConflict:          {http.StatusBadRequest, "CONFLICT"},
	KindUnauthorized:      {http.StatusUnauthorized, "UNAUTHORIZED"},
	KindRateLimited:       {http.StatusTooManyRequests, "RATE_LIMITED"},
}

// Status returns the HTTP status code associated with the kind.
func (k Kind) Status() int {
	if info, ok := kindInfo[k]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}

// Code returns the upper-case error code written to the envelope.
func (k Kind) Code() string {
	if info, ok := kindInfo[k]; ok {
		return info.code
	}
	return "INTERNAL_ERROR"
}

func (k Kind) String() string { return k.Code() }

// Error is an application error with a client-safe message.  Err holds the
// underlying cause, if any, and is never exposed to clients.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind.Code(), e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind.Code(), e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Status is shorthand for e.Kind.Status().
func (e *Error) Status() int { return e.Kind.Status() }

// New builds an Error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error of the given kind around a cause.
func Wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Validation(format string, args ...any) *Error {
	return New(KindValidation, format, args...)
}

// NotFound reports a missing entity, e.g. NotFound("quote").
func NotFound(entity string) *Error {
	return New(KindNotFound, "%s not found", entity)
}

func Forbidden(format string, args ...any) *Error {
	return New(KindForbidden, format, args...)
}

func InvalidState(format string, args ...any) *Error {
	return New(KindInvalidState, format, args...)
}

// InvalidTransition reports an illegal status change of an entity.
func InvalidTransition(entity, from, to string) *Error {
	return New(KindInvalidTransition, "%s cannot move from %s to %s", entity, from, to)
}

func Expired(format string, args ...any) *Error {
	return New(KindExpired, format, args...)
}

func Conflict(format string, args ...any) *Error {
	return New(KindConflict, format, args...)
}

func Unauthorized(format string, args ...any) *Error {
	return New(KindUnauthorized, format, args...)
}

// Internal wraps an unexpected error.  The message shown to clients is
// generic; the cause is kept for logging.
func Internal(err error) *Error {
	return Wrap(KindInternal, err, "internal server error")
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// KindOf returns the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	if ae, ok := As(err); ok {
		return ae.Kind
	}
	return KindInternal
}

// Is reports whether err is an application error of the given kind.
func Is(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	return KindOf(err) == kind
}
