// Package apperror defines the error kinds services return and how each
// maps onto an HTTP status and a stable error code.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for the caller
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuth
	KindAuthorization
	KindNotFound
	KindConflict
	KindRateLimited
	KindDependency
	KindIntegrity
	KindUnavailable
)

var kindInfo = map[Kind]struct {
	status int
	code   string
}{
	KindInternal:      {http.StatusInternalServerError, "internal_error"},
	KindValidation:    {http.StatusBadRequest, "validation_error"},
	KindAuth:          {http.StatusUnauthorized, "unauthorized"},
	KindAuthorization: {http.StatusForbidden, "forbidden"},
	KindNotFound:      {http.StatusNotFound, "not_found"},
	KindConflict:      {http.StatusConflict, "conflict"},
	KindRateLimited:   {http.StatusTooManyRequests, "rate_limited"},
	KindDependency:    {http.StatusInternalServerError, "dependency_unavailable"},
	KindIntegrity:     {http.StatusInternalServerError, "integrity_fault"},
	KindUnavailable:   {http.StatusServiceUnavailable, "service_unavailable"},
}

// Status returns the HTTP status for the kind
func (k Kind) Status() int {
	return kindInfo[k].status
}

// Code returns the stable machine-readable code for the kind
func (k Kind) Code() string {
	return kindInfo[k].code
}

// Error is a classified error. Message is safe to show to clients; Err is
// the underlying cause and is only logged.
type Error struct {
	Kind    Kind
	Message string
	Details map[string]any
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

// WithDetail attaches an extra field rendered next to the error envelope
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

func newError(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

func Validation(format string, args ...any) *Error {
	return newError(KindValidation, nil, format, args...)
}

func Auth(format string, args ...any) *Error {
	return newError(KindAuth, nil, format, args...)
}

func Authorization(format string, args ...any) *Error {
	return newError(KindAuthorization, nil, format, args...)
}

func NotFound(format string, args ...any) *Error {
	return newError(KindNotFound, nil, format, args...)
}

func Conflict(format string, args ...any) *Error {
	return newError(KindConflict, nil, format, args...)
}

func RateLimited(format string, args ...any) *Error {
	return newError(KindRateLimited, nil, format, args...)
}

// Dependency wraps a failure of the database or another backing service
func Dependency(err error, format string, args ...any) *Error {
	return newError(KindDependency, err, format, args...)
}

// Integrity reports stored data that violates a structural invariant
func Integrity(err error, format string, args ...any) *Error {
	return newError(KindIntegrity, err, format, args...)
}

// Unavailable reports an optional service that is switched off
func Unavailable(format string, args ...any) *Error {
	return newError(KindUnavailable, nil, format, args...)
}

func Internal(err error, format string, args ...any) *Error {
	return newError(KindInternal, err, format, args...)
}

// KindOf returns the kind of the first *Error in err's chain, or
// KindInternal when there is none
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind
func Is(err error, kind Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == kind
}
