// Package apperror defines the failure kinds returned by the account and
// session operations. Every operation either succeeds or fails with exactly
// one *Error; the HTTP layer renders it into the failure envelope.
package apperror

import (
	"errors"
	"net/http"
)

// Kind classifies a failure. The zero value is never returned.
type Kind uint8

const (
	KindValidation Kind = iota + 1 // missing or empty required fields
	KindConflict                   // duplicate username or email
	KindNotFound                   // no matching user
	KindAuth                       // bad password, missing/invalid/reused token
	KindInternal                   // persistence or token-generation failure
)

// Sentinels for errors.Is matching on kind only.
var (
	ErrValidation = &Error{Kind: KindValidation}
	ErrConflict   = &Error{Kind: KindConflict}
	ErrNotFound   = &Error{Kind: KindNotFound}
	ErrAuth       = &Error{Kind: KindAuth}
	ErrInternal   = &Error{Kind: KindInternal}
)

// Error carries a kind, a client-safe message and an optional cause that is
// only meant for logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports kind equality so that errors.Is(err, ErrAuth) matches any auth failure.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// StatusCode maps the kind to its HTTP status.
func (e *Error) StatusCode() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindAuth:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindAuth:
		return "auth"
	case KindInternal:
		return "internal"
	}
	return "unknown"
}

// Validation reports bad client input (400).
func Validation(msg string) *Error { return &Error{Kind: KindValidation, Message: msg} }

// ValidationWrap is Validation with a cause kept for logs.
func ValidationWrap(msg string, err error) *Error {
	return &Error{Kind: KindValidation, Message: msg, Err: err}
}

// Conflict reports a uniqueness clash (409).
func Conflict(msg string) *Error { return &Error{Kind: KindConflict, Message: msg} }

// NotFound reports a missing resource (404).
func NotFound(msg string) *Error { return &Error{Kind: KindNotFound, Message: msg} }

// Auth reports missing or rejected credentials (401).
func Auth(msg string) *Error { return &Error{Kind: KindAuth, Message: msg} }

// AuthWrap keeps the underlying reason (expired vs malformed) for diagnostics.
func AuthWrap(msg string, err error) *Error { return &Error{Kind: KindAuth, Message: msg, Err: err} }

// Internal hides err behind a client-safe message (500).
func Internal(msg string, err error) *Error { return &Error{Kind: KindInternal, Message: msg, Err: err} }

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
