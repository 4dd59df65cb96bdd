// Package apperr provides the error taxonomy shared by the registration core
// and the HTTP layer.
package apperr

import (
	"errors"
	"net/http"
)

// Code is a machine-readable error code returned to clients.
type Code string

const (
	CodeInternal          Code = "INTERNAL"
	CodeNotFound          Code = "NOT_FOUND"
	CodeValidation        Code = "VALIDATION_FAILED"
	CodeCapacityExceeded  Code = "CAPACITY_EXCEEDED"
	CodeAlreadyRegistered Code = "ALREADY_REGISTERED"
	CodeNotRegistered     Code = "NOT_REGISTERED"
	CodeForbidden         Code = "FORBIDDEN"
	CodeConflict          Code = "CONFLICT"
	CodeUnauthenticated   Code = "UNAUTHENTICATED"
)

// HTTPStatus maps a code to its response status.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeValidation, CodeNotRegistered:
		return http.StatusBadRequest
	case CodeCapacityExceeded, CodeAlreadyRegistered, CodeConflict:
		return http.StatusConflict
	case CodeForbidden:
		return http.StatusForbidden
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// defaultMessages are the stable client-facing messages per code.
var defaultMessages = map[Code]string{
	CodeInternal:          "something went wrong, please try again",
	CodeNotFound:          "not found",
	CodeValidation:        "invalid request",
	CodeCapacityExceeded:  "this event is full and doesn't allow waitlisting",
	CodeAlreadyRegistered: "you're already registered for this event",
	CodeNotRegistered:     "you are not registered for this event",
	CodeForbidden:         "not authorized",
	CodeConflict:          "the event changed while your request was processed, please retry",
	CodeUnauthenticated:   "not authorized, token missing or invalid",
}

// Error is the domain error type.
type Error struct {
	Code     Code
	Message  string            // client-safe message
	Metadata map[string]string // extra client-safe context, e.g. the question
	Cause    error             // never exposed to clients
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error with the same code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// Sentinels for errors.Is checks.
var (
	ErrNotFound          = &Error{Code: CodeNotFound}
	ErrValidation        = &Error{Code: CodeValidation}
	ErrCapacityExceeded  = &Error{Code: CodeCapacityExceeded}
	ErrAlreadyRegistered = &Error{Code: CodeAlreadyRegistered}
	ErrNotRegistered     = &Error{Code: CodeNotRegistered}
	ErrForbidden         = &Error{Code: CodeForbidden}
	ErrConflict          = &Error{Code: CodeConflict}
	ErrUnauthenticated   = &Error{Code: CodeUnauthenticated}
)

// New returns an error with the code's default message when msg is empty.
func New(code Code, msg string) *Error {
	if msg == "" {
		msg = defaultMessages[code]
	}
	return &Error{Code: code, Message: msg}
}

// Wrap attaches an internal cause to a new error.
func Wrap(code Code, msg string, cause error) *Error {
	e := New(code, msg)
	e.Cause = cause
	return e
}

// WithMeta returns e with key set in its metadata.
func (e *Error) WithMeta(key, value string) *Error {
	if e.Metadata == nil {
		e.Metadata = map[string]string{}
	}
	e.Metadata[key] = value
	return e
}

// From returns the *Error in err's chain, or an internal error wrapping err.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(CodeInternal, "", err)
}

// CodeOf returns the code of err, CodeInternal for foreign errors.
func CodeOf(err error) Code {
	return From(err).Code
}

// PublicMessage is the message safe to show to clients.
func PublicMessage(err error) string {
	e := From(err)
	if e.Code == CodeInternal || e.Message == "" {
		return defaultMessages[e.Code]
	}
	return e.Message
}
