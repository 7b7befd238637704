package domainerrors

import "errors"

// Code represents a stable error category independent of the transport layer.
// These codes describe what went wrong in scoring/auth terms, not HTTP terms.
type Code string

const (
	CodeBadRequest   Code = "bad_request"
	CodeUnauthorized Code = "unauthorized"
	CodeNotFound     Code = "not_found"
	CodeConflict     Code = "conflict"
	CodeInternal     Code = "internal_error"

	// Scoring API error taxonomy. The first two indicate the client lacked
	// required instrumentation (missing/malformed anti-fraud token or payload);
	// policy treats them as a deny signal outside monitoring mode. ServiceError
	// and Timeout cover transport and upstream failures and always fail open.
	CodeInvalidParameters   Code = "invalid_parameters"
	CodeInvalidRequestToken Code = "invalid_request_token"
	CodeServiceError        Code = "service_error"
	CodeTimeout             Code = "timeout"
)

// Error wraps domain or infrastructure failures with a stable code.
// It is transport-agnostic and can be used across gateway, policy, and
// binding layers.
type Error struct {
	Code    Code
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

// Unwrap implements error unwrapping for error chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is enables errors.Is() to match errors by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new domain error with the given code and message.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap creates a new domain error wrapping an existing error.
// If the wrapped error is already a domain error, the original code is preserved.
func Wrap(err error, code Code, msg string) error {
	var existing *Error
	if errors.As(err, &existing) {
		return &Error{Code: existing.Code, Message: msg, Err: err}
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// HasCode checks if an error is a domain error with the given code.
func HasCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// CodeOf returns the code of a domain error, or CodeInternal for any other error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// IsInstrumentationError reports whether the error indicates the client lacked
// the instrumentation required for enforcement-grade trust (no anti-fraud
// token, or a payload the scoring API rejected as malformed).
func IsInstrumentationError(err error) bool {
	return HasCode(err, CodeInvalidParameters) || HasCode(err, CodeInvalidRequestToken)
}
