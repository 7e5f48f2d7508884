// Package planerr defines the structured errors shared by the store, the
// services and the user-facing surfaces. Errors carry a machine-readable code
// and match each other by code through errors.Is.
package planerr

import (
	"errors"
	"fmt"
)

// Error code constants, uppercase and underscore-separated.
const (
	InvalidRule      = "INVALID_RULE"
	StoreUnavailable = "STORE_UNAVAILABLE"
	NotFound         = "NOT_FOUND"
	InvalidInput     = "INVALID_INPUT"
	InternalError    = "INTERNAL_ERROR"
)

// Sentinels for errors.Is.
var (
	ErrInvalidRule      = &Error{Code: InvalidRule, Message: "invalid repeat rule"}
	ErrStoreUnavailable = &Error{Code: StoreUnavailable, Message: "task store unavailable"}
	ErrNotFound         = &Error{Code: NotFound, Message: "not found"}
	ErrInvalidInput     = &Error{Code: InvalidInput, Message: "invalid input"}
)

// Error is a coded error, optionally wrapping a cause.
type Error struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	if e.Message == "" {
		return e.Err.Error()
	}
	return e.Message + ": " + e.Err.Error()
}

// Unwrap returns the cause.
func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// New creates an Error with the given code and message.
func New(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates an Error with a formatted message.
func Newf(code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to err. A nil err stays nil.
func Wrap(code string, err error, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// CodeOf returns the code of the first *Error in err's chain, or
// InternalError when there is none.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return InternalError
}

// ExitCode returns 2 for internal errors, 1 for all others.
func ExitCode(err error) int {
	if CodeOf(err) == InternalError {
		return 2 //nolint:mnd // exit code 2 for internal errors
	}
	return 1
}
