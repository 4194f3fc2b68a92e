// Package errors provides standardized domain errors with codes for the StackShelf API.
//
// Usage:
//
//	// In services - return typed errors
//	if page > archive.Pages {
//	    return errors.ImageNotFoundf("page %d out of range", page)
//	}
//
//	// In handlers - check with errors.Is
//	if errors.Is(err, errors.ErrNotFound) {
//	    http.Error(w, err.Error(), http.StatusNotFound)
//	    return
//	}
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the application.
const (
	// CodeNotFound indicates a missing archive or page row.
	CodeNotFound Code = "NOT_FOUND"
	// CodeImageNotFound indicates a page index out of range or an entry
	// missing from the zip container.
	CodeImageNotFound Code = "IMAGE_NOT_FOUND"
	// CodeDecode indicates an image decode failure. Never retried.
	CodeDecode Code = "DECODE"
	// CodeEncode indicates an image encode failure. Never retried.
	CodeEncode Code = "ENCODE"
	// CodeStore indicates a relational store operation failure.
	CodeStore Code = "STORE"
	// CodeChannel indicates a waiter gave up (or its reply channel was
	// dropped) before a result was delivered. Scoped to that waiter only.
	CodeChannel Code = "CHANNEL"
	// CodeValidation indicates a malformed request parameter. Search
	// recovers from these locally with a default substitution.
	CodeValidation Code = "VALIDATION"
	// CodeInternal is the catch-all for unexpected failures.
	CodeInternal Code = "INTERNAL"
)

// HTTPStatus returns the appropriate HTTP status code for an error code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound, CodeImageNotFound:
		return http.StatusNotFound
	case CodeValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error with a code, message, and optional cause.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target matches this error.
// Matches if target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		cause:   err,
	}
}

// Sentinel errors for use with errors.Is().
var (
	ErrNotFound      = &Error{Code: CodeNotFound, Message: "not found"}
	ErrImageNotFound = &Error{Code: CodeImageNotFound, Message: "image not found"}
	ErrDecode        = &Error{Code: CodeDecode, Message: "decode error"}
	ErrEncode        = &Error{Code: CodeEncode, Message: "encode error"}
	ErrStore         = &Error{Code: CodeStore, Message: "store error"}
	ErrChannel       = &Error{Code: CodeChannel, Message: "channel error"}
	ErrValidation    = &Error{Code: CodeValidation, Message: "validation error"}
	ErrInternal      = &Error{Code: CodeInternal, Message: "internal error"}
)

// Constructor functions for creating errors with custom messages.

// NotFound creates a not found error.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// NotFoundf creates a not found error with formatted message.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// ImageNotFound creates an image not found error.
func ImageNotFound(msg string) *Error {
	return &Error{Code: CodeImageNotFound, Message: msg}
}

// ImageNotFoundf creates an image not found error with formatted message.
func ImageNotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeImageNotFound, Message: fmt.Sprintf(format, args...)}
}

// Decode wraps an image decode failure.
func Decode(err error) *Error {
	return &Error{Code: CodeDecode, Message: "decode error", cause: err}
}

// Encode wraps an image encode failure.
func Encode(err error) *Error {
	return &Error{Code: CodeEncode, Message: "encode error", cause: err}
}

// Store wraps a relational store failure.
func Store(err error) *Error {
	return &Error{Code: CodeStore, Message: "store error", cause: err}
}

// Channel creates a channel error for an abandoned waiter.
func Channel(msg string) *Error {
	return &Error{Code: CodeChannel, Message: msg}
}

// Validation creates a validation error.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// Validationf creates a validation error with formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// Internal creates an internal error.
func Internal(msg string) *Error {
	return &Error{Code: CodeInternal, Message: msg}
}

// Internalf creates an internal error with formatted message.
func Internalf(format string, args ...any) *Error {
	return &Error{Code: CodeInternal, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// Wrapf wraps an error with a code and formatted message.
func Wrapf(err error, code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: err}
}
