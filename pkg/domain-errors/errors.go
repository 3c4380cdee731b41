// Package domainerrors defines the coded error taxonomy shared by every
// service in the repository. Services construct these directly; stores return
// sentinel errors (pkg/platform/sentinel) which services translate into codes
// the transport layer can dispatch on.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a failure for programmatic dispatch.
type Code string

const (
	// CodeUnauthorized means the caller's role does not permit the operation.
	CodeUnauthorized Code = "unauthorized"
	// CodeConflict means a create targeted a key that already exists.
	CodeConflict Code = "conflict"
	// CodeNotFound means a referenced key was absent when required to exist.
	CodeNotFound Code = "not_found"
	// CodeValidation means the request payload violated an input rule.
	CodeValidation Code = "validation"
	// CodeBadRequest means the request was malformed at the transport level.
	CodeBadRequest Code = "bad_request"
	// CodeInternal covers collaborator failures propagated to the caller.
	CodeInternal Code = "internal"
)

// Error carries a code plus a human-readable message naming the offending
// key/role and the rule violated.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a coded error with a display message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf builds a coded error with a formatted display message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// CodeOf extracts the code from err, or CodeInternal if err carries none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a code onto an HTTP response status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeUnauthorized:
		return http.StatusForbidden
	case CodeConflict:
		return http.StatusConflict
	case CodeNotFound:
		return http.StatusNotFound
	case CodeValidation, CodeBadRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
