package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a stable error code handlers and clients can switch on.
type Code string

const (
	CodeValidation        Code = "validation"
	CodeDuplicateUser     Code = "duplicate_user"
	CodeAuthentication    Code = "authentication"
	CodeUnauthorized      Code = "unauthorized"
	CodeForbidden         Code = "forbidden"
	CodeNotFound          Code = "not_found_or_unauthorized"
	CodeInvalidTransition Code = "invalid_transition"
	CodeConflict          Code = "conflict"
	CodeDependency        Code = "dependency"
	CodeSignature         Code = "signature"
	CodeInternal          Code = "internal"
)

// Error carries a code, a client-safe message and the underlying cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates an error with code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to err.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// Validation reports malformed or missing input.
func Validation(message string) *Error {
	return New(CodeValidation, message)
}

// NotFoundOrUnauthorized is returned when a row is missing or owned by someone else.
// The two cases are deliberately indistinguishable.
func NotFoundOrUnauthorized(resource string) *Error {
	return New(CodeNotFound, resource+" not found or unauthorized")
}

// InvalidCredentials is the single login failure message.
func InvalidCredentials() *Error {
	return New(CodeAuthentication, "Invalid credentials")
}

// Dependency wraps a failure of email, payment processor or storage.
func Dependency(err error, message string) *Error {
	return Wrap(err, CodeDependency, message)
}

// Internal wraps an unexpected failure.
func Internal(err error, message string) *Error {
	return Wrap(err, CodeInternal, message)
}

// CodeOf returns the code carried by err, or CodeInternal.
func CodeOf(err error) Code {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeInternal
}

// IsCode checks whether err carries code.
func IsCode(err error, code Code) bool {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code == code
	}
	return false
}

// HTTPStatus maps a code onto its response status.
func HTTPStatus(code Code) int {
	switch code {
	case CodeValidation, CodeDuplicateUser, CodeAuthentication, CodeSignature:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidTransition, CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Exposed reports whether the message of code can be shown outside development.
func Exposed(code Code) bool {
	return code != CodeDependency && code != CodeInternal
}
