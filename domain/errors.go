package domain

import (
	"errors"
	"fmt"
)

// ErrorCode is the stable machine-readable kind reported in API envelopes.
type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeInvalid      ErrorCode = "INVALID"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeInternal     ErrorCode = "INTERNAL"
)

// Error is a classified failure. Handlers translate Code into an HTTP
// status and show Message to the client; Err stays server-side.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Invalid is a shorthand for validation failures.
func Invalid(message string) *Error {
	return NewError(ErrCodeInvalid, message)
}

var (
	ErrUserNotFound       = NewError(ErrCodeNotFound, "user not found")
	ErrTaskNotFound       = NewError(ErrCodeNotFound, "task not found")
	ErrSessionNotFound    = NewError(ErrCodeNotFound, "session not found")
	ErrUnauthorized       = NewError(ErrCodeUnauthorized, "unauthorized")
	ErrInvalidCredentials = NewError(ErrCodeUnauthorized, "invalid credentials")
	ErrInvalidToken       = NewError(ErrCodeUnauthorized, "invalid or expired token")
	ErrTokenRevoked       = NewError(ErrCodeUnauthorized, "token revoked")
	ErrWrongPassword      = NewError(ErrCodeUnauthorized, "current password is incorrect")
	ErrForbiddenTask      = NewError(ErrCodeForbidden, "not authorized to access this task")
	ErrEmailTaken         = NewError(ErrCodeConflict, "email already registered")
	ErrTaskExists         = NewError(ErrCodeConflict, "task already exists")
	ErrIdentityTaken      = NewError(ErrCodeConflict, "federated identity already linked")
	ErrInvalidPayload     = NewError(ErrCodeInvalid, "invalid payload")
	ErrInvalidState       = NewError(ErrCodeInvalid, "invalid or expired oauth state")
)

// CodeOf returns the classification of the first domain error in err's
// chain, or an empty code for anything else.
func CodeOf(err error) ErrorCode {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code
	}
	return ""
}

// IsDomainError reports whether err carries the given code.
func IsDomainError(err error, code ErrorCode) bool {
	return code != "" && CodeOf(err) == code
}

// Is matches sentinels by code and message so a wrapped copy such as
// WrapError(ErrCodeNotFound, ErrTaskNotFound.Message, cause) still
// satisfies errors.Is(err, ErrTaskNotFound).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}
