package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a Murmur error code.
type ErrorCode string

const (
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST" // 400
	ErrUnauthorized   ErrorCode = "UNAUTHORIZED"    // 401
	ErrNotFound       ErrorCode = "NOT_FOUND"       // 404
	ErrInternal       ErrorCode = "INTERNAL"        // 500
	ErrProviderFailed ErrorCode = "PROVIDER_FAILED" // 502, never leaves the insight engine
)

// MurmurError represents a structured error with code, status, and details.
type MurmurError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any

	cause error
}

// Error implements the error interface.
func (e *MurmurError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *MurmurError) Unwrap() error {
	return e.cause
}

// NewInvalidRequest creates a 400 error for invalid caller input.
func NewInvalidRequest(msg string) *MurmurError {
	return &MurmurError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewUnauthorized creates a 401 error for a missing or invalid session.
func NewUnauthorized(msg string) *MurmurError {
	return &MurmurError{
		Code:    ErrUnauthorized,
		Status:  401,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for when a feedback record cannot be found.
func NewNotFound(id int64) *MurmurError {
	return &MurmurError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("feedback not found: %d", id),
		Details: map[string]any{"id": id},
	}
}

// NewTooLarge creates a 400 error for a submission over the size limit.
func NewTooLarge(maxChars, actualChars int) *MurmurError {
	return &MurmurError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: fmt.Sprintf("feedback exceeds maximum length (%d > %d characters)", actualChars, maxChars),
		Details: map[string]any{
			"max_chars":    maxChars,
			"actual_chars": actualChars,
		},
	}
}

// NewProviderFailed wraps a failure of a remote summarization provider.
func NewProviderFailed(provider string, cause error) *MurmurError {
	msg := "provider failed"
	if cause != nil {
		msg = cause.Error()
	}
	return &MurmurError{
		Code:    ErrProviderFailed,
		Status:  502,
		Message: fmt.Sprintf("%s: %s", provider, msg),
		Details: map[string]any{"provider": provider},
		cause:   cause,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *MurmurError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &MurmurError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
		cause:   err,
	}
}

// As returns the MurmurError in err's chain, if any.
func As(err error) (*MurmurError, bool) {
	var mErr *MurmurError
	if stderrors.As(err, &mErr) {
		return mErr, true
	}
	return nil, false
}

// Is checks if an error is a MurmurError with the given code.
func Is(err error, code ErrorCode) bool {
	if mErr, ok := As(err); ok {
		return mErr.Code == code
	}
	return false
}
