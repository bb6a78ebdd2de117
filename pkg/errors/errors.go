package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents standardized error codes
type ErrorCode string

const (
	// Authentication errors
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"

	// Validation errors
	ErrCodeValidation   ErrorCode = "VALIDATION_ERROR"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"

	// Pipeline outcomes
	// REPLAY_CONFLICT is not a failure: the conditional write was rejected
	// because the transaction id was already counted, and the prior decision
	// is returned to the caller.
	ErrCodeReplayConflict ErrorCode = "REPLAY_CONFLICT"

	// Dependency errors (graph store, audit, shadow dispatch, model load).
	// These always degrade; they never fail the primary decision.
	ErrCodeDependencyFailure ErrorCode = "DEPENDENCY_FAILURE"

	// System errors
	ErrCodeInternal  ErrorCode = "INTERNAL_ERROR"
	ErrCodeRateLimit ErrorCode = "RATE_LIMIT_EXCEEDED"
	ErrCodeTimeout   ErrorCode = "TIMEOUT"
)

// Error represents a standardized coded error
type Error struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	StatusCode int                    `json:"-"`
	cause      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// New creates a new coded error
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		StatusCode: getHTTPStatusCode(code),
	}
}

// Wrap wraps an existing error with a code and message
func Wrap(err error, code ErrorCode, message string) *Error {
	e := New(code, message)
	e.cause = err
	return e
}

// AddDetail adds a detail to the error
func (e *Error) AddDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Code extracts the error code from err, or INTERNAL_ERROR if uncoded.
func Code(err error) ErrorCode {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code
	}
	return ErrCodeInternal
}

// getHTTPStatusCode maps error codes to HTTP status codes
func getHTTPStatusCode(code ErrorCode) int {
	switch code {
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeValidation, ErrCodeInvalidInput:
		return http.StatusBadRequest
	case ErrCodeReplayConflict:
		return http.StatusOK
	case ErrCodeRateLimit:
		return http.StatusTooManyRequests
	case ErrCodeTimeout:
		return http.StatusRequestTimeout
	case ErrCodeDependencyFailure:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Common error constructors

func Unauthorized(message string) *Error {
	return New(ErrCodeUnauthorized, message)
}

func ValidationError(message string) *Error {
	return New(ErrCodeValidation, message)
}

func DependencyFailure(err error, component string) *Error {
	return Wrap(err, ErrCodeDependencyFailure, fmt.Sprintf("%s unavailable", component)).
		AddDetail("component", component)
}

func Internal(message string) *Error {
	return New(ErrCodeInternal, message)
}
