package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents application error codes
type ErrorCode string

const (
	ErrCodeInvalidEnvelope    ErrorCode = "INVALID_ENVELOPE"
	ErrCodeUnknownSignalType  ErrorCode = "UNKNOWN_SIGNAL_TYPE"
	ErrCodeMissingParameter   ErrorCode = "MISSING_PARAMETER"
	ErrCodeNotFound           ErrorCode = "NOT_FOUND"
	ErrCodeRateLimit          ErrorCode = "RATE_LIMIT_EXCEEDED"
	ErrCodeStorage            ErrorCode = "STORAGE_ERROR"
	ErrCodeInternal           ErrorCode = "INTERNAL_ERROR"
)

// AppError represents an application error with code and HTTP mapping
type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppError creates a new application error
func NewAppError(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// WrapError wraps an existing error with application error
func WrapError(err error, code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Cause:      err,
	}
}

// Common error constructors
func NewInvalidEnvelopeError(message string) *AppError {
	return NewAppError(ErrCodeInvalidEnvelope, message, http.StatusBadRequest)
}

func NewUnknownSignalTypeError(signalType string) *AppError {
	return NewAppError(ErrCodeUnknownSignalType,
		fmt.Sprintf("unknown signal type %q", signalType), http.StatusBadRequest)
}

func NewMissingParameterError(name string) *AppError {
	return NewAppError(ErrCodeMissingParameter,
		fmt.Sprintf("%s is required", name), http.StatusBadRequest)
}

func NewStorageError(err error) *AppError {
	return WrapError(err, ErrCodeStorage, "storage operation failed", http.StatusInternalServerError)
}

func NewRateLimitError() *AppError {
	return NewAppError(ErrCodeRateLimit, "rate limit exceeded", http.StatusTooManyRequests)
}

func NewInternalError(message string) *AppError {
	return NewAppError(ErrCodeInternal, message, http.StatusInternalServerError)
}

// GetAppError extracts AppError from error chain
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// HTTPStatus returns the status an error should map to, defaulting to 500.
func HTTPStatus(err error) int {
	if appErr := GetAppError(err); appErr != nil {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}
