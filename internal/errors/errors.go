package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation         ErrorType = "validation"
	ErrorTypeNotFound           ErrorType = "not_found"
	ErrorTypeInvalidState       ErrorType = "invalid_state"
	ErrorTypeDeviceAccessDenied ErrorType = "device_access_denied"
	ErrorTypeDeviceUnavailable  ErrorType = "device_unavailable"
	ErrorTypeDecodeFailure      ErrorType = "decode_failure"
	ErrorTypeExternalService    ErrorType = "external_service"
	ErrorTypeTimeout            ErrorType = "timeout"
	ErrorTypeRateLimited        ErrorType = "rate_limited"
	ErrorTypeInternal           ErrorType = "internal"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	StatusCode int       `json:"status_code"`
	Cause      error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

func newAppError(t ErrorType, status int, message string, cause error) *AppError {
	return &AppError{
		Type:       t,
		Message:    message,
		StatusCode: status,
		Cause:      cause,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string, cause error) *AppError {
	return newAppError(ErrorTypeValidation, http.StatusBadRequest, message, cause)
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string, cause error) *AppError {
	return newAppError(ErrorTypeNotFound, http.StatusNotFound, message, cause)
}

// NewInvalidStateError is returned when an operation is not valid in the
// current state of a capture or upload session.
func NewInvalidStateError(message string, cause error) *AppError {
	return newAppError(ErrorTypeInvalidState, http.StatusConflict, message, cause)
}

// NewDeviceAccessDeniedError reports a refused camera permission.
func NewDeviceAccessDeniedError(message string, cause error) *AppError {
	return newAppError(ErrorTypeDeviceAccessDenied, http.StatusForbidden, message, cause)
}

// NewDeviceUnavailableError reports missing or failing capture hardware.
func NewDeviceUnavailableError(message string, cause error) *AppError {
	return newAppError(ErrorTypeDeviceUnavailable, http.StatusServiceUnavailable, message, cause)
}

// NewDecodeFailureError reports input that could not be decoded as an image.
func NewDecodeFailureError(message string, cause error) *AppError {
	return newAppError(ErrorTypeDecodeFailure, http.StatusUnprocessableEntity, message, cause)
}

// NewExternalServiceError reports a failing third-party collaborator
func NewExternalServiceError(message string, cause error) *AppError {
	return newAppError(ErrorTypeExternalService, http.StatusBadGateway, message, cause)
}

// NewTimeoutError creates a new timeout error
func NewTimeoutError(message string, cause error) *AppError {
	return newAppError(ErrorTypeTimeout, http.StatusGatewayTimeout, message, cause)
}

// NewRateLimitedError creates a new rate limit error
func NewRateLimitedError(message string, cause error) *AppError {
	return newAppError(ErrorTypeRateLimited, http.StatusTooManyRequests, message, cause)
}

// NewInternalError creates a new internal error
func NewInternalError(message string, cause error) *AppError {
	return newAppError(ErrorTypeInternal, http.StatusInternalServerError, message, cause)
}

// IsType checks if the error (or any error it wraps) is of a specific type
func IsType(err error, errorType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}

// GetStatusCode extracts the HTTP status code from an error
func GetStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}
