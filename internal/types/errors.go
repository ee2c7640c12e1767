package types

import (
	"fmt"
	"net/http"
	"strings"
)

// ErrorCode is a typed string for categorizing application errors.
type ErrorCode string

// Error code constants. Handlers use these instead of hardcoded strings.
const (
	// Validation (400)
	ErrCodeValidationInvalidJSON   ErrorCode = "validation_invalid_json"
	ErrCodeValidationInvalidPeriod ErrorCode = "validation_invalid_period"
	ErrCodeValidationQuietHours    ErrorCode = "validation_invalid_quiet_hours"
	ErrCodeValidationConfig        ErrorCode = "validation_invalid_config"

	// Not Found (404)
	ErrCodeNotFoundNotification ErrorCode = "not_found_notification"

	// Persistence (500) -- logged and swallowed inside the store, surfaced
	// only by the storage implementations themselves.
	ErrCodePersistenceRead  ErrorCode = "persistence_read_failed"
	ErrCodePersistenceWrite ErrorCode = "persistence_write_failed"

	// Upstream (502/429)
	ErrCodeUpstreamPrices      ErrorCode = "upstream_prices_unavailable"
	ErrCodeUpstreamRateLimited ErrorCode = "upstream_rate_limited"

	// Internal (500)
	ErrCodeInternalUnexpected ErrorCode = "internal_unexpected_error"
)

// HTTPStatus maps an ErrorCode to its corresponding HTTP status code.
// Returns 500 for unrecognized codes as a safe default.
func (c ErrorCode) HTTPStatus() int {
	s := string(c)
	switch {
	case strings.HasPrefix(s, "validation_"):
		return http.StatusBadRequest
	case strings.HasPrefix(s, "not_found_"):
		return http.StatusNotFound
	case c == ErrCodeUpstreamRateLimited:
		return http.StatusTooManyRequests
	case strings.HasPrefix(s, "upstream_"):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// AppError is the application error type carried across package
// boundaries. It wraps an optional cause and optional structured details.
type AppError struct {
	Code    ErrorCode
	Message string
	Details map[string]any
	Err     error
}

// NewAppError creates an AppError with the given code, message and wrapped
// cause (which may be nil).
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// WithDetails attaches structured details and returns the error for
// chaining.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the cause for errors.Is / errors.As chains.
func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the HTTP status implied by the error's code.
func (e *AppError) HTTPStatus() int {
	return e.Code.HTTPStatus()
}
