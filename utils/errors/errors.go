package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// FieldError is a single field-level validation failure
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// APIError represents a custom error type for API responses
type APIError struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Status  int          `json:"status"`
	Details string       `json:"details,omitempty"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// Error returns the error message
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches on Code, so a sentinel matches any copy carrying a custom message.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithMessage returns a copy of e with a request-specific message.
func (e *APIError) WithMessage(format string, args ...any) *APIError {
	cp := *e
	cp.Message = fmt.Sprintf(format, args...)
	cp.Errors = nil
	return &cp
}

func NewAPIError(code, message string, status int, details ...string) *APIError {
	err := &APIError{
		Code:    code,
		Message: message,
		Status:  status,
	}
	if len(details) > 0 {
		err.Details = details[0]
	}
	return err
}

// NewValidationError builds a 400 carrying the per-field messages.
func NewValidationError(fields []FieldError) *APIError {
	err := ErrValidation.WithMessage("Validation failed")
	err.Errors = fields
	if len(fields) == 1 {
		err.Message = fields[0].Message
	}
	return err
}

var (
	ErrInvalidInput    = NewAPIError("INVALID_INPUT", "Invalid request data", http.StatusBadRequest)
	ErrValidation      = NewAPIError("VALIDATION_ERROR", "Validation failed", http.StatusBadRequest)
	ErrInvalidObjectID = NewAPIError("INVALID_OBJECT_ID", "Invalid ObjectId format", http.StatusBadRequest)
	ErrBadRequest      = NewAPIError("BAD_REQUEST", "Bad request", http.StatusBadRequest)
	ErrUnauthorized    = NewAPIError("UNAUTHORIZED", "Unauthorized", http.StatusUnauthorized)
	ErrForbidden       = NewAPIError("FORBIDDEN", "Forbidden", http.StatusForbidden)
	ErrNotFound        = NewAPIError("NOT_FOUND", "Resource not found", http.StatusNotFound)
	ErrConflict        = NewAPIError("CONFLICT", "Resource conflict", http.StatusConflict)
	ErrTooManyRequests = NewAPIError("RATE_LIMITED", "Too many requests", http.StatusTooManyRequests)
	ErrInternal        = NewAPIError("INTERNAL_SERVER_ERROR", "Internal server error", http.StatusInternalServerError)
	ErrBadGateway      = NewAPIError("UPSTREAM_ERROR", "Upstream service failed", http.StatusBadGateway)
	ErrUnavailable     = NewAPIError("UNAVAILABLE", "Service unavailable", http.StatusServiceUnavailable)
)

func Wrap(err error, code, message string, status int) *APIError {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr
	}
	return NewAPIError(code, message, status, err.Error())
}

// As extracts the APIError carried by err, if any.
func As(err error) (*APIError, bool) {
	var apiErr *APIError
	ok := stderrors.As(err, &apiErr)
	return apiErr, ok
}
