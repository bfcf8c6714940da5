package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError carries an HTTP status alongside a stable machine-readable code,
// so every handler maps domain failures the same way.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// New constructs an APIError.
func New(status int, code, message string) *APIError {
	return &APIError{Status: status, Code: code, Message: message}
}

// NotFound means the referenced entity does not exist.
func NotFound(message string) *APIError {
	return New(http.StatusNotFound, "NOT_FOUND", message)
}

// Forbidden means the caller is authenticated but not authorized for the
// target project. Kept distinct from NotFound.
func Forbidden(message string) *APIError {
	return New(http.StatusForbidden, "FORBIDDEN", message)
}

// Validation means the input is malformed or references entities across
// project boundaries.
func Validation(message string) *APIError {
	return New(http.StatusBadRequest, "VALIDATION", message)
}

// Conflict means a uniqueness rule was violated, such as a duplicate
// project key.
func Conflict(message string) *APIError {
	return New(http.StatusConflict, "CONFLICT", message)
}

// Internal wraps anything unexpected. The detail stays in the server log;
// callers only see an opaque message.
func Internal() *APIError {
	return New(http.StatusInternalServerError, "INTERNAL", "internal server error")
}

// From extracts an APIError, falling back to Internal for unknown errors.
func From(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return Internal()
}
