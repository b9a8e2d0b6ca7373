package utils

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrUnauthorized is matched by any 401 response that survived the refresh protocol
	ErrUnauthorized = errors.New("unauthorized")

	// ErrSessionExpired means the credential pair could not be renewed and was discarded
	ErrSessionExpired = errors.New("session expired")
)

// APIError represents a non-success response from the backend
type APIError struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	Code       string `json:"code"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

// Is lets errors.Is(err, ErrUnauthorized) match a 401 APIError
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

// NewAPIError creates a new API error
func NewAPIError(statusCode int, message, code string) *APIError {
	if message == "" {
		message = strings.ToLower(http.StatusText(statusCode))
	}
	return &APIError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// IsAuthError checks if the error is an authentication error
func IsAuthError(err error) bool {
	return hasStatus(err, http.StatusUnauthorized)
}

// IsNotFoundError checks if the error is a not found error
func IsNotFoundError(err error) bool {
	return hasStatus(err, http.StatusNotFound)
}

// IsForbiddenError checks if the error is a forbidden error
func IsForbiddenError(err error) bool {
	return hasStatus(err, http.StatusForbidden)
}

func hasStatus(err error, status int) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == status
	}
	return false
}

// NetworkError wraps a transport-level failure (no HTTP response was received)
type NetworkError struct {
	Op  string
	Err error
}

// Error implements the error interface
func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// MultiError represents multiple errors
type MultiError struct {
	Errors []error `json:"errors"`
}

// Error implements the error interface
func (e *MultiError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors occurred", len(e.Errors))
}

// Unwrap exposes the collected errors to errors.Is and errors.As
func (e *MultiError) Unwrap() []error {
	return e.Errors
}

// Add adds an error to the multi-error
func (e *MultiError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if there are any errors
func (e *MultiError) HasErrors() bool {
	return len(e.Errors) > 0
}

// ErrorOrNil returns the multi-error itself when it holds errors, nil otherwise
func (e *MultiError) ErrorOrNil() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

// NewMultiError creates a new multi-error
func NewMultiError() *MultiError {
	return &MultiError{
		Errors: make([]error, 0),
	}
}

// Message renders err as the human-readable text shown to the user
func Message(err error) string {
	if err == nil {
		return ""
	}

	if errors.Is(err, ErrSessionExpired) {
		return "session expired, please login again"
	}

	var multi *MultiError
	if errors.As(err, &multi) && len(multi.Errors) > 1 {
		parts := make([]string, 0, len(multi.Errors))
		for _, e := range multi.Errors {
			parts = append(parts, Message(e))
		}
		return strings.Join(parts, "; ")
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		if validationErr.Field != "" {
			return validationErr.Field + ": " + validationErr.Message
		}
		return validationErr.Message
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}

	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return "network error: " + netErr.Err.Error()
	}

	return err.Error()
}
