// Package apperrors provides structured client errors with errors.Is classification.
package apperrors

import (
	"errors"
	"fmt"
)

// Sentinel errors for classification via errors.Is().
var (
	// ErrNetwork marks transport failures and unexpected HTTP status codes.
	ErrNetwork = errors.New("network error")
	// ErrValidation marks schema comparisons that could not be attempted at all.
	ErrValidation = errors.New("validation error")
	// ErrProcessing marks job data that failed its schema gate, and task failures.
	ErrProcessing = errors.New("processing error")
	// ErrInvalidState marks attempts to set a job status outside the lifecycle vocabulary.
	ErrInvalidState = errors.New("invalid job state")
)

// Error provides a structured error with context about the failed call.
type Error struct {
	Sentinel   error  // Wrapped sentinel for errors.Is() classification
	Message    string // Human-readable message
	Endpoint   string // For network errors: the offending URL
	StatusCode int    // For network errors: the offending HTTP status, 0 if transport failed
	Context    string // For validation errors: the schema path reported by the server
	Cause      error  // Underlying error
}

// Error returns the human-readable error message.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the sentinel error for errors.Is() classification.
func (e *Error) Unwrap() error {
	return e.Sentinel
}

// Network creates a network error for an unexpected status code on an endpoint.
func Network(endpoint string, statusCode int) error {
	return &Error{
		Sentinel:   ErrNetwork,
		Message:    fmt.Sprintf("unexpected status %d from %s", statusCode, endpoint),
		Endpoint:   endpoint,
		StatusCode: statusCode,
	}
}

// Transport creates a network error for a failed HTTP round trip.
func Transport(endpoint string, cause error) error {
	return &Error{
		Sentinel: ErrNetwork,
		Message:  fmt.Sprintf("request to %s failed: %v", endpoint, cause),
		Endpoint: endpoint,
		Cause:    cause,
	}
}

// Validation creates a validation error with the message and context path
// reported by the validator.
func Validation(message, context string) error {
	return &Error{
		Sentinel: ErrValidation,
		Message:  message,
		Context:  context,
	}
}

// Processing creates a processing error.
func Processing(message string) error {
	return &Error{
		Sentinel: ErrProcessing,
		Message:  message,
	}
}

// ProcessingCause creates a processing error wrapping an underlying cause.
func ProcessingCause(message string, cause error) error {
	return &Error{
		Sentinel: ErrProcessing,
		Message:  fmt.Sprintf("%s: %v", message, cause),
		Cause:    cause,
	}
}

// InvalidState creates an invalid-state error for a rejected status value.
func InvalidState(status string) error {
	return &Error{
		Sentinel: ErrInvalidState,
		Message:  fmt.Sprintf("status must be one of REGISTERED, WORKING or COMPLETED, got %q", status),
	}
}

// StatusCode returns the HTTP status carried by a network error, or 0.
func StatusCode(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.StatusCode
	}
	return 0
}

// Endpoint returns the endpoint carried by a network error, or "".
func Endpoint(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Endpoint
	}
	return ""
}
