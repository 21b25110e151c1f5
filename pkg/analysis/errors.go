package analysis

import (
	"errors"
	"fmt"
)

// Sentinel errors for the analysis package.
var (
	// ErrMissingAPIKey indicates the backend API key was not provided.
	ErrMissingAPIKey = errors.New("analysis: API key is required")

	// ErrEmptyResponse indicates the backend returned no candidates.
	ErrEmptyResponse = errors.New("analysis: backend returned no content")
)

// APIError represents a non-success response from the vision backend.
type APIError struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// Message is the error body from the API.
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("analysis: API error %d: %s", e.StatusCode, e.Message)
}

// IsRetryable returns true if the request should be retried.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode == 429 || (e.StatusCode >= 500 && e.StatusCode < 600)
}

// ParseError indicates the backend responded but the payload did not
// match the expected schema. Malformed results are never coerced.
type ParseError struct {
	// Reason describes what was wrong with the payload.
	Reason string

	// Cause is the underlying decode error, if any.
	Cause error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("analysis: malformed response: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("analysis: malformed response: %s", e.Reason)
}

// Unwrap returns the underlying cause.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// IsBackendError returns true for transport, API, or schema failures
// originating from the vision backend.
func IsBackendError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return true
	}
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return true
	}
	return errors.Is(err, ErrEmptyResponse)
}
