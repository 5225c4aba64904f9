package emotion

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
var (
	// ErrNoAPIKey is returned when the inference API key is missing.
	ErrNoAPIKey = errors.New("emotion: API key required")

	// ErrEmptyText is returned when Detect is called with empty text.
	ErrEmptyText = errors.New("emotion: empty text")

	// ErrModelUnavailable is returned when the remote model cannot be reached.
	ErrModelUnavailable = errors.New("emotion: model unavailable")
)

// APIError represents an error response from the inference API.
type APIError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("emotion: API error %d: %s", e.StatusCode, e.Message)
}

// IsLoading reports whether the model is still warming up (HTTP 503
// from hosted inference endpoints).
func (e *APIError) IsLoading() bool {
	return e.StatusCode == 503
}

// IsRetryable reports whether the request should be retried.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}
