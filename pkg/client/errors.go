package client

import (
	"errors"
	"fmt"
)

// Common errors returned by the client.
var (
	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrContextCancelled is returned when the context is cancelled during retry.
	ErrContextCancelled = errors.New("context cancelled")
)

// FetchError represents a failed upstream fetch with its classification.
type FetchError struct {
	URL        string
	StatusCode int
	ErrorClass ErrorClass
	Err        error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch %s: %s error (status %d)", e.URL, e.ErrorClass, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %s error: %v", e.URL, e.ErrorClass, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsNetworkError reports whether err is a network-level fetch failure.
func IsNetworkError(err error) bool {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.ErrorClass == ErrorClassNetwork
	}
	return false
}

// shouldRetry determines if an error should be retried based on its classification.
func shouldRetry(errorClass ErrorClass) bool {
	switch errorClass {
	case ErrorClassClient:
		// 4xx errors will fail the same way again
		return false
	case ErrorClassServer:
		return true
	case ErrorClassNetwork:
		return true
	default:
		return false
	}
}
