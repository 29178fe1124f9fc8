package provider

import (
	"errors"
	"fmt"
)

// Common errors returned by provider clients.
var (
	// ErrNotFound indicates the provider has no record for the identifier.
	ErrNotFound = errors.New("not found")

	// ErrRateLimited indicates the provider rejected the request for rate.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrNetworkError indicates a network connectivity issue.
	ErrNetworkError = errors.New("network error")

	// ErrInvalidResponse indicates an unexpected response body.
	ErrInvalidResponse = errors.New("invalid response")
)

// APIError is a non-success HTTP status from a provider.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
	URL        string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: HTTP %d: %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: HTTP %d", e.Provider, e.StatusCode)
}

// Is makes errors.Is(err, ErrNotFound) true for 404 and 410 responses.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == 404 || e.StatusCode == 410
	case ErrRateLimited:
		return e.StatusCode == 429
	}
	return false
}

// IsNotFound returns true if the error indicates the record does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsRateLimited returns true if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}
