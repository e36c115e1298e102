package apiclient

import (
	"errors"
	"fmt"
)

// Sentinel kinds for client errors.
var (
	ErrInvalidBaseURL   = errors.New("invalid base url")
	ErrUnexpectedStatus = errors.New("unexpected status")
	ErrDecode           = errors.New("decode response failed")
)

// APIError is a non-2xx response from the API. It matches
// ErrUnexpectedStatus with errors.Is.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("api: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api: status %d: %s: %s", e.StatusCode, e.Code, e.Message)
}

// Is reports ErrUnexpectedStatus as a match.
func (e *APIError) Is(target error) bool {
	return target == ErrUnexpectedStatus
}
