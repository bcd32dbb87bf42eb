package backend

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the backend answers 404 for a
	// booking, offer, or ticket lookup.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is returned when the backend rejects the
	// supplied credentials or token.
	ErrUnauthorized = errors.New("unauthorized")
)

// APIError is a non-2xx answer from the backend that carried a usable
// error body. The message is surfaced to the user verbatim.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend: %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("backend: %d", e.StatusCode)
}
