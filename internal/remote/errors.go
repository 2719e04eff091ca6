package remote

import (
	"errors"
	"fmt"
)

var ErrNotConfigured = errors.New("remote api not configured")

// NetworkError covers everything that means "the backend could not answer":
// transport failures, timeouts, 5xx responses and unreadable bodies.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }

// StatusError is a definitive 4xx answer from the backend.
type StatusError struct {
	Op      string
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.Code, e.Message)
}

// IsUnavailable reports whether err should trigger the local fallback.
func IsUnavailable(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// Status returns the HTTP status of a *StatusError, or 0.
func Status(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}
