package places

import (
	"errors"
	"fmt"
)

// Sentinel errors for Places API operations.
var (
	ErrNoCredential = errors.New("places: no credential configured")
	ErrNotFound     = errors.New("places: no matching place")
	ErrRateLimited  = errors.New("places: rate limited by server")
	ErrDenied       = errors.New("places: request denied")
	ErrStatus       = errors.New("places: unexpected provider status")
	ErrServer       = errors.New("places: server error")
)

// Error wraps an underlying error with operation context.
type Error struct {
	Op    string // Operation: "findPlace", "details"
	Query string // Free-text query or place ID
	Err   error
}

func (e *Error) Error() string {
	if e.Query != "" {
		return fmt.Sprintf("places %s [%s]: %v", e.Op, e.Query, e.Err)
	}
	return fmt.Sprintf("places %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrapError(op, query string, err error) error {
	return &Error{Op: op, Query: query, Err: err}
}

// statusError maps a provider status field to an error. OK maps to nil.
func statusError(status, message string) error {
	switch status {
	case "OK":
		return nil
	case "ZERO_RESULTS", "NOT_FOUND":
		return ErrNotFound
	case "OVER_QUERY_LIMIT":
		return ErrRateLimited
	case "REQUEST_DENIED":
		if message != "" {
			return fmt.Errorf("%w: %s", ErrDenied, message)
		}
		return ErrDenied
	default:
		if message != "" {
			return fmt.Errorf("%w %q: %s", ErrStatus, status, message)
		}
		return fmt.Errorf("%w %q", ErrStatus, status)
	}
}
