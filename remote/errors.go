package remote

import (
	"errors"
	"fmt"
)

// ErrUnavailable covers every way the backend can fail to answer usefully:
// transport errors, non-2xx statuses and undecodable bodies.
var ErrUnavailable = errors.New("remote unavailable")

// ErrNoSession means no signed-in session is stored locally.
var ErrNoSession = errors.New("no active session")

// StatusError is a non-2xx response. It matches ErrUnavailable.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.StatusCode)
}

func (e *StatusError) Is(target error) bool { return target == ErrUnavailable }

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, op, err)
}
