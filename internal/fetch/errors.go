package fetch

import (
	"errors"
	"fmt"
)

// ErrInvalidProxyAddress is returned when the proxy address is not "host:port".
var ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")

// ErrUnexpectedStatus is the cause recorded for non-2xx responses.
var ErrUnexpectedStatus = errors.New("unexpected HTTP status")

// Error describes a failed fetch.
//
// Design decision: We use a struct error instead of plain wrapping because
// the driver and the history command both need the URL and status code,
// not only a message. Cause keeps the underlying error reachable through
// errors.Is and errors.As.
type Error struct {
	// URL is the URL that was requested.
	URL string

	// StatusCode is the HTTP status, or 0 when no response was received.
	StatusCode int

	// Message is a short description of the failing stage.
	Message string

	// Cause is the underlying error.
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: %s (status %d)", e.URL, e.Message, e.StatusCode)
	}
	if e.Cause != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}
