package client

import (
	"errors"
	"fmt"
)

// Common errors returned by the client.
var (
	// ErrInvalidBaseURL is returned when the configured base URL does not
	// end with the /api/v1 version segment.
	ErrInvalidBaseURL = errors.New("base URL must end with /api/v1")

	// ErrMalformedResponse is returned when the server answers 200 but the
	// body does not contain a memos array.
	ErrMalformedResponse = errors.New("malformed memos response")
)

// APIError represents a non-2xx answer from the Memos server.
type APIError struct {
	StatusCode int
	ErrorClass ErrorClass
	Endpoint   string
	Body       string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("memos %s error (status %d) on %s: %s",
			e.ErrorClass, e.StatusCode, e.Endpoint, e.Body)
	}
	return fmt.Sprintf("memos %s error (status %d) on %s",
		e.ErrorClass, e.StatusCode, e.Endpoint)
}

// UnreachableError represents a transport failure before any HTTP status
// was received, typically DNS errors, refused connections, or timeouts.
type UnreachableError struct {
	URL string
	Err error
}

// Error implements the error interface.
func (e *UnreachableError) Error() string {
	return fmt.Sprintf("memos host unreachable (%s): %v", e.URL, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *UnreachableError) Unwrap() error {
	return e.Err
}
