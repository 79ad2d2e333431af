package square

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout is returned when the upstream call exceeds the client
	// timeout or the request context deadline.
	ErrTimeout = errors.New("square api request timed out")

	// ErrConnection is returned when the upstream cannot be reached.
	ErrConnection = errors.New("cannot connect to square api")

	// ErrTransport is returned for transport failures that are neither
	// timeouts nor connection errors.
	ErrTransport = errors.New("square api transport error")

	// ErrInvalidResponse is returned when a 2xx response body is not
	// valid JSON. A success that cannot be parsed is never a success.
	ErrInvalidResponse = errors.New("invalid json response from square api")

	// ErrTransient marks upstream statuses (429/502/503/504) that are
	// safe to retry with the same idempotency key.
	ErrTransient = errors.New("square api transient error")
)

// APIError is a structured rejection from the Square API. StatusCode is
// Square's own HTTP status and is propagated to the gateway caller.
type APIError struct {
	StatusCode int
	Code       string
	Detail     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("square api %d %s: %s", e.StatusCode, e.Code, e.Detail)
}
