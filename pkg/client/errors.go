package client

import (
	"errors"
	"fmt"
)

// ErrAccountMismatch means the server returned data owned by a different
// user than the one this client was created for. The session and the data
// are out of sync; callers should sign out and back in rather than retry.
var ErrAccountMismatch = errors.New("account mismatch")

// HTTPError represents a non-2xx HTTP response from the API.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// IsStatus returns true if err (or any wrapped error) is an HTTPError with the given status code.
func IsStatus(err error, code int) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == code
	}
	return false
}
