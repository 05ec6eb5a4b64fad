package services

import "errors"

var (
	ErrProfileExists   = errors.New("profile already exists")
	ErrProfileNotFound = errors.New("profile not found")
)

// StoreError is an infrastructure failure. Message is the generic text shown
// to the caller; Err carries the detail that only goes to the logs.
type StoreError struct {
	Message string
	Err     error
}

func (e *StoreError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + " " + e.Err.Error()
}

func (e *StoreError) Unwrap() error { return e.Err }

func storeErr(message string, err error) error {
	return &StoreError{Message: message, Err: err}
}
