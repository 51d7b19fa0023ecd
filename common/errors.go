package common

import (
	"errors"
	"fmt"
)

var ErrInvalidId = errors.New("invalid id")
var ErrAuthInvalid = errors.New("authentication invalid")
var ErrMediaNotFound = errors.New("media not found")
var ErrNoFiles = errors.New("media has no files")
var ErrClientAbort = errors.New("client aborted")
var ErrMediaTooLarge = errors.New("media too large")

// BackendError is a non-success answer from one of the BaaS services that is
// not an authentication problem.
type BackendError struct {
	Service string
	Status  int
	Body    string
}

func (e *BackendError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s", e.Service, e.Body)
	}
	return fmt.Sprintf("%s responded %d: %s", e.Service, e.Status, e.Body)
}

func NewBackendError(service string, status int, body string) *BackendError {
	return &BackendError{Service: service, Status: status, Body: body}
}

func IsBackendError(err error) bool {
	var be *BackendError
	return errors.As(err, &be)
}

// StreamFailure is raised once archive bytes have been committed to the
// client and a later entry could not be produced.
type StreamFailure struct {
	Entry string
	Err   error
}

func (e *StreamFailure) Error() string {
	return fmt.Sprintf("stream failure on %q: %v", e.Entry, e.Err)
}

func (e *StreamFailure) Unwrap() error {
	return e.Err
}
