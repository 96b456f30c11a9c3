package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrTransport is returned when the store could not be reached or timed out
	ErrTransport = errors.New("store transport failure")

	// ErrRejected is returned when the store refused a well-formed request, such as a constraint violation
	ErrRejected = errors.New("store rejected request")
)
