package models

import "errors"

// Error classes understood by the HTTP layer. Wrap them with fmt.Errorf("...: %w")
// and classify with errors.Is.
var (
	// ErrNotFound means a referenced user, post or task does not exist
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput means malformed page, size, query or form parameters
	ErrInvalidInput = errors.New("invalid input")
	// ErrConflict means the request clashes with current state, e.g. self-follow
	// or an export already pending
	ErrConflict = errors.New("conflict")
	// ErrUnauthorized means no authenticated viewer
	ErrUnauthorized = errors.New("unauthorized")
)
