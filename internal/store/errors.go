package store

import "errors"

var (
	// ErrInvalidRoot indicates a listing was requested for a path that does
	// not exist in the repository.
	ErrInvalidRoot = errors.New("root path does not exist")

	// ErrMalformedResponse indicates the repository answered but the payload
	// could not be parsed.
	ErrMalformedResponse = errors.New("malformed repository response")

	// ErrNotFound indicates the target of a delete or stat was already absent.
	ErrNotFound = errors.New("path not found")
)
