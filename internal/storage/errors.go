package storage

import "errors"

// Sentinel errors shared by every backend. Callers branch on these with
// errors.Is rather than on backend-specific error types.
var (
	// ErrNotFound reports that no record matches the given key.
	ErrNotFound = errors.New("storage: record not found")

	// ErrDuplicateKey reports an insert whose analysis id or short code
	// is already taken. Stored analyses are immutable; a rerun gets a
	// fresh id instead of overwriting.
	ErrDuplicateKey = errors.New("storage: duplicate key")

	// ErrInvalidInput reports a nil record or a missing required field.
	ErrInvalidInput = errors.New("storage: invalid input")
)
