package rs

import "errors"

// Error classes returned by the stores. Callers test with errors.Is.
// Filesystem failures are returned wrapped as-is; malformed case and link
// documents are never an error (they read as empty).
var (
	// ErrPrecondition means the storage root or active user is missing.
	ErrPrecondition = errors.New("precondition failed")

	// ErrDuplicate means a username or case key is already taken.
	ErrDuplicate = errors.New("already exists")

	// ErrNotFound means the user, case, link or folder does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalid means a request failed validation.
	ErrInvalid = errors.New("invalid input")
)
