package library

import "errors"

var (
	// ErrNotFound is returned when a lookup, rekey, remove or edit target
	// is not in the index.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a key is already taken.
	ErrConflict = errors.New("key already exists")
)
