package store

import "errors"

var (
	// ErrNotFound is returned for operations on an absent key.
	ErrNotFound = errors.New("store: not found")
	// ErrConflict is returned when creation hits an existing record.
	ErrConflict = errors.New("store: record already exists")
	// ErrUnauthorized is returned when an intent's signature does not verify.
	ErrUnauthorized = errors.New("store: signature does not verify")
)
