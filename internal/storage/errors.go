package storage

import "errors"

// Sentinel errors shared by every store implementation.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when inserting a record whose key already
	// exists. Stored ledger versions and strategies are immutable.
	ErrDuplicateKey = errors.New("duplicate key: stored records are immutable")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)
