package storage

import "errors"

// Sentinel errors returned by every DatasetStore and SnapshotStore.
// Implementations wrap driver errors with these so callers can use errors.Is.
var (
	// ErrNotFound is returned when no dataset or snapshot has the given ID.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when an ID is inserted twice.
	// Datasets and snapshots are immutable once stored.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrInvalidInput is returned for records the store refuses to persist,
	// such as an unenriched forecast record.
	ErrInvalidInput = errors.New("invalid input")
)
