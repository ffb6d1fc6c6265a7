package draft

import (
	"errors"
	"fmt"
)

var (
	// ErrQuotaExceeded indicates the backend has no room for the write.
	ErrQuotaExceeded = errors.New("draft storage quota exceeded")

	// ErrNotFound indicates no draft is stored under the key.
	ErrNotFound = errors.New("draft not found")

	// ErrConflict indicates another writer owns different data under the key.
	ErrConflict = errors.New("draft modified by another writer")
)

// StorageError is an I/O failure in a Store operation.
type StorageError struct {
	Op  string // "save", "load", "clear", ...
	Key string
	Err error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("draft %s %q: %v", e.Op, e.Key, e.Err)
}

// Unwrap returns the underlying error.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// ConflictError is returned when a save is refused because a different writer
// instance holds different data under the key.
type ConflictError struct {
	Key    string
	Owner  string // instance id that last wrote the draft
	Writer string // instance id whose save was refused
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("draft %q was modified by writer %s; refusing write from %s", e.Key, e.Owner, e.Writer)
}

// Unwrap returns ErrConflict so callers can use errors.Is.
func (e *ConflictError) Unwrap() error {
	return ErrConflict
}

func newStorageError(op, key string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Key: key, Err: err}
}
