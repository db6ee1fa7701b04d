package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks a malformed request.
	ErrValidation = errors.New("validation failed")
	// ErrDuplicateDate is returned when the owner already has an entry for the date.
	ErrDuplicateDate = errors.New("an entry already exists for this date")
	// ErrNotFound marks a missing or foreign entry/user.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized marks a request without a resolvable identity.
	ErrUnauthorized = errors.New("unauthorized")
)

// Validation wraps a human readable reason as an ErrValidation.
func Validation(reason string) error {
	return fmt.Errorf("%w: %s", ErrValidation, reason)
}

// StorageError wraps a failure of the relational store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Storage wraps err as a StorageError unless it is nil or already classified.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsClassified(err) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// EnrichmentError describes a failed pipeline stage. It never reaches an HTTP caller.
type EnrichmentError struct {
	EntryID uint
	Stage   string
	Err     error
}

func (e *EnrichmentError) Error() string {
	return fmt.Sprintf("enrich entry %d (%s): %v", e.EntryID, e.Stage, e.Err)
}

func (e *EnrichmentError) Unwrap() error { return e.Err }

// IsClassified reports whether err already carries one of the request-level sentinels.
func IsClassified(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrDuplicateDate) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrUnauthorized)
}
