package apperr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStorageWrapsUnclassified(t *testing.T) {
	cause := errors.New("connection refused")
	err := Storage("create entry", cause)

	var se *StorageError
	assert.True(t, errors.As(err, &se))
	assert.Equal(t, "create entry", se.Op)
	assert.ErrorIs(t, err, cause)
	assert.Nil(t, Storage("noop", nil))
}

func TestStorageKeepsClassified(t *testing.T) {
	err := Storage("create entry", ErrDuplicateDate)
	assert.Same(t, ErrDuplicateDate, err)

	wrapped := Validation("date must be YYYY-MM-DD")
	assert.ErrorIs(t, Storage("x", wrapped), ErrValidation)
}

func TestEnrichmentErrorUnwrap(t *testing.T) {
	cause := errors.New("invalid JSON response from AI")
	err := &EnrichmentError{EntryID: 7, Stage: "parse", Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "entry 7")
	assert.Contains(t, err.Error(), "parse")
}
