package mberr

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestIsNotFoundThroughWrapping(t *testing.T) {
	wrapped := errors.Wrap(ErrNotFound, "fetching packet")
	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsNotFound(errors.New("some other error")))
}

func TestAsSequenceMismatchThroughWrapping(t *testing.T) {
	err := errors.Wrap(NewSequenceMismatch(5, 7), "applying packet")

	mismatch, ok := AsSequenceMismatch(err)
	if assert.True(t, ok) {
		assert.Equal(t, 5, mismatch.Expected)
		assert.Equal(t, 7, mismatch.Got)
	}

	_, ok = AsSequenceMismatch(errors.New("unrelated"))
	assert.False(t, ok)
}

func TestAsSchemaMismatchThroughWrapping(t *testing.T) {
	err := errors.Wrap(NewSchemaMismatch(1, 3), "applying packet")

	mismatch, ok := AsSchemaMismatch(err)
	if assert.True(t, ok) {
		assert.Equal(t, 1, mismatch.Expected)
		assert.Equal(t, 3, mismatch.Got)
	}
}

func TestMissingAndMalformedPendingDataMessages(t *testing.T) {
	err := NewMissingPendingData("new_data")
	assert.Contains(t, err.Error(), "new_data")

	err = NewMalformedPendingData("old_data")
	assert.Contains(t, err.Error(), "old_data")
}
