// Package mberr defines the typed error kinds raised by the mirror engine.
//
// Every kind wraps github.com/pkg/errors so callers retain a stack trace
// from the point of origin; callers distinguish kinds with errors.As.
package mberr

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrNotFound is returned when no replication packet is available yet at
// the upstream URL the driver is about to fetch.
var ErrNotFound = errors.New("replication packet not found")

// ErrMissingReplicationSequence is returned when a replication control row
// has no REPLICATION_SEQUENCE recorded, meaning the mirror was never
// bootstrapped.
var ErrMissingReplicationSequence = errors.New("replication control row has no replication sequence")

// SequenceMismatchError is returned when a fetched packet's REPLICATION_SEQUENCE
// does not immediately follow the locally recorded sequence.
type SequenceMismatchError struct {
	Expected int
	Got      int
}

func (e *SequenceMismatchError) Error() string {
	return fmt.Sprintf("replication sequence mismatch: expected %d, got %d", e.Expected, e.Got)
}

// NewSequenceMismatch wraps a SequenceMismatchError with a stack trace.
func NewSequenceMismatch(expected, got int) error {
	return errors.WithStack(&SequenceMismatchError{Expected: expected, Got: got})
}

// SchemaMismatchError is returned when a fetched packet's SCHEMA_SEQUENCE is
// neither equal to, nor exactly one ahead of, the locally recorded schema
// sequence.
type SchemaMismatchError struct {
	Expected int
	Got      int
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("schema sequence mismatch: local %d, packet %d", e.Expected, e.Got)
}

// NewSchemaMismatch wraps a SchemaMismatchError with a stack trace.
func NewSchemaMismatch(expected, got int) error {
	return errors.WithStack(&SchemaMismatchError{Expected: expected, Got: got})
}

// MissingPendingDataError is returned when a pending-data row is missing a
// field the compiler requires (e.g. no new-data payload on an insert).
type MissingPendingDataError struct {
	Field string
}

func (e *MissingPendingDataError) Error() string {
	return fmt.Sprintf("pending data row missing required field %q", e.Field)
}

// NewMissingPendingData wraps a MissingPendingDataError with a stack trace.
func NewMissingPendingData(field string) error {
	return errors.WithStack(&MissingPendingDataError{Field: field})
}

// MalformedPendingDataError is returned when a pending-data payload field
// cannot be parsed into column=value pairs.
type MalformedPendingDataError struct {
	Field string
}

func (e *MalformedPendingDataError) Error() string {
	return fmt.Sprintf("pending data field %q is malformed", e.Field)
}

// NewMalformedPendingData wraps a MalformedPendingDataError with a stack trace.
func NewMalformedPendingData(field string) error {
	return errors.WithStack(&MalformedPendingDataError{Field: field})
}

// IsNotFound reports whether err is, or wraps, ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// AsSequenceMismatch reports whether err is, or wraps, a *SequenceMismatchError.
func AsSequenceMismatch(err error) (*SequenceMismatchError, bool) {
	var target *SequenceMismatchError
	ok := errors.As(err, &target)
	return target, ok
}

// AsSchemaMismatch reports whether err is, or wraps, a *SchemaMismatchError.
func AsSchemaMismatch(err error) (*SchemaMismatchError, bool) {
	var target *SchemaMismatchError
	ok := errors.As(err, &target)
	return target, ok
}
