package eventsourcing

import (
	"errors"
	"fmt"
)

// Sentinel errors matching the taxonomy in spec §7. Use errors.Is against
// these; wrapped errors carry additional context via Unwrap.
var (
	// ErrVersionConflict is returned by AppendEvents when another writer
	// raced the same aggregate. The caller may retry the whole
	// load-validate-append cycle.
	ErrVersionConflict = errors.New("eventsourcing: version conflict")
	// ErrBusinessRuleViolation is returned when an aggregate rejects a
	// command. Not retriable.
	ErrBusinessRuleViolation = errors.New("eventsourcing: business rule violation")
	// ErrAggregateNotFound is returned when loading an aggregate that has
	// no events and no snapshot.
	ErrAggregateNotFound = errors.New("eventsourcing: aggregate not found")
)

// VersionConflictError carries the expected and actual versions observed
// at append time.
type VersionConflictError struct {
	AggregateID      string
	ExpectedVersion  int64
	ObservedVersion  int64
}

func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("eventsourcing: version conflict for aggregate %s: expected %d, observed %d",
		e.AggregateID, e.ExpectedVersion, e.ObservedVersion)
}

func (e *VersionConflictError) Unwrap() error { return ErrVersionConflict }

// BusinessRuleViolationError wraps the aggregate-specific reason a
// command was rejected.
type BusinessRuleViolationError struct {
	Reason string
	Cause  error
}

func (e *BusinessRuleViolationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("eventsourcing: business rule violation: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("eventsourcing: business rule violation: %s", e.Reason)
}

func (e *BusinessRuleViolationError) Unwrap() error { return ErrBusinessRuleViolation }

// SerializationError wraps a payload encoding failure on append.
type SerializationError struct {
	Cause error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("eventsourcing: serialization error: %v", e.Cause)
}

func (e *SerializationError) Unwrap() error { return e.Cause }

// DeserializationError wraps a payload decoding failure on load/replay.
type DeserializationError struct {
	Cause error
}

func (e *DeserializationError) Error() string {
	return fmt.Sprintf("eventsourcing: deserialization error: %v", e.Cause)
}

func (e *DeserializationError) Unwrap() error { return e.Cause }

// StorageError wraps a backend I/O failure. Distinguishes "the store said
// no" (VersionConflict, NotFound) from "the store could not be reached".
type StorageError struct {
	Op    string
	Cause error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("eventsourcing: storage error during %s: %v", e.Op, e.Cause)
}

func (e *StorageError) Unwrap() error { return e.Cause }
