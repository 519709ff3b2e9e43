// Package store implements the event-sourcing write path (C2): atomic
// append of events plus an outbox mirror and a sequence pointer, ordered
// load, and snapshot-assisted load. The backend-agnostic logic lives here;
// the gocql-backed implementation lives in the cassandra subpackage.
package store

import (
	"context"

	"github.com/boniface/scylladb-cdc-sub001/internal/eventsourcing"
)

// RawStore is the backend contract the generic Store builds on. It never
// sees the concrete event type E — payloads travel as
// eventsourcing.RawEnvelope so one implementation serves every aggregate
// type in the system (design note: "a single store implementation
// parameterized by the event type avoids per-domain duplication").
type RawStore interface {
	// AppendEvents inserts each row at sequence_number = expectedVersion+i
	// (1-based), optionally mirrors each row into the outbox, and upserts
	// the aggregate's sequence pointer — all in one atomic batch. Returns
	// the new high-water mark on success.
	//
	// Fails with a *VersionConflictError-wrapping error if an event at
	// sequence expectedVersion+1 already exists for this aggregate, i.e.
	// another writer has appended past expectedVersion.
	AppendEvents(ctx context.Context, aggregateID string, expectedVersion int64, rows []eventsourcing.RawEnvelope, publishToOutbox bool) (int64, error)

	// LoadEvents returns events in ascending sequence_number order,
	// starting strictly after fromSequence. A missing aggregate yields an
	// empty, non-error result.
	LoadEvents(ctx context.Context, aggregateID string, fromSequence int64) ([]eventsourcing.RawEnvelope, error)

	// CurrentVersion reads the sequence pointer; returns 0 if absent.
	CurrentVersion(ctx context.Context, aggregateID string) (int64, error)

	// AggregateExists reports whether any event or sequence pointer row
	// exists for the aggregate.
	AggregateExists(ctx context.Context, aggregateID string) (bool, error)
}

// SnapshotSource is the subset of the snapshot store (C3) the generic
// loader needs: the latest snapshot state (already decoded into A by the
// implementation, e.g. snapshot.Manager) and the sequence it was taken at.
type SnapshotSource[A any] interface {
	LoadLatest(ctx context.Context, aggregateID string) (state A, sequence int64, found bool, err error)
}

// Store is the generic, typed façade over a RawStore for a single event
// type E. Every aggregate module constructs one of these (or shares one
// keyed by aggregate type) instead of writing its own persistence code.
type Store[E any] struct {
	raw RawStore
}

// New constructs a Store bound to the given backend.
func New[E any](raw RawStore) *Store[E] {
	return &Store[E]{raw: raw}
}

// AppendEvents encodes and appends envelopes; see RawStore.AppendEvents.
func (s *Store[E]) AppendEvents(ctx context.Context, aggregateID string, expectedVersion int64, envelopes []eventsourcing.Envelope[E], publishToOutbox bool) (int64, error) {
	rows := make([]eventsourcing.RawEnvelope, 0, len(envelopes))
	for _, env := range envelopes {
		raw, err := eventsourcing.Encode(env)
		if err != nil {
			return 0, err
		}
		rows = append(rows, raw)
	}
	return s.raw.AppendEvents(ctx, aggregateID, expectedVersion, rows, publishToOutbox)
}

// LoadEvents decodes and returns events in ascending sequence order.
func (s *Store[E]) LoadEvents(ctx context.Context, aggregateID string, fromSequence int64) ([]eventsourcing.Envelope[E], error) {
	rows, err := s.raw.LoadEvents(ctx, aggregateID, fromSequence)
	if err != nil {
		return nil, err
	}
	out := make([]eventsourcing.Envelope[E], 0, len(rows))
	for _, raw := range rows {
		env, err := eventsourcing.Decode[E](raw)
		if err != nil {
			return nil, err
		}
		out = append(out, env)
	}
	return out, nil
}

// CurrentVersion reads the sequence pointer; returns 0 if absent.
func (s *Store[E]) CurrentVersion(ctx context.Context, aggregateID string) (int64, error) {
	return s.raw.CurrentVersion(ctx, aggregateID)
}

// AggregateExists reports whether the aggregate has any persisted state.
func (s *Store[E]) AggregateExists(ctx context.Context, aggregateID string) (bool, error) {
	return s.raw.AggregateExists(ctx, aggregateID)
}
