package store

import (
	"context"
	"sync"

	"github.com/boniface/scylladb-cdc-sub001/internal/eventsourcing"
)

// fakeRawStore is an in-memory stand-in for RawStore used by the unit
// tests in this package to exercise the generic store and loader without
// a Cassandra cluster.
type fakeRawStore struct {
	mu     sync.Mutex
	events map[string][]eventsourcing.RawEnvelope
	outbox []eventsourcing.RawEnvelope
}

func newFakeRawStore() *fakeRawStore {
	return &fakeRawStore{events: make(map[string][]eventsourcing.RawEnvelope)}
}

func (f *fakeRawStore) AppendEvents(ctx context.Context, aggregateID string, expectedVersion int64, rows []eventsourcing.RawEnvelope, publishToOutbox bool) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	existing := f.events[aggregateID]
	if int64(len(existing)) != expectedVersion {
		return 0, &eventsourcing.VersionConflictError{
			AggregateID:     aggregateID,
			ExpectedVersion: expectedVersion,
			ObservedVersion: int64(len(existing)),
		}
	}

	for i, row := range rows {
		row.SequenceNumber = expectedVersion + int64(i) + 1
		existing = append(existing, row)
		if publishToOutbox {
			f.outbox = append(f.outbox, row)
		}
	}
	f.events[aggregateID] = existing
	return int64(len(existing)), nil
}

func (f *fakeRawStore) LoadEvents(ctx context.Context, aggregateID string, fromSequence int64) ([]eventsourcing.RawEnvelope, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []eventsourcing.RawEnvelope
	for _, row := range f.events[aggregateID] {
		if row.SequenceNumber > fromSequence {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeRawStore) CurrentVersion(ctx context.Context, aggregateID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.events[aggregateID])), nil
}

func (f *fakeRawStore) AggregateExists(ctx context.Context, aggregateID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.events[aggregateID]
	return ok, nil
}

// fakeSnapshotSource is a SnapshotSource that never has a snapshot, or
// returns a fixed one when primed.
type fakeSnapshotSource[A any] struct {
	state    A
	sequence int64
	found    bool
}

func (f *fakeSnapshotSource[A]) LoadLatest(ctx context.Context, aggregateID string) (A, int64, bool, error) {
	return f.state, f.sequence, f.found, nil
}
