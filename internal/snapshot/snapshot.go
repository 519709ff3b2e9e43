// Package snapshot implements C3: periodic aggregate state serialization
// and the policy for when to take one.
package snapshot

import (
	"context"
	"encoding/json"
	"time"

	"github.com/boniface/scylladb-cdc-sub001/internal/eventsourcing"
)

// CurrentFormatVersion is written with every new snapshot. Readers that
// encounter a higher or otherwise unknown version must discard the
// snapshot and rebuild from events (spec §4.C3).
const CurrentFormatVersion = 1

// Backend is the storage contract snapshot.Manager builds on; the
// cassandra-backed implementation lives in internal/store/cassandra.
type Backend interface {
	Save(ctx context.Context, aggregateID string, sequence int64, formatVersion int, data []byte, takenAt time.Time) error
	LoadLatest(ctx context.Context, aggregateID string) (data []byte, sequence int64, formatVersion int, found bool, err error)
	CleanupOlderThan(ctx context.Context, aggregateID string, keepN int) error
}

// Manager is the generic, typed façade over a Backend for aggregate type
// A. It implements store.SnapshotSource[A] so it plugs directly into
// store.LoadAggregate.
type Manager[A any] struct {
	backend  Backend
	interval int // events-per-snapshot cadence
}

// NewManager constructs a Manager. interval is the number of events
// between snapshots (spec default: 100).
func NewManager[A any](backend Backend, interval int) *Manager[A] {
	if interval <= 0 {
		interval = 100
	}
	return &Manager[A]{backend: backend, interval: interval}
}

// ShouldSnapshot reports whether a snapshot should be taken after
// appending up to newVersion, given the cadence interval.
func (m *Manager[A]) ShouldSnapshot(newVersion int64) bool {
	return newVersion > 0 && newVersion%int64(m.interval) == 0
}

// Save serializes the aggregate state and writes one row keyed by
// (aggregate_id, sequence_number).
func (m *Manager[A]) Save(ctx context.Context, aggregateID string, eventCountAtSnapshot int64, state A) error {
	body, err := json.Marshal(state)
	if err != nil {
		return &eventsourcing.SerializationError{Cause: err}
	}
	return m.backend.Save(ctx, aggregateID, eventCountAtSnapshot, CurrentFormatVersion, body, time.Now().UTC())
}

// LoadLatest implements store.SnapshotSource[A]: it returns the row with
// the largest sequence_number the backend holds (it is not compared with
// the aggregate's current version), or found=false if none exists or the
// stored format version is unrecognized (discard-and-rebuild policy, spec
// §4.C3).
func (m *Manager[A]) LoadLatest(ctx context.Context, aggregateID string) (A, int64, bool, error) {
	var zero A

	data, sequence, formatVersion, found, err := m.backend.LoadLatest(ctx, aggregateID)
	if err != nil {
		return zero, 0, false, &eventsourcing.StorageError{Op: "load_snapshot", Cause: err}
	}
	if !found {
		return zero, 0, false, nil
	}
	if formatVersion != CurrentFormatVersion {
		// Unknown/stale format: discard and let the caller rebuild from
		// the full event stream rather than fail the load.
		return zero, 0, false, nil
	}

	var state A
	if err := json.Unmarshal(data, &state); err != nil {
		// A corrupt snapshot is treated the same way: discard, rebuild.
		return zero, 0, false, nil
	}
	return state, sequence, true, nil
}

// CleanupOlderThan removes all but the N most recent snapshots for an
// aggregate. Intended to run asynchronously, decoupled from the append
// path (spec §3: "older snapshots cleaned up asynchronously").
func (m *Manager[A]) CleanupOlderThan(ctx context.Context, aggregateID string, keepN int) error {
	if keepN <= 0 {
		keepN = 1
	}
	return m.backend.CleanupOlderThan(ctx, aggregateID, keepN)
}
