// Package projection defines C5: the contract a read-model updater
// implements, and the offset bookkeeping shared by every projection.
package projection

import (
	"context"

	"github.com/boniface/scylladb-cdc-sub001/internal/eventsourcing"
)

// Projection is the contract every read-model updater satisfies.
// HandleEvent must be safe to call more than once for the same envelope
// (idempotent under replay, per spec §4.C5): either the mutation itself is
// an upsert, or the offset check above it rejects already-applied rows.
type Projection interface {
	// Name is a stable id, used as the projection's consumer group and as
	// the partition key of its offset row.
	Name() string
	// HandleEvent applies one outbox row to the read model. The
	// dispatcher skips only the row matching its last saved offset, so
	// earlier rows can reach HandleEvent again.
	HandleEvent(ctx context.Context, row eventsourcing.RawEnvelope) error
}

// OffsetStore persists the single (sequence_number, event_id) high-water
// mark each projection needs to resume without reprocessing work it has
// already durably applied.
type OffsetStore interface {
	GetOffset(ctx context.Context, projectionName string) (sequence int64, eventID string, found bool, err error)
	SaveOffset(ctx context.Context, projectionName string, sequence int64, eventID string) error
}

// Dispatcher drives one Projection against its OffsetStore: it saves the
// offset only after HandleEvent has returned successfully, so a crash
// between the two is tolerated (the next delivery re-applies the same
// idempotent mutation rather than skipping or double-committing state).
type Dispatcher struct {
	projection Projection
	offsets    OffsetStore
}

// NewDispatcher constructs a Dispatcher for one projection.
func NewDispatcher(p Projection, offsets OffsetStore) *Dispatcher {
	return &Dispatcher{projection: p, offsets: offsets}
}

// Name returns the underlying projection's stable id.
func (d *Dispatcher) Name() string { return d.projection.Name() }

// Deliver applies row to the projection and advances its offset. A row
// whose event_id equals the last saved one (at or below its sequence) is
// skipped as an extra guard against redundant work on top of the
// projection's own idempotency, not a substitute for it. The offset is one
// mark per projection, not per aggregate, so any other row is applied.
func (d *Dispatcher) Deliver(ctx context.Context, row eventsourcing.RawEnvelope) error {
	lastSeq, lastEventID, found, err := d.offsets.GetOffset(ctx, d.Name())
	if err != nil {
		return err
	}
	if found && row.SequenceNumber <= lastSeq && row.EventID == lastEventID {
		return nil
	}

	if err := d.projection.HandleEvent(ctx, row); err != nil {
		return err
	}
	return d.offsets.SaveOffset(ctx, d.Name(), row.SequenceNumber, row.EventID)
}
