// Package command implements C4: the load -> validate -> append cycle
// that turns an inbound command into durable events.
package command

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/boniface/scylladb-cdc-sub001/internal/eventsourcing"
	"github.com/boniface/scylladb-cdc-sub001/internal/store"
)

// Handler wires a generic Store to a single aggregate type's constructor,
// applier, and command decision function. One Handler exists per
// aggregate type; the store itself is shared across all of them.
type Handler[A eventsourcing.Aggregate[E], E any, C any] struct {
	store     *store.Store[E]
	snapshots store.SnapshotSource[A]
	construct eventsourcing.Constructor[A, E]
	apply     eventsourcing.Applier[A, E]
	decide    eventsourcing.CommandHandler[A, E, C]
	// IsConstructor reports whether a command is allowed to create a new
	// aggregate (spec §4.C4 step 1: "must be a constructor-style
	// command").
	isConstructor func(C) bool
}

// Options configures a Handler.
type Options[A eventsourcing.Aggregate[E], E any, C any] struct {
	Store         *store.Store[E]
	Snapshots     store.SnapshotSource[A]
	Construct     eventsourcing.Constructor[A, E]
	Apply         eventsourcing.Applier[A, E]
	Decide        eventsourcing.CommandHandler[A, E, C]
	IsConstructor func(C) bool
}

// New constructs a Handler.
func New[A eventsourcing.Aggregate[E], E any, C any](opts Options[A, E, C]) *Handler[A, E, C] {
	return &Handler[A, E, C]{
		store:         opts.Store,
		snapshots:     opts.Snapshots,
		construct:     opts.Construct,
		apply:         opts.Apply,
		decide:        opts.Decide,
		isConstructor: opts.IsConstructor,
	}
}

// Handle runs the load -> validate -> append cycle for a single command.
//
// On ErrVersionConflict the caller may retry the whole cycle; Handle
// itself does not loop (the retry policy is the caller's to choose, per
// spec §4.C4 step 5), but conflicts are an expected, routine outcome
// under contention, not a bug.
func (h *Handler[A, E, C]) Handle(ctx context.Context, aggregateID string, cmd C, correlationID string) (int64, error) {
	exists, err := h.store.AggregateExists(ctx, aggregateID)
	if err != nil {
		return 0, err
	}
	if !exists {
		if h.isConstructor == nil || !h.isConstructor(cmd) {
			return 0, eventsourcing.ErrAggregateNotFound
		}
	}

	var (
		agg             A
		expectedVersion int64
	)
	if exists {
		loaded, err := store.LoadAggregate[A, E](ctx, h.store, h.snapshots, aggregateID, store.LoadOptions[A, E]{
			Construct: h.construct,
			Apply:     h.apply,
		})
		if err != nil {
			return 0, err
		}
		agg = loaded
		expectedVersion = agg.Version()
	}

	domainEvents, err := h.decide(agg, cmd)
	if err != nil {
		var bizErr *eventsourcing.BusinessRuleViolationError
		if errors.As(err, &bizErr) {
			return 0, err
		}
		return 0, &eventsourcing.BusinessRuleViolationError{Reason: "command rejected", Cause: err}
	}
	if len(domainEvents) == 0 {
		return expectedVersion, nil
	}

	now := time.Now().UTC()
	envelopes := make([]eventsourcing.Envelope[E], 0, len(domainEvents))
	previousEventID := ""
	for i, de := range domainEvents {
		eventType, eventVersion := "", 1
		if tagged, ok := any(de).(eventsourcing.DomainEvent); ok {
			eventType = tagged.EventType()
			eventVersion = tagged.EventVersion()
		}
		env := eventsourcing.Envelope[E]{
			AggregateID:    aggregateID,
			SequenceNumber: expectedVersion + int64(i) + 1,
			EventID:        uuid.NewString(),
			EventType:      eventType,
			EventVersion:   eventVersion,
			EventData:      de,
			CausationID:    previousEventID,
			CorrelationID:  correlationID,
			Timestamp:      now,
		}
		previousEventID = env.EventID
		envelopes = append(envelopes, env)
	}

	return h.store.AppendEvents(ctx, aggregateID, expectedVersion, envelopes, true)
}
