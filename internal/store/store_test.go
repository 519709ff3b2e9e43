package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/boniface/scylladb-cdc-sub001/internal/eventsourcing"
)

// counterEvent and counterAggregate are a minimal test-only aggregate used
// to exercise the generic store and loader without depending on a real
// domain package.
type counterEvent struct {
	Delta int `json:"delta"`
}

type counterAggregate struct {
	id      string
	version int64
	total   int
}

func (c counterAggregate) AggregateID() string { return c.id }
func (c counterAggregate) Version() int64       { return c.version }

func constructCounter(first counterEvent) (counterAggregate, error) {
	return counterAggregate{id: "counter", version: 1, total: first.Delta}, nil
}

func applyCounter(agg counterAggregate, event counterEvent) (counterAggregate, error) {
	agg.version++
	agg.total += event.Delta
	return agg, nil
}

func envelope(aggregateID string, seq int64, delta int) eventsourcing.Envelope[counterEvent] {
	return eventsourcing.Envelope[counterEvent]{
		AggregateID:    aggregateID,
		SequenceNumber: seq,
		EventID:        uuid.NewString(),
		EventType:      "counter.delta",
		EventVersion:   1,
		EventData:      counterEvent{Delta: delta},
		CorrelationID:  uuid.NewString(),
	}
}

func TestAppendEventsAssignsContiguousSequenceNumbers(t *testing.T) {
	raw := newFakeRawStore()
	s := New[counterEvent](raw)
	ctx := context.Background()

	newVersion, err := s.AppendEvents(ctx, "agg-1", 0, []eventsourcing.Envelope[counterEvent]{
		envelope("agg-1", 0, 1),
		envelope("agg-1", 0, 2),
		envelope("agg-1", 0, 3),
	}, true)
	require.NoError(t, err)
	require.Equal(t, int64(3), newVersion)

	events, err := s.LoadEvents(ctx, "agg-1", 0)
	require.NoError(t, err)
	require.Len(t, events, 3)
	for i, env := range events {
		require.Equal(t, int64(i+1), env.SequenceNumber)
	}
}

func TestAppendEventsVersionConflict(t *testing.T) {
	raw := newFakeRawStore()
	s := New[counterEvent](raw)
	ctx := context.Background()

	_, err := s.AppendEvents(ctx, "agg-1", 0, []eventsourcing.Envelope[counterEvent]{envelope("agg-1", 0, 1)}, true)
	require.NoError(t, err)

	_, err = s.AppendEvents(ctx, "agg-1", 0, []eventsourcing.Envelope[counterEvent]{envelope("agg-1", 0, 2)}, true)
	require.ErrorIs(t, err, eventsourcing.ErrVersionConflict)

	// retrying with the correct expected version succeeds.
	newVersion, err := s.AppendEvents(ctx, "agg-1", 1, []eventsourcing.Envelope[counterEvent]{envelope("agg-1", 1, 2)}, true)
	require.NoError(t, err)
	require.Equal(t, int64(2), newVersion)
}

func TestLoadAggregateFoldsFromBeginningWithoutSnapshot(t *testing.T) {
	raw := newFakeRawStore()
	s := New[counterEvent](raw)
	ctx := context.Background()

	_, err := s.AppendEvents(ctx, "agg-1", 0, []eventsourcing.Envelope[counterEvent]{
		envelope("agg-1", 0, 5),
		envelope("agg-1", 0, 10),
	}, true)
	require.NoError(t, err)

	agg, err := LoadAggregate[counterAggregate, counterEvent](ctx, s, nil, "agg-1", LoadOptions[counterAggregate, counterEvent]{
		Construct: constructCounter,
		Apply:     applyCounter,
	})
	require.NoError(t, err)
	require.Equal(t, 15, agg.total)
	require.Equal(t, int64(2), agg.version)
}

func TestLoadAggregateUsesSnapshotThenTail(t *testing.T) {
	raw := newFakeRawStore()
	s := New[counterEvent](raw)
	ctx := context.Background()

	_, err := s.AppendEvents(ctx, "agg-1", 0, []eventsourcing.Envelope[counterEvent]{
		envelope("agg-1", 0, 5),
		envelope("agg-1", 0, 10),
		envelope("agg-1", 0, 20),
	}, true)
	require.NoError(t, err)

	snap := &fakeSnapshotSource[counterAggregate]{
		state:    counterAggregate{id: "agg-1", version: 2, total: 15},
		sequence: 2,
		found:    true,
	}

	agg, err := LoadAggregate[counterAggregate, counterEvent](ctx, s, snap, "agg-1", LoadOptions[counterAggregate, counterEvent]{
		Construct: constructCounter,
		Apply:     applyCounter,
	})
	require.NoError(t, err)
	require.Equal(t, 35, agg.total)
	require.Equal(t, int64(3), agg.version)
}

func TestLoadAggregateNotFound(t *testing.T) {
	raw := newFakeRawStore()
	s := New[counterEvent](raw)

	_, err := LoadAggregate[counterAggregate, counterEvent](context.Background(), s, nil, "missing", LoadOptions[counterAggregate, counterEvent]{
		Construct: constructCounter,
		Apply:     applyCounter,
	})
	require.ErrorIs(t, err, eventsourcing.ErrAggregateNotFound)
}
