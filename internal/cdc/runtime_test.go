package cdc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/boniface/scylladb-cdc-sub001/internal/deadletter"
	"github.com/boniface/scylladb-cdc-sub001/internal/eventsourcing"
)

type fakeSource struct {
	rows        []Row
	index       int
	after       func() error
	checkpoints []Position
}

func (s *fakeSource) Next(ctx context.Context) (Row, error) {
	if s.index >= len(s.rows) {
		if s.after != nil {
			return Row{}, s.after()
		}
		return Row{}, context.Canceled
	}
	row := s.rows[s.index]
	s.index++
	return row, nil
}

func (s *fakeSource) Checkpoint(ctx context.Context, pos Position) error {
	s.checkpoints = append(s.checkpoints, pos)
	return nil
}

type recordingConsumer struct {
	name     string
	received []eventsourcing.RawEnvelope
	fail     bool
}

func (c *recordingConsumer) Name() string { return c.name }

func (c *recordingConsumer) Consume(ctx context.Context, row eventsourcing.RawEnvelope) error {
	if c.fail {
		return errors.New("consume failed")
	}
	c.received = append(c.received, row)
	return nil
}

type recordingDLQSink struct {
	entries []deadletter.Entry
}

func (s *recordingDLQSink) Record(ctx context.Context, entry deadletter.Entry) error {
	s.entries = append(s.entries, entry)
	return nil
}

func validRow(aggregateID string, offset string) Row {
	return Row{
		Position:  Position{Generation: 1, VNode: "v1", Offset: offset},
		Operation: OperationInsert,
		Columns: map[string]interface{}{
			"aggregate_id":   aggregateID,
			"event_id":       "evt-" + offset,
			"event_type":     "order.created",
			"event_version":  1,
			"payload":        []byte(`{"total":10}`),
			"correlation_id": "corr-1",
			"causation_id":   "",
			"created_at":     time.Now().UTC(),
		},
	}
}

func TestRuntimeDeliversInsertRowsAndCheckpoints(t *testing.T) {
	source := &fakeSource{rows: []Row{validRow("agg-1", "1"), validRow("agg-2", "2")}}
	consumer := &recordingConsumer{name: "test-consumer"}
	dlq := deadletter.NewWriter(&recordingDLQSink{})
	rt := NewRuntime(source, consumer, dlq)

	err := rt.Run(context.Background())
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, consumer.received, 2)
	require.Len(t, source.checkpoints, 2)
	require.Equal(t, "agg-1", consumer.received[0].AggregateID)
}

func TestRuntimeSkipsNonInsertOperations(t *testing.T) {
	nonInsert := validRow("agg-1", "1")
	nonInsert.Operation = OperationOther
	source := &fakeSource{rows: []Row{nonInsert}}
	consumer := &recordingConsumer{name: "test-consumer"}
	dlq := deadletter.NewWriter(&recordingDLQSink{})
	rt := NewRuntime(source, consumer, dlq)

	err := rt.Run(context.Background())
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, consumer.received)
	require.Len(t, source.checkpoints, 1)
}

func TestRuntimeRoutesParseFailuresToDeadLetter(t *testing.T) {
	bad := Row{
		Position:  Position{Generation: 1, VNode: "v1", Offset: "1"},
		Operation: OperationInsert,
		Columns:   map[string]interface{}{"aggregate_id": "agg-1"},
	}
	source := &fakeSource{rows: []Row{bad}}
	consumer := &recordingConsumer{name: "test-consumer"}
	sink := &recordingDLQSink{}
	dlq := deadletter.NewWriter(sink)
	rt := NewRuntime(source, consumer, dlq)

	err := rt.Run(context.Background())
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, consumer.received)
	require.Len(t, sink.entries, 1)
	require.Len(t, source.checkpoints, 1)
}

func TestRuntimeCheckpointsEvenWhenConsumerFails(t *testing.T) {
	source := &fakeSource{rows: []Row{validRow("agg-1", "1")}}
	consumer := &recordingConsumer{name: "test-consumer", fail: true}
	dlq := deadletter.NewWriter(&recordingDLQSink{})
	rt := NewRuntime(source, consumer, dlq)

	err := rt.Run(context.Background())
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, source.checkpoints, 1)
}
