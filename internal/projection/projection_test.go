package projection

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/boniface/scylladb-cdc-sub001/internal/eventsourcing"
)

type fakeOffsetStore struct {
	sequence int64
	eventID  string
	found    bool
}

func (f *fakeOffsetStore) GetOffset(ctx context.Context, name string) (int64, string, bool, error) {
	return f.sequence, f.eventID, f.found, nil
}

func (f *fakeOffsetStore) SaveOffset(ctx context.Context, name string, sequence int64, eventID string) error {
	f.sequence = sequence
	f.eventID = eventID
	f.found = true
	return nil
}

type countingProjection struct {
	calls int
	fail  bool
}

func (p *countingProjection) Name() string { return "counting-projection" }

func (p *countingProjection) HandleEvent(ctx context.Context, row eventsourcing.RawEnvelope) error {
	if p.fail {
		return errors.New("boom")
	}
	p.calls++
	return nil
}

func TestDeliverSavesOffsetOnlyAfterSuccess(t *testing.T) {
	offsets := &fakeOffsetStore{}
	proj := &countingProjection{}
	d := NewDispatcher(proj, offsets)

	err := d.Deliver(context.Background(), eventsourcing.RawEnvelope{SequenceNumber: 1, EventID: "e1"})
	require.NoError(t, err)
	require.Equal(t, 1, proj.calls)
	require.Equal(t, int64(1), offsets.sequence)
	require.Equal(t, "e1", offsets.eventID)
}

func TestDeliverDoesNotAdvanceOffsetOnFailure(t *testing.T) {
	offsets := &fakeOffsetStore{}
	proj := &countingProjection{fail: true}
	d := NewDispatcher(proj, offsets)

	err := d.Deliver(context.Background(), eventsourcing.RawEnvelope{SequenceNumber: 1, EventID: "e1"})
	require.Error(t, err)
	require.False(t, offsets.found)
}

func TestDeliverSkipsRowAlreadyCoveredByOffset(t *testing.T) {
	offsets := &fakeOffsetStore{sequence: 5, eventID: "e5", found: true}
	proj := &countingProjection{}
	d := NewDispatcher(proj, offsets)

	err := d.Deliver(context.Background(), eventsourcing.RawEnvelope{SequenceNumber: 5, EventID: "e5"})
	require.NoError(t, err)
	require.Equal(t, 0, proj.calls)
}

func TestDeliverAppliesRowPastOffset(t *testing.T) {
	offsets := &fakeOffsetStore{sequence: 5, eventID: "e5", found: true}
	proj := &countingProjection{}
	d := NewDispatcher(proj, offsets)

	err := d.Deliver(context.Background(), eventsourcing.RawEnvelope{SequenceNumber: 6, EventID: "e6"})
	require.NoError(t, err)
	require.Equal(t, 1, proj.calls)
	require.Equal(t, int64(6), offsets.sequence)
}
