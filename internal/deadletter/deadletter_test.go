package deadletter

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeSink struct {
	entries []Entry
}

func (s *fakeSink) Record(ctx context.Context, entry Entry) error {
	s.entries = append(s.entries, entry)
	return nil
}

func TestWriteRecordsEntryWithErrorMessage(t *testing.T) {
	sink := &fakeSink{}
	w := NewWriter(sink)

	err := w.Write(context.Background(), "dlq-1", "agg-1", "order.created", []byte("payload"), errors.New("boom"), 5)
	require.NoError(t, err)
	require.Len(t, sink.entries, 1)
	require.Equal(t, "boom", sink.entries[0].ErrorMessage)
	require.Equal(t, 5, sink.entries[0].FailureCount)
	require.False(t, sink.entries[0].FirstFailedAt.IsZero())
}
