// Package deadletter implements L5: a persistent record of messages that
// exhausted retry or were rejected outright, independent of which
// consumer produced them.
package deadletter

import (
	"context"
	"time"

	"github.com/boniface/scylladb-cdc-sub001/internal/metrics"
)

// Entry is one terminally-failed message.
type Entry struct {
	ID            string
	AggregateID   string
	EventType     string
	Payload       []byte
	ErrorMessage  string
	FailureCount  int
	FirstFailedAt time.Time
	LastFailedAt  time.Time
}

// Sink persists dead-letter entries. The cassandra-backed implementation
// lives in internal/store/cassandra.
type Sink interface {
	Record(ctx context.Context, entry Entry) error
}

// Writer is the façade consumers use: it stamps timestamps, records
// metrics, and delegates storage to a Sink.
type Writer struct {
	sink Sink
}

// NewWriter constructs a Writer.
func NewWriter(sink Sink) *Writer {
	return &Writer{sink: sink}
}

// Write records one failure. failureCount is the total number of attempts
// made before giving up (1 for a parse failure with no retry).
func (w *Writer) Write(ctx context.Context, id, aggregateID, eventType string, payload []byte, cause error, failureCount int) error {
	now := time.Now().UTC()
	errMsg := ""
	if cause != nil {
		errMsg = cause.Error()
	}
	entry := Entry{
		ID:            id,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       payload,
		ErrorMessage:  errMsg,
		FailureCount:  failureCount,
		FirstFailedAt: now,
		LastFailedAt:  now,
	}
	if err := w.sink.Record(ctx, entry); err != nil {
		return err
	}
	metrics.RecordDLQMessage(eventType)
	return nil
}
