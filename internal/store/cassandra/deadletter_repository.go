package cassandra

import (
	"context"

	"github.com/gocql/gocql"

	"github.com/boniface/scylladb-cdc-sub001/internal/deadletter"
	"github.com/boniface/scylladb-cdc-sub001/internal/eventsourcing"
)

// DeadLetterRepository implements deadletter.Sink against
// dead_letter_queue.
type DeadLetterRepository struct {
	session session
}

// NewDeadLetterRepository constructs a DeadLetterRepository.
func NewDeadLetterRepository(sess *gocql.Session) *DeadLetterRepository {
	return &DeadLetterRepository{session: sess}
}

// Record implements deadletter.Sink.
func (r *DeadLetterRepository) Record(ctx context.Context, entry deadletter.Entry) error {
	const stmt = `INSERT INTO dead_letter_queue
		(id, aggregate_id, event_type, payload, error_message, failure_count, first_failed_at, last_failed_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if err := r.session.Query(stmt,
		entry.ID, entry.AggregateID, entry.EventType, entry.Payload, entry.ErrorMessage,
		entry.FailureCount, entry.FirstFailedAt, entry.LastFailedAt, entry.FirstFailedAt,
	).WithContext(ctx).Exec(); err != nil {
		return &eventsourcing.StorageError{Op: "record_dead_letter", Cause: err}
	}
	return nil
}
