// Package cassandra implements store.RawStore, snapshot.Backend,
// deadletter.Sink, projection.OffsetStore and cdc.RowSource against a
// Cassandra/Scylla cluster via gocql.
package cassandra

import (
	"context"
	"fmt"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"github.com/boniface/scylladb-cdc-sub001/internal/eventsourcing"
)

// session is the narrow slice of *gocql.Session the repository depends
// on, so integration tests can run against a real cluster while the rest
// of the engine unit-tests against fakes of the higher-level interfaces
// this package implements.
type session interface {
	Query(stmt string, values ...interface{}) *gocql.Query
	NewBatch(typ gocql.BatchType) *gocql.Batch
	ExecuteBatch(b *gocql.Batch) error
	ExecuteBatchCAS(b *gocql.Batch, dest ...interface{}) (applied bool, iter *gocql.Iter, err error)
	Close()
}

// Repository implements store.RawStore against event_store,
// aggregate_sequence, and outbox_messages.
type Repository struct {
	session      session
	outboxTTL    time.Duration
}

// NewRepository constructs a Repository. outboxTTL should match the
// CDC-enabled table's default_time_to_live (spec §3, ~24h).
func NewRepository(sess *gocql.Session, outboxTTL time.Duration) *Repository {
	return &Repository{session: sess, outboxTTL: outboxTTL}
}

// AppendEvents implements store.RawStore. Cassandra/Scylla only allows a
// CAS-conditioned batch to span a single partition, so the write is split
// in two: a single-partition CAS batch covering event_store and
// aggregate_sequence (both partitioned by aggregate_id) detects a
// concurrent writer racing the same expected_version, and a separate
// unconditional batch mirrors the events into outbox_messages (each row
// partitioned by its own generated id, so it could never share a CAS
// batch with the first one anyway). The outbox batch only runs once the
// CAS batch has won; a crash between the two leaves events durable with
// their outbox mirror missing, which is an accepted gap (see DESIGN.md).
func (r *Repository) AppendEvents(ctx context.Context, aggregateID string, expectedVersion int64, rows []eventsourcing.RawEnvelope, publishToOutbox bool) (int64, error) {
	if len(rows) == 0 {
		return expectedVersion, nil
	}

	casBatch := r.session.NewBatch(gocql.LoggedBatch).WithContext(ctx)
	outboxBatch := r.session.NewBatch(gocql.UnloggedBatch).WithContext(ctx)
	now := time.Now().UTC()
	newVersion := expectedVersion

	for i, row := range rows {
		seq := expectedVersion + int64(i) + 1
		row.SequenceNumber = seq
		newVersion = seq

		const insertEvent = `INSERT INTO event_store
			(aggregate_id, sequence_number, event_id, event_type, event_version, event_data, causation_id, correlation_id, timestamp)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

		if i == 0 {
			casBatch.Query(insertEvent+" IF NOT EXISTS",
				aggregateID, seq, row.EventID, row.EventType, row.EventVersion, []byte(row.EventData), nullableString(row.CausationID), row.CorrelationID, now)
		} else {
			casBatch.Query(insertEvent,
				aggregateID, seq, row.EventID, row.EventType, row.EventVersion, []byte(row.EventData), nullableString(row.CausationID), row.CorrelationID, now)
		}

		if publishToOutbox {
			const insertOutbox = `INSERT INTO outbox_messages
				(id, aggregate_id, event_id, event_type, event_version, payload, correlation_id, causation_id, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) USING TTL ?`
			outboxBatch.Query(insertOutbox,
				uuid.NewString(), aggregateID, row.EventID, row.EventType, row.EventVersion, []byte(row.EventData), row.CorrelationID, nullableString(row.CausationID), now, int(r.outboxTTL.Seconds()))
		}
	}

	const upsertPointer = `UPDATE aggregate_sequence SET current_sequence = ?, updated_at = ? WHERE aggregate_id = ?`
	casBatch.Query(upsertPointer, newVersion, now, aggregateID)

	var (
		existingAggregateID string
		existingSequence    int64
	)
	applied, iter, err := r.session.ExecuteBatchCAS(casBatch, &existingAggregateID, &existingSequence)
	if iter != nil {
		_ = iter.Close()
	}
	if err != nil {
		return 0, &eventsourcing.StorageError{Op: "append_events", Cause: err}
	}
	if !applied {
		observed, vErr := r.CurrentVersion(ctx, aggregateID)
		if vErr != nil {
			observed = existingSequence
		}
		return 0, &eventsourcing.VersionConflictError{
			AggregateID:     aggregateID,
			ExpectedVersion: expectedVersion,
			ObservedVersion: observed,
		}
	}

	if publishToOutbox {
		if err := r.session.ExecuteBatch(outboxBatch); err != nil {
			return 0, &eventsourcing.StorageError{Op: "append_events_outbox", Cause: err}
		}
	}

	return newVersion, nil
}

// LoadEvents returns events in ascending sequence order, starting after
// fromSequence.
func (r *Repository) LoadEvents(ctx context.Context, aggregateID string, fromSequence int64) ([]eventsourcing.RawEnvelope, error) {
	const query = `SELECT sequence_number, event_id, event_type, event_version, event_data, causation_id, correlation_id, timestamp
		FROM event_store WHERE aggregate_id = ? AND sequence_number > ? ORDER BY sequence_number ASC`

	iter := r.session.Query(query, aggregateID, fromSequence).WithContext(ctx).Iter()

	var out []eventsourcing.RawEnvelope
	var (
		seq           int64
		eventID       string
		eventType     string
		eventVersion  int
		data          []byte
		causationID   string
		correlationID string
		ts            time.Time
	)
	for iter.Scan(&seq, &eventID, &eventType, &eventVersion, &data, &causationID, &correlationID, &ts) {
		out = append(out, eventsourcing.RawEnvelope{
			AggregateID:    aggregateID,
			SequenceNumber: seq,
			EventID:        eventID,
			EventType:      eventType,
			EventVersion:   eventVersion,
			EventData:      append([]byte(nil), data...),
			CausationID:    causationID,
			CorrelationID:  correlationID,
			Timestamp:      ts,
		})
	}
	if err := iter.Close(); err != nil {
		return nil, &eventsourcing.StorageError{Op: "load_events", Cause: err}
	}
	return out, nil
}

// CurrentVersion reads the sequence pointer; returns 0 if absent.
func (r *Repository) CurrentVersion(ctx context.Context, aggregateID string) (int64, error) {
	const query = `SELECT current_sequence FROM aggregate_sequence WHERE aggregate_id = ?`
	var seq int64
	if err := r.session.Query(query, aggregateID).WithContext(ctx).Scan(&seq); err != nil {
		if err == gocql.ErrNotFound {
			return 0, nil
		}
		return 0, &eventsourcing.StorageError{Op: "current_version", Cause: err}
	}
	return seq, nil
}

// AggregateExists reports whether the aggregate has a sequence pointer.
func (r *Repository) AggregateExists(ctx context.Context, aggregateID string) (bool, error) {
	const query = `SELECT current_sequence FROM aggregate_sequence WHERE aggregate_id = ?`
	var seq int64
	if err := r.session.Query(query, aggregateID).WithContext(ctx).Scan(&seq); err != nil {
		if err == gocql.ErrNotFound {
			return false, nil
		}
		return false, &eventsourcing.StorageError{Op: "aggregate_exists", Cause: err}
	}
	return true, nil
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// NewSession builds a *gocql.Session from contact points, applying the
// sane defaults the rest of this repo expects (quorum consistency, a
// bounded connect timeout). It is the one place ClusterConfig is touched,
// mirroring the teacher's NewKafkaProducer/NewSchemaRegistryClient
// constructors that centralize client setup behind a narrow constructor.
func NewSession(hosts []string, keyspace string) (*gocql.Session, error) {
	cluster := gocql.NewCluster(hosts...)
	cluster.Keyspace = keyspace
	cluster.Consistency = gocql.Quorum
	cluster.Timeout = 5 * time.Second
	cluster.ConnectTimeout = 5 * time.Second
	sess, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("cassandra: create session: %w", err)
	}
	return sess, nil
}
