package cassandra

import (
	"context"
	"time"

	"github.com/gocql/gocql"

	"github.com/boniface/scylladb-cdc-sub001/internal/eventsourcing"
)

// SnapshotRepository implements snapshot.Backend against
// aggregate_snapshots.
type SnapshotRepository struct {
	session session
}

// NewSnapshotRepository constructs a SnapshotRepository sharing a
// cluster session with the event store.
func NewSnapshotRepository(sess *gocql.Session) *SnapshotRepository {
	return &SnapshotRepository{session: sess}
}

// Save writes one row keyed by (aggregate_id, sequence_number).
func (r *SnapshotRepository) Save(ctx context.Context, aggregateID string, sequence int64, formatVersion int, data []byte, takenAt time.Time) error {
	const stmt = `INSERT INTO aggregate_snapshots (aggregate_id, sequence_number, data, format_version, taken_at)
		VALUES (?, ?, ?, ?, ?)`
	if err := r.session.Query(stmt, aggregateID, sequence, data, formatVersion, takenAt).WithContext(ctx).Exec(); err != nil {
		return &eventsourcing.StorageError{Op: "save_snapshot", Cause: err}
	}
	return nil
}

// LoadLatest returns the most recent snapshot row, relying on the
// table's CLUSTERING ORDER BY (sequence_number DESC) to avoid an ALLOW
// FILTERING scan.
func (r *SnapshotRepository) LoadLatest(ctx context.Context, aggregateID string) ([]byte, int64, int, bool, error) {
	const query = `SELECT sequence_number, data, format_version FROM aggregate_snapshots WHERE aggregate_id = ? LIMIT 1`
	var (
		sequence      int64
		data          []byte
		formatVersion int
	)
	if err := r.session.Query(query, aggregateID).WithContext(ctx).Scan(&sequence, &data, &formatVersion); err != nil {
		if err == gocql.ErrNotFound {
			return nil, 0, 0, false, nil
		}
		return nil, 0, 0, false, &eventsourcing.StorageError{Op: "load_snapshot", Cause: err}
	}
	return data, sequence, formatVersion, true, nil
}

// CleanupOlderThan removes all but the N most recent snapshot rows for an
// aggregate. Reads the full partition (it is already bounded to a few
// dozen rows at most given the snapshot cadence) and deletes anything
// past the Nth.
func (r *SnapshotRepository) CleanupOlderThan(ctx context.Context, aggregateID string, keepN int) error {
	const query = `SELECT sequence_number FROM aggregate_snapshots WHERE aggregate_id = ?`
	iter := r.session.Query(query, aggregateID).WithContext(ctx).Iter()

	var sequences []int64
	var seq int64
	for iter.Scan(&seq) {
		sequences = append(sequences, seq)
	}
	if err := iter.Close(); err != nil {
		return &eventsourcing.StorageError{Op: "cleanup_snapshots", Cause: err}
	}
	if len(sequences) <= keepN {
		return nil
	}

	batch := r.session.NewBatch(gocql.UnloggedBatch).WithContext(ctx)
	for _, old := range sequences[keepN:] {
		batch.Query(`DELETE FROM aggregate_snapshots WHERE aggregate_id = ? AND sequence_number = ?`, aggregateID, old)
	}
	if err := r.session.ExecuteBatch(batch); err != nil {
		return &eventsourcing.StorageError{Op: "cleanup_snapshots", Cause: err}
	}
	return nil
}
