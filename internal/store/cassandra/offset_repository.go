package cassandra

import (
	"context"
	"time"

	"github.com/gocql/gocql"

	"github.com/boniface/scylladb-cdc-sub001/internal/eventsourcing"
)

// globalPartition is the partition_id used by projection.OffsetStore rows,
// one row per projection. CDCSource checkpoints share the
// projection_offsets table, keyed by (projection_name, partition_id), but
// use cdcCheckpointPartition, one row per consumer.
const globalPartition = "-"

// OffsetRepository implements projection.OffsetStore against
// projection_offsets.
type OffsetRepository struct {
	session session
}

// NewOffsetRepository constructs an OffsetRepository.
func NewOffsetRepository(sess *gocql.Session) *OffsetRepository {
	return &OffsetRepository{session: sess}
}

// GetOffset implements projection.OffsetStore.
func (r *OffsetRepository) GetOffset(ctx context.Context, projectionName string) (int64, string, bool, error) {
	const query = `SELECT last_sequence, last_event_id FROM projection_offsets WHERE projection_name = ? AND partition_id = ?`
	var (
		seq     int64
		eventID string
	)
	if err := r.session.Query(query, projectionName, globalPartition).WithContext(ctx).Scan(&seq, &eventID); err != nil {
		if err == gocql.ErrNotFound {
			return 0, "", false, nil
		}
		return 0, "", false, &eventsourcing.StorageError{Op: "get_offset", Cause: err}
	}
	return seq, eventID, true, nil
}

// SaveOffset implements projection.OffsetStore.
func (r *OffsetRepository) SaveOffset(ctx context.Context, projectionName string, sequence int64, eventID string) error {
	const stmt = `UPDATE projection_offsets SET last_sequence = ?, last_event_id = ?, last_processed_at = ? WHERE projection_name = ? AND partition_id = ?`
	if err := r.session.Query(stmt, sequence, eventID, time.Now().UTC(), projectionName, globalPartition).WithContext(ctx).Exec(); err != nil {
		return &eventsourcing.StorageError{Op: "save_offset", Cause: err}
	}
	return nil
}
