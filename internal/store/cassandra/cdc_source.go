package cassandra

import (
	"context"
	"encoding/hex"
	"time"

	"github.com/gocql/gocql"

	"github.com/boniface/scylladb-cdc-sub001/internal/cdc"
	"github.com/boniface/scylladb-cdc-sub001/internal/eventsourcing"
)

// Scylla's CDC log companion table exposes each change as a row in
// <table>_scylla_cdc_log, keyed by a per-stream cdc$stream_id and ordered
// by cdc$time (a timeuuid). cdc$operation distinguishes row kinds;
// PreImage/Update/Insert/RowDelete/PartitionDelete map to the tinyint
// values below (0-4), of which only insert (2) is meaningful here since
// the outbox is append-only.
const (
	cdcOperationPreImage        = 0
	cdcOperationUpdate          = 1
	cdcOperationInsert          = 2
	cdcOperationRowDelete       = 3
	cdcOperationPartitionDelete = 4
)

const cdcLogTable = "outbox_messages_scylla_cdc_log"

// cdcCheckpointPartition is the partition_id of CDC checkpoint rows in
// projection_offsets, kept apart from globalPartition so a projection's
// offset row and the CDC checkpoint of the consumer that wraps it (both
// keyed by the same name) never overwrite each other.
const cdcCheckpointPartition = "cdc"

// CDCSource implements cdc.RowSource by polling outbox_messages' CDC log
// companion table. It checkpoints into projection_offsets, keyed by this
// consumer's name so independent consumers make independent progress
// through the log. Its position is a single generation plus the last
// cdc$time seen across all streams: the generation is the one loaded from
// the checkpoint (1 when there is none) and never changes while running,
// the source does not rebind when the cluster's topology generation
// changes, and the stream (VNode) of a row is reported in its Position but
// is not checkpointed.
type CDCSource struct {
	session      session
	consumerName string
	pollInterval time.Duration

	generation int64
	lastTime   gocql.UUID
	buffered   []cdc.Row
}

// NewCDCSource constructs a CDCSource for one consumer, resuming from its
// last checkpoint if one exists.
func NewCDCSource(ctx context.Context, sess *gocql.Session, consumerName string, pollInterval time.Duration) (*CDCSource, error) {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	s := &CDCSource{session: sess, consumerName: consumerName, pollInterval: pollInterval, generation: 1}

	const query = `SELECT last_sequence, last_event_id FROM projection_offsets WHERE projection_name = ? AND partition_id = ?`
	var (
		generation int64
		lastOffset string
	)
	if err := sess.Query(query, consumerName, cdcCheckpointPartition).WithContext(ctx).Scan(&generation, &lastOffset); err != nil {
		if err != gocql.ErrNotFound {
			return nil, &eventsourcing.StorageError{Op: "load_cdc_checkpoint", Cause: err}
		}
		return s, nil
	}
	s.generation = generation
	if parsed, err := gocql.ParseUUID(lastOffset); err == nil {
		s.lastTime = parsed
	}
	return s, nil
}

// Next implements cdc.RowSource. It polls the log table for rows newer
// than the last seen position, sleeping between empty polls instead of
// busy-looping, and returns rows one at a time from an internal buffer.
func (s *CDCSource) Next(ctx context.Context) (cdc.Row, error) {
	for len(s.buffered) == 0 {
		if err := ctx.Err(); err != nil {
			return cdc.Row{}, err
		}
		if err := s.poll(ctx); err != nil {
			return cdc.Row{}, err
		}
		if len(s.buffered) == 0 {
			select {
			case <-ctx.Done():
				return cdc.Row{}, ctx.Err()
			case <-time.After(s.pollInterval):
			}
		}
	}

	row := s.buffered[0]
	s.buffered = s.buffered[1:]
	return row, nil
}

func (s *CDCSource) poll(ctx context.Context) error {
	const query = `SELECT "cdc$stream_id", "cdc$time", "cdc$operation", aggregate_id, event_id, event_type, event_version, payload, correlation_id, causation_id, created_at
		FROM ` + cdcLogTable + ` WHERE "cdc$time" > ? ALLOW FILTERING`

	iter := s.session.Query(query, s.lastTime).WithContext(ctx).Iter()

	row := make(map[string]interface{})
	for iter.MapScan(row) {
		s.appendRow(row)
		row = make(map[string]interface{})
	}
	return iter.Close()
}

func (s *CDCSource) appendRow(raw map[string]interface{}) {
	streamID, _ := raw["cdc$stream_id"].([]byte)
	cdcTime, _ := raw["cdc$time"].(gocql.UUID)
	op := tinyintColumn(raw["cdc$operation"])

	operation := cdc.OperationOther
	if op == cdcOperationInsert {
		operation = cdc.OperationInsert
	}

	columns := map[string]interface{}{}
	for _, key := range []string{"aggregate_id", "event_id", "event_type", "event_version", "payload", "correlation_id", "causation_id", "created_at"} {
		if v, ok := raw[key]; ok {
			columns[key] = v
		}
	}

	s.lastTime = cdcTime
	s.buffered = append(s.buffered, cdc.Row{
		Position: cdc.Position{
			Generation: s.generation,
			VNode:      hex.EncodeToString(streamID),
			Offset:     cdcTime.String(),
		},
		Operation: operation,
		Columns:   columns,
	})
}

// tinyintColumn widens a CQL tinyint column, which gocql decodes as Go
// int8, into an int, the same way cdc.intColumn widens int/int32/int64
// columns elsewhere in this engine. A missing or mistyped value maps to 0
// (cdcOperationPreImage), which appendRow marks as cdc.OperationOther and
// cdc.Runtime then skips.
func tinyintColumn(v interface{}) int {
	switch n := v.(type) {
	case int8:
		return int(n)
	case int16:
		return int(n)
	case int32:
		return int(n)
	case int64:
		return int(n)
	case int:
		return n
	default:
		return 0
	}
}

// Checkpoint implements cdc.RowSource, persisting the position into
// projection_offsets under this consumer's name.
func (s *CDCSource) Checkpoint(ctx context.Context, pos cdc.Position) error {
	const stmt = `UPDATE projection_offsets SET last_sequence = ?, last_event_id = ?, last_processed_at = ? WHERE projection_name = ? AND partition_id = ?`
	if err := s.session.Query(stmt, pos.Generation, pos.Offset, time.Now().UTC(), s.consumerName, cdcCheckpointPartition).WithContext(ctx).Exec(); err != nil {
		return &eventsourcing.StorageError{Op: "checkpoint_cdc_position", Cause: err}
	}
	return nil
}
