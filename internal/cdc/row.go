// Package cdc implements F1: the CDC consumer runtime that streams the
// outbox table's change log and fans each inserted row out to a single
// registered consumer (an external publisher or a projection dispatcher),
// per spec §4.F1.
package cdc

import (
	"fmt"
	"time"

	"github.com/boniface/scylladb-cdc-sub001/internal/eventsourcing"
)

// Operation classifies the kind of change a CDC row represents. Only
// insertion is meaningful here: the outbox is append-only, so any other
// operation is a log artifact (e.g. a TTL expiry tombstone) that must be
// skipped rather than delivered.
type Operation int

const (
	OperationInsert Operation = iota
	OperationOther
)

// Position locates a row within a generation-aware CDC stream: Generation
// tracks topology changes, VNode identifies the stream/partition within a
// generation, and Offset is a monotonically increasing marker within that
// (Generation, VNode) pair. Each RowSource decides which parts of a
// Position it persists in Checkpoint; the cassandra CDCSource persists
// Generation and Offset only, not VNode.
type Position struct {
	Generation int64
	VNode      string
	Offset     string
}

// Row is one entry read off the CDC log, before it is known to be a valid
// outbox insert. Columns holds the raw outbox column values as read from
// the log; parseRow interprets them into an eventsourcing.RawEnvelope,
// failing with reason "parse" if aggregate_id, event_id, event_type,
// event_version or payload is missing or of the wrong type. A missing or
// mistyped correlation_id, causation_id or created_at leaves that field at
// its zero value instead.
type Row struct {
	Position  Position
	Operation Operation
	Columns   map[string]interface{}
}

// parseRow maps a CDC row's outbox columns onto a RawEnvelope, per spec
// §4.F1: "each CDC row is mapped to an envelope by reading the outbox
// columns (id, aggregate_id, event_id, event_type, event_version,
// payload, causation_id, correlation_id, created_at)".
func parseRow(row Row) (eventsourcing.RawEnvelope, error) {
	aggregateID, err := stringColumn(row.Columns, "aggregate_id")
	if err != nil {
		return eventsourcing.RawEnvelope{}, err
	}
	eventID, err := stringColumn(row.Columns, "event_id")
	if err != nil {
		return eventsourcing.RawEnvelope{}, err
	}
	eventType, err := stringColumn(row.Columns, "event_type")
	if err != nil {
		return eventsourcing.RawEnvelope{}, err
	}
	eventVersion, err := intColumn(row.Columns, "event_version")
	if err != nil {
		return eventsourcing.RawEnvelope{}, err
	}
	payload, err := bytesColumn(row.Columns, "payload")
	if err != nil {
		return eventsourcing.RawEnvelope{}, err
	}
	correlationID, _ := stringColumn(row.Columns, "correlation_id")
	causationID, _ := stringColumn(row.Columns, "causation_id")
	createdAt, _ := timeColumn(row.Columns, "created_at")

	return eventsourcing.RawEnvelope{
		AggregateID:   aggregateID,
		EventID:       eventID,
		EventType:     eventType,
		EventVersion:  eventVersion,
		EventData:     payload,
		CausationID:   causationID,
		CorrelationID: correlationID,
		Timestamp:     createdAt,
	}, nil
}

func stringColumn(cols map[string]interface{}, key string) (string, error) {
	v, ok := cols[key]
	if !ok {
		return "", fmt.Errorf("cdc: parse: missing column %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("cdc: parse: column %q is not a string", key)
	}
	return s, nil
}

func bytesColumn(cols map[string]interface{}, key string) ([]byte, error) {
	v, ok := cols[key]
	if !ok {
		return nil, fmt.Errorf("cdc: parse: missing column %q", key)
	}
	switch b := v.(type) {
	case []byte:
		return b, nil
	case string:
		return []byte(b), nil
	default:
		return nil, fmt.Errorf("cdc: parse: column %q is not bytes", key)
	}
}

func intColumn(cols map[string]interface{}, key string) (int, error) {
	v, ok := cols[key]
	if !ok {
		return 0, fmt.Errorf("cdc: parse: missing column %q", key)
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("cdc: parse: column %q is not an integer", key)
	}
}

func timeColumn(cols map[string]interface{}, key string) (time.Time, error) {
	v, ok := cols[key]
	if !ok {
		return time.Time{}, fmt.Errorf("cdc: parse: missing column %q", key)
	}
	t, ok := v.(time.Time)
	if !ok {
		return time.Time{}, fmt.Errorf("cdc: parse: column %q is not a timestamp", key)
	}
	return t, nil
}
