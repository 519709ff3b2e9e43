package summary

import (
	"context"
	"time"

	"github.com/gocql/gocql"

	"github.com/boniface/scylladb-cdc-sub001/internal/eventsourcing"
	"github.com/boniface/scylladb-cdc-sub001/internal/orderdomain"
)

type session interface {
	Query(stmt string, values ...interface{}) *gocql.Query
}

// CassandraStore implements Store against customer_order_summary.
type CassandraStore struct {
	session session
}

// NewCassandraStore constructs a CassandraStore.
func NewCassandraStore(sess *gocql.Session) *CassandraStore {
	return &CassandraStore{session: sess}
}

// UpsertOrder implements Store.
func (s *CassandraStore) UpsertOrder(ctx context.Context, orderID, customerID string) error {
	const stmt = `INSERT INTO customer_order_summary (order_id, customer_id, status, updated_at) VALUES (?, ?, ?, ?)`
	if err := s.session.Query(stmt, orderID, customerID, string(orderdomain.StatusCreated), time.Now().UTC()).WithContext(ctx).Exec(); err != nil {
		return &eventsourcing.StorageError{Op: "upsert_order_summary", Cause: err}
	}
	return nil
}

// RecordOrderStatus implements Store.
func (s *CassandraStore) RecordOrderStatus(ctx context.Context, orderID string, status orderdomain.Status) error {
	const stmt = `UPDATE customer_order_summary SET status = ?, updated_at = ? WHERE order_id = ?`
	if err := s.session.Query(stmt, string(status), time.Now().UTC(), orderID).WithContext(ctx).Exec(); err != nil {
		return &eventsourcing.StorageError{Op: "update_order_summary_status", Cause: err}
	}
	return nil
}
