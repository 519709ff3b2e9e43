// Package summary is the example C5 projection: a denormalized
// per-order row holding the order's customer id and latest status, built
// by folding the order aggregate's event stream. It keeps no per-customer
// counts or totals.
package summary

import (
	"context"

	"github.com/boniface/scylladb-cdc-sub001/internal/eventsourcing"
	"github.com/boniface/scylladb-cdc-sub001/internal/orderdomain"
)

// Store is the read-model backend this projection mutates. Every method
// is a plain upsert keyed by order_id, so applying the same row twice
// leaves the read model unchanged (replay idempotence, on top of the
// dispatcher's offset guard).
type Store interface {
	UpsertOrder(ctx context.Context, orderID, customerID string) error
	RecordOrderStatus(ctx context.Context, orderID string, status orderdomain.Status) error
}

// Projection implements projection.Projection for the customer order
// summary read model.
type Projection struct {
	store Store
}

// New constructs a Projection bound to a read-model store.
func New(store Store) *Projection {
	return &Projection{store: store}
}

// Name is this projection's stable id, used as its offset key.
func (p *Projection) Name() string { return "customer-order-summary" }

// HandleEvent decodes the order event and upserts the summary row. Only
// OrderCreated writes the order's customer id; every event updates the
// order's last-known status, both as plain upserts so a replayed row
// leaves the read model unchanged.
func (p *Projection) HandleEvent(ctx context.Context, row eventsourcing.RawEnvelope) error {
	env, err := eventsourcing.Decode[orderdomain.Event](row)
	if err != nil {
		return err
	}

	switch {
	case env.EventData.Created != nil:
		if err := p.store.UpsertOrder(ctx, env.AggregateID, env.EventData.Created.CustomerID); err != nil {
			return err
		}
		return p.store.RecordOrderStatus(ctx, env.AggregateID, orderdomain.StatusCreated)
	case env.EventData.Confirmed != nil:
		return p.store.RecordOrderStatus(ctx, env.AggregateID, orderdomain.StatusConfirmed)
	case env.EventData.Shipped != nil:
		return p.store.RecordOrderStatus(ctx, env.AggregateID, orderdomain.StatusShipped)
	case env.EventData.Delivered != nil:
		return p.store.RecordOrderStatus(ctx, env.AggregateID, orderdomain.StatusDelivered)
	default:
		return nil
	}
}
