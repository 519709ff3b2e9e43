// Package fanout implements F3: the two built-in consumer kinds that
// receive every outbox row independently — the external broker publisher
// and the projection dispatcher — behind one shared interface so F1 can
// deliver to either without knowing which is which.
package fanout

import (
	"context"

	"github.com/boniface/scylladb-cdc-sub001/internal/eventsourcing"
)

// RowConsumer is what the CDC runtime (F1) delivers every outbox row to.
// A failure here is the consumer's own business: it does not affect
// sibling consumers (spec §4.F3, "a projection's failures do not affect
// other projections or the external publisher").
type RowConsumer interface {
	Name() string
	Consume(ctx context.Context, row eventsourcing.RawEnvelope) error
}
