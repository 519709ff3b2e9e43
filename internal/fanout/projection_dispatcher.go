package fanout

import (
	"context"

	"github.com/boniface/scylladb-cdc-sub001/internal/eventsourcing"
	"github.com/boniface/scylladb-cdc-sub001/internal/projection"
)

// ProjectionDispatcher wraps a single C5 projection.Dispatcher as a
// RowConsumer. It is not a projection itself: it has no read model of its
// own, only the offset bookkeeping its wrapped projection.Dispatcher
// already provides. A failed delivery is left for the next CDC replay to
// retry, since the offset only advances on success.
type ProjectionDispatcher struct {
	dispatcher *projection.Dispatcher
}

// NewProjectionDispatcher constructs a ProjectionDispatcher.
func NewProjectionDispatcher(d *projection.Dispatcher) *ProjectionDispatcher {
	return &ProjectionDispatcher{dispatcher: d}
}

// Name implements RowConsumer, delegating to the wrapped projection's
// stable id.
func (p *ProjectionDispatcher) Name() string { return p.dispatcher.Name() }

// Consume implements RowConsumer.
func (p *ProjectionDispatcher) Consume(ctx context.Context, row eventsourcing.RawEnvelope) error {
	return p.dispatcher.Deliver(ctx, row)
}
