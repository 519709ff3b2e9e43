package fanout

import (
	"context"

	"github.com/boniface/scylladb-cdc-sub001/internal/broker"
	"github.com/boniface/scylladb-cdc-sub001/internal/deadletter"
	"github.com/boniface/scylladb-cdc-sub001/internal/eventsourcing"
)

// ExternalPublisher wraps the broker adapter (L4) as a RowConsumer: every
// outbox row is published to topic=event_type, key=aggregate_id. On retry
// exhaustion or an open breaker, the row is routed to the dead-letter
// queue instead of blocking the rest of the fan-out.
type ExternalPublisher struct {
	publisher *broker.Publisher
	dlq       *deadletter.Writer
}

// NewExternalPublisher constructs an ExternalPublisher.
func NewExternalPublisher(publisher *broker.Publisher, dlq *deadletter.Writer) *ExternalPublisher {
	return &ExternalPublisher{publisher: publisher, dlq: dlq}
}

// Name implements RowConsumer.
func (p *ExternalPublisher) Name() string { return "external-publisher" }

// Consume implements RowConsumer.
func (p *ExternalPublisher) Consume(ctx context.Context, row eventsourcing.RawEnvelope) error {
	attempts, err := p.publisher.Publish(ctx, broker.Message{
		Topic:         row.EventType,
		Key:           []byte(row.AggregateID),
		Value:         row.EventData,
		EventID:       row.EventID,
		CorrelationID: row.CorrelationID,
		CausationID:   row.CausationID,
		EventVersion:  row.EventVersion,
	})
	if err == nil {
		return nil
	}

	if dlqErr := p.dlq.Write(ctx, row.EventID, row.AggregateID, row.EventType, row.EventData, err, attempts); dlqErr != nil {
		return dlqErr
	}
	return err
}
