package cdc

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/boniface/scylladb-cdc-sub001/internal/deadletter"
	"github.com/boniface/scylladb-cdc-sub001/internal/fanout"
	"github.com/boniface/scylladb-cdc-sub001/internal/logging"
	"github.com/boniface/scylladb-cdc-sub001/internal/metrics"
)

// RowSource is the backend contract: a generation-aware reader bound to a
// single consumer's checkpoint. Next blocks until a row is available (or
// ctx is done); Checkpoint durably records that rows up to and including
// pos have been read, so a restart resumes without replaying the whole
// log.
type RowSource interface {
	Next(ctx context.Context) (Row, error)
	Checkpoint(ctx context.Context, pos Position) error
}

// Runtime drives one registered consumer against its own RowSource.
// Spec §4.F1 scopes "per logical consumer" reading and checkpointing
// independently, so one Runtime exists per consumer rather than one
// shared reader fanning out to all of them.
type Runtime struct {
	source   RowSource
	consumer fanout.RowConsumer
	dlq      *deadletter.Writer
	logger   zerolog.Logger
}

// NewRuntime constructs a Runtime for one consumer.
func NewRuntime(source RowSource, consumer fanout.RowConsumer, dlq *deadletter.Writer) *Runtime {
	return &Runtime{
		source:   source,
		consumer: consumer,
		dlq:      dlq,
		logger:   logging.WithConsumer(consumer.Name()),
	}
}

// Name identifies this runtime by its consumer's name, so it can be
// registered directly with a supervision.Supervisor.
func (r *Runtime) Name() string { return r.consumer.Name() }

// Run blocks, delivering rows to the consumer until ctx is canceled. The
// checkpoint advances after every row regardless of consumer outcome:
// a consumer failure is the consumer's own business (DLQ routing,
// offset-guarded replay), not a reason to re-read the physical log from
// an earlier position. Bounded duplicate delivery across a restart is
// expected and consumers must tolerate it.
func (r *Runtime) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		row, err := r.source.Next(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			r.logger.Error().Err(err).Msg("cdc source read failed")
			continue
		}

		if row.Operation != OperationInsert {
			r.advanceCheckpoint(ctx, row.Position)
			continue
		}

		r.deliver(ctx, row)
		r.advanceCheckpoint(ctx, row.Position)
	}
}

func (r *Runtime) deliver(ctx context.Context, row Row) {
	start := time.Now()

	env, err := parseRow(row)
	if err != nil {
		metrics.RecordCDCFailed("unknown", "parse")
		r.writeDLQ(ctx, "", "", "", err)
		return
	}

	consumeErr := r.consumer.Consume(ctx, env)
	metrics.ObserveCDCProcessingDuration(env.EventType, time.Since(start).Seconds())
	if consumeErr != nil {
		metrics.RecordCDCFailed(env.EventType, "consume")
		r.logger.Warn().Err(consumeErr).Str("event_type", env.EventType).Str("aggregate_id", env.AggregateID).Msg("consumer rejected row")
		return
	}
	metrics.RecordCDCProcessed(env.EventType)
}

func (r *Runtime) writeDLQ(ctx context.Context, aggregateID, eventType string, payload []byte, cause error) {
	if err := r.dlq.Write(ctx, uuid.NewString(), aggregateID, eventType, payload, cause, 1); err != nil {
		r.logger.Error().Err(err).Msg("failed to write parse failure to dead-letter queue")
	}
}

func (r *Runtime) advanceCheckpoint(ctx context.Context, pos Position) {
	if err := r.source.Checkpoint(ctx, pos); err != nil {
		r.logger.Error().Err(err).Msg("failed to checkpoint cdc position")
	}
}
