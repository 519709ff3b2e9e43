// Package retry implements L1: a retry policy wrapping avast/retry-go,
// translating its attempt/callback model into the spec's
// Success/RetriableFailure/PermanentFailure classification and into L3
// metrics.
package retry

import (
	"context"
	"time"

	retrygo "github.com/avast/retry-go/v4"

	"github.com/boniface/scylladb-cdc-sub001/internal/metrics"
)

// Outcome classifies how an operation ended, per spec §4.L1.
type Outcome int

const (
	Success Outcome = iota
	RetriableFailure
	PermanentFailure
)

// Policy is a named, reusable retry configuration.
type Policy struct {
	operation    string
	maxAttempts  uint
	initialDelay time.Duration
	maxDelay     time.Duration
	multiplier   float64
}

// Aggressive matches spec §4.L1: 5 attempts, 100ms initial delay, 500ms
// cap.
func Aggressive(operation string) Policy {
	return Policy{operation: operation, maxAttempts: 5, initialDelay: 100 * time.Millisecond, maxDelay: 500 * time.Millisecond, multiplier: 2}
}

// Conservative matches spec §4.L1: 3 attempts, 1s initial delay, 10s cap.
func Conservative(operation string) Policy {
	return Policy{operation: operation, maxAttempts: 3, initialDelay: time.Second, maxDelay: 10 * time.Second, multiplier: 2}
}

// NoRetry is a single-attempt policy: useful where the caller's own loop
// already provides retrying (e.g. a test driving a breaker through
// repeated calls) and an extra retry layer would only obscure it.
func NoRetry(operation string) Policy {
	return Policy{operation: operation, maxAttempts: 1, initialDelay: time.Millisecond, maxDelay: time.Millisecond, multiplier: 1}
}

// WithMaxAttempts returns a copy of p with its attempt count overridden,
// leaving the preset's delay shape untouched. Used by configuration
// layering to let an operator tune attempt counts without forking the
// named preset.
func (p Policy) WithMaxAttempts(attempts uint) Policy {
	p.maxAttempts = attempts
	return p
}

// PermanentError marks err as not worth retrying; Do stops immediately and
// reports PermanentFailure instead of exhausting attempts.
func PermanentError(err error) error {
	if err == nil {
		return nil
	}
	return retrygo.Unrecoverable(err)
}

// Do runs fn under the policy, recording per-attempt, success, and
// failure metrics labeled by the policy's operation name. It returns the
// outcome classification, the total number of attempts made, and the
// final error (nil on success). Callers that route a failure to a
// dead-letter sink should report this attempt count as the failure count
// instead of assuming a fixed number.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) (Outcome, int, error) {
	attempt := 0
	permanent := false
	err := retrygo.Do(
		func() error {
			attempt++
			metrics.RecordRetryAttempt(p.operation, attempt)
			fnErr := fn(ctx)
			// retry-go strips the unrecoverable marker from the error it
			// returns, so the classification is taken from the attempt's
			// own error here.
			permanent = fnErr != nil && !retrygo.IsRecoverable(fnErr)
			return fnErr
		},
		retrygo.Context(ctx),
		retrygo.Attempts(p.maxAttempts),
		retrygo.Delay(p.initialDelay),
		retrygo.MaxDelay(p.maxDelay),
		retrygo.DelayType(retrygo.BackOffDelay),
		retrygo.LastErrorOnly(true),
	)
	if err == nil {
		metrics.RecordRetrySuccess(p.operation)
		return Success, attempt, nil
	}

	metrics.RecordRetryFailure(p.operation)
	if permanent {
		return PermanentFailure, attempt, err
	}
	return RetriableFailure, attempt, err
}
