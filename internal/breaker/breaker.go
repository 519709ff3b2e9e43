// Package breaker implements L2: a circuit breaker around downstream
// calls (the broker, external services), wrapping sony/gobreaker and
// translating its three-state model into the spec's Closed/Open/Half-Open
// vocabulary and metrics.
package breaker

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"

	"github.com/boniface/scylladb-cdc-sub001/internal/metrics"
)

// ErrCircuitOpen is returned when a call fails fast because the breaker is
// open, aliasing gobreaker's own sentinel so callers can errors.Is against
// either.
var ErrCircuitOpen = gobreaker.ErrOpenState

// State mirrors spec §4.L2's three states, with values matching the
// circuit_breaker_state gauge (0=closed, 1=half-open, 2=open). The
// gobreaker states are mapped onto these explicitly, in State() and in
// stateGaugeValue.
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

// Config configures a Breaker's transition thresholds.
type Config struct {
	Name             string
	FailureThreshold uint32
	Timeout          time.Duration
	SuccessThreshold uint32
}

// Breaker wraps a gobreaker.CircuitBreaker, recording state and
// transition metrics via OnStateChange.
type Breaker struct {
	cb *gobreaker.CircuitBreaker
}

// New constructs a Breaker. Closed->Open fires after FailureThreshold
// consecutive failures; Open->Half-Open after Timeout; Half-Open->Closed
// after SuccessThreshold consecutive successes; Half-Open->Open on any
// failure (gobreaker's default half-open behavior, which matches spec
// §4.L2 exactly).
func New(cfg Config) *Breaker {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.SuccessThreshold,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.SetCircuitBreakerState(name, stateGaugeValue(to))
			metrics.RecordCircuitBreakerTransition(name, from.String(), to.String())
		},
	}
	return &Breaker{cb: gobreaker.NewCircuitBreaker(settings)}
}

// Execute runs fn through the breaker. If the breaker is open, fn is not
// called and ErrCircuitOpen is returned.
func (b *Breaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, fn(ctx)
	})
	if err != nil && errors.Is(err, gobreaker.ErrOpenState) {
		return ErrCircuitOpen
	}
	return err
}

// State returns the breaker's current state in spec vocabulary.
func (b *Breaker) State() State {
	switch b.cb.State() {
	case gobreaker.StateOpen:
		return StateOpen
	case gobreaker.StateHalfOpen:
		return StateHalfOpen
	default:
		return StateClosed
	}
}

func stateGaugeValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
