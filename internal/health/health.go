// Package health implements F2's health aggregation: each registered
// component reports its own Status on demand, and an Aggregator merges
// them on a ticker into one system-wide Status, the worst of its
// children winning.
package health

import (
	"context"
	"sync"
	"time"

	"github.com/boniface/scylladb-cdc-sub001/internal/logging"
)

// Status is the health of one component or the merged system.
type Status int

const (
	Healthy Status = iota
	Degraded
	Unhealthy
)

func (s Status) String() string {
	switch s {
	case Healthy:
		return "healthy"
	case Degraded:
		return "degraded"
	case Unhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

// worse returns whichever of a, b represents the less healthy state.
func worse(a, b Status) Status {
	if b > a {
		return b
	}
	return a
}

// Checker reports the current health of one component. Check must
// return promptly; it is called on a ticker, not on the request path.
type Checker interface {
	Name() string
	Check(ctx context.Context) Status
}

// Report is the merged result of one aggregation pass.
type Report struct {
	Overall    Status
	Components map[string]Status
	At         time.Time
}

// Aggregator polls registered Checkers on its own ticker and exposes the
// most recent merged Report. Component-level polling defaults to 10s and
// the exposed report is refreshed at the same cadence; a coarser ~30s
// system-level view is just Snapshot() read less often by the caller.
type Aggregator struct {
	interval time.Duration
	checkers []Checker

	mu     sync.RWMutex
	latest Report
}

// NewAggregator constructs an Aggregator with the given poll interval,
// defaulting to 10s per spec §4.F2's component-check cadence.
func NewAggregator(interval time.Duration) *Aggregator {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Aggregator{
		interval: interval,
		latest:   Report{Overall: Healthy, Components: map[string]Status{}, At: time.Time{}},
	}
}

// Register adds a Checker to be polled. Must be called before Run starts.
func (a *Aggregator) Register(c Checker) {
	a.checkers = append(a.checkers, c)
}

// Name implements supervision.Component.
func (a *Aggregator) Name() string { return "health-aggregator" }

// Run implements supervision.Component, polling on a ticker until ctx is
// canceled.
func (a *Aggregator) Run(ctx context.Context) error {
	logger := logging.WithComponent("health")
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	a.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			a.poll(ctx)
			report := a.Snapshot()
			if report.Overall != Healthy {
				logger.Warn().Str("status", report.Overall.String()).Msg("system health degraded")
			}
		}
	}
}

func (a *Aggregator) poll(ctx context.Context) {
	components := make(map[string]Status, len(a.checkers))
	overall := Healthy
	for _, c := range a.checkers {
		status := c.Check(ctx)
		components[c.Name()] = status
		overall = worse(overall, status)
	}

	a.mu.Lock()
	a.latest = Report{Overall: overall, Components: components, At: time.Now().UTC()}
	a.mu.Unlock()
}

// Snapshot returns the most recent merged Report.
func (a *Aggregator) Snapshot() Report {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.latest
}
