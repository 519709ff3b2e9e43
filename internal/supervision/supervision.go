// Package supervision implements F2's top-level coordinator: it owns
// long-lived components (the CDC runtimes, the health aggregator), starts
// them in registration order and stops them all together by canceling
// their shared context, then waits for every one to return, the way
// the teacher's cmd/consumer/main.go manages its per-topic goroutines
// with a sync.WaitGroup and a signal channel, generalized into one
// reusable type instead of one hand-rolled main per process.
package supervision

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/boniface/scylladb-cdc-sub001/internal/logging"
)

// Component is a long-lived task the Supervisor owns. Run must block
// until ctx is canceled or the component fails, returning nil only on a
// clean, intentional stop.
type Component interface {
	Name() string
	Run(ctx context.Context) error
}

// Supervisor starts every registered Component in the order it was
// added and waits for all of them, canceling every other component's
// context as soon as any one returns a non-nil error or the context
// passed to Run is canceled — one failure brings down the group rather
// than limping along with a partially dead pipeline. Components are not
// stopped in any particular order.
type Supervisor struct {
	components []Component
}

// New constructs an empty Supervisor.
func New() *Supervisor {
	return &Supervisor{}
}

// Register adds a component to be started by Run, in registration order.
func (s *Supervisor) Register(c Component) {
	s.components = append(s.components, c)
}

// Run starts every registered component and blocks until the group stops,
// either because ctx was canceled (graceful shutdown, per spec §4.F2's
// Shutdown signal-then-wait contract) or because one component returned
// an error.
func (s *Supervisor) Run(ctx context.Context) error {
	group, groupCtx := errgroup.WithContext(ctx)
	logger := logging.WithComponent("supervisor")

	for _, c := range s.components {
		c := c
		group.Go(func() error {
			logger.Info().Str("component", c.Name()).Msg("component starting")
			err := c.Run(groupCtx)
			if err != nil && err != context.Canceled {
				logger.Error().Err(err).Str("component", c.Name()).Msg("component stopped with error")
				return err
			}
			logger.Info().Str("component", c.Name()).Msg("component stopped")
			return nil
		})
	}

	return group.Wait()
}
