package orderdomain

import (
	"github.com/boniface/scylladb-cdc-sub001/internal/command"
	"github.com/boniface/scylladb-cdc-sub001/internal/store"
)

// Handler is the concrete C4 handler type for orders.
type Handler = command.Handler[Order, Event, Command]

// NewHandler wires the generic command handler to the order aggregate's
// constructor, applier, and decision function.
func NewHandler(s *store.Store[Event], snapshots store.SnapshotSource[Order]) *Handler {
	return command.New(command.Options[Order, Event, Command]{
		Store:         s,
		Snapshots:     snapshots,
		Construct:     Construct,
		Apply:         Apply,
		Decide:        Decide,
		IsConstructor: IsConstructor,
	})
}
