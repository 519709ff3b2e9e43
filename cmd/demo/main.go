// Command demo drives the order aggregate's full lifecycle against a
// real store, printing the version reached after each step.
// It exists to exercise the write path end to end without standing up
// the CDC fan-out side, the way a smoke-test CLI would.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/boniface/scylladb-cdc-sub001/internal/config"
	"github.com/boniface/scylladb-cdc-sub001/internal/logging"
	"github.com/boniface/scylladb-cdc-sub001/internal/orderdomain"
	"github.com/boniface/scylladb-cdc-sub001/internal/snapshot"
	"github.com/boniface/scylladb-cdc-sub001/internal/store"
	"github.com/boniface/scylladb-cdc-sub001/internal/store/cassandra"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (optional)")
	customerID := flag.String("customer", "", "customer id for the demo order (required)")
	flag.Parse()

	if *customerID == "" {
		fmt.Fprintln(os.Stderr, "demo: -customer is required")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "demo: %v\n", err)
		os.Exit(1)
	}
	logging.Init(logging.Config{Level: logging.Level(cfg.LogLevel)})
	logger := logging.WithComponent("demo")

	session, err := cassandra.NewSession(cfg.StoreContactPoints, cfg.StoreKeyspace)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to store")
	}
	defer session.Close()

	rawStore := cassandra.NewRepository(session, time.Duration(cfg.OutboxTTLSeconds)*time.Second)
	eventStore := store.New[orderdomain.Event](rawStore)
	snapshots := snapshot.NewManager[orderdomain.Order](cassandra.NewSnapshotRepository(session), cfg.SnapshotEveryNEvents)
	handler := orderdomain.NewHandler(eventStore, snapshots)

	ctx := context.Background()
	orderID := uuid.NewString()
	correlationID := uuid.NewString()

	steps := []struct {
		label string
		cmd   orderdomain.Command
	}{
		{"create", orderdomain.Command{Create: &orderdomain.CreateOrder{
			OrderID:    orderID,
			CustomerID: *customerID,
			Items:      []orderdomain.LineItem{{ProductID: "widget-1", Quantity: 2}},
		}}},
		{"confirm", orderdomain.Command{Confirm: &orderdomain.ConfirmOrder{}}},
		{"ship", orderdomain.Command{Ship: &orderdomain.ShipOrder{Tracking: "T1", Carrier: "DHL"}}},
		{"deliver", orderdomain.Command{Deliver: &orderdomain.DeliverOrder{SignedBy: "J"}}},
	}

	for _, step := range steps {
		version, err := handler.Handle(ctx, orderID, step.cmd, correlationID)
		if err != nil {
			logger.Fatal().Err(err).Str("step", step.label).Msg("command rejected")
		}
		fmt.Printf("%-8s order=%s version=%d\n", step.label, orderID, version)
	}
}
