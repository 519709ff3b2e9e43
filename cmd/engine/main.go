// Command engine wires every package in this repo into one running
// process: it loads configuration, opens the store, and starts one CDC
// runtime per registered consumer (the external broker publisher and the
// customer order summary projection) under a single supervisor, alongside
// a health aggregator and a /metrics endpoint.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/boniface/scylladb-cdc-sub001/internal/breaker"
	"github.com/boniface/scylladb-cdc-sub001/internal/broker"
	"github.com/boniface/scylladb-cdc-sub001/internal/cdc"
	"github.com/boniface/scylladb-cdc-sub001/internal/config"
	"github.com/boniface/scylladb-cdc-sub001/internal/deadletter"
	"github.com/boniface/scylladb-cdc-sub001/internal/fanout"
	"github.com/boniface/scylladb-cdc-sub001/internal/health"
	"github.com/boniface/scylladb-cdc-sub001/internal/logging"
	"github.com/boniface/scylladb-cdc-sub001/internal/orderdomain/summary"
	"github.com/boniface/scylladb-cdc-sub001/internal/projection"
	"github.com/boniface/scylladb-cdc-sub001/internal/store/cassandra"
	"github.com/boniface/scylladb-cdc-sub001/internal/supervision"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (optional, env vars always override)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine: %v\n", err)
		os.Exit(1)
	}

	logging.Init(logging.Config{Level: logging.Level(cfg.LogLevel), JSONOutput: true})
	logger := logging.WithComponent("main")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	session, err := cassandra.NewSession(cfg.StoreContactPoints, cfg.StoreKeyspace)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to store")
	}
	defer session.Close()

	dlqRepo := cassandra.NewDeadLetterRepository(session)
	dlq := deadletter.NewWriter(dlqRepo)

	publisher := broker.New(broker.Config{
		BrokerAddrs:   cfg.BrokerBootstrapServers,
		RetryPolicy:   cfg.Retry.Policy("broker-publish"),
		BreakerConfig: breaker.Config{Name: "broker", FailureThreshold: cfg.CircuitBreaker.FailureThreshold, Timeout: cfg.CircuitBreaker.Timeout, SuccessThreshold: cfg.CircuitBreaker.SuccessThreshold},
	})
	defer publisher.Close()

	offsets := cassandra.NewOffsetRepository(session)
	summaryProjection := summary.New(summary.NewCassandraStore(session))
	summaryDispatcher := projection.NewDispatcher(summaryProjection, offsets)

	consumers := []fanout.RowConsumer{
		fanout.NewExternalPublisher(publisher, dlq),
		fanout.NewProjectionDispatcher(summaryDispatcher),
	}

	sup := supervision.New()
	pollInterval := 2 * time.Second

	for _, consumer := range consumers {
		source, err := cassandra.NewCDCSource(ctx, session, consumer.Name(), pollInterval)
		if err != nil {
			logger.Fatal().Err(err).Str("consumer", consumer.Name()).Msg("failed to initialize cdc source")
		}
		sup.Register(cdc.NewRuntime(source, consumer, dlq))
	}

	aggregator := health.NewAggregator(10 * time.Second)
	aggregator.Register(storeChecker{session: session})
	aggregator.Register(breakerChecker{name: "broker-publish", publisher: publisher})
	sup.Register(aggregator)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		report := aggregator.Snapshot()
		if report.Overall == health.Unhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		fmt.Fprintf(w, "%s\n", report.Overall)
	})

	metricsAddr := fmt.Sprintf(":%d", cfg.MetricsBindPort)
	metricsSrv := &http.Server{Addr: metricsAddr, Handler: mux}
	go func() {
		logger.Info().Str("addr", metricsAddr).Msg("metrics server listening")
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("metrics server stopped")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	runErrs := make(chan error, 1)
	go func() {
		runErrs <- sup.Run(ctx)
	}()

	select {
	case <-stop:
		logger.Info().Msg("shutdown requested")
		cancel()
		<-runErrs
	case err := <-runErrs:
		if err != nil && err != context.Canceled {
			logger.Error().Err(err).Msg("supervisor stopped with error")
		}
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("metrics server shutdown error")
	}

	logger.Info().Msg("engine stopped")
}
