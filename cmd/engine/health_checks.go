package main

import (
	"context"

	"github.com/gocql/gocql"

	"github.com/boniface/scylladb-cdc-sub001/internal/breaker"
	"github.com/boniface/scylladb-cdc-sub001/internal/broker"
	"github.com/boniface/scylladb-cdc-sub001/internal/health"
)

// storeChecker reports Unhealthy when the cluster cannot answer a trivial
// query, Healthy otherwise.
type storeChecker struct {
	session *gocql.Session
}

func (c storeChecker) Name() string { return "store" }

func (c storeChecker) Check(ctx context.Context) health.Status {
	if err := c.session.Query("SELECT now() FROM system.local").WithContext(ctx).Exec(); err != nil {
		return health.Unhealthy
	}
	return health.Healthy
}

// breakerChecker reports Degraded while the publish circuit is half-open
// (still probing) and Unhealthy while it is fully open.
type breakerChecker struct {
	name      string
	publisher *broker.Publisher
}

func (c breakerChecker) Name() string { return c.name }

func (c breakerChecker) Check(ctx context.Context) health.Status {
	switch c.publisher.CircuitState() {
	case breaker.StateOpen:
		return health.Unhealthy
	case breaker.StateHalfOpen:
		return health.Degraded
	default:
		return health.Healthy
	}
}
