package health

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeChecker struct {
	name   string
	status Status
}

func (c fakeChecker) Name() string                        { return c.name }
func (c fakeChecker) Check(ctx context.Context) Status { return c.status }

func TestSnapshotIsHealthyWithNoCheckers(t *testing.T) {
	agg := NewAggregator(time.Second)
	agg.poll(context.Background())
	require.Equal(t, Healthy, agg.Snapshot().Overall)
}

func TestOverallReflectsWorstComponent(t *testing.T) {
	agg := NewAggregator(time.Second)
	agg.Register(fakeChecker{name: "store", status: Healthy})
	agg.Register(fakeChecker{name: "broker", status: Degraded})
	agg.Register(fakeChecker{name: "cdc", status: Unhealthy})

	agg.poll(context.Background())
	report := agg.Snapshot()

	require.Equal(t, Unhealthy, report.Overall)
	require.Equal(t, Healthy, report.Components["store"])
	require.Equal(t, Degraded, report.Components["broker"])
	require.Equal(t, Unhealthy, report.Components["cdc"])
}

func TestRunStopsOnContextCancel(t *testing.T) {
	agg := NewAggregator(10 * time.Millisecond)
	agg.Register(fakeChecker{name: "store", status: Healthy})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := agg.Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Equal(t, Healthy, agg.Snapshot().Overall)
}

func TestStatusString(t *testing.T) {
	require.Equal(t, "healthy", Healthy.String())
	require.Equal(t, "degraded", Degraded.String())
	require.Equal(t, "unhealthy", Unhealthy.String())
}
