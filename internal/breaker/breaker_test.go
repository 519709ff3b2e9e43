package breaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestExecutePassesThroughWhenClosed(t *testing.T) {
	b := New(Config{Name: "test", FailureThreshold: 3, Timeout: 50 * time.Millisecond, SuccessThreshold: 1})

	err := b.Execute(context.Background(), func(ctx context.Context) error { return nil })
	require.NoError(t, err)
	require.Equal(t, StateClosed, b.State())
}

func TestExecuteOpensAfterConsecutiveFailures(t *testing.T) {
	b := New(Config{Name: "test-open", FailureThreshold: 2, Timeout: 50 * time.Millisecond, SuccessThreshold: 1})
	boom := errors.New("boom")

	for i := 0; i < 2; i++ {
		err := b.Execute(context.Background(), func(ctx context.Context) error { return boom })
		require.ErrorIs(t, err, boom)
	}

	require.Equal(t, StateOpen, b.State())

	err := b.Execute(context.Background(), func(ctx context.Context) error { return nil })
	require.ErrorIs(t, err, ErrCircuitOpen)
}

func TestBreakerRecoversThroughHalfOpen(t *testing.T) {
	b := New(Config{Name: "test-recover", FailureThreshold: 1, Timeout: 10 * time.Millisecond, SuccessThreshold: 1})
	boom := errors.New("boom")

	err := b.Execute(context.Background(), func(ctx context.Context) error { return boom })
	require.ErrorIs(t, err, boom)
	require.Equal(t, StateOpen, b.State())

	time.Sleep(20 * time.Millisecond)

	err = b.Execute(context.Background(), func(ctx context.Context) error { return nil })
	require.NoError(t, err)
	require.Equal(t, StateClosed, b.State())
}
