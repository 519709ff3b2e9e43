package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/boniface/scylladb-cdc-sub001/internal/retry"
)

func TestLoadAppliesDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, 9090, cfg.MetricsBindPort)
	require.Equal(t, "aggressive", cfg.Retry.Preset)
}

func TestLoadReadsYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.yaml")
	contents := `
log_level: debug
store_contact_points: ["10.0.0.1", "10.0.0.2"]
metrics_bind_port: 9191
retry:
  preset: conservative
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, cfg.StoreContactPoints)
	require.Equal(t, 9191, cfg.MetricsBindPort)
	require.Equal(t, "conservative", cfg.Retry.Preset)
}

func TestEnvOverridesFileValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: info\n"), 0o600))

	t.Setenv("CDCENGINE_LOG_LEVEL", "warn")
	t.Setenv("CDCENGINE_METRICS_BIND_PORT", "9292")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "warn", cfg.LogLevel)
	require.Equal(t, 9292, cfg.MetricsBindPort)
}

func TestRetryConfigPolicyAppliesOverride(t *testing.T) {
	rc := RetryConfig{Preset: "conservative", MaxAttempts: 7}
	policy := rc.Policy("store-write")
	outcome, _, err := policy.Do(context.Background(), func(ctx context.Context) error { return nil })
	require.NoError(t, err)
	require.Equal(t, retry.Success, outcome)

	// The override replaces the preset's attempt count: the aggressive
	// preset makes 5 attempts, capped here at 2.
	capped := RetryConfig{Preset: "aggressive", MaxAttempts: 2}.Policy("store-write")
	outcome, attempts, err := capped.Do(context.Background(), func(ctx context.Context) error { return errors.New("always fails") })
	require.Error(t, err)
	require.Equal(t, retry.RetriableFailure, outcome)
	require.Equal(t, 2, attempts)
}

func TestCircuitBreakerConfigDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, uint32(5), cfg.CircuitBreaker.FailureThreshold)
	require.Equal(t, 30*time.Second, cfg.CircuitBreaker.Timeout)
}
