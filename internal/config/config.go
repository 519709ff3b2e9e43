// Package config centralizes configuration loading for the engine: a
// YAML document provides the base values, with environment variables
// overriding any key that is set, generalizing the teacher's
// getEnv/getDurationEnv/getIntEnv helpers to also read a file first.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/boniface/scylladb-cdc-sub001/internal/retry"
)

// Config captures every runtime setting named in spec §6.
type Config struct {
	LogLevel string `yaml:"log_level"`

	StoreContactPoints []string `yaml:"store_contact_points"`
	StoreKeyspace      string   `yaml:"store_keyspace"`

	BrokerBootstrapServers []string `yaml:"broker_bootstrap_servers"`

	MetricsBindPort int `yaml:"metrics_bind_port"`

	SnapshotEveryNEvents int `yaml:"snapshot_every_n_events"`

	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
	Retry          RetryConfig          `yaml:"retry"`

	OutboxTTLSeconds int `yaml:"outbox_ttl_seconds"`
}

// CircuitBreakerConfig mirrors breaker.Config's fields for file/env decoding.
type CircuitBreakerConfig struct {
	FailureThreshold uint32        `yaml:"failure_threshold"`
	Timeout          time.Duration `yaml:"timeout"`
	SuccessThreshold uint32        `yaml:"success_threshold"`
}

// RetryConfig selects a named preset and allows overriding its attempt count.
type RetryConfig struct {
	Preset      string `yaml:"preset"` // "aggressive" or "conservative"
	MaxAttempts uint   `yaml:"max_attempts"`
}

// Policy resolves this RetryConfig into a retry.Policy for the given
// operation name, applying an attempt-count override on top of the
// named preset if one was supplied.
func (r RetryConfig) Policy(operation string) retry.Policy {
	var base retry.Policy
	switch r.Preset {
	case "conservative":
		base = retry.Conservative(operation)
	default:
		base = retry.Aggressive(operation)
	}
	if r.MaxAttempts > 0 {
		base = base.WithMaxAttempts(r.MaxAttempts)
	}
	return base
}

func defaults() Config {
	return Config{
		LogLevel:               "info",
		StoreContactPoints:     []string{"127.0.0.1"},
		StoreKeyspace:          "cdcengine",
		BrokerBootstrapServers: []string{"127.0.0.1:9092"},
		MetricsBindPort:        9090,
		SnapshotEveryNEvents:   100,
		CircuitBreaker: CircuitBreakerConfig{
			FailureThreshold: 5,
			Timeout:          30 * time.Second,
			SuccessThreshold: 1,
		},
		Retry: RetryConfig{
			Preset: "aggressive",
		},
		OutboxTTLSeconds: 86400,
	}
}

// Load reads path as YAML (if it exists) over top of defaults, then
// applies environment variable overrides, mirroring the teacher's
// env-first loader but layered on a file base.
func Load(path string) (Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("config: read %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	cfg.LogLevel = getEnv("CDCENGINE_LOG_LEVEL", cfg.LogLevel)
	cfg.StoreContactPoints = getStringSliceEnv("CDCENGINE_STORE_CONTACT_POINTS", cfg.StoreContactPoints)
	cfg.StoreKeyspace = getEnv("CDCENGINE_STORE_KEYSPACE", cfg.StoreKeyspace)
	cfg.BrokerBootstrapServers = getStringSliceEnv("CDCENGINE_BROKER_BOOTSTRAP_SERVERS", cfg.BrokerBootstrapServers)
	cfg.MetricsBindPort = getIntEnv("CDCENGINE_METRICS_BIND_PORT", cfg.MetricsBindPort)
	cfg.SnapshotEveryNEvents = getIntEnv("CDCENGINE_SNAPSHOT_EVERY_N_EVENTS", cfg.SnapshotEveryNEvents)
	cfg.OutboxTTLSeconds = getIntEnv("CDCENGINE_OUTBOX_TTL_SECONDS", cfg.OutboxTTLSeconds)

	cfg.CircuitBreaker.FailureThreshold = uint32(getIntEnv("CDCENGINE_BREAKER_FAILURE_THRESHOLD", int(cfg.CircuitBreaker.FailureThreshold)))
	cfg.CircuitBreaker.Timeout = getDurationEnv("CDCENGINE_BREAKER_TIMEOUT", cfg.CircuitBreaker.Timeout)
	cfg.CircuitBreaker.SuccessThreshold = uint32(getIntEnv("CDCENGINE_BREAKER_SUCCESS_THRESHOLD", int(cfg.CircuitBreaker.SuccessThreshold)))

	cfg.Retry.Preset = getEnv("CDCENGINE_RETRY_PRESET", cfg.Retry.Preset)
	cfg.Retry.MaxAttempts = uint(getIntEnv("CDCENGINE_RETRY_MAX_ATTEMPTS", int(cfg.Retry.MaxAttempts)))
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getStringSliceEnv(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getIntEnv(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
