package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armature-ai/armature/retry"
)

func writeConfig(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "armature.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, 85.0, cfg.Thresholds.MemoryPercent)
	assert.Equal(t, 0.7, cfg.Quality.Minimum)
	assert.Equal(t, OutcomeFailed, cfg.Quality.BelowThreshold)
	assert.Equal(t, 5*time.Minute, cfg.Timeout.Default)
}

func TestLoad_PartialMergesOverDefaults(t *testing.T) {
	path := writeConfig(t, `
retry:
  max_attempts: 5
quality:
  minimum: 0.8
timeout:
  max: 10m
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.Equal(t, 0.8, cfg.Quality.Minimum)
	assert.Equal(t, 10*time.Minute, cfg.Timeout.Max)

	// Everything else keeps its default.
	assert.Equal(t, retry.StrategyExponential, cfg.Retry.Strategy)
	assert.Equal(t, 100*time.Millisecond, cfg.Retry.InitialDelay)
	assert.Equal(t, 90.0, cfg.Thresholds.CPUPercent)
	assert.Equal(t, 0.3, cfg.Quality.Weights.Completeness)
	assert.Equal(t, 5*time.Minute, cfg.Timeout.Default)
}

func TestLoad_FullDocument(t *testing.T) {
	path := writeConfig(t, `
retry:
  max_attempts: 2
  strategy: fixed
  initial_delay: 1s
  max_delay: 1s
  retryable_categories: [execution, resource]
thresholds:
  memory_percent: 70
  cpu_percent: 80
  disk_percent: 90
quality:
  weights:
    completeness: 0.25
    accuracy: 0.25
    consistency: 0.25
    performance: 0.25
  minimum: 0.6
  below_threshold: partial
timeout:
  default: 90s
  min: 1s
  max: 30m
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Retry.MaxAttempts)
	assert.Equal(t, retry.StrategyFixed, cfg.Retry.Strategy)
	assert.Equal(t, 70.0, cfg.Thresholds.MemoryPercent)
	assert.Equal(t, 0.25, cfg.Quality.Weights.Accuracy)
	assert.Equal(t, OutcomePartial, cfg.Quality.BelowThreshold)
	assert.Equal(t, 90*time.Second, cfg.Timeout.Default)
	assert.Equal(t, time.Second, cfg.Timeout.Min)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := Load(writeConfig(t, "retry: [not: a: mapping\n"))
		assert.Error(t, err)
	})

	t.Run("invalid values rejected", func(t *testing.T) {
		_, err := Load(writeConfig(t, "retry:\n  max_attempts: 0\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_attempts")
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad retry", func(c *Config) { c.Retry.MaxAttempts = 0 }, "retry"},
		{"bad weights", func(c *Config) { c.Quality.Weights.Accuracy = 0.9 }, "weights"},
		{"gate out of range", func(c *Config) { c.Quality.Minimum = 1.5 }, "minimum"},
		{"unknown outcome", func(c *Config) { c.Quality.BelowThreshold = "retry_forever" }, "below_threshold"},
		{"min above max", func(c *Config) { c.Timeout.Min = time.Hour; c.Timeout.Max = time.Minute }, "timeout"},
		{"default below min", func(c *Config) { c.Timeout.Min = 10 * time.Minute }, "timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestTimeout_Resolve(t *testing.T) {
	bounds := Timeout{Default: 5 * time.Minute, Min: time.Second, Max: 10 * time.Minute}

	tests := []struct {
		name      string
		requested time.Duration
		want      time.Duration
	}{
		{"zero uses default", 0, 5 * time.Minute},
		{"negative uses default", -time.Second, 5 * time.Minute},
		{"within bounds", 2 * time.Minute, 2 * time.Minute},
		{"clamped to min", 10 * time.Millisecond, time.Second},
		{"clamped to max", time.Hour, 10 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, bounds.Resolve(tt.requested))
		})
	}

	t.Run("no bounds passes through", func(t *testing.T) {
		unbounded := Timeout{Default: time.Minute}
		assert.Equal(t, time.Hour, unbounded.Resolve(time.Hour))
	})
}
