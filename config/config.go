// Package config defines the engine-level configuration for Armature and
// loads it from YAML.
//
// The configuration reconciles what would otherwise be scattered constants:
// retry policy, resource admission thresholds, quality weights and gate,
// timeout bounds, and the below-threshold outcome policy are all injected
// here, loaded once, and immutable thereafter. Absent keys keep their
// defaults, so a file only needs to name what it changes.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/armature-ai/armature/guard"
	"github.com/armature-ai/armature/quality"
	"github.com/armature-ai/armature/retry"
)

// Outcome selects the terminal status when a result's quality score falls
// below the gate and no fallback was involved. The engine never promotes a
// below-threshold result to Success either way.
type Outcome string

const (
	// OutcomeFailed fails the execution on a below-threshold score. This
	// is the default: it preserves the invariant that PartialSuccess
	// implies a fallback produced the data.
	OutcomeFailed Outcome = "failed"

	// OutcomePartial degrades the execution to PartialSuccess, keeping
	// the data available to callers that can use it.
	OutcomePartial Outcome = "partial"
)

// Quality holds the scoring weights and the quality gate.
type Quality struct {
	// Weights is the dimension weight split. Must sum to 1.0.
	Weights quality.Weights `yaml:"weights"`

	// Minimum is the gate threshold for the overall score.
	Minimum float64 `yaml:"minimum"`

	// BelowThreshold selects the outcome for below-gate primary results.
	BelowThreshold Outcome `yaml:"below_threshold"`
}

// Timeout bounds execution deadlines. Zero values disable a bound.
type Timeout struct {
	// Default applies when neither the call nor the tool specifies one.
	Default time.Duration

	// Min and Max bound the timeout a call or tool may request.
	Min time.Duration
	Max time.Duration
}

// Config is the full engine configuration.
type Config struct {
	Retry      retry.Policy     `yaml:"retry"`
	Thresholds guard.Thresholds `yaml:"thresholds"`
	Quality    Quality          `yaml:"quality"`
	Timeout    Timeout          `yaml:"timeout"`
}

// Default returns the engine defaults: three exponential-backoff attempts,
// 85/90/95 admission thresholds, 0.3/0.4/0.2/0.1 quality weights with a
// 0.7 gate failing below-threshold results, and a five-minute timeout.
func Default() Config {
	return Config{
		Retry:      retry.DefaultPolicy(),
		Thresholds: guard.DefaultThresholds(),
		Quality: Quality{
			Weights:        quality.DefaultWeights(),
			Minimum:        0.7,
			BelowThreshold: OutcomeFailed,
		},
		Timeout: Timeout{Default: 5 * time.Minute},
	}
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration is internally consistent.
func (c Config) Validate() error {
	if err := c.Retry.Validate(); err != nil {
		return fmt.Errorf("retry: %w", err)
	}
	if err := c.Quality.Weights.Validate(); err != nil {
		return fmt.Errorf("quality weights: %w", err)
	}
	if c.Quality.Minimum < 0 || c.Quality.Minimum > 1 {
		return fmt.Errorf("quality minimum must be in [0,1], got %v", c.Quality.Minimum)
	}
	switch c.Quality.BelowThreshold {
	case OutcomeFailed, OutcomePartial:
	default:
		return fmt.Errorf("unknown below_threshold outcome %q", c.Quality.BelowThreshold)
	}
	if err := c.Timeout.Validate(); err != nil {
		return fmt.Errorf("timeout: %w", err)
	}
	return nil
}

// Validate checks the timeout bounds are consistent with each other.
func (t Timeout) Validate() error {
	if t.Min > 0 && t.Max > 0 && t.Min > t.Max {
		return fmt.Errorf("min %v exceeds max %v", t.Min, t.Max)
	}
	if t.Default > 0 {
		if t.Min > 0 && t.Default < t.Min {
			return fmt.Errorf("default %v below min %v", t.Default, t.Min)
		}
		if t.Max > 0 && t.Default > t.Max {
			return fmt.Errorf("default %v exceeds max %v", t.Default, t.Max)
		}
	}
	return nil
}

// Resolve returns the effective timeout for an execution: the requested
// value when positive, clamped into [Min, Max], otherwise the default.
func (t Timeout) Resolve(requested time.Duration) time.Duration {
	d := requested
	if d <= 0 {
		d = t.Default
	}
	if t.Min > 0 && d < t.Min {
		d = t.Min
	}
	if t.Max > 0 && d > t.Max {
		d = t.Max
	}
	return d
}

// UnmarshalYAML accepts durations in time.ParseDuration syntax ("90s",
// "5m"). Absent keys keep the values already present in the receiver, so
// loading over Default() merges rather than resets.
func (t *Timeout) UnmarshalYAML(node *yaml.Node) error {
	raw := struct {
		Default string `yaml:"default"`
		Min     string `yaml:"min"`
		Max     string `yaml:"max"`
	}{}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	for _, field := range []struct {
		val string
		dst *time.Duration
	}{
		{raw.Default, &t.Default},
		{raw.Min, &t.Min},
		{raw.Max, &t.Max},
	} {
		if field.val == "" {
			continue
		}
		d, err := time.ParseDuration(field.val)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", field.val, err)
		}
		*field.dst = d
	}
	return nil
}
