package armature

import (
	"log/slog"

	"github.com/armature-ai/armature/config"
	"github.com/armature-ai/armature/guard"
)

// Option configures an Engine.
type Option func(*engineConfig)

type engineConfig struct {
	cfg       config.Config
	logger    *slog.Logger
	observers []Observer
	guard     *guard.Guard
}

// WithConfig sets the engine configuration. Defaults to config.Default().
func WithConfig(cfg config.Config) Option {
	return func(c *engineConfig) {
		c.cfg = cfg
	}
}

// WithLogger sets the structured logger the engine emits state
// transitions, retries, and final statuses to. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *engineConfig) {
		c.logger = logger
	}
}

// WithObserver adds an observer for execution events. May be given more
// than once; events fan out to every observer in registration order.
func WithObserver(o Observer) Option {
	return func(c *engineConfig) {
		c.observers = append(c.observers, o)
	}
}

// WithGuard replaces the resource guard. The default guard samples the
// live system with the configured thresholds; tests substitute a guard
// with a deterministic sampler.
func WithGuard(g *guard.Guard) Option {
	return func(c *engineConfig) {
		c.guard = g
	}
}
