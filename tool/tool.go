// Package tool defines the pluggable unit of work the Armature engine
// executes.
//
// A Tool bundles a core-logic callback with everything the engine needs to
// run it resiliently: the parameter schema, the declared output fields, an
// optional per-tool retry policy and timeout, the ordered fallback chain,
// and the quality criteria. Tools are built once from a Config, validated
// at construction, and immutable afterwards.
package tool

import (
	"context"
	"errors"
	"time"

	"github.com/armature-ai/armature/fallback"
	"github.com/armature-ai/armature/quality"
	"github.com/armature-ai/armature/retry"
	"github.com/armature-ai/armature/schema"
)

// RunFunc is the core-logic callback. The engine treats the returned map
// as opaque apart from the structural output check; the error, if any, is
// classified into the fault taxonomy.
type RunFunc func(ctx context.Context, params map[string]any) (map[string]any, error)

// Tool is an immutable, registered unit of work.
type Tool struct {
	name        string
	toolType    string
	version     string
	description string

	schema       *schema.Schema
	outputFields []string

	retryPolicy *retry.Policy
	timeout     time.Duration
	fallbacks   *fallback.Chain
	criteria    *quality.Criteria

	run RunFunc
}

// Config accumulates a tool definition before New validates it.
type Config struct {
	name        string
	toolType    string
	version     string
	description string

	schema       *schema.Schema
	outputFields []string

	retryPolicy *retry.Policy
	timeout     time.Duration
	fallbacks   []fallback.Strategy
	criteria    *quality.Criteria

	run RunFunc
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{version: "1.0.0"}
}

// SetName sets the tool's unique name.
func (c *Config) SetName(name string) *Config {
	c.name = name
	return c
}

// SetType sets the tool type, used for suggestion and criteria lookups
// (e.g. "video_analysis"). Defaults to the tool name.
func (c *Config) SetType(toolType string) *Config {
	c.toolType = toolType
	return c
}

// SetVersion sets the semantic version.
func (c *Config) SetVersion(version string) *Config {
	c.version = version
	return c
}

// SetDescription sets the human-readable description.
func (c *Config) SetDescription(desc string) *Config {
	c.description = desc
	return c
}

// SetSchema sets the compiled parameter schema.
func (c *Config) SetSchema(s *schema.Schema) *Config {
	c.schema = s
	return c
}

// SetOutputFields declares the fields a successful result must contain.
// They drive both the structural post-check and the completeness score.
func (c *Config) SetOutputFields(fields ...string) *Config {
	c.outputFields = fields
	return c
}

// SetRetryPolicy overrides the engine's retry policy for this tool.
func (c *Config) SetRetryPolicy(p retry.Policy) *Config {
	c.retryPolicy = &p
	return c
}

// SetTimeout overrides the engine's default timeout for this tool.
func (c *Config) SetTimeout(d time.Duration) *Config {
	c.timeout = d
	return c
}

// SetFallbacks sets the ordered fallback chain.
func (c *Config) SetFallbacks(strategies ...fallback.Strategy) *Config {
	c.fallbacks = strategies
	return c
}

// SetCriteria overrides the quality criteria. When unset, the tool gets
// default baselines with the output fields as required fields.
func (c *Config) SetCriteria(crit quality.Criteria) *Config {
	c.criteria = &crit
	return c
}

// SetRunFunc sets the core-logic callback. Required.
func (c *Config) SetRunFunc(fn RunFunc) *Config {
	c.run = fn
	return c
}

// New validates the Config and builds the Tool.
func New(cfg *Config) (*Tool, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.name == "" {
		return nil, errors.New("tool name is required")
	}
	if cfg.run == nil {
		return nil, errors.New("run function is required")
	}
	if cfg.retryPolicy != nil {
		if err := cfg.retryPolicy.Validate(); err != nil {
			return nil, err
		}
	}

	toolType := cfg.toolType
	if toolType == "" {
		toolType = cfg.name
	}

	s := cfg.schema
	if s == nil {
		s = schema.MustCompile(schema.Spec{})
	}

	criteria := cfg.criteria
	if criteria == nil {
		crit := quality.DefaultCriteria()
		crit.RequiredFields = append([]string(nil), cfg.outputFields...)
		criteria = &crit
	}

	return &Tool{
		name:         cfg.name,
		toolType:     toolType,
		version:      cfg.version,
		description:  cfg.description,
		schema:       s,
		outputFields: append([]string(nil), cfg.outputFields...),
		retryPolicy:  cfg.retryPolicy,
		timeout:      cfg.timeout,
		fallbacks:    fallback.NewChain(cfg.fallbacks...),
		criteria:     criteria,
		run:          cfg.run,
	}, nil
}

// Name returns the tool's unique name.
func (t *Tool) Name() string { return t.name }

// Type returns the tool type.
func (t *Tool) Type() string { return t.toolType }

// Version returns the semantic version.
func (t *Tool) Version() string { return t.version }

// Description returns the human-readable description.
func (t *Tool) Description() string { return t.description }

// Schema returns the compiled parameter schema.
func (t *Tool) Schema() *schema.Schema { return t.schema }

// OutputFields returns the declared required output fields.
func (t *Tool) OutputFields() []string {
	return append([]string(nil), t.outputFields...)
}

// RetryPolicy returns the tool's retry override, if set.
func (t *Tool) RetryPolicy() (retry.Policy, bool) {
	if t.retryPolicy == nil {
		return retry.Policy{}, false
	}
	return *t.retryPolicy, true
}

// Timeout returns the tool's timeout override; zero means none.
func (t *Tool) Timeout() time.Duration { return t.timeout }

// Fallbacks returns the tool's ordered fallback chain.
func (t *Tool) Fallbacks() *fallback.Chain { return t.fallbacks }

// Criteria returns the tool's quality criteria.
func (t *Tool) Criteria() quality.Criteria { return *t.criteria }

// Run invokes the core-logic callback.
func (t *Tool) Run(ctx context.Context, params map[string]any) (map[string]any, error) {
	return t.run(ctx, params)
}
