package retry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/armature-ai/armature/faults"
)

func TestPolicy_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Policy)
		wantErr string
	}{
		{"default is valid", func(*Policy) {}, ""},
		{"zero attempts", func(p *Policy) { p.MaxAttempts = 0 }, "max_attempts"},
		{"unknown strategy", func(p *Policy) { p.Strategy = "jitter" }, "strategy"},
		{"negative initial delay", func(p *Policy) { p.InitialDelay = -time.Second }, "initial_delay"},
		{"max below initial", func(p *Policy) { p.MaxDelay = 50 * time.Millisecond }, "max_delay"},
		{"zero max delay uncapped", func(p *Policy) { p.MaxDelay = 0 }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultPolicy()
			tt.mutate(&p)
			err := p.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPolicy_Retryable(t *testing.T) {
	p := Policy{RetryableCategories: []faults.Category{
		faults.CategoryExecution,
		faults.CategoryResource,
		faults.CategoryTimeout, // ignored: timeouts are never retryable
	}}

	assert.True(t, p.Retryable(faults.CategoryExecution))
	assert.True(t, p.Retryable(faults.CategoryResource))
	assert.False(t, p.Retryable(faults.CategoryValidation))
	assert.False(t, p.Retryable(faults.CategoryCancelled))
	assert.False(t, p.Retryable(faults.CategoryTimeout))
}

func TestPolicy_Delay(t *testing.T) {
	tests := []struct {
		name    string
		policy  Policy
		attempt int
		want    time.Duration
	}{
		{"exponential first", Policy{Strategy: StrategyExponential, InitialDelay: 100 * time.Millisecond, MaxDelay: 10 * time.Second}, 1, 100 * time.Millisecond},
		{"exponential second", Policy{Strategy: StrategyExponential, InitialDelay: 100 * time.Millisecond, MaxDelay: 10 * time.Second}, 2, 200 * time.Millisecond},
		{"exponential third", Policy{Strategy: StrategyExponential, InitialDelay: 100 * time.Millisecond, MaxDelay: 10 * time.Second}, 3, 400 * time.Millisecond},
		{"exponential capped", Policy{Strategy: StrategyExponential, InitialDelay: 1 * time.Second, MaxDelay: 3 * time.Second}, 5, 3 * time.Second},
		{"linear first", Policy{Strategy: StrategyLinear, InitialDelay: 100 * time.Millisecond}, 1, 100 * time.Millisecond},
		{"linear second", Policy{Strategy: StrategyLinear, InitialDelay: 100 * time.Millisecond}, 2, 200 * time.Millisecond},
		{"linear third", Policy{Strategy: StrategyLinear, InitialDelay: 100 * time.Millisecond}, 3, 300 * time.Millisecond},
		{"fixed stays flat", Policy{Strategy: StrategyFixed, InitialDelay: 250 * time.Millisecond}, 7, 250 * time.Millisecond},
		{"zero initial no wait", Policy{Strategy: StrategyExponential}, 3, 0},
		{"attempt zero no wait", Policy{Strategy: StrategyExponential, InitialDelay: time.Second}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.policy.Delay(tt.attempt))
		})
	}
}

func TestPolicy_Sleep(t *testing.T) {
	t.Run("waits then returns nil", func(t *testing.T) {
		p := Policy{Strategy: StrategyFixed, InitialDelay: 5 * time.Millisecond}
		start := time.Now()
		err := p.Sleep(context.Background(), 1)
		assert.NoError(t, err)
		assert.GreaterOrEqual(t, time.Since(start), 5*time.Millisecond)
	})

	t.Run("cancellation interrupts", func(t *testing.T) {
		p := Policy{Strategy: StrategyFixed, InitialDelay: time.Minute}
		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(5 * time.Millisecond)
			cancel()
		}()
		err := p.Sleep(ctx, 1)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("deadline interrupts", func(t *testing.T) {
		p := Policy{Strategy: StrategyFixed, InitialDelay: time.Minute}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
		defer cancel()
		err := p.Sleep(ctx, 1)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("zero delay reports context state", func(t *testing.T) {
		p := Policy{Strategy: StrategyFixed}
		assert.NoError(t, p.Sleep(context.Background(), 1))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.ErrorIs(t, p.Sleep(ctx, 1), context.Canceled)
	})
}

func TestPolicy_UnmarshalYAML(t *testing.T) {
	t.Run("partial document merges over defaults", func(t *testing.T) {
		p := DefaultPolicy()
		doc := "max_attempts: 5\ninitial_delay: 250ms\n"
		require.NoError(t, yaml.Unmarshal([]byte(doc), &p))

		assert.Equal(t, 5, p.MaxAttempts)
		assert.Equal(t, 250*time.Millisecond, p.InitialDelay)
		// Untouched keys keep their defaults.
		assert.Equal(t, StrategyExponential, p.Strategy)
		assert.Equal(t, 10*time.Second, p.MaxDelay)
		assert.Equal(t, []faults.Category{faults.CategoryExecution}, p.RetryableCategories)
	})

	t.Run("full document", func(t *testing.T) {
		var p Policy
		doc := `
max_attempts: 2
strategy: linear
initial_delay: 1s
max_delay: 30s
retryable_categories: [execution, resource]
`
		require.NoError(t, yaml.Unmarshal([]byte(doc), &p))
		assert.Equal(t, Policy{
			MaxAttempts:         2,
			Strategy:            StrategyLinear,
			InitialDelay:        time.Second,
			MaxDelay:            30 * time.Second,
			RetryableCategories: []faults.Category{faults.CategoryExecution, faults.CategoryResource},
		}, p)
	})

	t.Run("bad duration", func(t *testing.T) {
		var p Policy
		err := yaml.Unmarshal([]byte("initial_delay: soon\n"), &p)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "initial_delay")
	})
}
