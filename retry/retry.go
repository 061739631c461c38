// Package retry defines the retry policy for Armature executions: how many
// attempts the primary callback gets, which fault categories are worth
// retrying, and how long to wait between attempts.
package retry

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/armature-ai/armature/faults"
)

// Strategy selects how the delay grows between attempts.
type Strategy string

const (
	// StrategyExponential doubles the delay after each attempt.
	StrategyExponential Strategy = "exponential"

	// StrategyLinear grows the delay additively by the initial delay.
	StrategyLinear Strategy = "linear"

	// StrategyFixed keeps the delay constant at the initial delay.
	StrategyFixed Strategy = "fixed"
)

// Policy is the immutable retry configuration for a tool.
type Policy struct {
	// MaxAttempts is the number of attempts including the first.
	// Must be at least 1.
	MaxAttempts int `yaml:"max_attempts" json:"max_attempts"`

	// Strategy selects the backoff growth curve.
	Strategy Strategy `yaml:"strategy" json:"strategy"`

	// InitialDelay is the delay before the first retry.
	InitialDelay time.Duration `yaml:"initial_delay" json:"initial_delay"`

	// MaxDelay caps the delay between attempts.
	MaxDelay time.Duration `yaml:"max_delay" json:"max_delay"`

	// RetryableCategories lists the fault categories worth retrying.
	RetryableCategories []faults.Category `yaml:"retryable_categories" json:"retryable_categories"`
}

// DefaultPolicy returns the standard policy: three attempts with
// exponential backoff from 100ms capped at 10s, retrying execution faults
// only.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:         3,
		Strategy:            StrategyExponential,
		InitialDelay:        100 * time.Millisecond,
		MaxDelay:            10 * time.Second,
		RetryableCategories: []faults.Category{faults.CategoryExecution},
	}
}

// Validate checks the policy is internally consistent.
func (p Policy) Validate() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1, got %d", p.MaxAttempts)
	}
	switch p.Strategy {
	case StrategyExponential, StrategyLinear, StrategyFixed:
	default:
		return fmt.Errorf("unknown backoff strategy %q", p.Strategy)
	}
	if p.InitialDelay < 0 {
		return fmt.Errorf("initial_delay must not be negative, got %v", p.InitialDelay)
	}
	if p.MaxDelay > 0 && p.MaxDelay < p.InitialDelay {
		return fmt.Errorf("max_delay %v is less than initial_delay %v", p.MaxDelay, p.InitialDelay)
	}
	return nil
}

// Retryable reports whether the policy retries the given category.
// Timeouts are never retryable regardless of configuration: retrying an
// operation that already overran its deadline cannot succeed.
func (p Policy) Retryable(c faults.Category) bool {
	if c == faults.CategoryTimeout {
		return false
	}
	for _, rc := range p.RetryableCategories {
		if rc == c {
			return true
		}
	}
	return false
}

// Delay returns the wait before the retry that follows the given attempt
// (1-based). The delay is min(initial * factor^(attempt-1), max) with
// factor 2 for exponential growth; linear growth is additive, so the delay
// after attempt k is initial * k; fixed always waits the initial delay.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 || p.InitialDelay == 0 {
		return 0
	}

	var d time.Duration
	switch p.Strategy {
	case StrategyLinear:
		d = p.InitialDelay * time.Duration(attempt)
	case StrategyFixed:
		d = p.InitialDelay
	default:
		scaled := float64(p.InitialDelay) * math.Pow(2, float64(attempt-1))
		if scaled > math.MaxInt64 {
			scaled = math.MaxInt64
		}
		d = time.Duration(scaled)
	}

	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

// Sleep waits for the backoff delay after the given attempt, returning
// early with the context's error when it is cancelled or its deadline
// passes.
func (p Policy) Sleep(ctx context.Context, attempt int) error {
	d := p.Delay(attempt)
	if d == 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
