// Package fallback implements Armature's ordered recovery chain.
//
// A tool declares a fixed sequence of strategies, each a conditioned
// recovery action: an applicability predicate over the triggering fault and
// the invocation, plus an action that tries to produce result data. The
// chain walks the strategies strictly in declared order, skips inapplicable
// ones without side effects, and returns on the first action that succeeds.
// One strategy's failure never aborts the chain; every failure is recorded
// so an exhausted chain can report exactly what was tried and why it
// failed.
package fallback

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/armature-ai/armature/faults"
)

// Invocation is the read-only view of the execution a strategy acts on.
type Invocation struct {
	// ExecutionID identifies the execution the fault belongs to.
	ExecutionID string

	// Tool is the name of the tool being executed.
	Tool string

	// ToolType is the tool's type, used for suggestion lookups.
	ToolType string

	// Params are the validated parameters the primary callback ran with.
	Params map[string]any

	// Attempt is the number of primary attempts already made.
	Attempt int

	// Deadline is the execution's absolute deadline.
	Deadline time.Time
}

// Strategy is a single conditioned recovery action.
type Strategy struct {
	// Name identifies the strategy in metrics and failure reports.
	Name string

	// Applies decides whether the strategy is worth attempting for the
	// given fault. A nil predicate applies to every fault.
	Applies func(f *faults.Fault, inv *Invocation) bool

	// Run attempts the recovery. It may perform I/O and must respect the
	// context, which carries the execution's remaining deadline.
	Run func(ctx context.Context, inv *Invocation) (map[string]any, error)
}

// Attempted records one strategy's failure inside the chain.
type Attempted struct {
	// Strategy is the name of the strategy that was run.
	Strategy string `json:"strategy"`

	// Reason describes why it failed.
	Reason string `json:"reason"`
}

// ExhaustedError reports that no strategy produced a result. It carries
// the triggering fault and the per-strategy failure reasons, which become
// the basis of the final fault's suggestions.
type ExhaustedError struct {
	// Tool is the tool whose chain was exhausted.
	Tool string

	// Trigger is the fault that sent execution into the chain. Its
	// category decides whether the terminal status is Failed or Timeout.
	Trigger *faults.Fault

	// Attempts lists every strategy that ran, in order, with its failure
	// reason. Empty when no strategy applied.
	Attempts []Attempted
}

// Error implements the error interface.
func (e *ExhaustedError) Error() string {
	if e.Trigger.Category == faults.CategoryCancelled {
		return fmt.Sprintf("%s: fallback chain interrupted by cancellation", e.Tool)
	}
	if len(e.Attempts) == 0 {
		return fmt.Sprintf("%s: no applicable fallback strategy for %s", e.Tool, e.Trigger.Category)
	}
	return fmt.Sprintf("%s: all %d applicable fallback strategies failed", e.Tool, len(e.Attempts))
}

// Unwrap returns the triggering fault.
func (e *ExhaustedError) Unwrap() error {
	return e.Trigger
}

// Fault converts the exhaustion into the fault the result reports. A
// cancelled trigger passes through untouched so the result reflects the
// caller's cancellation, and when no strategy applied the triggering
// fault passes through with its category preserved. When strategies ran
// and failed, the fault is a fallback-exhausted wrapper carrying every
// attempted strategy and reason.
func (e *ExhaustedError) Fault() *faults.Fault {
	if e.Trigger.Category == faults.CategoryCancelled {
		return e.Trigger
	}
	if len(e.Attempts) == 0 {
		return e.Trigger.WithSuggestions(
			fmt.Sprintf("no fallback strategy applied to a %s fault; register one for this failure mode", e.Trigger.Category),
		)
	}

	f := faults.New(e.Tool, faults.CodeFallbackExhausted, e.Error()).
		WithCause(e.Trigger).
		WithDetails(map[string]any{
			"trigger_category": e.Trigger.Category,
			"attempts":         e.Attempts,
		})
	for _, a := range e.Attempts {
		f = f.WithSuggestions(fmt.Sprintf("strategy %s failed: %s", a.Strategy, a.Reason))
	}
	return f
}

// Chain is a tool's ordered strategy sequence. The zero value is an empty
// chain that always exhausts.
type Chain struct {
	strategies []Strategy
}

// NewChain copies the strategies into a chain, preserving order.
func NewChain(strategies ...Strategy) *Chain {
	return &Chain{strategies: append([]Strategy(nil), strategies...)}
}

// Len returns the number of strategies in the chain.
func (c *Chain) Len() int {
	return len(c.strategies)
}

// Names returns the strategy names in declared order.
func (c *Chain) Names() []string {
	names := make([]string, len(c.strategies))
	for i, s := range c.strategies {
		names[i] = s.Name
	}
	return names
}

// Apply walks the chain for the given fault. It returns the first
// successful strategy's data and name, or an ExhaustedError listing every
// attempted strategy and its failure reason.
//
// Caller cancellation stops the walk before the next strategy runs; the
// returned exhaustion carries a cancelled trigger. The deadline is
// re-checked before each strategy: once it has passed, the triggering
// fault is re-classified as a timeout so that only timeout-applicable
// strategies (partial-result extraction and the like) still run. Their
// actions receive the context as-is and decide for themselves how much
// work remains affordable.
//
// notify, when non-nil, is called after each attempted strategy with its
// outcome; the engine uses it for observability.
func (c *Chain) Apply(ctx context.Context, trigger *faults.Fault, inv *Invocation, notify func(strategy string, err error)) (map[string]any, string, *ExhaustedError) {
	var attempts []Attempted

	for _, s := range c.strategies {
		if errors.Is(ctx.Err(), context.Canceled) {
			cancelled := faults.New(inv.Tool, faults.CodeCancelled, "execution cancelled during fallback").
				WithCause(trigger)
			return nil, "", &ExhaustedError{Tool: inv.Tool, Trigger: cancelled, Attempts: attempts}
		}

		if !inv.Deadline.IsZero() && time.Now().After(inv.Deadline) && trigger.Category != faults.CategoryTimeout {
			trigger = faults.New(inv.Tool, faults.CodeTimeout, "deadline exceeded during fallback").
				WithCause(trigger)
		}

		if s.Applies != nil && !s.Applies(trigger, inv) {
			continue
		}

		data, err := s.Run(ctx, inv)
		if notify != nil {
			notify(s.Name, err)
		}
		if err == nil {
			return data, s.Name, nil
		}
		attempts = append(attempts, Attempted{Strategy: s.Name, Reason: err.Error()})
	}

	return nil, "", &ExhaustedError{Tool: inv.Tool, Trigger: trigger, Attempts: attempts}
}
