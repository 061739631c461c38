package armature

import (
	"context"
	"time"
)

// Observer receives structured execution events. The engine emits to the
// observer and to its logger; it never formats or stores anything beyond
// that, leaving dashboards and persistence to the embedder.
//
// Implementations must be safe for concurrent use: multiple executions
// emit events in parallel.
type Observer interface {
	// StateTransition fires on every pipeline state change.
	StateTransition(ctx context.Context, executionID, tool string, from, to State)

	// RetryScheduled fires when a failed attempt will be retried after
	// the given backoff delay.
	RetryScheduled(ctx context.Context, executionID, tool string, attempt int, delay time.Duration)

	// FallbackAttempted fires after each fallback strategy runs, with a
	// nil err when the strategy produced a result.
	FallbackAttempted(ctx context.Context, executionID, tool, strategy string, err error)

	// ExecutionFinished fires exactly once per execution with the final
	// result.
	ExecutionFinished(ctx context.Context, result *Result)
}

// NopObserver discards every event. It is the default when no observer is
// configured.
type NopObserver struct{}

func (NopObserver) StateTransition(context.Context, string, string, State, State)       {}
func (NopObserver) RetryScheduled(context.Context, string, string, int, time.Duration)  {}
func (NopObserver) FallbackAttempted(context.Context, string, string, string, error)    {}
func (NopObserver) ExecutionFinished(context.Context, *Result)                          {}

// multiObserver fans events out to several observers in order.
type multiObserver []Observer

// CombineObservers returns an observer that forwards every event to each
// of the given observers in order. Nil observers are skipped.
func CombineObservers(observers ...Observer) Observer {
	var filtered multiObserver
	for _, o := range observers {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return filtered
}

func (m multiObserver) StateTransition(ctx context.Context, executionID, tool string, from, to State) {
	for _, o := range m {
		o.StateTransition(ctx, executionID, tool, from, to)
	}
}

func (m multiObserver) RetryScheduled(ctx context.Context, executionID, tool string, attempt int, delay time.Duration) {
	for _, o := range m {
		o.RetryScheduled(ctx, executionID, tool, attempt, delay)
	}
}

func (m multiObserver) FallbackAttempted(ctx context.Context, executionID, tool, strategy string, err error) {
	for _, o := range m {
		o.FallbackAttempted(ctx, executionID, tool, strategy, err)
	}
}

func (m multiObserver) ExecutionFinished(ctx context.Context, result *Result) {
	for _, o := range m {
		o.ExecutionFinished(ctx, result)
	}
}
