package armature

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/armature-ai/armature/config"
	"github.com/armature-ai/armature/faults"
	"github.com/armature-ai/armature/guard"
	"github.com/armature-ai/armature/quality"
	"github.com/armature-ai/armature/retry"
	"github.com/armature-ai/armature/tool"
)

// Engine is the execution controller. It is safe for concurrent use: all
// of its state is read-only after New, and each Execute call owns its own
// execution context.
type Engine struct {
	cfg      config.Config
	logger   *slog.Logger
	observer Observer
	guard    *guard.Guard
	assessor *quality.Assessor
	tools    *tool.Registry
	now      func() time.Time
}

// New builds an engine from the options, validating the configuration.
func New(opts ...Option) (*Engine, error) {
	ec := engineConfig{cfg: config.Default()}
	for _, opt := range opts {
		opt(&ec)
	}
	if err := ec.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}

	assessor, err := quality.NewAssessor(ec.cfg.Quality.Weights, ec.cfg.Quality.Minimum)
	if err != nil {
		return nil, err
	}

	logger := ec.logger
	if logger == nil {
		logger = slog.Default()
	}
	g := ec.guard
	if g == nil {
		g = guard.New(ec.cfg.Thresholds)
	}
	var observer Observer = NopObserver{}
	if len(ec.observers) > 0 {
		observer = CombineObservers(ec.observers...)
	}

	return &Engine{
		cfg:      ec.cfg,
		logger:   logger,
		observer: observer,
		guard:    g,
		assessor: assessor,
		tools:    tool.NewRegistry(),
		now:      time.Now,
	}, nil
}

// Register adds a tool to the engine's registry.
func (e *Engine) Register(t *tool.Tool) error {
	return e.tools.Register(t)
}

// Tools returns the engine's tool registry.
func (e *Engine) Tools() *tool.Registry {
	return e.tools
}

// ExecuteByName looks up a registered tool and executes it. An unknown
// name produces a Failed result with a validation fault, consistent with
// the rule that Execute never returns a Go error. The rejection still
// reaches the observer: every terminal result fires ExecutionFinished.
func (e *Engine) ExecuteByName(ctx context.Context, name string, params map[string]any) *Result {
	t, err := e.tools.Get(name)
	if err != nil {
		f := faults.New(name, faults.CodeUnknownTool, "tool is not registered").
			WithCause(err).
			WithSuggestions("register the tool before executing it", "check the tool name for typos")
		r := &Result{
			ExecutionID: "",
			Tool:        name,
			Status:      StatusFailed,
			Fault:       faults.Enrich(name, f),
			Timestamp:   e.now().UTC(),
		}
		e.logger.Warn("execution rejected: unknown tool", "tool", name)
		e.observer.ExecutionFinished(context.WithoutCancel(ctx), r)
		return r
	}
	return e.Execute(ctx, t, params)
}

// Execute runs one tool invocation through the full pipeline and returns
// its structured result. It never returns a Go error: validation and
// admission failures, exhausted retries and fallbacks, timeouts, and
// cancellation all surface as the result's status and fault.
func (e *Engine) Execute(ctx context.Context, t *tool.Tool, params map[string]any) *Result {
	started := e.now()
	deadline := started.Add(e.cfg.Timeout.Resolve(t.Timeout()))

	x := &execution{
		engine: e,
		tool:   t,
		ec:     newExecutionContext(t, started, deadline),
		state:  StatePending,
	}
	x.logger = e.logger.With("execution_id", x.ec.id, "tool", t.Name())

	runCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()
	x.ctx = runCtx

	x.logger.Info("execution started", "deadline", deadline)

	if ctx.Err() != nil {
		return x.fail(StateFailed, faults.Classify(t.Name(), ctx.Err()))
	}

	x.transition(StateValidating)
	validated, vfault := t.Schema().Validate(t.Name(), params)
	if vfault != nil {
		return x.fail(StateFailed, vfault)
	}
	x.ec.params = validated

	x.transition(StatePreCheck)
	if _, denial := e.guard.Check(runCtx, t.Name()); denial != nil {
		return x.fail(StateFailed, denial)
	}

	x.transition(StateRunning)
	policy := e.cfg.Retry
	if override, ok := t.RetryPolicy(); ok {
		policy = override
	}
	data, terminal := x.runWithRecovery(policy)
	if terminal != nil {
		return terminal
	}

	x.transition(StatePostCheck)
	if missing := quality.MissingFields(data, t.OutputFields()); len(missing) > 0 {
		f := faults.New(t.Name(), faults.CodeOutputInvalid,
			fmt.Sprintf("result is missing %d declared output field(s)", len(missing))).
			WithDetails(map[string]any{"missing_fields": missing}).
			WithSuggestions("populate declared output fields: " + strings.Join(missing, ", "))
		return x.fail(StateFailed, f)
	}

	x.transition(StateQualityAssess)
	qa := e.assessor.Assess(data, t.Criteria())
	switch {
	case qa.Passed && x.usedFallback == "":
		return x.succeed(StateSuccess, StatusSuccess, data, qa)
	case qa.Passed:
		return x.succeed(StatePartialSuccess, StatusPartialSuccess, data, qa)
	case x.usedFallback != "" || e.cfg.Quality.BelowThreshold == config.OutcomePartial:
		// A below-gate score never yields Success. Fallback-produced data
		// stays available as a partial result; primary data degrades to
		// partial only when configured to.
		x.ec.warnf("quality score %.2f below gate %.2f; result degraded to partial success", qa.Overall, e.cfg.Quality.Minimum)
		return x.succeed(StatePartialSuccess, StatusPartialSuccess, data, qa)
	default:
		f := faults.New(t.Name(), faults.CodeQualityBelowThreshold,
			fmt.Sprintf("quality score %.2f is below the configured minimum %.2f", qa.Overall, e.cfg.Quality.Minimum)).
			WithDetails(map[string]any{"assessment": qa}).
			WithSuggestions("review the result data against the tool's quality criteria",
				"lower quality.minimum only if downstream consumers tolerate degraded results")
		return x.fail(StateFailed, f)
	}
}

// execution carries one invocation through the state machine.
type execution struct {
	engine *Engine
	tool   *tool.Tool
	ec     *executionContext
	ctx    context.Context
	logger *slog.Logger

	state        State
	usedFallback string
}

// transition advances the state machine, logging the event and notifying
// the observer.
func (x *execution) transition(to State) {
	from := x.state
	x.state = to
	x.logger.Info("state transition", "from", from, "to", to)
	x.engine.observer.StateTransition(x.ctx, x.ec.id, x.tool.Name(), from, to)
}

// runWithRecovery drives the retry loop and, on exhaustion, the fallback
// chain. It returns the produced data, or a finalized terminal result when
// recovery failed.
func (x *execution) runWithRecovery(policy retry.Policy) (map[string]any, *Result) {
	t := x.tool
	var trigger *faults.Fault

	for attempt := 1; ; attempt++ {
		x.ec.attempt = attempt

		out, err := t.Run(x.ctx, x.ec.params)
		if err == nil {
			return out, nil
		}

		f := faults.Classify(t.Name(), err)
		if f.Category == faults.CategoryCancelled {
			return nil, x.fail(StateFailed, f)
		}
		// An overrun noticed here converts the in-flight fault into a
		// timeout, which skips the remaining retry budget.
		if f.Category != faults.CategoryTimeout && !x.ec.deadline.IsZero() && x.engine.now().After(x.ec.deadline) {
			f = faults.New(t.Name(), faults.CodeTimeout, "execution deadline exceeded").WithCause(f)
		}

		if policy.Retryable(f.Category) && attempt < policy.MaxAttempts {
			delay := policy.Delay(attempt)
			x.logger.Warn("attempt failed, retrying", "attempt", attempt, "delay", delay, "error", err)
			x.engine.observer.RetryScheduled(x.ctx, x.ec.id, t.Name(), attempt, delay)
			x.ec.warnf("attempt %d failed: %v", attempt, err)

			if serr := policy.Sleep(x.ctx, attempt); serr != nil {
				if errors.Is(serr, context.Canceled) {
					return nil, x.fail(StateFailed, faults.Classify(t.Name(), serr))
				}
				trigger = faults.New(t.Name(), faults.CodeTimeout, "deadline exceeded during backoff").WithCause(f)
				break
			}
			continue
		}

		trigger = f
		break
	}

	data, used, exhausted := t.Fallbacks().Apply(x.ctx, trigger, x.ec.invocation(), func(strategy string, err error) {
		x.engine.observer.FallbackAttempted(x.ctx, x.ec.id, t.Name(), strategy, err)
		if err != nil {
			x.logger.Warn("fallback strategy failed", "strategy", strategy, "error", err)
		} else {
			x.logger.Info("fallback strategy succeeded", "strategy", strategy)
		}
	})
	if exhausted != nil {
		terminal := StateFailed
		if exhausted.Trigger.Category == faults.CategoryTimeout {
			terminal = StateTimeout
		}
		return nil, x.fail(terminal, exhausted.Fault())
	}

	x.usedFallback = used
	x.ec.warnf("primary execution failed (%s); fallback strategy %q produced the result", trigger.Code, used)
	return data, nil
}

// fail finalizes a terminal failure.
func (x *execution) fail(terminal State, f *faults.Fault) *Result {
	x.transition(terminal)

	status := StatusFailed
	if terminal == StateTimeout {
		status = StatusTimeout
	}
	return x.finish(&Result{
		ExecutionID: x.ec.id,
		Tool:        x.tool.Name(),
		Status:      status,
		Warnings:    append([]string(nil), x.ec.warnings...),
		Fault:       faults.Enrich(x.tool.Type(), f),
		Metrics: Metrics{
			Duration: x.engine.now().Sub(x.ec.started),
			Attempts: x.ec.attempt,
		},
		Timestamp: x.engine.now().UTC(),
	})
}

// succeed finalizes a Success or PartialSuccess result.
func (x *execution) succeed(terminal State, status Status, data map[string]any, qa quality.Assessment) *Result {
	x.transition(terminal)

	return x.finish(&Result{
		ExecutionID: x.ec.id,
		Tool:        x.tool.Name(),
		Status:      status,
		Data:        data,
		Warnings:    append([]string(nil), x.ec.warnings...),
		Quality:     &qa,
		Metrics: Metrics{
			Duration:     x.engine.now().Sub(x.ec.started),
			Attempts:     x.ec.attempt,
			FallbackUsed: x.usedFallback,
		},
		Timestamp: x.engine.now().UTC(),
	})
}

// finish logs the final status and notifies the observer. The result is
// never mutated after this point.
func (x *execution) finish(r *Result) *Result {
	x.logger.Info("execution finished",
		"status", r.Status,
		"duration", r.Metrics.Duration,
		"attempts", r.Metrics.Attempts,
		"fallback", r.Metrics.FallbackUsed,
	)
	// The execution's own deadline or cancellation must not suppress the
	// final event.
	x.engine.observer.ExecutionFinished(context.WithoutCancel(x.ctx), r)
	return r
}
