// Package telemetry provides an OpenTelemetry-backed observer for the
// Armature engine.
//
// Each execution becomes one span, opened on the first state transition
// and closed when the execution finishes; intermediate transitions,
// retries, and fallback attempts are recorded as span events. Alongside
// the trace, the observer maintains counters for executions by terminal
// status, retries, and fallback attempts, and a histogram of execution
// duration.
package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/armature-ai/armature"
)

const instrumentationName = "github.com/armature-ai/armature"

// Observer implements armature.Observer on OpenTelemetry primitives.
type Observer struct {
	tracer trace.Tracer
	spans  sync.Map // execution id -> trace.Span

	executions metric.Int64Counter
	retries    metric.Int64Counter
	fallbacks  metric.Int64Counter
	duration   metric.Float64Histogram
}

// New creates an observer from the given providers.
func New(tp trace.TracerProvider, mp metric.MeterProvider) (*Observer, error) {
	meter := mp.Meter(instrumentationName)

	executions, err := meter.Int64Counter("armature.executions",
		metric.WithDescription("Finished executions by tool and terminal status"))
	if err != nil {
		return nil, err
	}
	retries, err := meter.Int64Counter("armature.retries",
		metric.WithDescription("Retry attempts scheduled"))
	if err != nil {
		return nil, err
	}
	fallbacks, err := meter.Int64Counter("armature.fallbacks",
		metric.WithDescription("Fallback strategy attempts by outcome"))
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram("armature.execution.duration",
		metric.WithDescription("Execution wall-clock duration"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	return &Observer{
		tracer:     tp.Tracer(instrumentationName),
		executions: executions,
		retries:    retries,
		fallbacks:  fallbacks,
		duration:   duration,
	}, nil
}

// StateTransition opens the execution's span on the first transition and
// records later ones as span events.
func (o *Observer) StateTransition(ctx context.Context, executionID, tool string, from, to armature.State) {
	if from == armature.StatePending {
		_, span := o.tracer.Start(ctx, "armature.execute",
			trace.WithAttributes(
				attribute.String("armature.execution_id", executionID),
				attribute.String("armature.tool", tool),
			))
		o.spans.Store(executionID, span)
		return
	}

	if span, ok := o.loadSpan(executionID); ok {
		span.AddEvent("state_transition", trace.WithAttributes(
			attribute.String("from", string(from)),
			attribute.String("to", string(to)),
		))
	}
}

// RetryScheduled counts the retry and records it on the span.
func (o *Observer) RetryScheduled(ctx context.Context, executionID, tool string, attempt int, delay time.Duration) {
	o.retries.Add(ctx, 1, metric.WithAttributes(attribute.String("tool", tool)))

	if span, ok := o.loadSpan(executionID); ok {
		span.AddEvent("retry_scheduled", trace.WithAttributes(
			attribute.Int("attempt", attempt),
			attribute.String("delay", delay.String()),
		))
	}
}

// FallbackAttempted counts the attempt and records its outcome.
func (o *Observer) FallbackAttempted(ctx context.Context, executionID, tool, strategy string, err error) {
	o.fallbacks.Add(ctx, 1, metric.WithAttributes(
		attribute.String("tool", tool),
		attribute.String("strategy", strategy),
		attribute.Bool("success", err == nil),
	))

	if span, ok := o.loadSpan(executionID); ok {
		attrs := []attribute.KeyValue{attribute.String("strategy", strategy)}
		if err != nil {
			attrs = append(attrs, attribute.String("error", err.Error()))
		}
		span.AddEvent("fallback_attempted", trace.WithAttributes(attrs...))
	}
}

// ExecutionFinished records the terminal metrics and closes the span.
func (o *Observer) ExecutionFinished(ctx context.Context, result *armature.Result) {
	attrs := metric.WithAttributes(
		attribute.String("tool", result.Tool),
		attribute.String("status", string(result.Status)),
	)
	o.executions.Add(ctx, 1, attrs)
	o.duration.Record(ctx, result.Metrics.Duration.Seconds(), attrs)

	span, ok := o.loadSpan(result.ExecutionID)
	if !ok {
		return
	}
	o.spans.Delete(result.ExecutionID)

	span.SetAttributes(
		attribute.String("armature.status", string(result.Status)),
		attribute.Int("armature.attempts", result.Metrics.Attempts),
	)
	if result.Metrics.FallbackUsed != "" {
		span.SetAttributes(attribute.String("armature.fallback_used", result.Metrics.FallbackUsed))
	}
	if result.Fault != nil {
		span.SetStatus(codes.Error, result.Fault.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

func (o *Observer) loadSpan(executionID string) (trace.Span, bool) {
	v, ok := o.spans.Load(executionID)
	if !ok {
		return nil, false
	}
	return v.(trace.Span), true
}
