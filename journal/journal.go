// Package journal provides a Redis-backed observer for the Armature
// engine.
//
// Execution events are appended as JSON to a per-execution list with a
// configurable TTL, and every final result is published on a pub/sub
// channel. External dashboards subscribe to the channel or read the event
// lists; the engine itself neither formats nor stores anything beyond
// this wire format.
package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/armature-ai/armature"
)

// EventType discriminates journal entries.
type EventType string

const (
	EventStateTransition   EventType = "state_transition"
	EventRetryScheduled    EventType = "retry_scheduled"
	EventFallbackAttempted EventType = "fallback_attempted"
	EventFinished          EventType = "finished"
)

// Event is one journal entry. Fields irrelevant to the event type are
// omitted from the JSON.
type Event struct {
	Type        EventType `json:"type"`
	ExecutionID string    `json:"execution_id"`
	Tool        string    `json:"tool"`
	At          time.Time `json:"at"`

	From     string `json:"from,omitempty"`
	To       string `json:"to,omitempty"`
	Attempt  int    `json:"attempt,omitempty"`
	DelayMS  int64  `json:"delay_ms,omitempty"`
	Strategy string `json:"strategy,omitempty"`
	Error    string `json:"error,omitempty"`
	Status   string `json:"status,omitempty"`
}

// Options configures the journal connection and layout.
type Options struct {
	// URL is the Redis connection string (e.g. "redis://localhost:6379").
	URL string

	// Prefix namespaces the journal's keys. Defaults to "armature".
	Prefix string

	// TTL bounds how long per-execution event lists live.
	// Defaults to 24 hours.
	TTL time.Duration

	// ConnectTimeout is the maximum wait for connection establishment.
	// Defaults to 5 seconds.
	ConnectTimeout time.Duration
}

// Journal implements armature.Observer on Redis.
type Journal struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// New connects to Redis and verifies the connection with a ping.
func New(opts Options) (*Journal, error) {
	if opts.URL == "" {
		opts.URL = "redis://localhost:6379"
	}
	if opts.Prefix == "" {
		opts.Prefix = "armature"
	}
	if opts.TTL == 0 {
		opts.TTL = 24 * time.Hour
	}
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 5 * time.Second
	}

	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	redisOpts.DialTimeout = opts.ConnectTimeout

	client := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), opts.ConnectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &Journal{client: client, prefix: opts.Prefix, ttl: opts.TTL}, nil
}

// Close releases the Redis connection.
func (j *Journal) Close() error {
	return j.client.Close()
}

// EventsKey returns the key of an execution's event list.
func (j *Journal) EventsKey(executionID string) string {
	return fmt.Sprintf("%s:executions:%s:events", j.prefix, executionID)
}

// ResultsChannel returns the pub/sub channel final results are published
// on.
func (j *Journal) ResultsChannel() string {
	return j.prefix + ":results"
}

// StateTransition appends a transition event.
func (j *Journal) StateTransition(ctx context.Context, executionID, tool string, from, to armature.State) {
	j.append(ctx, Event{
		Type:        EventStateTransition,
		ExecutionID: executionID,
		Tool:        tool,
		At:          time.Now().UTC(),
		From:        string(from),
		To:          string(to),
	})
}

// RetryScheduled appends a retry event.
func (j *Journal) RetryScheduled(ctx context.Context, executionID, tool string, attempt int, delay time.Duration) {
	j.append(ctx, Event{
		Type:        EventRetryScheduled,
		ExecutionID: executionID,
		Tool:        tool,
		At:          time.Now().UTC(),
		Attempt:     attempt,
		DelayMS:     delay.Milliseconds(),
	})
}

// FallbackAttempted appends a fallback event with the strategy's outcome.
func (j *Journal) FallbackAttempted(ctx context.Context, executionID, tool, strategy string, err error) {
	e := Event{
		Type:        EventFallbackAttempted,
		ExecutionID: executionID,
		Tool:        tool,
		At:          time.Now().UTC(),
		Strategy:    strategy,
	}
	if err != nil {
		e.Error = err.Error()
	}
	j.append(ctx, e)
}

// ExecutionFinished appends the terminal event and publishes the full
// result on the results channel.
func (j *Journal) ExecutionFinished(ctx context.Context, result *armature.Result) {
	e := Event{
		Type:        EventFinished,
		ExecutionID: result.ExecutionID,
		Tool:        result.Tool,
		At:          time.Now().UTC(),
		Status:      string(result.Status),
	}
	if result.Fault != nil {
		e.Error = result.Fault.Error()
	}
	j.append(ctx, e)

	payload, err := json.Marshal(result)
	if err != nil {
		return
	}
	_ = j.client.Publish(ctx, j.ResultsChannel(), payload).Err()
}

// append serializes and pushes an event, refreshing the list TTL.
// Journal writes are best-effort: a sink outage must never fail an
// execution, so errors are swallowed.
func (j *Journal) append(ctx context.Context, e Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		return
	}
	key := j.EventsKey(e.ExecutionID)
	pipe := j.client.Pipeline()
	pipe.RPush(ctx, key, payload)
	pipe.Expire(ctx, key, j.ttl)
	_, _ = pipe.Exec(ctx)
}
