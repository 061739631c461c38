package armature

import (
	"time"

	"github.com/armature-ai/armature/faults"
	"github.com/armature-ai/armature/quality"
)

// Status is the terminal outcome of one execution.
type Status string

const (
	// StatusSuccess means the primary callback produced the data and it
	// passed the quality gate.
	StatusSuccess Status = "success"

	// StatusPartialSuccess means the data is usable but degraded: a
	// fallback strategy produced it, or its quality fell below the gate
	// under the partial below-threshold policy.
	StatusPartialSuccess Status = "partial_success"

	// StatusFailed means no usable data was produced.
	StatusFailed Status = "failed"

	// StatusTimeout means the execution overran its deadline and no
	// fallback recovered it.
	StatusTimeout Status = "timeout"
)

// Metrics summarizes how the execution went.
type Metrics struct {
	// Duration is the wall-clock time from Execute entry to the result.
	Duration time.Duration `json:"duration"`

	// Attempts counts invocations of the primary callback.
	Attempts int `json:"attempts"`

	// FallbackUsed names the strategy that produced the data, empty when
	// the primary callback did.
	FallbackUsed string `json:"fallback_used,omitempty"`
}

// Result is the single value an execution returns. It is created once by
// the result reporter and immutable after creation; the engine never lets
// an error escape Execute in any other form.
type Result struct {
	// ExecutionID uniquely identifies this invocation.
	ExecutionID string `json:"execution_id"`

	// Tool is the name of the executed tool.
	Tool string `json:"tool"`

	// Status is the terminal outcome.
	Status Status `json:"status"`

	// Data is the produced result data, opaque to the engine. Present on
	// Success and PartialSuccess.
	Data map[string]any `json:"data,omitempty"`

	// Warnings accumulated during the execution, in order.
	Warnings []string `json:"warnings,omitempty"`

	// Fault describes the failure. Present only on non-Success paths.
	Fault *faults.Fault `json:"fault,omitempty"`

	// Quality is the computed assessment. Present on Success and
	// PartialSuccess, never on Failed or Timeout.
	Quality *quality.Assessment `json:"quality,omitempty"`

	// Metrics summarizes the execution.
	Metrics Metrics `json:"metrics"`

	// Timestamp is when the result was finalized, in UTC.
	Timestamp time.Time `json:"timestamp"`
}

// OK reports whether the result carries usable data.
func (r *Result) OK() bool {
	return r.Status == StatusSuccess || r.Status == StatusPartialSuccess
}
