package faults

// Category classifies a fault by how the engine may recover from it.
// Recovery policy is keyed on the category, never on concrete error types:
// the classification step assigns a category once and every later decision
// (retry, fallback, terminal status) reads it.
type Category string

const (
	// CategoryValidation indicates malformed caller-supplied parameters.
	// Never retried, never falls back: the caller must fix the input.
	CategoryValidation Category = "validation"

	// CategoryResource indicates admission was denied because a system
	// resource is over its configured threshold. Never retried by the
	// engine; the embedder should back off at a higher level.
	CategoryResource Category = "resource"

	// CategoryExecution indicates the core-logic callback failed.
	// Retried per policy, then routed to the fallback chain.
	CategoryExecution Category = "execution"

	// CategoryTimeout indicates the execution deadline was exceeded.
	// Bypasses the remaining retry budget and goes straight to fallback.
	CategoryTimeout Category = "timeout"

	// CategoryCancelled indicates the caller cancelled the execution.
	// Distinct from timeout: cancellation is caller-initiated.
	CategoryCancelled Category = "cancelled"

	// CategoryFallbackExhausted indicates every applicable fallback
	// strategy failed or none applied.
	CategoryFallbackExhausted Category = "fallback_exhausted"
)

// Standard fault codes used across the engine for consistent reporting.
const (
	// CodeMissingField indicates one or more required parameters are absent.
	CodeMissingField = "MISSING_FIELD"

	// CodeTypeMismatch indicates a parameter has the wrong declared type.
	CodeTypeMismatch = "TYPE_MISMATCH"

	// CodeConstraintViolation indicates a parameter failed a constraint check.
	CodeConstraintViolation = "CONSTRAINT_VIOLATION"

	// CodeResourceBusy indicates a system resource is over its admission threshold.
	CodeResourceBusy = "RESOURCE_BUSY"

	// CodeExecutionFailed indicates the core-logic callback returned an error.
	CodeExecutionFailed = "EXECUTION_FAILED"

	// CodeOutputInvalid indicates the callback ran but its output is missing
	// declared required fields.
	CodeOutputInvalid = "OUTPUT_INVALID"

	// CodeTimeout indicates the execution deadline was exceeded.
	CodeTimeout = "TIMEOUT"

	// CodeCancelled indicates the caller cancelled the execution.
	CodeCancelled = "CANCELLED"

	// CodeFallbackExhausted indicates the fallback chain produced no result.
	CodeFallbackExhausted = "FALLBACK_EXHAUSTED"

	// CodeQualityBelowThreshold indicates the result's quality score did
	// not meet the configured minimum.
	CodeQualityBelowThreshold = "QUALITY_BELOW_THRESHOLD"

	// CodeUnknownTool indicates the requested tool is not registered.
	CodeUnknownTool = "UNKNOWN_TOOL"
)

// DefaultCategoryForCode returns the category a fault code maps to when the
// producer did not set one explicitly.
func DefaultCategoryForCode(code string) Category {
	switch code {
	case CodeMissingField, CodeTypeMismatch, CodeConstraintViolation, CodeUnknownTool:
		return CategoryValidation
	case CodeResourceBusy:
		return CategoryResource
	case CodeTimeout:
		return CategoryTimeout
	case CodeCancelled:
		return CategoryCancelled
	case CodeFallbackExhausted:
		return CategoryFallbackExhausted
	default:
		// Unknown codes come out of callbacks, so treat them as execution
		// failures and let the retry policy decide.
		return CategoryExecution
	}
}

// Terminal reports whether a category admits no local recovery: the engine
// surfaces these immediately without retrying or consulting the fallback
// chain.
func (c Category) Terminal() bool {
	switch c {
	case CategoryValidation, CategoryResource, CategoryCancelled, CategoryFallbackExhausted:
		return true
	}
	return false
}
