package faults

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Fault is the structured error type for engine operations.
// It records which tool failed, the recovery category, a standard code,
// and can wrap an underlying cause.
type Fault struct {
	// Tool is the name of the tool whose execution produced the fault.
	Tool string `json:"tool"`

	// Category classifies the fault for recovery decisions.
	Category Category `json:"category"`

	// Code is a standard fault code constant.
	Code string `json:"code"`

	// Message is a human-readable description of the failure.
	Message string `json:"message"`

	// Details contains additional context as key-value pairs.
	Details map[string]any `json:"details,omitempty"`

	// Suggestions lists actionable next steps for the caller.
	Suggestions []string `json:"suggestions,omitempty"`

	// Cause is the underlying error, if any.
	Cause error `json:"-"`
}

// New creates a fault with the category derived from the code.
//
// Example:
//
//	f := faults.New("video_analysis", faults.CodeTimeout, "frame extraction exceeded deadline")
func New(tool, code, message string) *Fault {
	return &Fault{
		Tool:     tool,
		Category: DefaultCategoryForCode(code),
		Code:     code,
		Message:  message,
	}
}

// WithCategory overrides the derived category.
// Returns the same fault for chaining.
func (f *Fault) WithCategory(c Category) *Fault {
	f.Category = c
	return f
}

// WithCause attaches the underlying error.
// Returns the same fault for chaining.
func (f *Fault) WithCause(err error) *Fault {
	f.Cause = err
	return f
}

// WithDetails attaches additional context.
// Returns the same fault for chaining.
func (f *Fault) WithDetails(details map[string]any) *Fault {
	f.Details = details
	return f
}

// WithSuggestions appends actionable suggestions.
// Returns the same fault for chaining.
func (f *Fault) WithSuggestions(suggestions ...string) *Fault {
	f.Suggestions = append(f.Suggestions, suggestions...)
	return f
}

// Error implements the error interface.
// Format: "tool [category/code]: message: cause".
func (f *Fault) Error() string {
	parts := []string{fmt.Sprintf("%s [%s/%s]", f.Tool, f.Category, f.Code)}
	if f.Message != "" {
		parts = append(parts, f.Message)
	}
	if f.Cause != nil {
		parts = append(parts, f.Cause.Error())
	}
	return strings.Join(parts, ": ")
}

// Unwrap returns the underlying cause so errors.Is and errors.As see
// through the fault.
func (f *Fault) Unwrap() error {
	return f.Cause
}

// Is reports fault equality for errors.Is: two faults match when their
// tool, category, and code agree.
func (f *Fault) Is(target error) bool {
	t, ok := target.(*Fault)
	if !ok {
		return false
	}
	return f.Tool == t.Tool && f.Category == t.Category && f.Code == t.Code
}

// As extracts the fault for errors.As.
func (f *Fault) As(target any) bool {
	t, ok := target.(**Fault)
	if !ok {
		return false
	}
	*t = f
	return true
}

// Classify converts an arbitrary error from a core-logic callback or a
// fallback action into a categorized fault.
//
// Faults pass through unchanged apart from filling in an empty Tool field.
// Context errors map to the timeout and cancelled categories. Everything
// else becomes an execution fault wrapping the original error.
func Classify(tool string, err error) *Fault {
	if err == nil {
		return nil
	}

	var f *Fault
	if errors.As(err, &f) {
		if f.Tool == "" {
			f.Tool = tool
		}
		return f
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return New(tool, CodeTimeout, "execution deadline exceeded").WithCause(err)
	}
	if errors.Is(err, context.Canceled) {
		return New(tool, CodeCancelled, "execution cancelled by caller").WithCause(err)
	}

	return New(tool, CodeExecutionFailed, "core logic failed").WithCause(err)
}
