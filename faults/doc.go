// Package faults provides the structured error taxonomy for the Armature
// execution engine.
//
// Every failure that crosses a component boundary inside the engine is a
// *Fault: a categorized, coded error that carries the tool name, a
// human-readable message, optional details, a cause chain, and a list of
// actionable suggestions. The Category drives the engine's recovery
// decisions (retry, fallback, or fail fast); the suggestions become the
// "what to try next" section of the final result.
//
// The package integrates with the standard errors package: Faults support
// errors.Is, errors.As, and errors.Unwrap, and Classify converts arbitrary
// callback errors (including context.DeadlineExceeded and context.Canceled)
// into categorized Faults.
package faults
