// Package schema provides declarative parameter validation for Armature
// tools.
//
// A Spec describes a tool's input parameters: which fields are required,
// their types, per-field constraints (numeric range, enum, regex pattern,
// file existence, list element type and length), default values, and
// cross-field rules written as CEL expressions. Compile turns a Spec into
// an immutable Schema with regexes and CEL programs compiled once, matching
// the load-once-at-registration contract.
//
// Validation aggregates every violation into a single fault rather than
// stopping at the first, so the caller gets the complete picture in one
// round trip. On success the validator returns a filled copy of the input
// with schema defaults applied; the input map itself is never mutated and
// the schema never touches external resources beyond the optional
// file-existence check.
package schema
