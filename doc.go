// Package armature provides a resilient execution engine for pluggable
// tools.
//
// The engine wraps an arbitrary core-logic callback — video frame
// analysis, audio cleanup, a platform API call, anything expressible as
// (params) -> data — with input validation, resource admission control,
// retry with backoff, an ordered fallback chain, and post-hoc quality
// scoring. The engine knows nothing about what the callback computes: it
// owns the pipeline around it and returns a single structured Result.
//
// Each execution walks a fixed state machine:
//
//	Pending -> Validating -> PreCheck -> Running -> PostCheck ->
//	QualityAssess -> {Success, PartialSuccess} | Failed | Timeout
//
// Validation and admission failures surface immediately; execution
// failures are retried per policy and then routed through the tool's
// fallback chain; deadline overruns skip the retry budget and go straight
// to fallback. Every success path is quality-scored before the result is
// finalized, and every failure carries a categorized fault with actionable
// suggestions. The public Execute boundary never returns a Go error: the
// Result's status and fault tell the whole story.
//
// Executions are independent units of work. Concurrent Execute calls
// share only read-only configuration and the resource guard's
// point-in-time snapshots, so no cross-execution locking is needed.
package armature
