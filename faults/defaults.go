package faults

// This file registers default suggestions for the tool types the engine
// ships examples for. The init() function runs when the package is
// imported, so terminal faults from these tools always carry sensible
// next steps even when the embedder registers nothing.

func init() {
	registerGenericSuggestions()
	registerVideoAnalysisSuggestions()
	registerAudioCleanupSuggestions()
	registerContentSchedulingSuggestions()
}

// registerGenericSuggestions applies to any tool type without a specific
// registration.
func registerGenericSuggestions() {
	Register("*", CodeMissingField,
		"supply every required parameter listed in the fault details",
		"check the tool's schema for parameter names and types",
	)
	Register("*", CodeTypeMismatch,
		"convert the offending parameters to the declared types",
	)
	Register("*", CodeResourceBusy,
		"wait for system load to drop before resubmitting",
		"lower the engine's resource thresholds only if the host has headroom to spare",
	)
	Register("*", CodeTimeout,
		"increase the execution timeout if the workload is legitimately long-running",
		"reduce the input size or split it into smaller executions",
	)
	Register("*", CodeOutputInvalid,
		"verify the tool's core logic populates every declared output field",
	)
	Register("*", CodeFallbackExhausted,
		"review the per-strategy failure reasons in the fault details",
		"re-run with verbose logging to capture the primary failure",
	)
}

func registerVideoAnalysisSuggestions() {
	Register("video_analysis", CodeTimeout,
		"reduce the frame sampling rate to shorten analysis time",
		"split the video into shorter segments and analyze them separately",
	)
	Register("video_analysis", CodeExecutionFailed,
		"verify the video file is not corrupted and uses a supported codec",
		"try re-encoding the input to a common container format",
	)
}

func registerAudioCleanupSuggestions() {
	Register("audio_cleanup", CodeExecutionFailed,
		"verify the audio file is readable and not zero-length",
		"retry with a lower target quality to reduce processing cost",
	)
	Register("audio_cleanup", CodeTimeout,
		"process the audio in shorter chunks",
	)
}

func registerContentSchedulingSuggestions() {
	Register("content_scheduling", CodeExecutionFailed,
		"check connectivity and credentials for the target platform",
		"verify the scheduled time is in the future and within platform limits",
	)
	Register("content_scheduling", CodeResourceBusy,
		"defer scheduling until current batches drain",
	)
}
