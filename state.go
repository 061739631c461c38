package armature

// State names a stage of the execution pipeline. Terminal states double as
// result statuses.
type State string

const (
	// StatePending is the initial state before any work happens.
	StatePending State = "pending"

	// StateValidating runs the input validator.
	StateValidating State = "validating"

	// StatePreCheck runs resource admission control.
	StatePreCheck State = "pre_check"

	// StateRunning invokes the core-logic callback under the retry loop,
	// falling back on exhaustion.
	StateRunning State = "running"

	// StatePostCheck structurally verifies the produced result.
	StatePostCheck State = "post_check"

	// StateQualityAssess scores the result and applies the quality gate.
	StateQualityAssess State = "quality_assess"

	// Terminal states.
	StateSuccess        State = "success"
	StatePartialSuccess State = "partial_success"
	StateFailed         State = "failed"
	StateTimeout        State = "timeout"
)

// Terminal reports whether the state ends the pipeline.
func (s State) Terminal() bool {
	switch s {
	case StateSuccess, StatePartialSuccess, StateFailed, StateTimeout:
		return true
	}
	return false
}
