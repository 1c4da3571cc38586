package pipeline

import "errors"

// Pipeline state errors. These are the StateError family: the request was
// understood but the target is in a state that forbids it.
var (
	// ErrInvalidStepState is returned when a retry is requested for a step
	// that is not in error status.
	ErrInvalidStepState = errors.New("step is not in error state")

	// ErrUnknownStage is returned when a step record names a stage the
	// executor does not know.
	ErrUnknownStage = errors.New("unknown pipeline stage")

	// ErrStageFailed wraps a stage handler failure recorded on the step
	// record and raised as the run-level failure.
	ErrStageFailed = errors.New("pipeline stage failed")
)
