package pipeline

import "github.com/edforge/edforge-api/internal/generation"

// Outcome is the explicit result variant every stage handler returns.
// The orchestrator inspects it instead of catching panics or sentinel
// errors from handlers.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeSkipped
	OutcomeFailed
)

// StageResult is a stage handler's verdict: what happened, the output
// payload to persist (and replay from), and the validation result when the
// stage ran one.
type StageResult struct {
	Outcome    Outcome
	Output     interface{}
	Validation *generation.ValidationResult
	SkipReason string
	Err        error
}

// Success builds a successful result carrying the stage output.
func Success(output interface{}) StageResult {
	return StageResult{Outcome: OutcomeSuccess, Output: output}
}

// SuccessWithValidation builds a successful result that also carries the
// stage's validation verdict for the step record.
func SuccessWithValidation(output interface{}, validation *generation.ValidationResult) StageResult {
	return StageResult{Outcome: OutcomeSuccess, Output: output, Validation: validation}
}

// Skipped builds a skip result. A skipped stage counts as completed for
// resume-point purposes.
func Skipped(reason string) StageResult {
	return StageResult{Outcome: OutcomeSkipped, SkipReason: reason}
}

// Failed builds a failure result carrying the handler error.
func Failed(err error) StageResult {
	return StageResult{Outcome: OutcomeFailed, Err: err}
}
