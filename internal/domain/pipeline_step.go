package domain

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// StepStatus represents the state of a single pipeline stage attempt.
type StepStatus string

// Possible step status values
const (
	StepStatusPending    StepStatus = "pending"
	StepStatusProcessing StepStatus = "processing"
	StepStatusCompleted  StepStatus = "completed"
	StepStatusSkipped    StepStatus = "skipped"
	StepStatusError      StepStatus = "error"
)

// Common validation errors for PipelineStep
var (
	ErrEmptyStepID        = errors.New("step ID cannot be empty")
	ErrEmptyStepProcessID = errors.New("step process ID cannot be empty")
	ErrEmptyStepName      = errors.New("step name cannot be empty")
	ErrInvalidStepNumber  = errors.New("step number must be positive")
)

// PipelineStep records one attempt at one pipeline stage. The input snapshot
// is sanitized before storage (binary payloads replaced by a size marker)
// and the output payload is what state replay folds on manual retry. A
// retried step is re-used with an incremented RetryCount, never duplicated.
type PipelineStep struct {
	ID            uuid.UUID       `json:"id"`
	ProcessID     uuid.UUID       `json:"process_id"`
	StepName      string          `json:"step_name"`
	StepNumber    int             `json:"step_number"`
	Status        StepStatus      `json:"status"`
	InputSnapshot json.RawMessage `json:"input_snapshot,omitempty"`
	Output        json.RawMessage `json:"output,omitempty"`
	Validation    json.RawMessage `json:"validation,omitempty"`
	ErrorMessage  string          `json:"error_message,omitempty"`
	RetryCount    int             `json:"retry_count"`
	StartedAt     time.Time       `json:"started_at"`
	FinishedAt    *time.Time      `json:"finished_at,omitempty"`
}

// NewPipelineStep creates a step record entering the processing state, with
// the sanitized entry-state snapshot captured before handler logic runs.
// Returns an error if validation fails.
func NewPipelineStep(
	processID uuid.UUID,
	stepName string,
	stepNumber int,
	inputSnapshot json.RawMessage,
) (*PipelineStep, error) {
	step := &PipelineStep{
		ID:            uuid.New(),
		ProcessID:     processID,
		StepName:      stepName,
		StepNumber:    stepNumber,
		Status:        StepStatusProcessing,
		InputSnapshot: inputSnapshot,
		RetryCount:    0,
		StartedAt:     time.Now().UTC(),
	}

	if err := step.Validate(); err != nil {
		return nil, err
	}

	return step, nil
}

// Validate checks if the PipelineStep has valid data.
// Returns an error if any field fails validation.
func (s *PipelineStep) Validate() error {
	if s.ID == uuid.Nil {
		return ErrEmptyStepID
	}

	if s.ProcessID == uuid.Nil {
		return ErrEmptyStepProcessID
	}

	if s.StepName == "" {
		return ErrEmptyStepName
	}

	if s.StepNumber < 1 {
		return ErrInvalidStepNumber
	}

	if !isValidStepStatus(s.Status) {
		return ErrInvalidStepStatus
	}

	return nil
}

// Duration returns how long the step attempt ran, or zero if it has not
// finished yet.
func (s *PipelineStep) Duration() time.Duration {
	if s.FinishedAt == nil {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// isValidStepStatus checks if the given status is a valid StepStatus.
func isValidStepStatus(status StepStatus) bool {
	switch status {
	case StepStatusPending, StepStatusProcessing, StepStatusCompleted,
		StepStatusSkipped, StepStatusError:
		return true
	default:
		return false
	}
}
