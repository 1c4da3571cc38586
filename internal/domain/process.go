package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ProcessStatus represents the lifecycle state of a pipeline run.
type ProcessStatus string

// Possible process status values
const (
	ProcessStatusPending    ProcessStatus = "pending"
	ProcessStatusProcessing ProcessStatus = "processing"
	ProcessStatusCompleted  ProcessStatus = "completed"
	ProcessStatusError      ProcessStatus = "error"
)

// Common validation errors for Process
var (
	ErrEmptyProcessID         = errors.New("process ID cannot be empty")
	ErrEmptyProcessQuestionID = errors.New("process question ID cannot be empty")
)

// Process represents one end-to-end pipeline run for a question. It tracks
// run status, coarse progress (0-100) and the step the run is currently on.
// Completed and error are terminal.
type Process struct {
	ID           uuid.UUID     `json:"id"`
	QuestionID   uuid.UUID     `json:"question_id"`
	Status       ProcessStatus `json:"status"`
	Progress     int           `json:"progress"`
	CurrentStep  string        `json:"current_step"`
	ErrorMessage string        `json:"error_message,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// NewProcess creates a new Process for the given question.
// It generates a new UUID for the process ID, sets the status to pending
// with zero progress, and sets the creation/update timestamps.
// Returns an error if validation fails.
func NewProcess(questionID uuid.UUID) (*Process, error) {
	process := &Process{
		ID:         uuid.New(),
		QuestionID: questionID,
		Status:     ProcessStatusPending,
		Progress:   0,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}

	if err := process.Validate(); err != nil {
		return nil, err
	}

	return process, nil
}

// Validate checks if the Process has valid data.
// Returns an error if any field fails validation.
func (p *Process) Validate() error {
	if p.ID == uuid.Nil {
		return ErrEmptyProcessID
	}

	if p.QuestionID == uuid.Nil {
		return ErrEmptyProcessQuestionID
	}

	if !isValidProcessStatus(p.Status) {
		return ErrInvalidProcessStatus
	}

	if p.Progress < 0 || p.Progress > 100 {
		return ErrInvalidProgress
	}

	return nil
}

// IsTerminal reports whether the process has reached a final state.
func (p *Process) IsTerminal() bool {
	return p.Status == ProcessStatusCompleted || p.Status == ProcessStatusError
}

// isValidProcessStatus checks if the given status is a valid ProcessStatus.
func isValidProcessStatus(status ProcessStatus) bool {
	switch status {
	case ProcessStatusPending, ProcessStatusProcessing,
		ProcessStatusCompleted, ProcessStatusError:
		return true
	default:
		return false
	}
}
