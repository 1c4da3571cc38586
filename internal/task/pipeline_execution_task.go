package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// Status constants for PipelineExecutionTask
// These match the TaskStatus values defined in task.go
const (
	statusPending    = "pending"
	statusProcessing = "processing"
	statusCompleted  = "completed"
	statusFailed     = "failed"
)

// Common errors
var (
	ErrNilOrchestrator = errors.New("orchestrator cannot be nil")
	ErrNilLogger       = errors.New("logger cannot be nil")
	ErrEmptyProcessID  = errors.New("process ID cannot be empty")
	ErrEmptyQuestionID = errors.New("question ID cannot be empty")
)

// Orchestrator defines the interface for pipeline execution. The task
// delegates the whole run to it; status bookkeeping on the process rows is
// the orchestrator's job, the task only reports its own outcome.
type Orchestrator interface {
	// Execute runs the pipeline for a process from its resume point,
	// returning the resulting visualization ID.
	Execute(ctx context.Context, processID, questionID uuid.UUID, fileContent []byte, filename string) (uuid.UUID, error)
}

// pipelineExecutionPayload represents the serialized data stored in the task
type pipelineExecutionPayload struct {
	ProcessID   uuid.UUID `json:"process_id"`
	QuestionID  uuid.UUID `json:"question_id"`
	FileContent []byte    `json:"file_content,omitempty"`
	Filename    string    `json:"filename,omitempty"`
}

// PipelineExecutionTask implements the Task interface for running the
// generation pipeline for one process
type PipelineExecutionTask struct {
	id           uuid.UUID
	processID    uuid.UUID
	questionID   uuid.UUID
	fileContent  []byte
	filename     string
	orchestrator Orchestrator
	logger       *slog.Logger
	status       string
}

// NewPipelineExecutionTask creates a new pipeline execution task
func NewPipelineExecutionTask(
	processID uuid.UUID,
	questionID uuid.UUID,
	fileContent []byte,
	filename string,
	orchestrator Orchestrator,
	logger *slog.Logger,
) (*PipelineExecutionTask, error) {
	if orchestrator == nil {
		return nil, ErrNilOrchestrator
	}
	if logger == nil {
		return nil, ErrNilLogger
	}
	if processID == uuid.Nil {
		return nil, ErrEmptyProcessID
	}
	if questionID == uuid.Nil {
		return nil, ErrEmptyQuestionID
	}

	return &PipelineExecutionTask{
		id:           uuid.New(),
		processID:    processID,
		questionID:   questionID,
		fileContent:  fileContent,
		filename:     filename,
		orchestrator: orchestrator,
		logger: logger.With(
			"task_type", TaskTypePipelineExecution,
			"process_id", processID),
		status: statusPending,
	}, nil
}

// ID returns the task's unique identifier
func (t *PipelineExecutionTask) ID() uuid.UUID {
	return t.id
}

// Type returns the task type identifier
func (t *PipelineExecutionTask) Type() string {
	return TaskTypePipelineExecution
}

// Payload returns the task data as a byte slice
func (t *PipelineExecutionTask) Payload() []byte {
	payload := pipelineExecutionPayload{
		ProcessID:   t.processID,
		QuestionID:  t.questionID,
		FileContent: t.fileContent,
		Filename:    t.filename,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		// If marshal fails, return an empty payload with error logged
		t.logger.Error("failed to marshal task payload", "error", err)
		return []byte{}
	}

	return data
}

// Status returns the current task status
func (t *PipelineExecutionTask) Status() TaskStatus {
	return TaskStatus(t.status)
}

// Execute runs the pipeline for the task's process. The orchestrator owns
// the process rows: it records per-stage steps, halts on failure, and
// stores the final artifacts. The task surfaces the run outcome so the
// runner can record it on the task row.
func (t *PipelineExecutionTask) Execute(ctx context.Context) error {
	t.status = statusProcessing
	t.logger.Info("starting pipeline execution task")

	if err := ctx.Err(); err != nil {
		t.status = statusFailed
		t.logger.Error("task cancelled by context", "error", err)
		return fmt.Errorf("task cancelled by context: %w", err)
	}

	visualizationID, err := t.orchestrator.Execute(
		ctx, t.processID, t.questionID, t.fileContent, t.filename)
	if err != nil {
		t.status = statusFailed
		t.logger.Error("pipeline execution failed", "error", err)
		return fmt.Errorf("pipeline execution failed: %w", err)
	}

	t.status = statusCompleted
	t.logger.Info("pipeline execution task completed",
		"visualization_id", visualizationID)
	return nil
}
