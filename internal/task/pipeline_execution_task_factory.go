package task

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// PipelineExecutionTaskFactory creates PipelineExecutionTask instances
type PipelineExecutionTaskFactory struct {
	orchestrator Orchestrator
	logger       *slog.Logger
}

// NewPipelineExecutionTaskFactory creates a new factory for
// PipelineExecutionTasks
func NewPipelineExecutionTaskFactory(
	orchestrator Orchestrator,
	logger *slog.Logger,
) *PipelineExecutionTaskFactory {
	return &PipelineExecutionTaskFactory{
		orchestrator: orchestrator,
		logger:       logger.With("component", "pipeline_execution_task_factory"),
	}
}

// CreateTask creates a new PipelineExecutionTask for the specified process
func (f *PipelineExecutionTaskFactory) CreateTask(
	processID uuid.UUID,
	questionID uuid.UUID,
	fileContent []byte,
	filename string,
) (Task, error) {
	return NewPipelineExecutionTask(
		processID,
		questionID,
		fileContent,
		filename,
		f.orchestrator,
		f.logger,
	)
}

// ResolveTask rebuilds an executable task from a persisted payload. The
// task store calls this when recovering rows after a restart so requeued
// tasks carry a live execution function again.
func (f *PipelineExecutionTaskFactory) ResolveTask(taskType string, payload []byte) (Task, error) {
	if taskType != TaskTypePipelineExecution {
		return nil, fmt.Errorf("unsupported task type %q", taskType)
	}

	var p pipelineExecutionPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("unmarshal pipeline execution payload: %w", err)
	}

	return f.CreateTask(p.ProcessID, p.QuestionID, p.FileContent, p.Filename)
}
