package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/edforge/edforge-api/internal/events"
)

// TaskFactoryEventHandler implements the events.EventHandler interface
// to handle task creation events and delegate them to the task factory.
// Services emit pipeline execution requests as events instead of depending
// on the task package directly.
type TaskFactoryEventHandler struct {
	taskFactory *PipelineExecutionTaskFactory
	taskRunner  *TaskRunner
	logger      *slog.Logger
}

// NewTaskFactoryEventHandler creates a new event handler that uses the given
// task factory to create tasks, and submits them to the provided task runner.
func NewTaskFactoryEventHandler(
	taskFactory *PipelineExecutionTaskFactory,
	taskRunner *TaskRunner,
	logger *slog.Logger,
) *TaskFactoryEventHandler {
	return &TaskFactoryEventHandler{
		taskFactory: taskFactory,
		taskRunner:  taskRunner,
		logger:      logger.With("component", "task_factory_event_handler"),
	}
}

// HandleEvent processes pipeline execution request events by creating and
// submitting tasks. Events with other types are ignored.
func (h *TaskFactoryEventHandler) HandleEvent(
	ctx context.Context,
	event *events.TaskRequestEvent,
) error {
	if event.Type != TaskTypePipelineExecution {
		h.logger.Debug("ignoring event with unsupported type",
			"event_type", event.Type,
			"event_id", event.ID)
		return nil
	}

	var payload struct {
		ProcessID   string `json:"process_id"`
		QuestionID  string `json:"question_id"`
		FileContent []byte `json:"file_content,omitempty"`
		Filename    string `json:"filename,omitempty"`
	}

	if err := event.UnmarshalPayload(&payload); err != nil {
		h.logger.Error("failed to unmarshal payload", "error", err, "event_id", event.ID)
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	processID, err := uuid.Parse(payload.ProcessID)
	if err != nil {
		h.logger.Error("invalid process ID",
			"error", err,
			"process_id", payload.ProcessID,
			"event_id", event.ID)
		return fmt.Errorf("invalid process ID: %w", err)
	}

	questionID, err := uuid.Parse(payload.QuestionID)
	if err != nil {
		h.logger.Error("invalid question ID",
			"error", err,
			"question_id", payload.QuestionID,
			"event_id", event.ID)
		return fmt.Errorf("invalid question ID: %w", err)
	}

	h.logger.Debug("creating task for process",
		"process_id", processID,
		"event_id", event.ID)
	task, err := h.taskFactory.CreateTask(
		processID, questionID, payload.FileContent, payload.Filename)
	if err != nil {
		h.logger.Error("failed to create task",
			"error", err,
			"process_id", processID,
			"event_id", event.ID)
		return fmt.Errorf("failed to create task: %w", err)
	}

	if err := h.taskRunner.Submit(ctx, task); err != nil {
		h.logger.Error("failed to submit task",
			"error", err,
			"task_id", task.ID(),
			"process_id", processID,
			"event_id", event.ID)
		return fmt.Errorf("failed to submit task: %w", err)
	}

	h.logger.Info("task created and submitted successfully",
		"task_id", task.ID(),
		"process_id", processID,
		"event_id", event.ID)
	return nil
}

// Ensure TaskFactoryEventHandler implements events.EventHandler
var _ events.EventHandler = (*TaskFactoryEventHandler)(nil)
