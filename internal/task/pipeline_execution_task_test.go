package task

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockOrchestrator implements the Orchestrator interface for testing
type mockOrchestrator struct {
	visualizationID uuid.UUID
	err             error
	calls           int
	gotProcessID    uuid.UUID
	gotQuestionID   uuid.UUID
	gotFileContent  []byte
	gotFilename     string
}

func (m *mockOrchestrator) Execute(
	_ context.Context,
	processID, questionID uuid.UUID,
	fileContent []byte,
	filename string,
) (uuid.UUID, error) {
	m.calls++
	m.gotProcessID = processID
	m.gotQuestionID = questionID
	m.gotFileContent = fileContent
	m.gotFilename = filename
	return m.visualizationID, m.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewPipelineExecutionTask(t *testing.T) {
	t.Parallel()

	orchestrator := &mockOrchestrator{}
	logger := discardLogger()
	processID := uuid.New()
	questionID := uuid.New()

	t.Run("valid task", func(t *testing.T) {
		t.Parallel()

		task, err := NewPipelineExecutionTask(processID, questionID, nil, "", orchestrator, logger)
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, task.ID())
		assert.Equal(t, TaskTypePipelineExecution, task.Type())
		assert.Equal(t, TaskStatusPending, task.Status())
	})

	t.Run("nil orchestrator", func(t *testing.T) {
		t.Parallel()

		_, err := NewPipelineExecutionTask(processID, questionID, nil, "", nil, logger)
		assert.ErrorIs(t, err, ErrNilOrchestrator)
	})

	t.Run("nil logger", func(t *testing.T) {
		t.Parallel()

		_, err := NewPipelineExecutionTask(processID, questionID, nil, "", orchestrator, nil)
		assert.ErrorIs(t, err, ErrNilLogger)
	})

	t.Run("empty process ID", func(t *testing.T) {
		t.Parallel()

		_, err := NewPipelineExecutionTask(uuid.Nil, questionID, nil, "", orchestrator, logger)
		assert.ErrorIs(t, err, ErrEmptyProcessID)
	})

	t.Run("empty question ID", func(t *testing.T) {
		t.Parallel()

		_, err := NewPipelineExecutionTask(processID, uuid.Nil, nil, "", orchestrator, logger)
		assert.ErrorIs(t, err, ErrEmptyQuestionID)
	})
}

func TestPipelineExecutionTask_Payload(t *testing.T) {
	t.Parallel()

	processID := uuid.New()
	questionID := uuid.New()
	content := []byte("Why is the sky blue?")

	task, err := NewPipelineExecutionTask(
		processID, questionID, content, "question.txt", &mockOrchestrator{}, discardLogger())
	require.NoError(t, err)

	var payload pipelineExecutionPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))

	assert.Equal(t, processID, payload.ProcessID)
	assert.Equal(t, questionID, payload.QuestionID)
	assert.Equal(t, content, payload.FileContent)
	assert.Equal(t, "question.txt", payload.Filename)
}

func TestPipelineExecutionTask_Execute(t *testing.T) {
	t.Parallel()

	t.Run("successful execution", func(t *testing.T) {
		t.Parallel()

		orchestrator := &mockOrchestrator{visualizationID: uuid.New()}
		processID := uuid.New()
		questionID := uuid.New()

		task, err := NewPipelineExecutionTask(
			processID, questionID, []byte("content"), "q.txt", orchestrator, discardLogger())
		require.NoError(t, err)

		require.NoError(t, task.Execute(context.Background()))

		assert.Equal(t, TaskStatusCompleted, task.Status())
		assert.Equal(t, 1, orchestrator.calls)
		assert.Equal(t, processID, orchestrator.gotProcessID)
		assert.Equal(t, questionID, orchestrator.gotQuestionID)
		assert.Equal(t, []byte("content"), orchestrator.gotFileContent)
		assert.Equal(t, "q.txt", orchestrator.gotFilename)
	})

	t.Run("orchestrator failure marks the task failed", func(t *testing.T) {
		t.Parallel()

		orchestrator := &mockOrchestrator{err: errors.New("stage failed")}

		task, err := NewPipelineExecutionTask(
			uuid.New(), uuid.New(), nil, "", orchestrator, discardLogger())
		require.NoError(t, err)

		err = task.Execute(context.Background())
		require.Error(t, err)
		assert.Equal(t, TaskStatusFailed, task.Status())
	})

	t.Run("cancelled context fails fast", func(t *testing.T) {
		t.Parallel()

		orchestrator := &mockOrchestrator{}
		task, err := NewPipelineExecutionTask(
			uuid.New(), uuid.New(), nil, "", orchestrator, discardLogger())
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err = task.Execute(ctx)
		require.Error(t, err)
		assert.Equal(t, TaskStatusFailed, task.Status())
		assert.Zero(t, orchestrator.calls)
	})
}

func TestPipelineExecutionTaskFactory_ResolveTask(t *testing.T) {
	t.Parallel()

	factory := NewPipelineExecutionTaskFactory(&mockOrchestrator{}, discardLogger())

	t.Run("rebuilds an executable task from a payload", func(t *testing.T) {
		t.Parallel()

		original, err := factory.CreateTask(uuid.New(), uuid.New(), []byte("content"), "q.txt")
		require.NoError(t, err)

		resolved, err := factory.ResolveTask(TaskTypePipelineExecution, original.Payload())
		require.NoError(t, err)
		assert.Equal(t, TaskTypePipelineExecution, resolved.Type())
		assert.Equal(t, original.Payload(), resolved.Payload())
	})

	t.Run("rejects unsupported task types", func(t *testing.T) {
		t.Parallel()

		_, err := factory.ResolveTask("mystery_task", []byte(`{}`))
		assert.Error(t, err)
	})

	t.Run("rejects malformed payloads", func(t *testing.T) {
		t.Parallel()

		_, err := factory.ResolveTask(TaskTypePipelineExecution, []byte(`not json`))
		assert.Error(t, err)
	})
}
