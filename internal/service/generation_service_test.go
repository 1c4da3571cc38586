package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edforge/edforge-api/internal/analysis"
	"github.com/edforge/edforge-api/internal/domain"
	"github.com/edforge/edforge-api/internal/events"
	"github.com/edforge/edforge-api/internal/pipeline"
	"github.com/edforge/edforge-api/internal/store"
	"github.com/edforge/edforge-api/internal/task"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// In-memory store fakes honoring the stores' not-found contracts.

type stubQuestionStore struct {
	questions map[uuid.UUID]*domain.Question
	createErr error
}

func newStubQuestionStore() *stubQuestionStore {
	return &stubQuestionStore{questions: make(map[uuid.UUID]*domain.Question)}
}

func (s *stubQuestionStore) Create(_ context.Context, question *domain.Question) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.questions[question.ID] = question
	return nil
}

func (s *stubQuestionStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Question, error) {
	question, ok := s.questions[id]
	if !ok {
		return nil, store.ErrQuestionNotFound
	}
	return question, nil
}

func (s *stubQuestionStore) WithTx(_ *sql.Tx) store.QuestionStore { return s }

type stubProcessStore struct {
	processes map[uuid.UUID]*domain.Process
}

func newStubProcessStore() *stubProcessStore {
	return &stubProcessStore{processes: make(map[uuid.UUID]*domain.Process)}
}

func (s *stubProcessStore) Create(_ context.Context, process *domain.Process) error {
	s.processes[process.ID] = process
	return nil
}

func (s *stubProcessStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Process, error) {
	process, ok := s.processes[id]
	if !ok {
		return nil, store.ErrProcessNotFound
	}
	return process, nil
}

func (s *stubProcessStore) UpdateStatus(_ context.Context, id uuid.UUID, status domain.ProcessStatus, progress int, currentStep, errorMessage string) error {
	process, ok := s.processes[id]
	if !ok {
		return store.ErrProcessNotFound
	}
	process.Status = status
	process.Progress = progress
	process.CurrentStep = currentStep
	process.ErrorMessage = errorMessage
	return nil
}

func (s *stubProcessStore) WithTx(_ *sql.Tx) store.ProcessStore { return s }

type stubStepStore struct {
	steps map[uuid.UUID][]*domain.PipelineStep
}

func newStubStepStore() *stubStepStore {
	return &stubStepStore{steps: make(map[uuid.UUID][]*domain.PipelineStep)}
}

func (s *stubStepStore) Create(_ context.Context, step *domain.PipelineStep) error {
	s.steps[step.ProcessID] = append(s.steps[step.ProcessID], step)
	return nil
}

func (s *stubStepStore) GetByID(_ context.Context, id uuid.UUID) (*domain.PipelineStep, error) {
	for _, steps := range s.steps {
		for _, step := range steps {
			if step.ID == id {
				return step, nil
			}
		}
	}
	return nil, store.ErrStepNotFound
}

func (s *stubStepStore) GetByProcessID(_ context.Context, processID uuid.UUID) ([]*domain.PipelineStep, error) {
	return s.steps[processID], nil
}

func (s *stubStepStore) GetLastCompletedStep(_ context.Context, _ uuid.UUID) (*domain.PipelineStep, error) {
	return nil, store.ErrStepNotFound
}

func (s *stubStepStore) Finalize(_ context.Context, _ *domain.PipelineStep) error { return nil }

func (s *stubStepStore) IncrementRetry(_ context.Context, _ uuid.UUID) error { return nil }

func (s *stubStepStore) WithTx(_ *sql.Tx) store.StepStore { return s }

type stubBlueprintStore struct {
	blueprints map[uuid.UUID]*domain.Blueprint
}

func newStubBlueprintStore() *stubBlueprintStore {
	return &stubBlueprintStore{blueprints: make(map[uuid.UUID]*domain.Blueprint)}
}

func (s *stubBlueprintStore) Create(_ context.Context, blueprint *domain.Blueprint) error {
	s.blueprints[blueprint.ID] = blueprint
	return nil
}

func (s *stubBlueprintStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Blueprint, error) {
	blueprint, ok := s.blueprints[id]
	if !ok {
		return nil, store.ErrBlueprintNotFound
	}
	return blueprint, nil
}

func (s *stubBlueprintStore) WithTx(_ *sql.Tx) store.BlueprintStore { return s }

type stubVisualizationStore struct {
	visualizations map[uuid.UUID]*domain.Visualization
	htmlWrites     int
}

func newStubVisualizationStore() *stubVisualizationStore {
	return &stubVisualizationStore{visualizations: make(map[uuid.UUID]*domain.Visualization)}
}

func (s *stubVisualizationStore) Create(_ context.Context, viz *domain.Visualization) error {
	s.visualizations[viz.ID] = viz
	return nil
}

func (s *stubVisualizationStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Visualization, error) {
	viz, ok := s.visualizations[id]
	if !ok {
		return nil, store.ErrVisualizationNotFound
	}
	return viz, nil
}

func (s *stubVisualizationStore) FindByQuestionID(_ context.Context, questionID uuid.UUID) ([]*domain.Visualization, error) {
	var result []*domain.Visualization
	for _, viz := range s.visualizations {
		if viz.QuestionID == questionID {
			result = append(result, viz)
		}
	}
	return result, nil
}

func (s *stubVisualizationStore) SetBlueprintID(_ context.Context, id, blueprintID uuid.UUID) error {
	viz, ok := s.visualizations[id]
	if !ok {
		return store.ErrVisualizationNotFound
	}
	viz.BlueprintID = &blueprintID
	return nil
}

func (s *stubVisualizationStore) UpdateHTML(_ context.Context, id uuid.UUID, html string) error {
	viz, ok := s.visualizations[id]
	if !ok {
		return store.ErrVisualizationNotFound
	}
	viz.HTML = html
	s.htmlWrites++
	return nil
}

func (s *stubVisualizationStore) WithTx(_ *sql.Tx) store.VisualizationStore { return s }

// capturingEmitter records emitted events without dispatching them.
type capturingEmitter struct {
	events []*events.TaskRequestEvent
	err    error
}

func (e *capturingEmitter) EmitEvent(_ context.Context, event *events.TaskRequestEvent) error {
	if e.err != nil {
		return e.err
	}
	e.events = append(e.events, event)
	return nil
}

type stubRetrier struct {
	err   error
	calls []uuid.UUID
}

func (r *stubRetrier) RetryStep(_ context.Context, stepID uuid.UUID) error {
	r.calls = append(r.calls, stepID)
	return r.err
}

type stubRenderer struct {
	html  string
	err   error
	calls int
}

func (r *stubRenderer) Generate(_ context.Context, _, _ map[string]interface{}) (string, error) {
	r.calls++
	return r.html, r.err
}

type serviceFixture struct {
	mock           sqlmock.Sqlmock
	questions      *stubQuestionStore
	processes      *stubProcessStore
	steps          *stubStepStore
	blueprints     *stubBlueprintStore
	visualizations *stubVisualizationStore
	emitter        *capturingEmitter
	retrier        *stubRetrier
	renderer       *stubRenderer
	service        GenerationService
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	f := &serviceFixture{
		mock:           mock,
		questions:      newStubQuestionStore(),
		processes:      newStubProcessStore(),
		steps:          newStubStepStore(),
		blueprints:     newStubBlueprintStore(),
		visualizations: newStubVisualizationStore(),
		emitter:        &capturingEmitter{},
		retrier:        &stubRetrier{},
		renderer:       &stubRenderer{html: "<!DOCTYPE html><html><body>exercise</body></html>"},
	}

	logger := testLogger()
	service, err := NewGenerationService(GenerationServiceConfig{
		DB:                 db,
		QuestionStore:      f.questions,
		ProcessStore:       f.processes,
		StepStore:          f.steps,
		BlueprintStore:     f.blueprints,
		VisualizationStore: f.visualizations,
		Parser:             analysis.NewDocumentParser(logger),
		Extractor:          analysis.NewQuestionExtractor(logger),
		Retrier:            f.retrier,
		Renderer:           f.renderer,
		EventEmitter:       f.emitter,
		Logger:             logger,
	})
	require.NoError(t, err)
	f.service = service

	return f
}

func TestNewGenerationService(t *testing.T) {
	t.Run("rejects nil event emitter", func(t *testing.T) {
		db, _, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		_, err = NewGenerationService(GenerationServiceConfig{
			DB:                 db,
			QuestionStore:      newStubQuestionStore(),
			ProcessStore:       newStubProcessStore(),
			StepStore:          newStubStepStore(),
			VisualizationStore: newStubVisualizationStore(),
			Retrier:            &stubRetrier{},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "eventEmitter")
	})
}

func TestGenerationService_CreateQuestion(t *testing.T) {
	t.Run("creates and persists a question", func(t *testing.T) {
		f := newServiceFixture(t)
		f.mock.ExpectBegin()
		f.mock.ExpectCommit()

		question, err := f.service.CreateQuestion(
			context.Background(), "Why is the sky blue?", []string{"Rayleigh scattering"})
		require.NoError(t, err)

		stored, err := f.questions.GetByID(context.Background(), question.ID)
		require.NoError(t, err)
		assert.Equal(t, "Why is the sky blue?", stored.Text)
		assert.NoError(t, f.mock.ExpectationsWereMet())
	})

	t.Run("rejects empty question text", func(t *testing.T) {
		f := newServiceFixture(t)

		_, err := f.service.CreateQuestion(context.Background(), "", nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrEmptyQuestionText)
	})
}

func TestGenerationService_CreateQuestionFromUpload(t *testing.T) {
	t.Run("parses and extracts the uploaded question", func(t *testing.T) {
		f := newServiceFixture(t)
		f.mock.ExpectBegin()
		f.mock.ExpectCommit()

		content := []byte("Why is the sky blue?\nA) Rayleigh scattering\nB) Reflection\n")
		question, err := f.service.CreateQuestionFromUpload(context.Background(), content, "question.txt")
		require.NoError(t, err)

		assert.Equal(t, "Why is the sky blue?", question.Text)
		assert.Equal(t, []string{"Rayleigh scattering", "Reflection"}, question.Options)
		assert.Equal(t, "question.txt", question.SourceFile)
	})

	t.Run("rejects unsupported file types", func(t *testing.T) {
		f := newServiceFixture(t)

		_, err := f.service.CreateQuestionFromUpload(
			context.Background(), []byte("content"), "question.pdf")
		require.Error(t, err)
		assert.ErrorIs(t, err, analysis.ErrUnsupportedFileType)
	})
}

func TestGenerationService_StartGeneration(t *testing.T) {
	t.Run("creates a pending process and emits the execution event", func(t *testing.T) {
		f := newServiceFixture(t)
		question, err := domain.NewQuestion("Why is the sky blue?", nil)
		require.NoError(t, err)
		require.NoError(t, f.questions.Create(context.Background(), question))

		f.mock.ExpectBegin()
		f.mock.ExpectCommit()

		process, err := f.service.StartGeneration(
			context.Background(), question.ID, []byte("content"), "q.txt")
		require.NoError(t, err)

		assert.Equal(t, domain.ProcessStatusPending, process.Status)
		assert.Zero(t, process.Progress)

		require.Len(t, f.emitter.events, 1)
		event := f.emitter.events[0]
		assert.Equal(t, task.TaskTypePipelineExecution, event.Type)

		var payload struct {
			ProcessID   uuid.UUID `json:"process_id"`
			QuestionID  uuid.UUID `json:"question_id"`
			FileContent []byte    `json:"file_content"`
			Filename    string    `json:"filename"`
		}
		require.NoError(t, json.Unmarshal(event.Payload, &payload))
		assert.Equal(t, process.ID, payload.ProcessID)
		assert.Equal(t, question.ID, payload.QuestionID)
		assert.Equal(t, []byte("content"), payload.FileContent)
		assert.Equal(t, "q.txt", payload.Filename)
	})

	t.Run("unknown question is rejected before any write", func(t *testing.T) {
		f := newServiceFixture(t)

		_, err := f.service.StartGeneration(context.Background(), uuid.New(), nil, "")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrQuestionNotFound)
		assert.Empty(t, f.emitter.events)
		assert.Empty(t, f.processes.processes)
	})
}

func TestGenerationService_GetProgress(t *testing.T) {
	t.Run("returns the process and its steps", func(t *testing.T) {
		f := newServiceFixture(t)

		process, err := domain.NewProcess(uuid.New())
		require.NoError(t, err)
		require.NoError(t, f.processes.Create(context.Background(), process))

		step, err := domain.NewPipelineStep(process.ID, "question_analysis", 3, nil)
		require.NoError(t, err)
		require.NoError(t, f.steps.Create(context.Background(), step))

		progress, err := f.service.GetProgress(context.Background(), process.ID)
		require.NoError(t, err)
		assert.Equal(t, process.ID, progress.Process.ID)
		require.Len(t, progress.Steps, 1)
		assert.Equal(t, "question_analysis", progress.Steps[0].StepName)
	})

	t.Run("unknown process maps to the service sentinel", func(t *testing.T) {
		f := newServiceFixture(t)

		_, err := f.service.GetProgress(context.Background(), uuid.New())
		assert.ErrorIs(t, err, ErrProcessNotFound)
	})
}

func TestGenerationService_RetryStep(t *testing.T) {
	t.Run("delegates to the retrier", func(t *testing.T) {
		f := newServiceFixture(t)
		stepID := uuid.New()

		require.NoError(t, f.service.RetryStep(context.Background(), stepID))
		assert.Equal(t, []uuid.UUID{stepID}, f.retrier.calls)
	})

	t.Run("maps invalid step state to the conflict sentinel", func(t *testing.T) {
		f := newServiceFixture(t)
		f.retrier.err = pipeline.ErrInvalidStepState

		err := f.service.RetryStep(context.Background(), uuid.New())
		assert.ErrorIs(t, err, ErrStepNotRetryable)
	})

	t.Run("maps missing step to the not found sentinel", func(t *testing.T) {
		f := newServiceFixture(t)
		f.retrier.err = store.ErrStepNotFound

		err := f.service.RetryStep(context.Background(), uuid.New())
		assert.ErrorIs(t, err, ErrStepNotFound)
	})
}

func TestGenerationService_RenderVisualizationHTML(t *testing.T) {
	newRenderableViz := func(t *testing.T, f *serviceFixture) *domain.Visualization {
		t.Helper()

		questionID := uuid.New()
		blueprint, err := domain.NewBlueprint(
			questionID, "SEQUENCE_BUILDER",
			json.RawMessage(`{"templateType":"SEQUENCE_BUILDER","title":"Order the steps"}`), nil)
		require.NoError(t, err)
		require.NoError(t, f.blueprints.Create(context.Background(), blueprint))

		viz, err := domain.NewVisualization(
			uuid.New(), questionID, "", json.RawMessage(`{"story_title":"Sky Lab"}`))
		require.NoError(t, err)
		viz.BlueprintID = &blueprint.ID
		require.NoError(t, f.visualizations.Create(context.Background(), viz))
		return viz
	}

	t.Run("generates and persists html on first request", func(t *testing.T) {
		f := newServiceFixture(t)
		viz := newRenderableViz(t, f)

		html, err := f.service.RenderVisualizationHTML(context.Background(), viz.ID)
		require.NoError(t, err)
		assert.Equal(t, f.renderer.html, html)
		assert.Equal(t, 1, f.renderer.calls)
		assert.Equal(t, 1, f.visualizations.htmlWrites)

		stored, err := f.visualizations.GetByID(context.Background(), viz.ID)
		require.NoError(t, err)
		assert.Equal(t, html, stored.HTML)
	})

	t.Run("serves cached html without re-rendering", func(t *testing.T) {
		f := newServiceFixture(t)
		viz := newRenderableViz(t, f)
		viz.HTML = "<!DOCTYPE html><html><body>cached</body></html>"

		html, err := f.service.RenderVisualizationHTML(context.Background(), viz.ID)
		require.NoError(t, err)
		assert.Equal(t, viz.HTML, html)
		assert.Zero(t, f.renderer.calls)
	})

	t.Run("visualization without a blueprint cannot be rendered", func(t *testing.T) {
		f := newServiceFixture(t)
		viz, err := domain.NewVisualization(
			uuid.New(), uuid.New(), "", json.RawMessage(`{"story_title":"Sky Lab"}`))
		require.NoError(t, err)
		require.NoError(t, f.visualizations.Create(context.Background(), viz))

		_, err = f.service.RenderVisualizationHTML(context.Background(), viz.ID)
		assert.ErrorIs(t, err, ErrNoRenderableContent)
	})

	t.Run("renderer failure is wrapped", func(t *testing.T) {
		f := newServiceFixture(t)
		viz := newRenderableViz(t, f)
		f.renderer.err = errors.New("all providers failed")

		_, err := f.service.RenderVisualizationHTML(context.Background(), viz.ID)
		require.Error(t, err)

		var serviceErr *GenerationServiceError
		assert.ErrorAs(t, err, &serviceErr)
	})
}
