package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/edforge/edforge-api/internal/analysis"
	"github.com/edforge/edforge-api/internal/domain"
	"github.com/edforge/edforge-api/internal/events"
	"github.com/edforge/edforge-api/internal/pipeline"
	"github.com/edforge/edforge-api/internal/store"
	"github.com/edforge/edforge-api/internal/task"
)

// StepRetrier re-runs a single failed pipeline step. Implemented by the
// pipeline orchestrator.
type StepRetrier interface {
	RetryStep(ctx context.Context, stepID uuid.UUID) error
}

// HTMLRenderer produces a self-contained HTML document from a run's story
// and blueprint artifacts.
type HTMLRenderer interface {
	Generate(ctx context.Context, story, blueprint map[string]interface{}) (string, error)
}

// Progress is the polling view of a running process: the process row plus
// its per-step records in stage order.
type Progress struct {
	Process *domain.Process
	Steps   []*domain.PipelineStep
}

// GenerationService provides question intake and pipeline run operations
type GenerationService interface {
	// CreateQuestion creates a question from submitted text and options.
	CreateQuestion(ctx context.Context, text string, options []string) (*domain.Question, error)

	// CreateQuestionFromUpload parses an uploaded document, extracts the
	// question it contains, and persists it with the upload recorded as its
	// source.
	CreateQuestionFromUpload(ctx context.Context, content []byte, filename string) (*domain.Question, error)

	// GetQuestion retrieves a question by its ID.
	GetQuestion(ctx context.Context, questionID uuid.UUID) (*domain.Question, error)

	// StartGeneration creates a pending process for the question and emits
	// the deferred pipeline execution request. The pipeline runs out of
	// band; callers poll GetProgress.
	StartGeneration(ctx context.Context, questionID uuid.UUID, fileContent []byte, filename string) (*domain.Process, error)

	// GetProgress returns the process state plus its step records.
	GetProgress(ctx context.Context, processID uuid.UUID) (*Progress, error)

	// RetryStep re-runs one failed step of a process.
	RetryStep(ctx context.Context, stepID uuid.UUID) error

	// GetVisualization retrieves a visualization by its ID.
	GetVisualization(ctx context.Context, visualizationID uuid.UUID) (*domain.Visualization, error)

	// ListQuestionVisualizations retrieves all visualizations generated for
	// a question, newest first.
	ListQuestionVisualizations(ctx context.Context, questionID uuid.UUID) ([]*domain.Visualization, error)

	// RenderVisualizationHTML returns the visualization's HTML document,
	// generating and persisting it on first request.
	RenderVisualizationHTML(ctx context.Context, visualizationID uuid.UUID) (string, error)
}

// GenerationServiceError wraps errors from the generation service with
// context.
type GenerationServiceError struct {
	// Operation is the operation that failed (e.g., "create_question")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for GenerationServiceError.
func (e *GenerationServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("generation service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("generation service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *GenerationServiceError) Unwrap() error {
	return e.Err
}

// NewGenerationServiceError creates a new GenerationServiceError. Known
// sentinel errors are returned directly without wrapping so the API layer
// can map them to status codes.
func NewGenerationServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, ErrQuestionNotFound),
		errors.Is(err, ErrProcessNotFound),
		errors.Is(err, ErrStepNotFound),
		errors.Is(err, ErrVisualizationNotFound),
		errors.Is(err, ErrStepNotRetryable),
		errors.Is(err, ErrNoRenderableContent):
		return err
	}

	switch {
	case errors.Is(err, store.ErrQuestionNotFound):
		return ErrQuestionNotFound
	case errors.Is(err, store.ErrProcessNotFound):
		return ErrProcessNotFound
	case errors.Is(err, store.ErrStepNotFound):
		return ErrStepNotFound
	case errors.Is(err, store.ErrVisualizationNotFound):
		return ErrVisualizationNotFound
	case errors.Is(err, pipeline.ErrInvalidStepState):
		return fmt.Errorf("%w: %v", ErrStepNotRetryable, err)
	}

	return &GenerationServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// generationServiceImpl implements the GenerationService interface
type generationServiceImpl struct {
	db             *sql.DB
	questions      store.QuestionStore
	processes      store.ProcessStore
	steps          store.StepStore
	blueprints     store.BlueprintStore
	visualizations store.VisualizationStore
	parser         *analysis.DocumentParser
	extractor      *analysis.QuestionExtractor
	retrier        StepRetrier
	renderer       HTMLRenderer
	eventEmitter   events.EventEmitter
	logger         *slog.Logger
}

// GenerationServiceConfig carries the service's collaborators.
type GenerationServiceConfig struct {
	DB                 *sql.DB
	QuestionStore      store.QuestionStore
	ProcessStore       store.ProcessStore
	StepStore          store.StepStore
	BlueprintStore     store.BlueprintStore
	VisualizationStore store.VisualizationStore
	Parser             *analysis.DocumentParser
	Extractor          *analysis.QuestionExtractor
	Retrier            StepRetrier
	Renderer           HTMLRenderer
	EventEmitter       events.EventEmitter
	Logger             *slog.Logger
}

// NewGenerationService creates a new GenerationService.
// It returns an error if any of the required dependencies are nil.
func NewGenerationService(cfg GenerationServiceConfig) (GenerationService, error) {
	missing := func(name string) error {
		return &GenerationServiceError{
			Operation: "create_service",
			Message:   name + " cannot be nil",
		}
	}

	switch {
	case cfg.DB == nil:
		return nil, missing("db")
	case cfg.QuestionStore == nil:
		return nil, missing("questionStore")
	case cfg.ProcessStore == nil:
		return nil, missing("processStore")
	case cfg.StepStore == nil:
		return nil, missing("stepStore")
	case cfg.VisualizationStore == nil:
		return nil, missing("visualizationStore")
	case cfg.EventEmitter == nil:
		return nil, missing("eventEmitter")
	case cfg.Retrier == nil:
		return nil, missing("retrier")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &generationServiceImpl{
		db:             cfg.DB,
		questions:      cfg.QuestionStore,
		processes:      cfg.ProcessStore,
		steps:          cfg.StepStore,
		blueprints:     cfg.BlueprintStore,
		visualizations: cfg.VisualizationStore,
		parser:         cfg.Parser,
		extractor:      cfg.Extractor,
		retrier:        cfg.Retrier,
		renderer:       cfg.Renderer,
		eventEmitter:   cfg.EventEmitter,
		logger:         logger.With("component", "generation_service"),
	}, nil
}

// CreateQuestion creates a question from submitted text and options.
func (s *generationServiceImpl) CreateQuestion(
	ctx context.Context,
	text string,
	options []string,
) (*domain.Question, error) {
	question, err := domain.NewQuestion(text, options)
	if err != nil {
		s.logger.Error("failed to create question object", "error", err)
		return nil, NewGenerationServiceError("create_question", "failed to create question object", err)
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.questions.WithTx(tx).Create(ctx, question); err != nil {
			return NewGenerationServiceError("create_question", "failed to save question", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("question created", "question_id", question.ID)
	return question, nil
}

// CreateQuestionFromUpload parses an uploaded document and persists the
// question extracted from it.
func (s *generationServiceImpl) CreateQuestionFromUpload(
	ctx context.Context,
	content []byte,
	filename string,
) (*domain.Question, error) {
	parsed, err := s.parser.Parse(ctx, content, filename)
	if err != nil {
		s.logger.Warn("failed to parse uploaded document",
			"error", err,
			"filename", filename)
		return nil, NewGenerationServiceError("upload_question", "failed to parse document", err)
	}

	extracted, err := s.extractor.Extract(ctx, parsed)
	if err != nil {
		s.logger.Warn("failed to extract question from document",
			"error", err,
			"filename", filename)
		return nil, NewGenerationServiceError("upload_question", "failed to extract question", err)
	}

	question, err := domain.NewQuestion(extracted.Text, extracted.Options)
	if err != nil {
		return nil, NewGenerationServiceError("upload_question", "failed to create question object", err)
	}
	question.SourceFile = filename

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.questions.WithTx(tx).Create(ctx, question); err != nil {
			return NewGenerationServiceError("upload_question", "failed to save question", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("question created from upload",
		"question_id", question.ID,
		"filename", filename)
	return question, nil
}

// GetQuestion retrieves a question by its ID.
func (s *generationServiceImpl) GetQuestion(ctx context.Context, questionID uuid.UUID) (*domain.Question, error) {
	question, err := s.questions.GetByID(ctx, questionID)
	if err != nil {
		return nil, NewGenerationServiceError("get_question", "failed to retrieve question", err)
	}
	return question, nil
}

// StartGeneration creates a pending process and emits the pipeline
// execution request event.
func (s *generationServiceImpl) StartGeneration(
	ctx context.Context,
	questionID uuid.UUID,
	fileContent []byte,
	filename string,
) (*domain.Process, error) {
	// The question must exist before a run is accepted for it.
	if _, err := s.questions.GetByID(ctx, questionID); err != nil {
		return nil, NewGenerationServiceError("start_generation", "failed to retrieve question", err)
	}

	process, err := domain.NewProcess(questionID)
	if err != nil {
		return nil, NewGenerationServiceError("start_generation", "failed to create process object", err)
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.processes.WithTx(tx).Create(ctx, process); err != nil {
			return NewGenerationServiceError("start_generation", "failed to save process", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	payload := struct {
		ProcessID   uuid.UUID `json:"process_id"`
		QuestionID  uuid.UUID `json:"question_id"`
		FileContent []byte    `json:"file_content,omitempty"`
		Filename    string    `json:"filename,omitempty"`
	}{
		ProcessID:   process.ID,
		QuestionID:  questionID,
		FileContent: fileContent,
		Filename:    filename,
	}

	event, err := events.NewTaskRequestEvent(task.TaskTypePipelineExecution, payload)
	if err != nil {
		return nil, NewGenerationServiceError("start_generation", "failed to create event", err)
	}

	if err := s.eventEmitter.EmitEvent(ctx, event); err != nil {
		s.logger.Error("failed to emit pipeline execution event",
			"error", err,
			"process_id", process.ID,
			"event_id", event.ID)
		return nil, NewGenerationServiceError("start_generation", "failed to emit event", err)
	}

	s.logger.Info("pipeline execution requested",
		"process_id", process.ID,
		"question_id", questionID,
		"event_id", event.ID)

	return process, nil
}

// GetProgress returns the process state plus its step records.
func (s *generationServiceImpl) GetProgress(ctx context.Context, processID uuid.UUID) (*Progress, error) {
	process, err := s.processes.GetByID(ctx, processID)
	if err != nil {
		return nil, NewGenerationServiceError("get_progress", "failed to retrieve process", err)
	}

	steps, err := s.steps.GetByProcessID(ctx, processID)
	if err != nil {
		return nil, NewGenerationServiceError("get_progress", "failed to retrieve steps", err)
	}

	return &Progress{Process: process, Steps: steps}, nil
}

// RetryStep re-runs one failed step of a process.
func (s *generationServiceImpl) RetryStep(ctx context.Context, stepID uuid.UUID) error {
	if err := s.retrier.RetryStep(ctx, stepID); err != nil {
		return NewGenerationServiceError("retry_step", "failed to retry step", err)
	}

	s.logger.Info("step retried", "step_id", stepID)
	return nil
}

// GetVisualization retrieves a visualization by its ID.
func (s *generationServiceImpl) GetVisualization(
	ctx context.Context,
	visualizationID uuid.UUID,
) (*domain.Visualization, error) {
	viz, err := s.visualizations.GetByID(ctx, visualizationID)
	if err != nil {
		return nil, NewGenerationServiceError("get_visualization", "failed to retrieve visualization", err)
	}
	return viz, nil
}

// ListQuestionVisualizations retrieves all visualizations for a question.
func (s *generationServiceImpl) ListQuestionVisualizations(
	ctx context.Context,
	questionID uuid.UUID,
) ([]*domain.Visualization, error) {
	visualizations, err := s.visualizations.FindByQuestionID(ctx, questionID)
	if err != nil {
		return nil, NewGenerationServiceError("list_visualizations", "failed to retrieve visualizations", err)
	}
	return visualizations, nil
}

// RenderVisualizationHTML returns the visualization's HTML document,
// generating it from the stored story and blueprint on first request and
// persisting the result.
func (s *generationServiceImpl) RenderVisualizationHTML(
	ctx context.Context,
	visualizationID uuid.UUID,
) (string, error) {
	viz, err := s.visualizations.GetByID(ctx, visualizationID)
	if err != nil {
		return "", NewGenerationServiceError("render_html", "failed to retrieve visualization", err)
	}

	if viz.HTML != "" {
		return viz.HTML, nil
	}

	if s.renderer == nil || viz.BlueprintID == nil || len(viz.Story) == 0 {
		return "", ErrNoRenderableContent
	}

	blueprint, err := s.blueprints.GetByID(ctx, *viz.BlueprintID)
	if err != nil {
		return "", NewGenerationServiceError("render_html", "failed to retrieve blueprint", err)
	}

	var story map[string]interface{}
	if err := json.Unmarshal(viz.Story, &story); err != nil {
		return "", NewGenerationServiceError("render_html", "failed to decode story", err)
	}

	var blueprintData map[string]interface{}
	if err := json.Unmarshal(blueprint.Data, &blueprintData); err != nil {
		return "", NewGenerationServiceError("render_html", "failed to decode blueprint", err)
	}

	html, err := s.renderer.Generate(ctx, story, blueprintData)
	if err != nil {
		return "", NewGenerationServiceError("render_html", "failed to generate html", err)
	}

	if err := s.visualizations.UpdateHTML(ctx, visualizationID, html); err != nil {
		// The render succeeded; a failed cache write is logged, not fatal.
		s.logger.Error("failed to persist rendered html",
			"error", err,
			"visualization_id", visualizationID)
	}

	s.logger.Info("visualization html rendered",
		"visualization_id", visualizationID,
		"html_bytes", len(html))

	return html, nil
}
