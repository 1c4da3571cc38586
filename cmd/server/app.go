package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/edforge/edforge-api/internal/analysis"
	"github.com/edforge/edforge-api/internal/config"
	"github.com/edforge/edforge-api/internal/events"
	"github.com/edforge/edforge-api/internal/generation"
	"github.com/edforge/edforge-api/internal/llm"
	"github.com/edforge/edforge-api/internal/pipeline"
	"github.com/edforge/edforge-api/internal/platform/postgres"
	"github.com/edforge/edforge-api/internal/service"
	"github.com/edforge/edforge-api/internal/store"
	"github.com/edforge/edforge-api/internal/task"
	"github.com/edforge/edforge-api/internal/template"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	// Stores
	questionStore      store.QuestionStore
	processStore       store.ProcessStore
	stepStore          store.StepStore
	analysisStore      store.AnalysisStore
	storyStore         store.StoryStore
	blueprintStore     store.BlueprintStore
	visualizationStore store.VisualizationStore
	taskStore          task.TaskStore

	// Generation stack
	gateway      llm.Gateway
	registry     *template.Registry
	orchestrator *pipeline.Orchestrator

	// Service layer
	generationService service.GenerationService

	// Event system and task handling
	eventEmitter events.EventEmitter
	taskRunner   *task.TaskRunner
}

// newApplication creates a new application instance with all dependencies
// initialized. Core dependencies like configuration, logger, and the
// database connection must be established before application initialization.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	// Stores
	app.questionStore = postgres.NewPostgresQuestionStore(db, logger)
	app.processStore = postgres.NewPostgresProcessStore(db, logger)
	app.stepStore = postgres.NewPostgresStepStore(db, logger)
	app.analysisStore = postgres.NewPostgresAnalysisStore(db, logger)
	app.storyStore = postgres.NewPostgresStoryStore(db, logger)
	app.blueprintStore = postgres.NewPostgresBlueprintStore(db, logger)
	app.visualizationStore = postgres.NewPostgresVisualizationStore(db, logger)

	// LLM gateway shared by all generators
	app.gateway = llm.NewClient(cfg.LLM, logger.With("component", "llm_gateway"))

	// Template catalog
	app.registry = template.NewRegistry(logger)
	status := app.registry.Load()
	if len(status.Missing) > 0 {
		logger.Warn("template catalog is partial",
			"loaded", len(status.Loaded),
			"missing", status.Missing)
	} else {
		logger.Info("template catalog loaded", "templates", len(status.Loaded))
	}

	// Content analysis and generation components
	parser := analysis.NewDocumentParser(logger)
	extractor := analysis.NewQuestionExtractor(logger)
	classifier := analysis.NewClassifier(app.gateway, logger)
	router := analysis.NewTemplateRouter(app.gateway, app.registry, logger)
	strategyBuilder := analysis.NewStrategyBuilder(logger)
	storyGenerator := generation.NewStoryGenerator(app.gateway, logger)
	blueprintGenerator := generation.NewBlueprintGenerator(app.gateway, app.registry, logger)
	assetPlanner := generation.NewAssetPlanner(logger)
	assetGenerator := generation.NewAssetGenerator(logger)
	htmlGenerator := generation.NewHTMLGenerator(app.gateway, logger)

	executor := pipeline.NewStepExecutor(pipeline.StepExecutorConfig{
		Parser:        parser,
		Extractor:     extractor,
		Classifier:    classifier,
		Router:        router,
		Strategy:      strategyBuilder,
		Story:         storyGenerator,
		Blueprint:     blueprintGenerator,
		Planner:       assetPlanner,
		Assets:        assetGenerator,
		AnalysisStore: app.analysisStore,
		Logger:        logger,
	})

	app.orchestrator = pipeline.NewOrchestrator(pipeline.OrchestratorConfig{
		DB:                 db,
		ProcessStore:       app.processStore,
		StepStore:          app.stepStore,
		QuestionStore:      app.questionStore,
		StoryStore:         app.storyStore,
		BlueprintStore:     app.blueprintStore,
		VisualizationStore: app.visualizationStore,
		Executor:           executor,
		Logger:             logger,
	})

	// Task factory resolves persisted tasks back into executable ones
	// during recovery, so it must exist before the task store.
	taskFactory := task.NewPipelineExecutionTaskFactory(app.orchestrator, logger)
	app.taskStore = postgres.NewPostgresTaskStore(db, taskFactory.ResolveTask, logger)

	var err error
	app.taskRunner, err = setupTaskRunner(app)
	if err != nil {
		return nil, fmt.Errorf("failed to setup task runner: %w", err)
	}

	// Event system: the service emits pipeline execution requests, the
	// handler turns them into tasks on the runner.
	emitter := events.NewInMemoryEventEmitter(logger)
	emitter.RegisterHandler(task.NewTaskFactoryEventHandler(taskFactory, app.taskRunner, logger))
	app.eventEmitter = emitter

	app.generationService, err = service.NewGenerationService(service.GenerationServiceConfig{
		DB:                 db,
		QuestionStore:      app.questionStore,
		ProcessStore:       app.processStore,
		StepStore:          app.stepStore,
		BlueprintStore:     app.blueprintStore,
		VisualizationStore: app.visualizationStore,
		Parser:             parser,
		Extractor:          extractor,
		Retrier:            app.orchestrator,
		Renderer:           htmlGenerator,
		EventEmitter:       app.eventEmitter,
		Logger:             logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create generation service: %w", err)
	}

	logger.Info("application initialized successfully")
	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// setupTaskRunner initializes and starts the background task processor.
// Starting the runner also recovers tasks left over from a previous run.
func setupTaskRunner(app *application) (*task.TaskRunner, error) {
	taskRunner := task.NewTaskRunner(app.taskStore, task.TaskRunnerConfig{
		QueueSize:    app.config.Pipeline.QueueSize,
		WorkerCount:  app.config.Pipeline.WorkerCount,
		StuckTaskAge: time.Duration(app.config.Pipeline.StuckTaskAgeMinutes) * time.Minute,
	}, app.logger)

	if err := taskRunner.Start(); err != nil {
		return nil, fmt.Errorf("failed to start task runner: %w", err)
	}

	return taskRunner, nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.taskRunner != nil {
		app.taskRunner.Stop()
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
	}

	app.logger.Info("application shutdown completed")
}
