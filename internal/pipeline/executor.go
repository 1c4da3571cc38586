package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/edforge/edforge-api/internal/analysis"
	"github.com/edforge/edforge-api/internal/domain"
	"github.com/edforge/edforge-api/internal/generation"
	"github.com/edforge/edforge-api/internal/store"
)

// Stage service interfaces. The executor depends on these rather than the
// concrete services so stage behavior can be tested with doubles.
type DocumentParser interface {
	Parse(ctx context.Context, content []byte, filename string) (*analysis.ParsedDocument, error)
}

type QuestionExtractor interface {
	Extract(ctx context.Context, parsed *analysis.ParsedDocument) (*analysis.ExtractedQuestion, error)
}

type Classifier interface {
	Analyze(ctx context.Context, text string, options []string) (*analysis.Analysis, error)
}

type TemplateRouter interface {
	Route(ctx context.Context, text string, a *analysis.Analysis) (*analysis.RoutingDecision, error)
}

type StrategyBuilder interface {
	Create(text string, a *analysis.Analysis) *generation.Strategy
}

type StoryGenerator interface {
	Generate(ctx context.Context, question generation.QuestionContext, strategy *generation.Strategy, templateType string) (map[string]interface{}, *generation.ValidationResult, error)
}

type BlueprintGenerator interface {
	Generate(ctx context.Context, story map[string]interface{}, templateType string) (map[string]interface{}, *generation.ValidationResult, error)
}

type AssetPlanner interface {
	Plan(ctx context.Context, blueprint map[string]interface{}) []domain.AssetRequest
}

type AssetGenerator interface {
	Generate(ctx context.Context, requests []domain.AssetRequest) map[string]string
}

// StepExecutor dispatches one stage to its handler and applies the stage's
// state delta. Handlers return an explicit result variant; they never
// panic their failures upward.
type StepExecutor struct {
	parser    DocumentParser
	extractor QuestionExtractor
	classifier Classifier
	router    TemplateRouter
	strategy  StrategyBuilder
	story     StoryGenerator
	blueprint BlueprintGenerator
	planner   AssetPlanner
	assets    AssetGenerator
	analyses  store.AnalysisStore
	logger    *slog.Logger
}

// StepExecutorConfig carries the executor's collaborators.
type StepExecutorConfig struct {
	Parser            DocumentParser
	Extractor         QuestionExtractor
	Classifier        Classifier
	Router            TemplateRouter
	Strategy          StrategyBuilder
	Story             StoryGenerator
	Blueprint         BlueprintGenerator
	Planner           AssetPlanner
	Assets            AssetGenerator
	AnalysisStore     store.AnalysisStore
	Logger            *slog.Logger
}

func NewStepExecutor(cfg StepExecutorConfig) *StepExecutor {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &StepExecutor{
		parser:     cfg.Parser,
		extractor:  cfg.Extractor,
		classifier: cfg.Classifier,
		router:     cfg.Router,
		strategy:   cfg.Strategy,
		story:      cfg.Story,
		blueprint:  cfg.Blueprint,
		planner:    cfg.Planner,
		assets:     cfg.Assets,
		analyses:   cfg.AnalysisStore,
		logger:     logger.With(slog.String("component", "step_executor")),
	}
}

// Execute runs one stage against the state, mutating the state on success.
func (e *StepExecutor) Execute(ctx context.Context, stageName string, state *TransientState) StageResult {
	switch stageName {
	case StageDocumentParsing:
		return e.executeDocumentParsing(ctx, state)
	case StageQuestionExtraction:
		return e.executeQuestionExtraction(ctx, state)
	case StageQuestionAnalysis:
		return e.executeQuestionAnalysis(ctx, state)
	case StageTemplateRouting:
		return e.executeTemplateRouting(ctx, state)
	case StageStrategyCreation:
		return e.executeStrategyCreation(ctx, state)
	case StageStoryGeneration:
		return e.executeStoryGeneration(ctx, state)
	case StageBlueprintGeneration:
		return e.executeBlueprintGeneration(ctx, state)
	case StageAssetPlanning:
		return e.executeAssetPlanning(ctx, state)
	case StageAssetGeneration:
		return e.executeAssetGeneration(ctx, state)
	default:
		return Failed(fmt.Errorf("%w: %q", ErrUnknownStage, stageName))
	}
}

func (e *StepExecutor) executeDocumentParsing(ctx context.Context, state *TransientState) StageResult {
	if len(state.FileContent) == 0 {
		return Skipped("file content not provided, using existing question")
	}

	parsed, err := e.parser.Parse(ctx, state.FileContent, state.Filename)
	if err != nil {
		return Failed(err)
	}

	state.Parsed = parsed
	return Success(parsed)
}

func (e *StepExecutor) executeQuestionExtraction(ctx context.Context, state *TransientState) StageResult {
	if state.Parsed == nil {
		extracted := analysis.FromStored(state.QuestionText, state.QuestionOptions)
		state.Extracted = extracted
		return Success(extracted)
	}

	extracted, err := e.extractor.Extract(ctx, state.Parsed)
	if err != nil {
		return Failed(err)
	}

	state.Extracted = extracted
	return Success(extracted)
}

func (e *StepExecutor) executeQuestionAnalysis(ctx context.Context, state *TransientState) StageResult {
	result, err := e.classifier.Analyze(ctx, state.EffectiveText(), state.EffectiveOptions())
	if err != nil {
		return Failed(err)
	}

	record, err := domain.NewQuestionAnalysis(state.QuestionID,
		result.QuestionType, result.Subject, result.Difficulty)
	if err != nil {
		return Failed(err)
	}
	record.KeyConcepts = result.KeyConcepts
	record.Intent = result.Intent

	if err := e.analyses.Upsert(ctx, record); err != nil {
		return Failed(fmt.Errorf("persist question analysis: %w", err))
	}

	state.Analysis = result
	return Success(result)
}

func (e *StepExecutor) executeTemplateRouting(ctx context.Context, state *TransientState) StageResult {
	decision, err := e.router.Route(ctx, state.EffectiveText(), state.Analysis)
	if err != nil {
		return Failed(err)
	}

	state.Routing = decision
	state.TemplateType = decision.TemplateType

	e.logger.InfoContext(ctx, "template routed",
		slog.String("question_id", state.QuestionID.String()),
		slog.String("template_type", decision.TemplateType),
		slog.Float64("confidence", decision.Confidence))

	return Success(decision)
}

func (e *StepExecutor) executeStrategyCreation(_ context.Context, state *TransientState) StageResult {
	strategy := e.strategy.Create(state.EffectiveText(), state.Analysis)
	state.Strategy = strategy
	return Success(strategy)
}

func (e *StepExecutor) executeStoryGeneration(ctx context.Context, state *TransientState) StageResult {
	story, validation, err := e.story.Generate(ctx, e.questionContext(state), state.Strategy, state.TemplateType)
	if err != nil {
		return StageResult{Outcome: OutcomeFailed, Validation: validation, Err: err}
	}

	state.Story = story
	return SuccessWithValidation(story, validation)
}

func (e *StepExecutor) executeBlueprintGeneration(ctx context.Context, state *TransientState) StageResult {
	blueprint, validation, err := e.blueprint.Generate(ctx, state.Story, state.TemplateType)
	if err != nil {
		return StageResult{Outcome: OutcomeFailed, Validation: validation, Err: err}
	}

	state.Blueprint = blueprint

	e.logger.InfoContext(ctx, "blueprint generated",
		slog.String("question_id", state.QuestionID.String()),
		slog.String("template_type", state.TemplateType))

	return SuccessWithValidation(blueprint, validation)
}

func (e *StepExecutor) executeAssetPlanning(ctx context.Context, state *TransientState) StageResult {
	requests := e.planner.Plan(ctx, state.Blueprint)
	state.AssetRequests = requests

	e.logger.InfoContext(ctx, "assets planned",
		slog.String("question_id", state.QuestionID.String()),
		slog.Int("asset_request_count", len(requests)))

	return Success(assetPlanOutput{AssetRequests: requests, RequestCount: len(requests)})
}

func (e *StepExecutor) executeAssetGeneration(ctx context.Context, state *TransientState) StageResult {
	urls := e.assets.Generate(ctx, state.AssetRequests)
	generation.InjectAssetURLs(state.Blueprint, urls)
	state.AssetURLs = urls

	for purpose, url := range urls {
		e.logger.InfoContext(ctx, "asset generated",
			slog.String("question_id", state.QuestionID.String()),
			slog.String("purpose", purpose),
			slog.String("url", url))
	}

	return Success(assetGenOutput{AssetURLs: urls, Blueprint: state.Blueprint})
}

func (e *StepExecutor) questionContext(state *TransientState) generation.QuestionContext {
	qc := generation.QuestionContext{
		Text:    state.EffectiveText(),
		Options: state.EffectiveOptions(),
	}
	if state.Analysis != nil {
		qc.QuestionType = state.Analysis.QuestionType
		qc.Subject = state.Analysis.Subject
		qc.Difficulty = state.Analysis.Difficulty
		qc.KeyConcepts = state.Analysis.KeyConcepts
		qc.Intent = state.Analysis.Intent
	}
	return qc
}
