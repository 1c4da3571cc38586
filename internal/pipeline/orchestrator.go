package pipeline

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/edforge/edforge-api/internal/domain"
	"github.com/edforge/edforge-api/internal/generation"
	"github.com/edforge/edforge-api/internal/store"
)

// Orchestrator drives a process through the fixed stage list: it computes
// the resume point from persisted step records, executes stages strictly
// sequentially, records every attempt, and persists the final artifacts in
// one transaction. A stage failure halts all later stages.
type Orchestrator struct {
	db             *sql.DB
	processes      store.ProcessStore
	steps          store.StepStore
	questions      store.QuestionStore
	stories        store.StoryStore
	blueprints     store.BlueprintStore
	visualizations store.VisualizationStore
	executor       *StepExecutor
	logger         *slog.Logger
}

// OrchestratorConfig carries the orchestrator's collaborators.
type OrchestratorConfig struct {
	DB                 *sql.DB
	ProcessStore       store.ProcessStore
	StepStore          store.StepStore
	QuestionStore      store.QuestionStore
	StoryStore         store.StoryStore
	BlueprintStore     store.BlueprintStore
	VisualizationStore store.VisualizationStore
	Executor           *StepExecutor
	Logger             *slog.Logger
}

func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Orchestrator{
		db:             cfg.DB,
		processes:      cfg.ProcessStore,
		steps:          cfg.StepStore,
		questions:      cfg.QuestionStore,
		stories:        cfg.StoryStore,
		blueprints:     cfg.BlueprintStore,
		visualizations: cfg.VisualizationStore,
		executor:       cfg.Executor,
		logger:         logger.With(slog.String("component", "orchestrator")),
	}
}

// Execute runs the pipeline for a process from its resume point to the
// end, returning the visualization ID on success. Already-completed steps
// are replayed from their persisted outputs, never re-executed.
func (o *Orchestrator) Execute(
	ctx context.Context,
	processID, questionID uuid.UUID,
	fileContent []byte,
	filename string,
) (uuid.UUID, error) {
	log := o.logger.With(
		slog.String("process_id", processID.String()),
		slog.String("question_id", questionID.String()))
	log.InfoContext(ctx, "starting pipeline execution")

	if err := o.processes.UpdateStatus(ctx, processID,
		domain.ProcessStatusProcessing, 0, "Initializing", ""); err != nil {
		return uuid.Nil, err
	}

	question, err := o.questions.GetByID(ctx, questionID)
	if err != nil {
		o.failProcess(ctx, processID, "Initializing", err)
		return uuid.Nil, err
	}

	state := NewTransientState(question, fileContent, filename)

	startFrom, err := o.resumePoint(ctx, processID, state)
	if err != nil {
		o.failProcess(ctx, processID, "Initializing", err)
		return uuid.Nil, err
	}

	for _, stage := range Stages {
		if stage.Number < startFrom {
			log.DebugContext(ctx, "skipping already-completed stage",
				slog.String("stage", stage.Name))
			continue
		}

		if err := o.executeStage(ctx, processID, stage, state, nil); err != nil {
			o.failProcess(ctx, processID, stage.Name, err)
			return uuid.Nil, err
		}

		if err := o.processes.UpdateStatus(ctx, processID,
			domain.ProcessStatusProcessing, progressAfter(stage.Number), stage.Name, ""); err != nil {
			return uuid.Nil, err
		}
	}

	visualizationID, err := o.storeResults(ctx, processID, questionID, state)
	if err != nil {
		o.failProcess(ctx, processID, "Storing results", err)
		return uuid.Nil, err
	}

	if err := o.processes.UpdateStatus(ctx, processID,
		domain.ProcessStatusCompleted, 100, "Complete", ""); err != nil {
		return uuid.Nil, err
	}

	log.InfoContext(ctx, "pipeline completed",
		slog.String("visualization_id", visualizationID.String()))

	return visualizationID, nil
}

// RetryStep re-runs one failed step of a process. The step must be in
// error status; the step record is re-used with an incremented retry
// count, never duplicated. Earlier completed steps are folded back into
// the state deterministically; later stages are not cascaded.
func (o *Orchestrator) RetryStep(ctx context.Context, stepID uuid.UUID) error {
	step, err := o.steps.GetByID(ctx, stepID)
	if err != nil {
		return err
	}

	if step.Status != domain.StepStatusError {
		return fmt.Errorf("%w: step %s has status %q",
			ErrInvalidStepState, stepID, step.Status)
	}

	stage, ok := StageByName(step.StepName)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownStage, step.StepName)
	}

	if err := o.steps.IncrementRetry(ctx, stepID); err != nil {
		return err
	}

	process, err := o.processes.GetByID(ctx, step.ProcessID)
	if err != nil {
		return err
	}

	question, err := o.questions.GetByID(ctx, process.QuestionID)
	if err != nil {
		return err
	}

	state := NewTransientState(question, nil, "")
	if err := o.replayCompletedSteps(ctx, step.ProcessID, state, step.StepNumber); err != nil {
		return err
	}

	o.logger.InfoContext(ctx, "retrying step",
		slog.String("step_id", stepID.String()),
		slog.String("stage", stage.Name),
		slog.Int("retry_count", step.RetryCount+1))

	return o.executeStage(ctx, step.ProcessID, stage, state, step)
}

// resumePoint finds where execution should start and replays earlier
// completed steps' outputs into the state.
func (o *Orchestrator) resumePoint(ctx context.Context, processID uuid.UUID, state *TransientState) (int, error) {
	last, err := o.steps.GetLastCompletedStep(ctx, processID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 1, nil
		}
		return 0, err
	}

	if err := o.replayCompletedSteps(ctx, processID, state, last.StepNumber+1); err != nil {
		return 0, err
	}

	return last.StepNumber + 1, nil
}

// replayCompletedSteps folds the outputs of completed steps with
// stepNumber < before into the state, in stage order.
func (o *Orchestrator) replayCompletedSteps(ctx context.Context, processID uuid.UUID, state *TransientState, before int) error {
	steps, err := o.steps.GetByProcessID(ctx, processID)
	if err != nil {
		return err
	}

	for _, s := range steps {
		if s.StepNumber >= before || s.Status != domain.StepStatusCompleted {
			continue
		}
		if err := state.ApplyOutput(s.StepName, s.Output); err != nil {
			return err
		}
	}

	return nil
}

// executeStage runs one stage, recording the attempt on a step record.
// When existing is nil a new record is created; a retry re-uses the failed
// record. The returned error is the run-level failure, already recorded.
func (o *Orchestrator) executeStage(
	ctx context.Context,
	processID uuid.UUID,
	stage Stage,
	state *TransientState,
	existing *domain.PipelineStep,
) error {
	log := o.logger.With(
		slog.String("process_id", processID.String()),
		slog.String("stage", stage.Name),
		slog.Int("stage_number", stage.Number))
	log.InfoContext(ctx, "executing stage")

	step := existing
	if step == nil {
		var err error
		step, err = domain.NewPipelineStep(processID, stage.Name, stage.Number, state.Snapshot())
		if err != nil {
			return err
		}
		if err := o.steps.Create(ctx, step); err != nil {
			return err
		}
	}

	result := o.executor.Execute(ctx, stage.Name, state)

	switch result.Outcome {
	case OutcomeSkipped:
		return o.finalizeStep(ctx, step, domain.StepStatusSkipped,
			skipOutput{Message: result.SkipReason}, nil, "")

	case OutcomeFailed:
		message := "stage failed"
		if result.Err != nil {
			message = result.Err.Error()
		}
		if err := o.finalizeStep(ctx, step, domain.StepStatusError,
			result.Output, result.Validation, message); err != nil {
			log.ErrorContext(ctx, "failed to record stage failure",
				slog.String("error", err.Error()))
		}
		log.ErrorContext(ctx, "stage failed", slog.String("error", message))
		return fmt.Errorf("%w: %s: %s", ErrStageFailed, stage.Name, message)

	default:
		if validate := validatorFor(stage.Name); validate != nil {
			validation := validate(result.Output)
			result.Validation = validation
			if !validation.IsValid {
				message := fmt.Sprintf("stage validation failed: %s",
					strings.Join(validation.Errors, ", "))
				if err := o.finalizeStep(ctx, step, domain.StepStatusError,
					result.Output, validation, message); err != nil {
					log.ErrorContext(ctx, "failed to record validation failure",
						slog.String("error", err.Error()))
				}
				return fmt.Errorf("%w: %s: %s", ErrStageFailed, stage.Name, message)
			}
		}

		if err := o.finalizeStep(ctx, step, domain.StepStatusCompleted,
			result.Output, result.Validation, ""); err != nil {
			return err
		}

		log.InfoContext(ctx, "stage completed")
		return nil
	}
}

// finalizeStep records the step's exit state.
func (o *Orchestrator) finalizeStep(
	ctx context.Context,
	step *domain.PipelineStep,
	status domain.StepStatus,
	output interface{},
	validation *generation.ValidationResult,
	errorMessage string,
) error {
	step.Status = status
	step.ErrorMessage = errorMessage
	now := time.Now().UTC()
	step.FinishedAt = &now

	if output != nil {
		data, err := json.Marshal(output)
		if err != nil {
			return fmt.Errorf("marshal step output: %w", err)
		}
		step.Output = data
	}
	if validation != nil {
		step.Validation = validation.ToJSON()
	}

	return o.steps.Finalize(ctx, step)
}

// storeResults persists the run's final artifacts atomically: the story,
// the blueprint with its asset map, and the visualization linking them.
func (o *Orchestrator) storeResults(
	ctx context.Context,
	processID, questionID uuid.UUID,
	state *TransientState,
) (uuid.UUID, error) {
	var visualizationID uuid.UUID

	err := store.RunInTransaction(ctx, o.db, func(ctx context.Context, tx *sql.Tx) error {
		var storyData json.RawMessage
		if state.Story != nil {
			data, err := json.Marshal(state.Story)
			if err != nil {
				return fmt.Errorf("marshal story: %w", err)
			}
			storyData = data

			story, err := domain.NewStory(questionID, data)
			if err != nil {
				return err
			}
			if err := o.stories.WithTx(tx).Create(ctx, story); err != nil {
				return err
			}
		}

		var blueprintID *uuid.UUID
		if state.Blueprint != nil {
			data, err := json.Marshal(state.Blueprint)
			if err != nil {
				return fmt.Errorf("marshal blueprint: %w", err)
			}

			var assets json.RawMessage
			if state.AssetURLs != nil {
				assets, err = json.Marshal(state.AssetURLs)
				if err != nil {
					return fmt.Errorf("marshal asset urls: %w", err)
				}
			}

			blueprint, err := domain.NewBlueprint(questionID, state.TemplateType, data, assets)
			if err != nil {
				return err
			}
			if err := o.blueprints.WithTx(tx).Create(ctx, blueprint); err != nil {
				return err
			}
			blueprintID = &blueprint.ID

			o.logger.InfoContext(ctx, "blueprint saved",
				slog.String("blueprint_id", blueprint.ID.String()),
				slog.String("template_type", blueprint.TemplateType))
		}

		viz, err := domain.NewVisualization(processID, questionID, "", storyData)
		if err != nil {
			return err
		}
		viz.BlueprintID = blueprintID
		if err := o.visualizations.WithTx(tx).Create(ctx, viz); err != nil {
			return err
		}

		visualizationID = viz.ID
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	return visualizationID, nil
}

// failProcess marks the process as failed at the given stage. The original
// failure is what propagates; recording errors are only logged.
func (o *Orchestrator) failProcess(ctx context.Context, processID uuid.UUID, currentStep string, cause error) {
	process, err := o.processes.GetByID(ctx, processID)
	progress := 0
	if err == nil {
		progress = process.Progress
	}

	if err := o.processes.UpdateStatus(ctx, processID,
		domain.ProcessStatusError, progress, currentStep, cause.Error()); err != nil {
		o.logger.ErrorContext(ctx, "failed to record process failure",
			slog.String("process_id", processID.String()),
			slog.String("error", err.Error()))
	}
}
