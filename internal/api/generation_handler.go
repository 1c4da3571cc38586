package api

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/edforge/edforge-api/internal/api/shared"
	"github.com/edforge/edforge-api/internal/service"
)

// GenerationHandler handles pipeline run requests: starting a run, polling
// its progress, and retrying a failed step.
type GenerationHandler struct {
	generationService service.GenerationService
	validator         *validator.Validate
	logger            *slog.Logger
}

// NewGenerationHandler creates a new GenerationHandler.
func NewGenerationHandler(generationService service.GenerationService, logger *slog.Logger) *GenerationHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GenerationHandler{
		generationService: generationService,
		validator:         validator.New(),
		logger:            logger.With(slog.String("component", "generation_handler")),
	}
}

// StartGeneration handles POST /api/generate requests. Execution happens
// asynchronously, so a successful submission returns 202 Accepted with the
// pending process.
func (h *GenerationHandler) StartGeneration(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	questionID, err := uuid.Parse(req.QuestionID)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid question_id")
		return
	}

	process, err := h.generationService.StartGeneration(r.Context(), questionID, nil, "")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	h.logger.InfoContext(r.Context(), "pipeline run accepted",
		slog.String("process_id", process.ID.String()),
		slog.String("question_id", questionID.String()))

	shared.RespondWithJSON(w, r, http.StatusAccepted, processToResponse(process))
}

// GetProgress handles GET /api/progress/{processId} requests.
func (h *GenerationHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	processID, ok := handlePathUUID(w, r, "processId")
	if !ok {
		return
	}

	progress, err := h.generationService.GetProgress(r.Context(), processID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	steps := make([]StepResponse, 0, len(progress.Steps))
	for _, step := range progress.Steps {
		steps = append(steps, stepToResponse(step))
	}

	shared.RespondWithJSON(w, r, http.StatusOK, ProgressResponse{
		Process: processToResponse(progress.Process),
		Steps:   steps,
	})
}

// RetryStep handles POST /api/steps/{stepId}/retry requests. Only steps in
// the error state can be retried; anything else yields 409 Conflict.
func (h *GenerationHandler) RetryStep(w http.ResponseWriter, r *http.Request) {
	stepID, ok := handlePathUUID(w, r, "stepId")
	if !ok {
		return
	}

	if err := h.generationService.RetryStep(r.Context(), stepID); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	h.logger.InfoContext(r.Context(), "step retried",
		slog.String("step_id", stepID.String()))

	shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{
		"status": "retried",
	})
}
