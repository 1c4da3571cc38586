package api

import (
	"log/slog"
	"net/http"

	"github.com/edforge/edforge-api/internal/api/shared"
	"github.com/edforge/edforge-api/internal/service"
)

// VisualizationHandler handles retrieval of generated exercises.
type VisualizationHandler struct {
	generationService service.GenerationService
	logger            *slog.Logger
}

// NewVisualizationHandler creates a new VisualizationHandler.
func NewVisualizationHandler(generationService service.GenerationService, logger *slog.Logger) *VisualizationHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &VisualizationHandler{
		generationService: generationService,
		logger:            logger.With(slog.String("component", "visualization_handler")),
	}
}

// GetVisualization handles GET /api/visualizations/{id} requests.
func (h *VisualizationHandler) GetVisualization(w http.ResponseWriter, r *http.Request) {
	visualizationID, ok := handlePathUUID(w, r, "id")
	if !ok {
		return
	}

	viz, err := h.generationService.GetVisualization(r.Context(), visualizationID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, visualizationToResponse(viz))
}

// GetVisualizationHTML handles GET /api/visualizations/{id}/html requests.
// It serves the rendered exercise document, generating it on first access.
func (h *VisualizationHandler) GetVisualizationHTML(w http.ResponseWriter, r *http.Request) {
	visualizationID, ok := handlePathUUID(w, r, "id")
	if !ok {
		return
	}

	html, err := h.generationService.RenderVisualizationHTML(r.Context(), visualizationID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(html)); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to write html response",
			slog.String("visualization_id", visualizationID.String()),
			slog.String("error", err.Error()))
	}
}

// ListQuestionVisualizations handles GET /api/questions/{id}/visualizations
// requests.
func (h *VisualizationHandler) ListQuestionVisualizations(w http.ResponseWriter, r *http.Request) {
	questionID, ok := handlePathUUID(w, r, "id")
	if !ok {
		return
	}

	visualizations, err := h.generationService.ListQuestionVisualizations(r.Context(), questionID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	responses := make([]VisualizationResponse, 0, len(visualizations))
	for _, viz := range visualizations {
		responses = append(responses, visualizationToResponse(viz))
	}

	shared.RespondWithJSON(w, r, http.StatusOK, responses)
}
