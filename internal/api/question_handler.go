package api

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/edforge/edforge-api/internal/api/shared"
	"github.com/edforge/edforge-api/internal/service"
)

// maxUploadBytes caps the accepted size of an uploaded question document.
const maxUploadBytes = 1 << 20 // 1 MiB

// QuestionHandler handles question submission and retrieval requests.
type QuestionHandler struct {
	generationService service.GenerationService
	validator         *validator.Validate
	logger            *slog.Logger
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(generationService service.GenerationService, logger *slog.Logger) *QuestionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &QuestionHandler{
		generationService: generationService,
		validator:         validator.New(),
		logger:            logger.With(slog.String("component", "question_handler")),
	}
}

// CreateQuestion handles POST /api/questions requests.
func (h *QuestionHandler) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	var req CreateQuestionRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	question, err := h.generationService.CreateQuestion(r.Context(), req.Text, req.Options)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, questionToResponse(question))
}

// GetQuestion handles GET /api/questions/{id} requests.
func (h *QuestionHandler) GetQuestion(w http.ResponseWriter, r *http.Request) {
	questionID, ok := handlePathUUID(w, r, "id")
	if !ok {
		return
	}

	question, err := h.generationService.GetQuestion(r.Context(), questionID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, questionToResponse(question))
}

// UploadQuestion handles POST /api/upload requests. The question document is
// sent as a multipart form file under the "file" field.
func (h *QuestionHandler) UploadQuestion(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Missing file field")
		return
	}
	defer func() { _ = file.Close() }()

	content, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Failed to read uploaded file")
		return
	}
	if len(content) > maxUploadBytes {
		shared.RespondWithError(w, r, http.StatusRequestEntityTooLarge, "Uploaded file too large")
		return
	}

	question, err := h.generationService.CreateQuestionFromUpload(r.Context(), content, header.Filename)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	h.logger.InfoContext(r.Context(), "question uploaded",
		slog.String("question_id", question.ID.String()),
		slog.String("filename", header.Filename))

	shared.RespondWithJSON(w, r, http.StatusCreated, questionToResponse(question))
}
