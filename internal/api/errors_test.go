package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edforge/edforge-api/internal/analysis"
	"github.com/edforge/edforge-api/internal/api/shared"
	"github.com/edforge/edforge-api/internal/domain"
	"github.com/edforge/edforge-api/internal/service"
	"github.com/edforge/edforge-api/internal/store"
)

func TestMapErrorToStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"question not found", service.ErrQuestionNotFound, http.StatusNotFound},
		{"process not found", service.ErrProcessNotFound, http.StatusNotFound},
		{"step not found", service.ErrStepNotFound, http.StatusNotFound},
		{"visualization not found", service.ErrVisualizationNotFound, http.StatusNotFound},
		{"store not found", store.ErrNotFound, http.StatusNotFound},
		{"step not retryable", service.ErrStepNotRetryable, http.StatusConflict},
		{"no renderable content", service.ErrNoRenderableContent, http.StatusConflict},
		{"duplicate", store.ErrDuplicate, http.StatusConflict},
		{"invalid entity", store.ErrInvalidEntity, http.StatusBadRequest},
		{"validation", domain.ErrValidation, http.StatusBadRequest},
		{"invalid id", domain.ErrInvalidID, http.StatusBadRequest},
		{"empty question text", domain.ErrEmptyQuestionText, http.StatusBadRequest},
		{"unsupported file type", analysis.ErrUnsupportedFileType, http.StatusBadRequest},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError},
		{"wrapped sentinel", fmt.Errorf("context: %w", service.ErrStepNotRetryable), http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MapErrorToStatusCode(tt.err))
		})
	}
}

func TestGetSafeErrorMessage(t *testing.T) {
	t.Run("step not retryable names the constraint", func(t *testing.T) {
		msg := GetSafeErrorMessage(service.ErrStepNotRetryable)
		assert.Equal(t, "Only failed steps can be retried", msg)
	})

	t.Run("unknown errors surface their message", func(t *testing.T) {
		msg := GetSafeErrorMessage(errors.New("story generation failed: all providers failed: primary timeout"))
		assert.Equal(t, "story generation failed: all providers failed: primary timeout", msg)
	})

	t.Run("unknown errors are redacted before surfacing", func(t *testing.T) {
		msg := GetSafeErrorMessage(errors.New("dial postgres://edforge:hunter22@db:5432/edforge: refused"))
		assert.Contains(t, msg, "dial")
		assert.NotContains(t, msg, "hunter22")
	})

	t.Run("nil error yields a generic message", func(t *testing.T) {
		assert.Equal(t, "An unexpected error occurred", GetSafeErrorMessage(nil))
	})
}

func TestHandleAPIError_ServerErrorCarriesMessage(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/generate", nil)
	w := httptest.NewRecorder()

	HandleAPIError(w, req, errors.New("story generation failed: all providers failed: primary timeout"), "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var body shared.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body.Error, "all providers failed")
}

func TestSanitizeValidationError(t *testing.T) {
	t.Run("extracts field and tag from validator errors", func(t *testing.T) {
		err := errors.New(
			"Key: 'CreateQuestionRequest.Text' Error:Field validation for 'Text' failed on the 'required' tag")
		assert.Equal(t, "Invalid Text: required field", SanitizeValidationError(err))
	})

	t.Run("falls back to a generic message", func(t *testing.T) {
		assert.Equal(t, "Validation error", SanitizeValidationError(errors.New("weird error")))
	})
}
