package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/edforge/edforge-api/internal/analysis"
	"github.com/edforge/edforge-api/internal/api/shared"
	"github.com/edforge/edforge-api/internal/domain"
	"github.com/edforge/edforge-api/internal/redact"
	"github.com/edforge/edforge-api/internal/service"
	"github.com/edforge/edforge-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, service.ErrQuestionNotFound),
		errors.Is(err, service.ErrProcessNotFound),
		errors.Is(err, service.ErrStepNotFound),
		errors.Is(err, service.ErrVisualizationNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, service.ErrStepNotRetryable),
		errors.Is(err, service.ErrNoRenderableContent),
		errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrEmptyQuestionText),
		errors.Is(err, analysis.ErrUnsupportedFileType),
		errors.Is(err, analysis.ErrNoQuestionFound):
		return http.StatusBadRequest

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized error message based on the
// error type. Recognized errors get a fixed user-facing phrase;
// anything else passes through redaction so the message survives into
// the response without leaking sensitive detail.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	// Not found errors
	case errors.Is(err, service.ErrQuestionNotFound):
		return "Question not found"

	case errors.Is(err, service.ErrProcessNotFound):
		return "Process not found"

	case errors.Is(err, service.ErrStepNotFound):
		return "Pipeline step not found"

	case errors.Is(err, service.ErrVisualizationNotFound):
		return "Visualization not found"

	// Conflict errors
	case errors.Is(err, service.ErrStepNotRetryable):
		return "Only failed steps can be retried"

	case errors.Is(err, service.ErrNoRenderableContent):
		return "Visualization has no renderable content"

	case errors.Is(err, store.ErrDuplicate):
		return "Resource already exists"

	// Bad request errors
	case errors.Is(err, domain.ErrEmptyQuestionText):
		return "Question text cannot be empty"

	case errors.Is(err, analysis.ErrUnsupportedFileType):
		return "Unsupported file type"

	case errors.Is(err, analysis.ErrNoQuestionFound):
		return "No question found in the uploaded document"

	case errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, domain.ErrValidation):
		return "Invalid request data"

	case errors.Is(err, domain.ErrInvalidID):
		return "Invalid identifier"

	// Unknown errors map to 500; the response still carries the
	// underlying message so a failed generation is diagnosable from the
	// body alone, with credentials and the like scrubbed out.
	default:
		return redact.Error(err)
	}
}

// HandleAPIError writes an error response using the standard error mapping.
// When userMessage is empty, a safe message is derived from the error type.
// The raw error reaches the client only in redacted form.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, userMessage string) {
	status := MapErrorToStatusCode(err)
	if userMessage == "" {
		userMessage = GetSafeErrorMessage(err)
	}
	shared.RespondWithErrorAndLog(w, r, status, userMessage, err)
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	// Check if this is likely a validation error message
	if strings.Contains(errMsg, "Field validation") {
		// Extract the field name and validation tag
		// Example format: "Key: 'CreateQuestionRequest.Text' Error:Field validation for 'Text' failed on the 'required' tag"
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}

				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "uuid":
		return "invalid UUID format"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}
