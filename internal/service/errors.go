package service

import "errors"

// Common service errors - sentinel errors used across service implementations.
// These errors represent common conditions that callers may want to check for
// with errors.Is().
//
// Error handling principles:
// 1. Service methods return sentinel errors for expected error conditions
// 2. Unexpected errors are wrapped in service-specific error types
// 3. Callers use errors.Is/errors.As to check for specific error conditions
// 4. The API layer maps service errors to appropriate HTTP status codes
var (
	// ErrQuestionNotFound indicates that the question does not exist.
	// API layer should map this to HTTP 404 Not Found.
	ErrQuestionNotFound = errors.New("question not found")

	// ErrProcessNotFound indicates that the process does not exist.
	// API layer should map this to HTTP 404 Not Found.
	ErrProcessNotFound = errors.New("process not found")

	// ErrStepNotFound indicates that the pipeline step does not exist.
	// API layer should map this to HTTP 404 Not Found.
	ErrStepNotFound = errors.New("pipeline step not found")

	// ErrVisualizationNotFound indicates that the visualization does not
	// exist. API layer should map this to HTTP 404 Not Found.
	ErrVisualizationNotFound = errors.New("visualization not found")

	// ErrStepNotRetryable indicates a retry was requested for a step that is
	// not in error status. API layer should map this to HTTP 409 Conflict.
	ErrStepNotRetryable = errors.New("step is not in a retryable state")

	// ErrNoRenderableContent indicates a visualization has no blueprint or
	// story to render HTML from.
	ErrNoRenderableContent = errors.New("visualization has no renderable content")
)
