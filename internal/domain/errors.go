// Package domain defines the core business entities and errors.
package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrEmptyContent is returned when required content is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrInvalidProcessStatus is returned when a process status is not valid.
	ErrInvalidProcessStatus = errors.New("invalid process status")

	// ErrInvalidStepStatus is returned when a pipeline step status is not valid.
	ErrInvalidStepStatus = errors.New("invalid step status")

	// ErrInvalidProgress is returned when progress is outside the 0-100 range.
	ErrInvalidProgress = errors.New("progress must be between 0 and 100")

	// ErrInvalidTemplateType is returned when a template type is empty or
	// outside the closed catalog.
	ErrInvalidTemplateType = errors.New("invalid template type")
)
