package generation

import "errors"

// Common errors returned by the generation package
var (
	// ErrGenerationFailed is returned when content generation fails for any
	// general reason.
	ErrGenerationFailed = errors.New("content generation failed")

	// ErrInvalidResponse is returned when a provider response cannot be
	// parsed into the expected structure.
	ErrInvalidResponse = errors.New("invalid response from provider")

	// ErrValidationFailed is returned when generated output fails its
	// stage validator or the registry schema check.
	ErrValidationFailed = errors.New("generated output failed validation")

	// ErrTemplateNotFound is returned when the requested template is not in
	// the registry.
	ErrTemplateNotFound = errors.New("template not found in registry")

	// ErrAllProvidersFailed is returned when both the primary and the
	// fallback provider calls failed.
	ErrAllProvidersFailed = errors.New("primary and fallback providers both failed")
)
