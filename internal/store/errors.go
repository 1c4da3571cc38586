package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the store.
	// This is a generic version of the entity-specific not found errors
	// (e.g., ErrQuestionNotFound, ErrProcessNotFound).
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate
	// of a unique entity.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored. Check the wrapped error for specific validation details.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrUpdateFailed is returned when an update operation fails, for example
	// because the entity does not exist or the update violates constraints.
	ErrUpdateFailed = errors.New("update failed")

	// ErrTransactionFailed is returned when a database transaction fails
	// to commit or when an operation within a transaction fails.
	ErrTransactionFailed = errors.New("transaction failed")

	// Entity-specific "not found" errors

	// ErrQuestionNotFound indicates that the requested question does not exist.
	ErrQuestionNotFound = fmt.Errorf("%w: question", ErrNotFound)

	// ErrProcessNotFound indicates that the requested process does not exist.
	ErrProcessNotFound = fmt.Errorf("%w: process", ErrNotFound)

	// ErrStepNotFound indicates that the requested pipeline step does not exist.
	ErrStepNotFound = fmt.Errorf("%w: pipeline step", ErrNotFound)

	// ErrAnalysisNotFound indicates that the question has no analysis row yet.
	ErrAnalysisNotFound = fmt.Errorf("%w: question analysis", ErrNotFound)

	// ErrStoryNotFound indicates that the requested story does not exist.
	ErrStoryNotFound = fmt.Errorf("%w: story", ErrNotFound)

	// ErrBlueprintNotFound indicates that the requested blueprint does not exist.
	ErrBlueprintNotFound = fmt.Errorf("%w: blueprint", ErrNotFound)

	// ErrVisualizationNotFound indicates that the requested visualization does not exist.
	ErrVisualizationNotFound = fmt.Errorf("%w: visualization", ErrNotFound)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
// All entity-specific not found errors wrap ErrNotFound, so a single
// errors.Is covers them.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}
