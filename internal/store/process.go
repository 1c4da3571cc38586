package store

import (
	"context"
	"database/sql"

	"github.com/edforge/edforge-api/internal/domain"
	"github.com/google/uuid"
)

// ProcessStore defines the interface for pipeline run persistence.
type ProcessStore interface {
	// Create saves a new process to the store.
	// Returns validation errors from the domain Process if data is invalid.
	Create(ctx context.Context, process *domain.Process) error

	// GetByID retrieves a process by its unique ID.
	// Returns ErrProcessNotFound if the process does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Process, error)

	// UpdateStatus updates the status, progress, current step and error
	// message of an existing process in one write. The orchestrator calls
	// this at every stage boundary.
	// Returns ErrProcessNotFound if the process does not exist.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ProcessStatus, progress int, currentStep, errorMessage string) error

	// WithTx returns a new ProcessStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller.
	WithTx(tx *sql.Tx) ProcessStore
}

// StepStore defines the interface for pipeline step record persistence.
type StepStore interface {
	// Create saves a new step record, already in processing state with its
	// sanitized input snapshot attached.
	Create(ctx context.Context, step *domain.PipelineStep) error

	// GetByID retrieves a step by its unique ID.
	// Returns ErrStepNotFound if the step does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.PipelineStep, error)

	// GetByProcessID retrieves all step records for a process ordered by
	// step number ascending. Returns an empty slice when none exist.
	GetByProcessID(ctx context.Context, processID uuid.UUID) ([]*domain.PipelineStep, error)

	// GetLastCompletedStep returns the completed (or skipped) step with the
	// highest step number for a process, or ErrStepNotFound if no step has
	// completed yet. The resume point is this step's number plus one.
	GetLastCompletedStep(ctx context.Context, processID uuid.UUID) (*domain.PipelineStep, error)

	// Finalize records the step's exit: status, output payload, validation
	// result, error message and finish timestamp.
	// Returns ErrStepNotFound if the step does not exist.
	Finalize(ctx context.Context, step *domain.PipelineStep) error

	// IncrementRetry bumps the retry counter for a step. Manual retry
	// re-uses the step record rather than duplicating it.
	// Returns ErrStepNotFound if the step does not exist.
	IncrementRetry(ctx context.Context, id uuid.UUID) error

	// WithTx returns a new StepStore instance that uses the provided
	// transaction.
	WithTx(tx *sql.Tx) StepStore
}
