package store

import (
	"context"
	"database/sql"

	"github.com/edforge/edforge-api/internal/domain"
	"github.com/google/uuid"
)

// StoryStore defines the interface for story artifact persistence.
type StoryStore interface {
	// Create saves a new story artifact.
	Create(ctx context.Context, story *domain.Story) error

	// GetByID retrieves a story by its unique ID.
	// Returns ErrStoryNotFound if the story does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Story, error)

	// WithTx returns a new StoryStore instance that uses the provided
	// transaction.
	WithTx(tx *sql.Tx) StoryStore
}

// BlueprintStore defines the interface for blueprint artifact persistence.
type BlueprintStore interface {
	// Create saves a new blueprint artifact.
	Create(ctx context.Context, blueprint *domain.Blueprint) error

	// GetByID retrieves a blueprint by its unique ID.
	// Returns ErrBlueprintNotFound if the blueprint does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Blueprint, error)

	// WithTx returns a new BlueprintStore instance that uses the provided
	// transaction.
	WithTx(tx *sql.Tx) BlueprintStore
}

// VisualizationStore defines the interface for visualization persistence.
type VisualizationStore interface {
	// Create saves a new visualization record.
	Create(ctx context.Context, viz *domain.Visualization) error

	// GetByID retrieves a visualization by its unique ID.
	// Returns ErrVisualizationNotFound if it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Visualization, error)

	// FindByQuestionID retrieves all visualizations for a question, newest
	// first. Returns an empty slice when none exist.
	FindByQuestionID(ctx context.Context, questionID uuid.UUID) ([]*domain.Visualization, error)

	// SetBlueprintID links a generated blueprint to an existing
	// visualization record.
	// Returns ErrVisualizationNotFound if the visualization does not exist.
	SetBlueprintID(ctx context.Context, id uuid.UUID, blueprintID uuid.UUID) error

	// UpdateHTML stores a rendered HTML document on an existing
	// visualization record.
	// Returns ErrVisualizationNotFound if the visualization does not exist.
	UpdateHTML(ctx context.Context, id uuid.UUID, html string) error

	// WithTx returns a new VisualizationStore instance that uses the
	// provided transaction.
	WithTx(tx *sql.Tx) VisualizationStore
}
