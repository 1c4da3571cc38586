package store

import (
	"context"
	"database/sql"

	"github.com/edforge/edforge-api/internal/domain"
	"github.com/google/uuid"
)

// QuestionStore defines the interface for question persistence.
type QuestionStore interface {
	// Create saves a new question to the store.
	Create(ctx context.Context, question *domain.Question) error

	// GetByID retrieves a question by its unique ID.
	// Returns ErrQuestionNotFound if the question does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Question, error)

	// WithTx returns a new QuestionStore instance that uses the provided
	// transaction.
	WithTx(tx *sql.Tx) QuestionStore
}

// AnalysisStore defines the interface for question analysis persistence.
// A question has at most one analysis row.
type AnalysisStore interface {
	// Upsert inserts the analysis for a question or updates the existing
	// row in place when one is already present.
	Upsert(ctx context.Context, analysis *domain.QuestionAnalysis) error

	// GetByQuestionID retrieves the analysis for a question.
	// Returns ErrAnalysisNotFound if none exists.
	GetByQuestionID(ctx context.Context, questionID uuid.UUID) (*domain.QuestionAnalysis, error)

	// WithTx returns a new AnalysisStore instance that uses the provided
	// transaction.
	WithTx(tx *sql.Tx) AnalysisStore
}
