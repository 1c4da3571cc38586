package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/edforge/edforge-api/internal/domain"
	"github.com/edforge/edforge-api/internal/platform/logger"
	"github.com/edforge/edforge-api/internal/store"
)

// PostgresAnalysisStore implements the store.AnalysisStore interface
// using a PostgreSQL database as the storage backend. A question has at
// most one analysis row, enforced by a unique constraint on question_id.
type PostgresAnalysisStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresAnalysisStore creates a new PostgreSQL implementation of the
// AnalysisStore interface. If logger is nil, a default logger will be used.
func NewPostgresAnalysisStore(db store.DBTX, logger *slog.Logger) *PostgresAnalysisStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresAnalysisStore{
		db:     db,
		logger: logger.With(slog.String("component", "analysis_store")),
	}
}

// Ensure PostgresAnalysisStore implements store.AnalysisStore interface
var _ store.AnalysisStore = (*PostgresAnalysisStore)(nil)

// Upsert implements store.AnalysisStore.Upsert
// Re-analysis of a question updates the existing row in place.
func (s *PostgresAnalysisStore) Upsert(ctx context.Context, analysis *domain.QuestionAnalysis) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := analysis.Validate(); err != nil {
		log.Warn("analysis validation failed during upsert",
			slog.String("error", err.Error()),
			slog.String("question_id", analysis.QuestionID.String()))
		return err
	}

	keyConcepts, err := json.Marshal(analysis.KeyConcepts)
	if err != nil {
		return fmt.Errorf("failed to marshal key concepts: %w", err)
	}

	query := `
		INSERT INTO question_analyses (id, question_id, question_type, subject, difficulty, key_concepts, intent, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (question_id) DO UPDATE
		SET question_type = EXCLUDED.question_type,
		    subject = EXCLUDED.subject,
		    difficulty = EXCLUDED.difficulty,
		    key_concepts = EXCLUDED.key_concepts,
		    intent = EXCLUDED.intent,
		    updated_at = EXCLUDED.updated_at
	`
	_, err = s.db.ExecContext(
		ctx,
		query,
		analysis.ID,
		analysis.QuestionID,
		analysis.QuestionType,
		analysis.Subject,
		analysis.Difficulty,
		keyConcepts,
		analysis.Intent,
		analysis.UpdatedAt,
	)

	if err != nil {
		log.Error("failed to upsert question analysis",
			slog.String("error", err.Error()),
			slog.String("question_id", analysis.QuestionID.String()))
		return MapError(err)
	}

	log.Debug("question analysis upserted",
		slog.String("question_id", analysis.QuestionID.String()),
		slog.String("question_type", analysis.QuestionType))
	return nil
}

// GetByQuestionID implements store.AnalysisStore.GetByQuestionID
// Returns store.ErrAnalysisNotFound if no analysis exists.
func (s *PostgresAnalysisStore) GetByQuestionID(ctx context.Context, questionID uuid.UUID) (*domain.QuestionAnalysis, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, question_id, question_type, subject, difficulty, key_concepts, intent, updated_at
		FROM question_analyses
		WHERE question_id = $1
	`

	var analysis domain.QuestionAnalysis
	var keyConcepts []byte
	var intent sql.NullString

	err := s.db.QueryRowContext(ctx, query, questionID).Scan(
		&analysis.ID,
		&analysis.QuestionID,
		&analysis.QuestionType,
		&analysis.Subject,
		&analysis.Difficulty,
		&keyConcepts,
		&intent,
		&analysis.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("analysis not found",
				slog.String("question_id", questionID.String()))
			return nil, store.ErrAnalysisNotFound
		}
		log.Error("failed to get analysis by question ID",
			slog.String("error", err.Error()),
			slog.String("question_id", questionID.String()))
		return nil, MapError(err)
	}

	if len(keyConcepts) > 0 {
		if err := json.Unmarshal(keyConcepts, &analysis.KeyConcepts); err != nil {
			return nil, fmt.Errorf("failed to unmarshal key concepts: %w", err)
		}
	}
	analysis.Intent = intent.String

	return &analysis, nil
}

// WithTx implements store.AnalysisStore.WithTx
func (s *PostgresAnalysisStore) WithTx(tx *sql.Tx) store.AnalysisStore {
	return &PostgresAnalysisStore{
		db:     tx,
		logger: s.logger,
	}
}
