package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/edforge/edforge-api/internal/domain"
	"github.com/edforge/edforge-api/internal/platform/logger"
	"github.com/edforge/edforge-api/internal/store"
)

// PostgresVisualizationStore implements the store.VisualizationStore
// interface using a PostgreSQL database as the storage backend.
type PostgresVisualizationStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresVisualizationStore creates a new PostgreSQL implementation of
// the VisualizationStore interface. If logger is nil, a default logger will
// be used.
func NewPostgresVisualizationStore(db store.DBTX, logger *slog.Logger) *PostgresVisualizationStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresVisualizationStore{
		db:     db,
		logger: logger.With(slog.String("component", "visualization_store")),
	}
}

// Ensure PostgresVisualizationStore implements store.VisualizationStore interface
var _ store.VisualizationStore = (*PostgresVisualizationStore)(nil)

// Create implements store.VisualizationStore.Create
func (s *PostgresVisualizationStore) Create(ctx context.Context, viz *domain.Visualization) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := viz.Validate(); err != nil {
		log.Warn("visualization validation failed during create",
			slog.String("error", err.Error()),
			slog.String("visualization_id", viz.ID.String()))
		return err
	}

	query := `
		INSERT INTO visualizations (id, process_id, question_id, html, story, blueprint_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		viz.ID,
		viz.ProcessID,
		viz.QuestionID,
		viz.HTML,
		nullableJSON(viz.Story),
		viz.BlueprintID,
		viz.CreatedAt,
	)

	if err != nil {
		log.Error("failed to create visualization",
			slog.String("error", err.Error()),
			slog.String("visualization_id", viz.ID.String()))
		return MapError(err)
	}

	log.Info("visualization created",
		slog.String("visualization_id", viz.ID.String()),
		slog.String("process_id", viz.ProcessID.String()))
	return nil
}

// GetByID implements store.VisualizationStore.GetByID
// Returns store.ErrVisualizationNotFound if it does not exist.
func (s *PostgresVisualizationStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Visualization, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, process_id, question_id, html, story, blueprint_id, created_at
		FROM visualizations
		WHERE id = $1
	`

	viz, err := s.scanVisualization(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("visualization not found",
				slog.String("visualization_id", id.String()))
			return nil, store.ErrVisualizationNotFound
		}
		log.Error("failed to get visualization by ID",
			slog.String("error", err.Error()),
			slog.String("visualization_id", id.String()))
		return nil, MapError(err)
	}

	return viz, nil
}

// FindByQuestionID implements store.VisualizationStore.FindByQuestionID
// Visualizations come back newest first.
func (s *PostgresVisualizationStore) FindByQuestionID(ctx context.Context, questionID uuid.UUID) ([]*domain.Visualization, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, process_id, question_id, html, story, blueprint_id, created_at
		FROM visualizations
		WHERE question_id = $1
		ORDER BY created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, questionID)
	if err != nil {
		log.Error("failed to query visualizations by question",
			slog.String("error", err.Error()),
			slog.String("question_id", questionID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	visualizations := []*domain.Visualization{}
	for rows.Next() {
		viz, err := s.scanVisualization(rows)
		if err != nil {
			log.Error("failed to scan visualization row",
				slog.String("error", err.Error()))
			return nil, MapError(err)
		}
		visualizations = append(visualizations, viz)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning visualization rows",
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	return visualizations, nil
}

// SetBlueprintID implements store.VisualizationStore.SetBlueprintID
// Returns store.ErrVisualizationNotFound if the visualization does not exist.
func (s *PostgresVisualizationStore) SetBlueprintID(ctx context.Context, id uuid.UUID, blueprintID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE visualizations
		SET blueprint_id = $1
		WHERE id = $2
	`

	result, err := s.db.ExecContext(ctx, query, blueprintID, id)
	if err != nil {
		log.Error("failed to set visualization blueprint",
			slog.String("error", err.Error()),
			slog.String("visualization_id", id.String()),
			slog.String("blueprint_id", blueprintID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "visualization"); err != nil {
		return store.ErrVisualizationNotFound
	}

	return nil
}

// UpdateHTML implements store.VisualizationStore.UpdateHTML
// Returns store.ErrVisualizationNotFound if the visualization does not exist.
func (s *PostgresVisualizationStore) UpdateHTML(ctx context.Context, id uuid.UUID, html string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE visualizations
		SET html = $1
		WHERE id = $2
	`

	result, err := s.db.ExecContext(ctx, query, html, id)
	if err != nil {
		log.Error("failed to update visualization html",
			slog.String("error", err.Error()),
			slog.String("visualization_id", id.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "visualization"); err != nil {
		return store.ErrVisualizationNotFound
	}

	return nil
}

// WithTx implements store.VisualizationStore.WithTx
func (s *PostgresVisualizationStore) WithTx(tx *sql.Tx) store.VisualizationStore {
	return &PostgresVisualizationStore{
		db:     tx,
		logger: s.logger,
	}
}

func (s *PostgresVisualizationStore) scanVisualization(row rowScanner) (*domain.Visualization, error) {
	var viz domain.Visualization
	var html sql.NullString
	var story []byte
	var blueprintID uuid.NullUUID

	err := row.Scan(
		&viz.ID,
		&viz.ProcessID,
		&viz.QuestionID,
		&html,
		&story,
		&blueprintID,
		&viz.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	viz.HTML = html.String
	viz.Story = story
	if blueprintID.Valid {
		id := blueprintID.UUID
		viz.BlueprintID = &id
	}

	return &viz, nil
}
