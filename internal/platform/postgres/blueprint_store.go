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

// PostgresBlueprintStore implements the store.BlueprintStore interface
// using a PostgreSQL database as the storage backend.
type PostgresBlueprintStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresBlueprintStore creates a new PostgreSQL implementation of the
// BlueprintStore interface. If logger is nil, a default logger will be used.
func NewPostgresBlueprintStore(db store.DBTX, logger *slog.Logger) *PostgresBlueprintStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresBlueprintStore{
		db:     db,
		logger: logger.With(slog.String("component", "blueprint_store")),
	}
}

// Ensure PostgresBlueprintStore implements store.BlueprintStore interface
var _ store.BlueprintStore = (*PostgresBlueprintStore)(nil)

// Create implements store.BlueprintStore.Create
func (s *PostgresBlueprintStore) Create(ctx context.Context, blueprint *domain.Blueprint) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := blueprint.Validate(); err != nil {
		log.Warn("blueprint validation failed during create",
			slog.String("error", err.Error()),
			slog.String("blueprint_id", blueprint.ID.String()))
		return err
	}

	query := `
		INSERT INTO blueprints (id, question_id, template_type, data, assets, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		blueprint.ID,
		blueprint.QuestionID,
		blueprint.TemplateType,
		[]byte(blueprint.Data),
		nullableJSON(blueprint.Assets),
		blueprint.CreatedAt,
	)

	if err != nil {
		log.Error("failed to create blueprint",
			slog.String("error", err.Error()),
			slog.String("blueprint_id", blueprint.ID.String()),
			slog.String("template_type", blueprint.TemplateType))
		return MapError(err)
	}

	log.Debug("blueprint created",
		slog.String("blueprint_id", blueprint.ID.String()),
		slog.String("template_type", blueprint.TemplateType))
	return nil
}

// GetByID implements store.BlueprintStore.GetByID
// Returns store.ErrBlueprintNotFound if the blueprint does not exist.
func (s *PostgresBlueprintStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Blueprint, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, question_id, template_type, data, assets, created_at
		FROM blueprints
		WHERE id = $1
	`

	var blueprint domain.Blueprint
	var data, assets []byte

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&blueprint.ID,
		&blueprint.QuestionID,
		&blueprint.TemplateType,
		&data,
		&assets,
		&blueprint.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("blueprint not found", slog.String("blueprint_id", id.String()))
			return nil, store.ErrBlueprintNotFound
		}
		log.Error("failed to get blueprint by ID",
			slog.String("error", err.Error()),
			slog.String("blueprint_id", id.String()))
		return nil, MapError(err)
	}

	blueprint.Data = data
	blueprint.Assets = assets

	return &blueprint, nil
}

// WithTx implements store.BlueprintStore.WithTx
func (s *PostgresBlueprintStore) WithTx(tx *sql.Tx) store.BlueprintStore {
	return &PostgresBlueprintStore{
		db:     tx,
		logger: s.logger,
	}
}
