package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/edforge/edforge-api/internal/domain"
	"github.com/edforge/edforge-api/internal/platform/logger"
	"github.com/edforge/edforge-api/internal/store"
)

// PostgresProcessStore implements the store.ProcessStore interface
// using a PostgreSQL database as the storage backend.
type PostgresProcessStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresProcessStore creates a new PostgreSQL implementation of the
// ProcessStore interface. It accepts a database connection or transaction
// that should be initialized and managed by the caller. If logger is nil, a
// default logger will be used.
func NewPostgresProcessStore(db store.DBTX, logger *slog.Logger) *PostgresProcessStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresProcessStore{
		db:     db,
		logger: logger.With(slog.String("component", "process_store")),
	}
}

// Ensure PostgresProcessStore implements store.ProcessStore interface
var _ store.ProcessStore = (*PostgresProcessStore)(nil)

// Create implements store.ProcessStore.Create
// It saves a new process to the database, handling domain validation.
// Returns store.ErrInvalidEntity if the question ID doesn't exist.
func (s *PostgresProcessStore) Create(ctx context.Context, process *domain.Process) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := process.Validate(); err != nil {
		log.Warn("process validation failed during create",
			slog.String("error", err.Error()),
			slog.String("process_id", process.ID.String()))
		return err
	}

	query := `
		INSERT INTO processes (id, question_id, status, progress, current_step, error_message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		process.ID,
		process.QuestionID,
		process.Status,
		process.Progress,
		process.CurrentStep,
		process.ErrorMessage,
		process.CreatedAt,
		process.UpdatedAt,
	)

	if err != nil {
		log.Error("failed to create process",
			slog.String("error", err.Error()),
			slog.String("process_id", process.ID.String()),
			slog.String("question_id", process.QuestionID.String()))
		return MapError(err)
	}

	log.Info("process created",
		slog.String("process_id", process.ID.String()),
		slog.String("question_id", process.QuestionID.String()))
	return nil
}

// GetByID implements store.ProcessStore.GetByID
// Returns store.ErrProcessNotFound if the process does not exist.
func (s *PostgresProcessStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Process, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, question_id, status, progress, current_step, error_message, created_at, updated_at
		FROM processes
		WHERE id = $1
	`

	var process domain.Process
	var status string
	var currentStep, errorMessage sql.NullString

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&process.ID,
		&process.QuestionID,
		&status,
		&process.Progress,
		&currentStep,
		&errorMessage,
		&process.CreatedAt,
		&process.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("process not found", slog.String("process_id", id.String()))
			return nil, store.ErrProcessNotFound
		}
		log.Error("failed to get process by ID",
			slog.String("error", err.Error()),
			slog.String("process_id", id.String()))
		return nil, MapError(err)
	}

	process.Status = domain.ProcessStatus(status)
	process.CurrentStep = currentStep.String
	process.ErrorMessage = errorMessage.String

	return &process, nil
}

// UpdateStatus implements store.ProcessStore.UpdateStatus
// Returns store.ErrProcessNotFound if the process does not exist.
func (s *PostgresProcessStore) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	status domain.ProcessStatus,
	progress int,
	currentStep, errorMessage string,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE processes
		SET status = $1, progress = $2, current_step = $3, error_message = $4, updated_at = $5
		WHERE id = $6
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		status,
		progress,
		currentStep,
		errorMessage,
		time.Now().UTC(),
		id,
	)

	if err != nil {
		log.Error("failed to update process status",
			slog.String("error", err.Error()),
			slog.String("process_id", id.String()),
			slog.String("status", string(status)))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "process"); err != nil {
		log.Debug("process not found for status update",
			slog.String("process_id", id.String()))
		return store.ErrProcessNotFound
	}

	log.Debug("process status updated",
		slog.String("process_id", id.String()),
		slog.String("status", string(status)),
		slog.Int("progress", progress),
		slog.String("current_step", currentStep))
	return nil
}

// WithTx implements store.ProcessStore.WithTx
// It returns a new ProcessStore running on the provided transaction.
func (s *PostgresProcessStore) WithTx(tx *sql.Tx) store.ProcessStore {
	return &PostgresProcessStore{
		db:     tx,
		logger: s.logger,
	}
}
