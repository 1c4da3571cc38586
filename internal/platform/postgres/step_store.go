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

// PostgresStepStore implements the store.StepStore interface
// using a PostgreSQL database as the storage backend.
type PostgresStepStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresStepStore creates a new PostgreSQL implementation of the
// StepStore interface. If logger is nil, a default logger will be used.
func NewPostgresStepStore(db store.DBTX, logger *slog.Logger) *PostgresStepStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresStepStore{
		db:     db,
		logger: logger.With(slog.String("component", "step_store")),
	}
}

// Ensure PostgresStepStore implements store.StepStore interface
var _ store.StepStore = (*PostgresStepStore)(nil)

const stepColumns = `id, process_id, step_name, step_number, status, input_snapshot, output, validation, error_message, retry_count, started_at, finished_at`

// Create implements store.StepStore.Create
func (s *PostgresStepStore) Create(ctx context.Context, step *domain.PipelineStep) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := step.Validate(); err != nil {
		log.Warn("step validation failed during create",
			slog.String("error", err.Error()),
			slog.String("step_id", step.ID.String()))
		return err
	}

	query := `
		INSERT INTO pipeline_steps (` + stepColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		step.ID,
		step.ProcessID,
		step.StepName,
		step.StepNumber,
		step.Status,
		nullableJSON(step.InputSnapshot),
		nullableJSON(step.Output),
		nullableJSON(step.Validation),
		step.ErrorMessage,
		step.RetryCount,
		step.StartedAt,
		step.FinishedAt,
	)

	if err != nil {
		log.Error("failed to create pipeline step",
			slog.String("error", err.Error()),
			slog.String("step_id", step.ID.String()),
			slog.String("step_name", step.StepName))
		return MapError(err)
	}

	log.Debug("pipeline step created",
		slog.String("step_id", step.ID.String()),
		slog.String("step_name", step.StepName),
		slog.Int("step_number", step.StepNumber))
	return nil
}

// GetByID implements store.StepStore.GetByID
// Returns store.ErrStepNotFound if the step does not exist.
func (s *PostgresStepStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.PipelineStep, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + stepColumns + `
		FROM pipeline_steps
		WHERE id = $1
	`

	step, err := s.scanStep(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("pipeline step not found", slog.String("step_id", id.String()))
			return nil, store.ErrStepNotFound
		}
		log.Error("failed to get pipeline step by ID",
			slog.String("error", err.Error()),
			slog.String("step_id", id.String()))
		return nil, MapError(err)
	}

	return step, nil
}

// GetByProcessID implements store.StepStore.GetByProcessID
// Steps come back ordered by step number ascending.
func (s *PostgresStepStore) GetByProcessID(ctx context.Context, processID uuid.UUID) ([]*domain.PipelineStep, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + stepColumns + `
		FROM pipeline_steps
		WHERE process_id = $1
		ORDER BY step_number ASC
	`

	rows, err := s.db.QueryContext(ctx, query, processID)
	if err != nil {
		log.Error("failed to query steps by process",
			slog.String("error", err.Error()),
			slog.String("process_id", processID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	steps := []*domain.PipelineStep{}
	for rows.Next() {
		step, err := s.scanStep(rows)
		if err != nil {
			log.Error("failed to scan step row",
				slog.String("error", err.Error()),
				slog.String("process_id", processID.String()))
			return nil, MapError(err)
		}
		steps = append(steps, step)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning step rows",
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	return steps, nil
}

// GetLastCompletedStep implements store.StepStore.GetLastCompletedStep
// It returns the completed or skipped step with the highest step number.
// Returns store.ErrStepNotFound when no step has completed yet.
func (s *PostgresStepStore) GetLastCompletedStep(ctx context.Context, processID uuid.UUID) (*domain.PipelineStep, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + stepColumns + `
		FROM pipeline_steps
		WHERE process_id = $1 AND status IN ($2, $3)
		ORDER BY step_number DESC
		LIMIT 1
	`

	step, err := s.scanStep(s.db.QueryRowContext(ctx, query, processID,
		domain.StepStatusCompleted, domain.StepStatusSkipped))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("no completed steps for process",
				slog.String("process_id", processID.String()))
			return nil, store.ErrStepNotFound
		}
		log.Error("failed to get last completed step",
			slog.String("error", err.Error()),
			slog.String("process_id", processID.String()))
		return nil, MapError(err)
	}

	return step, nil
}

// Finalize implements store.StepStore.Finalize
// It records the step's exit state.
// Returns store.ErrStepNotFound if the step does not exist.
func (s *PostgresStepStore) Finalize(ctx context.Context, step *domain.PipelineStep) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := step.Validate(); err != nil {
		log.Warn("step validation failed during finalize",
			slog.String("error", err.Error()),
			slog.String("step_id", step.ID.String()))
		return err
	}

	query := `
		UPDATE pipeline_steps
		SET status = $1, output = $2, validation = $3, error_message = $4, finished_at = $5
		WHERE id = $6
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		step.Status,
		nullableJSON(step.Output),
		nullableJSON(step.Validation),
		step.ErrorMessage,
		step.FinishedAt,
		step.ID,
	)

	if err != nil {
		log.Error("failed to finalize pipeline step",
			slog.String("error", err.Error()),
			slog.String("step_id", step.ID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "pipeline step"); err != nil {
		return store.ErrStepNotFound
	}

	log.Debug("pipeline step finalized",
		slog.String("step_id", step.ID.String()),
		slog.String("step_name", step.StepName),
		slog.String("status", string(step.Status)))
	return nil
}

// IncrementRetry implements store.StepStore.IncrementRetry
// Returns store.ErrStepNotFound if the step does not exist.
func (s *PostgresStepStore) IncrementRetry(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE pipeline_steps
		SET retry_count = retry_count + 1
		WHERE id = $1
	`

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		log.Error("failed to increment step retry count",
			slog.String("error", err.Error()),
			slog.String("step_id", id.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "pipeline step"); err != nil {
		return store.ErrStepNotFound
	}

	return nil
}

// WithTx implements store.StepStore.WithTx
func (s *PostgresStepStore) WithTx(tx *sql.Tx) store.StepStore {
	return &PostgresStepStore{
		db:     tx,
		logger: s.logger,
	}
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scan logic.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (s *PostgresStepStore) scanStep(row rowScanner) (*domain.PipelineStep, error) {
	var step domain.PipelineStep
	var status string
	var inputSnapshot, output, validation []byte
	var errorMessage sql.NullString
	var finishedAt sql.NullTime

	err := row.Scan(
		&step.ID,
		&step.ProcessID,
		&step.StepName,
		&step.StepNumber,
		&status,
		&inputSnapshot,
		&output,
		&validation,
		&errorMessage,
		&step.RetryCount,
		&step.StartedAt,
		&finishedAt,
	)
	if err != nil {
		return nil, err
	}

	step.Status = domain.StepStatus(status)
	step.InputSnapshot = inputSnapshot
	step.Output = output
	step.Validation = validation
	step.ErrorMessage = errorMessage.String
	if finishedAt.Valid {
		t := finishedAt.Time
		step.FinishedAt = &t
	}

	return &step, nil
}

// nullableJSON maps an empty raw message to SQL NULL so JSONB columns never
// receive an empty string, which Postgres rejects as invalid JSON.
func nullableJSON(data []byte) interface{} {
	if len(data) == 0 {
		return nil
	}
	return data
}
