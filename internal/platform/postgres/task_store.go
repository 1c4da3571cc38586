package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/edforge/edforge-api/internal/platform/logger"
	"github.com/edforge/edforge-api/internal/store"
	"github.com/edforge/edforge-api/internal/task"
)

// TaskResolver rebuilds an executable task from its persisted type and
// payload. Rows loaded during recovery carry no execution function of their
// own; the resolver closes over the live collaborators.
type TaskResolver func(taskType string, payload []byte) (task.Task, error)

// PostgresTaskStore implements the task.TaskStore interface using a
// PostgreSQL database as the storage backend.
type PostgresTaskStore struct {
	db       store.DBTX
	resolver TaskResolver
	logger   *slog.Logger
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the
// TaskStore interface. The resolver may be nil, in which case recovered
// rows are returned as inert records that fail on execution.
func NewPostgresTaskStore(db store.DBTX, resolver TaskResolver, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskStore{
		db:       db,
		resolver: resolver,
		logger:   logger.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements task.TaskStore interface
var _ task.TaskStore = (*PostgresTaskStore)(nil)

// SaveTask persists a task to the database.
func (s *PostgresTaskStore) SaveTask(ctx context.Context, t task.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO pipeline_tasks (id, task_type, payload, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx, query,
		t.ID(),
		t.Type(),
		nullableJSON(t.Payload()),
		t.Status(),
		now,
		now,
	)
	if err != nil {
		log.Error("failed to save task",
			slog.String("task_id", t.ID().String()),
			slog.String("task_type", t.Type()),
			slog.String("error", err.Error()))
		return MapError(err)
	}

	return nil
}

// UpdateTaskStatus updates the status of a task in the database. A missing
// row is treated as a no-op so recovery and status writes never race.
func (s *PostgresTaskStore) UpdateTaskStatus(
	ctx context.Context,
	taskID uuid.UUID,
	status task.TaskStatus,
	errorMsg string,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE pipeline_tasks
		SET status = $1, error_message = $2, updated_at = $3
		WHERE id = $4
	`

	result, err := s.db.ExecContext(ctx, query,
		status,
		errorMsg,
		time.Now().UTC(),
		taskID,
	)
	if err != nil {
		log.Error("failed to update task status",
			slog.String("task_id", taskID.String()),
			slog.String("status", string(status)),
			slog.String("error", err.Error()))
		return MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return MapError(err)
	}

	if rowsAffected == 0 {
		log.Warn("no task found with ID to update status",
			slog.String("task_id", taskID.String()))
	}

	return nil
}

// GetPendingTasks retrieves all tasks with "pending" status.
func (s *PostgresTaskStore) GetPendingTasks(ctx context.Context) ([]task.Task, error) {
	return s.getTasksByStatus(ctx, task.TaskStatusPending, 0)
}

// GetProcessingTasks retrieves tasks with "processing" status, optionally
// filtered to those older than the given duration.
func (s *PostgresTaskStore) GetProcessingTasks(ctx context.Context, olderThan time.Duration) ([]task.Task, error) {
	return s.getTasksByStatus(ctx, task.TaskStatusProcessing, olderThan)
}

// WithTx implements task.TaskStore.WithTx
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) task.TaskStore {
	return &PostgresTaskStore{
		db:       tx,
		resolver: s.resolver,
		logger:   s.logger,
	}
}

func (s *PostgresTaskStore) getTasksByStatus(
	ctx context.Context,
	status task.TaskStatus,
	olderThan time.Duration,
) ([]task.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, task_type, payload, status
		FROM pipeline_tasks
		WHERE status = $1
		ORDER BY created_at ASC
	`
	args := []interface{}{status}

	if olderThan > 0 {
		query = `
			SELECT id, task_type, payload, status
			FROM pipeline_tasks
			WHERE status = $1 AND updated_at < $2
			ORDER BY created_at ASC
		`
		args = append(args, time.Now().UTC().Add(-olderThan))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query tasks by status",
			slog.String("status", string(status)),
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []task.Task

	for rows.Next() {
		var (
			id         uuid.UUID
			taskType   string
			payload    []byte
			taskStatus task.TaskStatus
		)

		if err := rows.Scan(&id, &taskType, &payload, &taskStatus); err != nil {
			return nil, MapError(err)
		}

		tasks = append(tasks, s.rebuild(log, id, taskType, payload, taskStatus))
	}

	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return tasks, nil
}

// rebuild turns a persisted row back into an executable task via the
// resolver, falling back to an inert record when resolution fails.
func (s *PostgresTaskStore) rebuild(
	log *slog.Logger,
	id uuid.UUID,
	taskType string,
	payload []byte,
	status task.TaskStatus,
) task.Task {
	if s.resolver != nil {
		resolved, err := s.resolver(taskType, payload)
		if err == nil {
			return &recoveredTask{id: id, inner: resolved, status: status}
		}
		log.Warn("failed to resolve recovered task, returning inert record",
			slog.String("task_id", id.String()),
			slog.String("task_type", taskType),
			slog.String("error", err.Error()))
	}

	return &recoveredTask{
		id:       id,
		status:   status,
		taskType: taskType,
		payload:  payload,
	}
}

// recoveredTask wraps a resolved task so it keeps its persisted identity,
// or stands in as an inert record when no resolver produced an executable.
type recoveredTask struct {
	id       uuid.UUID
	status   task.TaskStatus
	inner    task.Task
	taskType string
	payload  []byte
}

func (t *recoveredTask) ID() uuid.UUID { return t.id }

func (t *recoveredTask) Type() string {
	if t.inner != nil {
		return t.inner.Type()
	}
	return t.taskType
}

func (t *recoveredTask) Payload() []byte {
	if t.inner != nil {
		return t.inner.Payload()
	}
	return t.payload
}

func (t *recoveredTask) Status() task.TaskStatus { return t.status }

func (t *recoveredTask) Execute(ctx context.Context) error {
	if t.inner != nil {
		return t.inner.Execute(ctx)
	}
	return errors.New("no execution function defined for recovered task")
}
