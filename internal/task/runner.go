package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// TaskRunnerConfig holds configuration for the task runner.
type TaskRunnerConfig struct {
	// WorkerCount is the number of concurrent workers executing tasks.
	WorkerCount int

	// QueueSize is the buffer size of the in-memory task queue.
	QueueSize int

	// StuckTaskAge is how long a task may stay in the processing state
	// before the monitor flags it as failed.
	StuckTaskAge time.Duration

	// StuckTaskCheckInterval is how often the monitor looks for stuck
	// tasks. Defaults to 5 minutes when zero.
	StuckTaskCheckInterval time.Duration
}

// DefaultTaskRunnerConfig returns a TaskRunnerConfig with reasonable defaults.
func DefaultTaskRunnerConfig() TaskRunnerConfig {
	return TaskRunnerConfig{
		WorkerCount:            2,
		QueueSize:              100,
		StuckTaskAge:           30 * time.Minute,
		StuckTaskCheckInterval: 5 * time.Minute,
	}
}

// TaskRunner executes submitted tasks on a fixed pool of workers. Every
// task is persisted before it is queued, so a crash never loses accepted
// work: on Start, pending tasks are requeued and tasks caught
// mid-processing are flagged as failed for operator-driven retry.
type TaskRunner struct {
	store      TaskStore
	queue      chan Task
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	config     TaskRunnerConfig
	logger     *slog.Logger
	errHandler func(task Task, err error)
}

// NewTaskRunner creates a runner. Call Start to begin processing.
func NewTaskRunner(store TaskStore, config TaskRunnerConfig, logger *slog.Logger) *TaskRunner {
	if config.StuckTaskCheckInterval == 0 {
		config.StuckTaskCheckInterval = 5 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "task_runner"))

	ctx, cancel := context.WithCancel(context.Background())

	return &TaskRunner{
		store:  store,
		queue:  make(chan Task, config.QueueSize),
		ctx:    ctx,
		cancel: cancel,
		config: config,
		logger: logger,
		errHandler: func(task Task, err error) {
			logger.Error("task execution failed",
				"task_id", task.ID(),
				"task_type", task.Type(),
				"error", err)
		},
	}
}

// SetErrorHandler replaces the default log-only failure handler.
func (r *TaskRunner) SetErrorHandler(handler func(task Task, err error)) {
	r.errHandler = handler
}

// Submit persists the task and queues it for execution. The task is saved
// before queueing so an accepted submission survives a crash.
func (r *TaskRunner) Submit(ctx context.Context, task Task) error {
	if err := r.store.SaveTask(ctx, task); err != nil {
		return fmt.Errorf("failed to save task: %w", err)
	}

	select {
	case r.queue <- task:
		return nil
	default:
		return fmt.Errorf("task queue is full, try again later")
	}
}

// Start recovers unfinished tasks from the store, then launches the worker
// pool and the stuck-task monitor.
func (r *TaskRunner) Start() error {
	if err := r.Recover(); err != nil {
		return fmt.Errorf("failed to recover tasks: %w", err)
	}

	for i := 0; i < r.config.WorkerCount; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}

	r.wg.Add(1)
	go r.stuckTaskMonitor()

	return nil
}

// Stop cancels the workers and waits for in-flight tasks to finish.
func (r *TaskRunner) Stop() {
	r.cancel()
	r.wg.Wait()
	close(r.queue)
}

// Recover requeues pending tasks left over from a previous run. Tasks
// interrupted mid-processing are flagged as failed rather than re-run:
// the crashed step needs human inspection, and an operator restarts the
// run through the retry endpoint.
func (r *TaskRunner) Recover() error {
	ctx := context.Background()

	pending, err := r.store.GetPendingTasks(ctx)
	if err != nil {
		return fmt.Errorf("failed to get pending tasks: %w", err)
	}

	// olderThan 0 selects every processing task regardless of age.
	interrupted, err := r.store.GetProcessingTasks(ctx, 0)
	if err != nil {
		return fmt.Errorf("failed to get processing tasks: %w", err)
	}

	if len(pending)+len(interrupted) > 0 {
		r.logger.Info("recovering unfinished tasks",
			"pending_count", len(pending),
			"interrupted_count", len(interrupted))
	}

	for _, task := range pending {
		r.requeue(task, "recovered pending task")
	}

	for _, task := range interrupted {
		if err := r.store.UpdateTaskStatus(ctx, task.ID(), TaskStatusFailed,
			"Interrupted while processing; manual retry required"); err != nil {
			r.logger.Error("failed to flag interrupted task",
				"task_id", task.ID(),
				"task_type", task.Type(),
				"error", err)
			continue
		}
		r.logger.Warn("flagged interrupted task for manual retry",
			"task_id", task.ID(),
			"task_type", task.Type())
	}

	return nil
}

// requeue places a task back on the queue without persisting it again.
func (r *TaskRunner) requeue(task Task, reason string) {
	select {
	case r.queue <- task:
		r.logger.Debug(reason,
			"task_id", task.ID(),
			"task_type", task.Type())
	default:
		r.logger.Error("failed to requeue task, queue is full",
			"task_id", task.ID(),
			"task_type", task.Type())
	}
}

func (r *TaskRunner) worker(id int) {
	defer r.wg.Done()

	r.logger.Debug("worker started", "worker_id", id)

	for {
		select {
		case <-r.ctx.Done():
			r.logger.Debug("worker stopping", "worker_id", id)
			return

		case task, ok := <-r.queue:
			if !ok {
				return
			}
			r.execute(task, id)
		}
	}
}

// execute runs one task and records the outcome in the store.
func (r *TaskRunner) execute(task Task, workerID int) {
	ctx := context.Background()
	logger := r.logger.With(
		"task_id", task.ID(),
		"task_type", task.Type(),
		"worker_id", workerID,
	)

	if err := r.store.UpdateTaskStatus(ctx, task.ID(), TaskStatusProcessing, ""); err != nil {
		logger.Error("failed to mark task as processing", "error", err)
		return
	}

	logger.Info("executing task")

	if err := task.Execute(ctx); err != nil {
		logger.Error("task execution failed", "error", err)
		if updateErr := r.store.UpdateTaskStatus(ctx, task.ID(), TaskStatusFailed, err.Error()); updateErr != nil {
			logger.Error("failed to mark task as failed", "error", updateErr)
		}
		r.errHandler(task, err)
		return
	}

	logger.Info("task completed")
	if err := r.store.UpdateTaskStatus(ctx, task.ID(), TaskStatusCompleted, ""); err != nil {
		logger.Error("failed to mark task as completed", "error", err)
	}
}

// stuckTaskMonitor periodically flags tasks that have sat in the
// processing state longer than StuckTaskAge as failed. It never requeues
// them; a hung stage is surfaced for an operator, not silently retried.
func (r *TaskRunner) stuckTaskMonitor() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.StuckTaskCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return

		case <-ticker.C:
			ctx := context.Background()

			stuck, err := r.store.GetProcessingTasks(ctx, r.config.StuckTaskAge)
			if err != nil {
				r.logger.Error("failed to check for stuck tasks", "error", err)
				continue
			}
			if len(stuck) == 0 {
				continue
			}

			r.logger.Info("found stuck tasks", "count", len(stuck))
			for _, task := range stuck {
				if err := r.store.UpdateTaskStatus(ctx, task.ID(), TaskStatusFailed,
					"Stuck in processing state; manual retry required"); err != nil {
					r.logger.Error("failed to flag stuck task",
						"task_id", task.ID(),
						"task_type", task.Type(),
						"error", err)
					continue
				}
				r.logger.Warn("flagged stuck task for manual retry",
					"task_id", task.ID(),
					"task_type", task.Type())
			}
		}
	}
}
