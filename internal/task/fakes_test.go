package task

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// fakeTask is a programmable Task implementation for runner tests. It
// counts Execute calls so tests can assert a task never ran.
type fakeTask struct {
	id         uuid.UUID
	taskType   string
	payload    []byte
	status     TaskStatus
	executeFn  func(ctx context.Context) error
	executions atomic.Int32
}

func newFakeTask(taskType string, payload []byte) *fakeTask {
	return &fakeTask{
		id:        uuid.New(),
		taskType:  taskType,
		payload:   payload,
		status:    TaskStatusPending,
		executeFn: func(context.Context) error { return nil },
	}
}

// newPipelineFakeTask builds a fake carrying a pipeline-shaped payload.
func newPipelineFakeTask() *fakeTask {
	payload, _ := json.Marshal(map[string]string{
		"process_id":  uuid.New().String(),
		"question_id": uuid.New().String(),
	})
	return newFakeTask(TaskTypePipelineExecution, payload)
}

func (t *fakeTask) ID() uuid.UUID                    { return t.id }
func (t *fakeTask) Type() string                     { return t.taskType }
func (t *fakeTask) Payload() []byte                  { return t.payload }
func (t *fakeTask) Status() TaskStatus               { return t.status }
func (t *fakeTask) Execute(ctx context.Context) error {
	t.executions.Add(1)
	return t.executeFn(ctx)
}

// fakeTaskStore is an in-memory TaskStore that tracks status transitions
// and when each task last changed state.
type fakeTaskStore struct {
	mu          sync.RWMutex
	tasks       map[uuid.UUID]*fakeTask
	statusTimes map[uuid.UUID]time.Time
	saveErr     error
}

func newFakeTaskStore() *fakeTaskStore {
	return &fakeTaskStore{
		tasks:       make(map[uuid.UUID]*fakeTask),
		statusTimes: make(map[uuid.UUID]time.Time),
	}
}

func (s *fakeTaskStore) SaveTask(_ context.Context, task Task) error {
	if s.saveErr != nil {
		return s.saveErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	fake, ok := task.(*fakeTask)
	if !ok {
		fake = newFakeTask(task.Type(), task.Payload())
		fake.id = task.ID()
		fake.status = task.Status()
	}
	s.tasks[task.ID()] = fake
	s.statusTimes[task.ID()] = time.Now()
	return nil
}

func (s *fakeTaskStore) UpdateTaskStatus(_ context.Context, taskID uuid.UUID, status TaskStatus, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[taskID]
	if !ok {
		return nil
	}
	task.status = status
	s.statusTimes[taskID] = time.Now()
	return nil
}

func (s *fakeTaskStore) GetPendingTasks(_ context.Context) ([]Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var pending []Task
	for _, task := range s.tasks {
		if task.status == TaskStatusPending {
			pending = append(pending, task)
		}
	}
	return pending, nil
}

func (s *fakeTaskStore) GetProcessingTasks(_ context.Context, olderThan time.Duration) ([]Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	var processing []Task
	for _, task := range s.tasks {
		if task.status != TaskStatusProcessing {
			continue
		}
		statusTime, ok := s.statusTimes[task.id]
		if olderThan == 0 || (ok && now.Sub(statusTime) > olderThan) {
			processing = append(processing, task)
		}
	}
	return processing, nil
}

func (s *fakeTaskStore) WithTx(_ *sql.Tx) TaskStore { return s }

// statusOf reads a task's current status under the lock.
func (s *fakeTaskStore) statusOf(taskID uuid.UUID) (TaskStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	task, ok := s.tasks[taskID]
	if !ok {
		return "", false
	}
	return task.status, true
}
