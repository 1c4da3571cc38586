package postgres

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/edforge/edforge-api/internal/domain"
)

// failingDBTX fails the test if any query reaches the database. Used to
// prove stores validate domain entities before touching SQL.
type failingDBTX struct {
	t *testing.T
}

func (f failingDBTX) ExecContext(_ context.Context, _ string, _ ...interface{}) (sql.Result, error) {
	f.t.Fatal("unexpected ExecContext call")
	return nil, nil
}

func (f failingDBTX) PrepareContext(_ context.Context, _ string) (*sql.Stmt, error) {
	f.t.Fatal("unexpected PrepareContext call")
	return nil, nil
}

func (f failingDBTX) QueryContext(_ context.Context, _ string, _ ...interface{}) (*sql.Rows, error) {
	f.t.Fatal("unexpected QueryContext call")
	return nil, nil
}

func (f failingDBTX) QueryRowContext(_ context.Context, _ string, _ ...interface{}) *sql.Row {
	f.t.Fatal("unexpected QueryRowContext call")
	return nil
}

func TestStoresValidateBeforeWrite(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("process store rejects invalid process", func(t *testing.T) {
		t.Parallel()

		s := NewPostgresProcessStore(failingDBTX{t: t}, nil)
		err := s.Create(ctx, &domain.Process{ID: uuid.Nil})
		assert.ErrorIs(t, err, domain.ErrEmptyProcessID)
	})

	t.Run("step store rejects invalid step", func(t *testing.T) {
		t.Parallel()

		s := NewPostgresStepStore(failingDBTX{t: t}, nil)
		err := s.Create(ctx, &domain.PipelineStep{ID: uuid.New(), ProcessID: uuid.New()})
		assert.ErrorIs(t, err, domain.ErrEmptyStepName)
	})

	t.Run("question store rejects empty text", func(t *testing.T) {
		t.Parallel()

		s := NewPostgresQuestionStore(failingDBTX{t: t}, nil)
		err := s.Create(ctx, &domain.Question{ID: uuid.New()})
		assert.ErrorIs(t, err, domain.ErrEmptyQuestionText)
	})

	t.Run("story store rejects empty data", func(t *testing.T) {
		t.Parallel()

		s := NewPostgresStoryStore(failingDBTX{t: t}, nil)
		err := s.Create(ctx, &domain.Story{ID: uuid.New(), QuestionID: uuid.New()})
		assert.ErrorIs(t, err, domain.ErrEmptyStoryData)
	})

	t.Run("blueprint store rejects missing template type", func(t *testing.T) {
		t.Parallel()

		s := NewPostgresBlueprintStore(failingDBTX{t: t}, nil)
		err := s.Create(ctx, &domain.Blueprint{ID: uuid.New(), QuestionID: uuid.New()})
		assert.ErrorIs(t, err, domain.ErrInvalidTemplateType)
	})

	t.Run("visualization store rejects nil IDs", func(t *testing.T) {
		t.Parallel()

		s := NewPostgresVisualizationStore(failingDBTX{t: t}, nil)
		err := s.Create(ctx, &domain.Visualization{ID: uuid.New()})
		assert.ErrorIs(t, err, domain.ErrInvalidID)
	})
}

func TestNewStorePanicsOnNilDB(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { NewPostgresProcessStore(nil, nil) })
	assert.Panics(t, func() { NewPostgresStepStore(nil, nil) })
	assert.Panics(t, func() { NewPostgresQuestionStore(nil, nil) })
}
