package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProcess(t *testing.T) {
	t.Parallel()

	t.Run("creates process with valid question ID", func(t *testing.T) {
		questionID := uuid.New()

		process, err := NewProcess(questionID)

		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, process.ID)
		assert.Equal(t, questionID, process.QuestionID)
		assert.Equal(t, ProcessStatusPending, process.Status)
		assert.Equal(t, 0, process.Progress)
		assert.False(t, process.CreatedAt.IsZero())
	})

	t.Run("fails with nil question ID", func(t *testing.T) {
		process, err := NewProcess(uuid.Nil)

		assert.ErrorIs(t, err, ErrEmptyProcessQuestionID)
		assert.Nil(t, process)
	})
}

func TestProcessValidate(t *testing.T) {
	t.Parallel()

	valid := func() *Process {
		return &Process{
			ID:         uuid.New(),
			QuestionID: uuid.New(),
			Status:     ProcessStatusProcessing,
			Progress:   50,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Process)
		wantErr error
	}{
		{name: "valid process", mutate: func(p *Process) {}, wantErr: nil},
		{name: "empty ID", mutate: func(p *Process) { p.ID = uuid.Nil }, wantErr: ErrEmptyProcessID},
		{name: "unknown status", mutate: func(p *Process) { p.Status = "paused" }, wantErr: ErrInvalidProcessStatus},
		{name: "negative progress", mutate: func(p *Process) { p.Progress = -1 }, wantErr: ErrInvalidProgress},
		{name: "progress above 100", mutate: func(p *Process) { p.Progress = 101 }, wantErr: ErrInvalidProgress},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid()
			tt.mutate(p)

			err := p.Validate()

			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestProcessIsTerminal(t *testing.T) {
	t.Parallel()

	assert.False(t, (&Process{Status: ProcessStatusPending}).IsTerminal())
	assert.False(t, (&Process{Status: ProcessStatusProcessing}).IsTerminal())
	assert.True(t, (&Process{Status: ProcessStatusCompleted}).IsTerminal())
	assert.True(t, (&Process{Status: ProcessStatusError}).IsTerminal())
}
