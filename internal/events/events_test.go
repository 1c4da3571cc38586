package events

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTaskRequestEvent(t *testing.T) {
	type runRequest struct {
		ProcessID  uuid.UUID `json:"process_id"`
		QuestionID uuid.UUID `json:"question_id"`
	}

	t.Run("serializes the payload and stamps identity", func(t *testing.T) {
		payload := runRequest{ProcessID: uuid.New(), QuestionID: uuid.New()}

		event, err := NewTaskRequestEvent("pipeline_execution", payload)
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, event.ID)
		assert.Equal(t, "pipeline_execution", event.Type)
		assert.WithinDuration(t, time.Now().UTC(), event.CreatedAt, time.Second)

		var decoded runRequest
		require.NoError(t, event.UnmarshalPayload(&decoded))
		assert.Equal(t, payload, decoded)
	})

	t.Run("rejects an empty event type", func(t *testing.T) {
		_, err := NewTaskRequestEvent("", runRequest{})
		assert.ErrorIs(t, err, ErrEmptyEventType)
	})

	t.Run("rejects an unserializable payload", func(t *testing.T) {
		_, err := NewTaskRequestEvent("pipeline_execution", make(chan int))
		assert.Error(t, err)
	})
}

func TestUnmarshalPayload_Mismatch(t *testing.T) {
	event, err := NewTaskRequestEvent("pipeline_execution", map[string]string{"process_id": "not-a-number"})
	require.NoError(t, err)

	var target struct {
		ProcessID int `json:"process_id"`
	}
	assert.Error(t, event.UnmarshalPayload(&target))
}
