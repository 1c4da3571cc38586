package domain

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewQuestion(t *testing.T) {
	t.Parallel()

	t.Run("creates question with options", func(t *testing.T) {
		q, err := NewQuestion("What is 2+2?", []string{"3", "4", "5"})

		require.NoError(t, err)
		assert.Equal(t, "What is 2+2?", q.Text)
		assert.Equal(t, []string{"3", "4", "5"}, q.Options)
	})

	t.Run("rejects empty text", func(t *testing.T) {
		q, err := NewQuestion("", nil)

		assert.ErrorIs(t, err, ErrEmptyQuestionText)
		assert.Nil(t, q)
	})
}

func TestNewStory(t *testing.T) {
	t.Parallel()

	questionID := uuid.New()

	t.Run("valid story", func(t *testing.T) {
		story, err := NewStory(questionID, json.RawMessage(`{"story_title":"Bridge Crossing"}`))

		require.NoError(t, err)
		assert.Equal(t, questionID, story.QuestionID)
	})

	t.Run("rejects empty data", func(t *testing.T) {
		story, err := NewStory(questionID, nil)

		assert.ErrorIs(t, err, ErrEmptyStoryData)
		assert.Nil(t, story)
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		story, err := NewStory(questionID, json.RawMessage(`{"story_title":`))

		assert.ErrorIs(t, err, ErrValidation)
		assert.Nil(t, story)
	})
}

func TestNewBlueprint(t *testing.T) {
	t.Parallel()

	questionID := uuid.New()
	data := json.RawMessage(`{"templateType":"SEQUENCE_BUILDER","title":"Order the steps"}`)

	t.Run("valid blueprint", func(t *testing.T) {
		bp, err := NewBlueprint(questionID, "SEQUENCE_BUILDER", data, nil)

		require.NoError(t, err)
		assert.Equal(t, "SEQUENCE_BUILDER", bp.TemplateType)
	})

	t.Run("rejects empty template type", func(t *testing.T) {
		bp, err := NewBlueprint(questionID, "", data, nil)

		assert.ErrorIs(t, err, ErrInvalidTemplateType)
		assert.Nil(t, bp)
	})

	t.Run("rejects empty data", func(t *testing.T) {
		bp, err := NewBlueprint(questionID, "SEQUENCE_BUILDER", nil, nil)

		assert.ErrorIs(t, err, ErrEmptyBlueprintData)
		assert.Nil(t, bp)
	})
}

func TestNewVisualization(t *testing.T) {
	t.Parallel()

	viz, err := NewVisualization(uuid.New(), uuid.New(), "<html></html>", json.RawMessage(`{}`))

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, viz.ID)
	assert.Nil(t, viz.BlueprintID)

	_, err = NewVisualization(uuid.Nil, uuid.New(), "", nil)
	assert.ErrorIs(t, err, ErrInvalidID)
}
