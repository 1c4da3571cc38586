package generation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edforge/edforge-api/internal/llm"
)

func TestNormalizeQuestionFlow(t *testing.T) {
	t.Parallel()

	t.Run("intuitive_question is promoted and dropped", func(t *testing.T) {
		t.Parallel()

		story := map[string]interface{}{
			"question_flow": []interface{}{
				map[string]interface{}{"intuitive_question": "What happens next?"},
			},
		}

		NormalizeQuestionFlow(story)

		entry := story["question_flow"].([]interface{})[0].(map[string]interface{})
		assert.Equal(t, "What happens next?", entry["question_text"])
		assert.NotContains(t, entry, "intuitive_question")
	})

	t.Run("existing question_text wins over aliases", func(t *testing.T) {
		t.Parallel()

		story := map[string]interface{}{
			"question_flow": []interface{}{
				map[string]interface{}{
					"question_text": "canonical",
					"text":          "alias",
				},
			},
		}

		NormalizeQuestionFlow(story)

		entry := story["question_flow"].([]interface{})[0].(map[string]interface{})
		assert.Equal(t, "canonical", entry["question_text"])
		assert.Equal(t, "alias", entry["text"])
	})

	t.Run("priority order picks highest alias only", func(t *testing.T) {
		t.Parallel()

		story := map[string]interface{}{
			"question_flow": []interface{}{
				map[string]interface{}{
					"content":  "lowest",
					"question": "middle",
					"text":     "highest present",
				},
			},
		}

		NormalizeQuestionFlow(story)

		entry := story["question_flow"].([]interface{})[0].(map[string]interface{})
		assert.Equal(t, "highest present", entry["question_text"])
		assert.NotContains(t, entry, "text")
		assert.Equal(t, "middle", entry["question"])
		assert.Equal(t, "lowest", entry["content"])
	})

	t.Run("missing question_flow is a no-op", func(t *testing.T) {
		t.Parallel()

		story := map[string]interface{}{"story_title": "t"}
		NormalizeQuestionFlow(story)
		assert.NotContains(t, story, "question_flow")
	})
}

func TestStoryGeneratorGenerate(t *testing.T) {
	t.Parallel()

	question := QuestionContext{
		Text:        "Why does ice float?",
		Subject:     "Physics",
		KeyConcepts: []string{"density"},
	}
	strategy := &Strategy{GameFormat: "exploration"}

	t.Run("valid story with alias normalization", func(t *testing.T) {
		t.Parallel()

		response := "```json\n" + `{
			"story_title": "The Frozen Lake",
			"narrative_intro": "A lake in winter...",
			"question_flow": [{"intuitive_question": "Why is the surface solid but the bottom liquid?"}],
			"resolution": "Density explains it."
		}` + "\n```"

		gateway := &fakeGateway{
			responses: map[llm.Provider]string{llm.ProviderOpenAI: response},
		}
		generator := NewStoryGenerator(gateway, testLogger())

		story, result, err := generator.Generate(context.Background(), question, strategy, "SEQUENCE_BUILDER")

		require.NoError(t, err)
		require.NotNil(t, result)
		assert.True(t, result.IsValid)
		assert.Equal(t, "The Frozen Lake", story["story_title"])

		entry := story["question_flow"].([]interface{})[0].(map[string]interface{})
		assert.Equal(t, "Why is the surface solid but the bottom liquid?", entry["question_text"])
		assert.NotContains(t, entry, "intuitive_question")
	})

	t.Run("fallback provider response is used", func(t *testing.T) {
		t.Parallel()

		response := `{"story_title": "T", "question_flow": [{"question_text": "q"}]}`
		gateway := &fakeGateway{
			responses: map[llm.Provider]string{llm.ProviderAnthropic: response},
			errs:      map[llm.Provider]error{llm.ProviderOpenAI: errors.New("down")},
		}
		generator := NewStoryGenerator(gateway, testLogger())

		story, _, err := generator.Generate(context.Background(), question, strategy, "SEQUENCE_BUILDER")

		require.NoError(t, err)
		assert.Equal(t, "T", story["story_title"])
	})

	t.Run("missing story_title fails validation", func(t *testing.T) {
		t.Parallel()

		response := `{"question_flow": [{"question_text": "q"}]}`
		gateway := &fakeGateway{
			responses: map[llm.Provider]string{llm.ProviderOpenAI: response},
		}
		generator := NewStoryGenerator(gateway, testLogger())

		_, result, err := generator.Generate(context.Background(), question, strategy, "SEQUENCE_BUILDER")

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrValidationFailed)
		require.NotNil(t, result)
		assert.False(t, result.IsValid)
		assert.Contains(t, result.Errors[0], "story_title")
	})

	t.Run("empty question_flow fails validation", func(t *testing.T) {
		t.Parallel()

		response := `{"story_title": "T", "question_flow": []}`
		gateway := &fakeGateway{
			responses: map[llm.Provider]string{llm.ProviderOpenAI: response},
		}
		generator := NewStoryGenerator(gateway, testLogger())

		_, _, err := generator.Generate(context.Background(), question, strategy, "SEQUENCE_BUILDER")

		assert.ErrorIs(t, err, ErrValidationFailed)
	})

	t.Run("malformed JSON is an invalid response", func(t *testing.T) {
		t.Parallel()

		gateway := &fakeGateway{
			responses: map[llm.Provider]string{llm.ProviderOpenAI: "not json at all"},
		}
		generator := NewStoryGenerator(gateway, testLogger())

		_, _, err := generator.Generate(context.Background(), question, strategy, "SEQUENCE_BUILDER")

		assert.ErrorIs(t, err, ErrInvalidResponse)
	})

	t.Run("unknown template degrades to base prompt", func(t *testing.T) {
		t.Parallel()

		response := `{"story_title": "T", "question_flow": [{"question_text": "q"}]}`
		gateway := &fakeGateway{
			responses: map[llm.Provider]string{llm.ProviderOpenAI: response},
		}
		generator := NewStoryGenerator(gateway, testLogger())

		_, _, err := generator.Generate(context.Background(), question, strategy, "GEOMETRY_BUILDER")

		assert.NoError(t, err)
	})
}
