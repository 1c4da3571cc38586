package generation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		response string
		want     string
	}{
		{
			name:     "labeled json fence",
			response: "Here you go:\n```json\n{\"a\": 1}\n```\nThanks!",
			want:     `{"a": 1}`,
		},
		{
			name:     "bare fence",
			response: "```\n{\"a\": 1}\n```",
			want:     `{"a": 1}`,
		},
		{
			name:     "no fence returns trimmed raw",
			response: "  {\"a\": 1}\n",
			want:     `{"a": 1}`,
		},
		{
			name:     "unterminated fence returns remainder",
			response: "```json\n{\"a\": 1}",
			want:     `{"a": 1}`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := ExtractJSON(tc.response)

			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	t.Run("empty response is invalid", func(t *testing.T) {
		t.Parallel()

		_, err := ExtractJSON("   ")
		assert.ErrorIs(t, err, ErrInvalidResponse)
	})
}

func TestExtractHTML(t *testing.T) {
	t.Parallel()

	t.Run("labeled html fence", func(t *testing.T) {
		t.Parallel()

		got, err := ExtractHTML("```html\n<!DOCTYPE html><html></html>\n```")

		require.NoError(t, err)
		assert.Equal(t, "<!DOCTYPE html><html></html>", got)
	})

	t.Run("unfenced document passes through", func(t *testing.T) {
		t.Parallel()

		got, err := ExtractHTML("<!DOCTYPE html><html></html>")

		require.NoError(t, err)
		assert.Equal(t, "<!DOCTYPE html><html></html>", got)
	})
}
