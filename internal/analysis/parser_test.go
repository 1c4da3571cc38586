package analysis

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestDocumentParserParse(t *testing.T) {
	t.Parallel()

	parser := NewDocumentParser(testLogger())
	ctx := context.Background()

	t.Run("plain text file", func(t *testing.T) {
		t.Parallel()

		parsed, err := parser.Parse(ctx, []byte("Why does ice float?\n"), "question.txt")

		require.NoError(t, err)
		assert.Equal(t, "Why does ice float?", parsed.Text)
		assert.Equal(t, "txt", parsed.FileType)
		assert.Equal(t, "question.txt", parsed.Filename)
	})

	t.Run("markdown file", func(t *testing.T) {
		t.Parallel()

		parsed, err := parser.Parse(ctx, []byte("# Question\nWhy?"), "notes.md")

		require.NoError(t, err)
		assert.Equal(t, "md", parsed.FileType)
	})

	t.Run("empty content", func(t *testing.T) {
		t.Parallel()

		_, err := parser.Parse(ctx, nil, "question.txt")
		assert.ErrorIs(t, err, ErrEmptyDocument)
	})

	t.Run("whitespace-only content", func(t *testing.T) {
		t.Parallel()

		_, err := parser.Parse(ctx, []byte("   \n\t"), "question.txt")
		assert.ErrorIs(t, err, ErrEmptyDocument)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		t.Parallel()

		_, err := parser.Parse(ctx, []byte("%PDF-1.4"), "question.pdf")
		assert.ErrorIs(t, err, ErrUnsupportedFileType)
	})

	t.Run("invalid utf8", func(t *testing.T) {
		t.Parallel()

		_, err := parser.Parse(ctx, []byte{0xff, 0xfe, 0x00}, "question.txt")
		assert.ErrorIs(t, err, ErrBinaryContent)
	})
}

func TestQuestionExtractorExtract(t *testing.T) {
	t.Parallel()

	extractor := NewQuestionExtractor(testLogger())
	ctx := context.Background()

	t.Run("question with options", func(t *testing.T) {
		t.Parallel()

		parsed := &ParsedDocument{
			Text: "Which gas do plants absorb?\nA) Oxygen\nB) Carbon dioxide\nC) Nitrogen",
		}

		extracted, err := extractor.Extract(ctx, parsed)

		require.NoError(t, err)
		assert.Equal(t, "Which gas do plants absorb?", extracted.Text)
		assert.Equal(t, []string{"Oxygen", "Carbon dioxide", "Nitrogen"}, extracted.Options)
	})

	t.Run("question line preferred over statement", func(t *testing.T) {
		t.Parallel()

		parsed := &ParsedDocument{
			Text: "Chapter 3 exercises.\nWhy does ice float on water?",
		}

		extracted, err := extractor.Extract(ctx, parsed)

		require.NoError(t, err)
		assert.Equal(t, "Why does ice float on water?", extracted.Text)
	})

	t.Run("free-form question without options", func(t *testing.T) {
		t.Parallel()

		parsed := &ParsedDocument{Text: "Explain photosynthesis."}

		extracted, err := extractor.Extract(ctx, parsed)

		require.NoError(t, err)
		assert.Equal(t, "Explain photosynthesis.", extracted.Text)
		assert.Empty(t, extracted.Options)
	})

	t.Run("empty document", func(t *testing.T) {
		t.Parallel()

		_, err := extractor.Extract(ctx, &ParsedDocument{Text: "  "})
		assert.ErrorIs(t, err, ErrNoQuestionFound)
	})

	t.Run("nil document", func(t *testing.T) {
		t.Parallel()

		_, err := extractor.Extract(ctx, nil)
		assert.ErrorIs(t, err, ErrNoQuestionFound)
	})
}

func TestFromStored(t *testing.T) {
	t.Parallel()

	extracted := FromStored("Why?", []string{"a", "b"})

	assert.Equal(t, "Why?", extracted.Text)
	assert.Equal(t, []string{"a", "b"}, extracted.Options)
	assert.Equal(t, "existing", extracted.FileType)
}
