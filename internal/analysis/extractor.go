package analysis

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
)

// ErrNoQuestionFound is returned when extraction cannot locate a question
// in the parsed text.
var ErrNoQuestionFound = errors.New("no question found in document")

// optionLine matches enumerated answer options: "A) ...", "b. ...",
// "1) ..." and bulleted variants.
var optionLine = regexp.MustCompile(`^\s*(?:[A-Da-d]|[1-9])[).:]\s+(.+)$`)

// ExtractedQuestion is the output of the question extraction stage.
type ExtractedQuestion struct {
	Text     string   `json:"text"`
	Options  []string `json:"options,omitempty"`
	FileType string   `json:"file_type"`
}

// QuestionExtractor pulls the question text and any enumerated options out
// of parsed document text. It is heuristic: the first line ending in a
// question mark wins, else the first non-empty line.
type QuestionExtractor struct {
	logger *slog.Logger
}

func NewQuestionExtractor(logger *slog.Logger) *QuestionExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &QuestionExtractor{logger: logger.With(slog.String("component", "question_extractor"))}
}

// Extract locates the question and options in the parsed text.
func (e *QuestionExtractor) Extract(ctx context.Context, parsed *ParsedDocument) (*ExtractedQuestion, error) {
	if parsed == nil || strings.TrimSpace(parsed.Text) == "" {
		return nil, ErrNoQuestionFound
	}

	lines := strings.Split(parsed.Text, "\n")

	var questionText string
	var options []string

	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if match := optionLine.FindStringSubmatch(line); match != nil {
			options = append(options, strings.TrimSpace(match[1]))
			continue
		}

		if questionText == "" {
			questionText = line
			continue
		}

		// Prefer an explicit question over an earlier statement line.
		if !strings.HasSuffix(questionText, "?") && strings.HasSuffix(line, "?") {
			questionText = line
		}
	}

	if questionText == "" {
		return nil, ErrNoQuestionFound
	}

	e.logger.InfoContext(ctx, "question extracted",
		slog.Int("option_count", len(options)),
		slog.String("file_type", parsed.FileType))

	return &ExtractedQuestion{
		Text:     questionText,
		Options:  options,
		FileType: parsed.FileType,
	}, nil
}

// FromStored builds the extraction output from question fields already in
// the database, used when no document was uploaded for the run.
func FromStored(text string, options []string) *ExtractedQuestion {
	return &ExtractedQuestion{
		Text:     text,
		Options:  options,
		FileType: "existing",
	}
}
