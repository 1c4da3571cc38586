package analysis

import (
	"fmt"
	"log/slog"

	"github.com/edforge/edforge-api/internal/generation"
)

// gameFormatByQuestionType maps the classifier's verdict to a narrative
// game format. Unknown types fall through to exploration.
var gameFormatByQuestionType = map[string]string{
	"factual":    "quiz",
	"conceptual": "exploration",
	"procedural": "simulation",
	"reasoning":  "mystery",
}

// StrategyBuilder derives the generation strategy from the question and its
// classification. This stage is a pure derivation; no external calls.
type StrategyBuilder struct {
	logger *slog.Logger
}

func NewStrategyBuilder(logger *slog.Logger) *StrategyBuilder {
	if logger == nil {
		logger = slog.Default()
	}
	return &StrategyBuilder{logger: logger.With(slog.String("component", "strategy_builder"))}
}

// Create derives the strategy. The same question and analysis always yield
// the same strategy.
func (b *StrategyBuilder) Create(text string, analysis *Analysis) *generation.Strategy {
	questionType := "reasoning"
	subject := "General"
	difficulty := "intermediate"
	if analysis != nil {
		if analysis.QuestionType != "" {
			questionType = analysis.QuestionType
		}
		if analysis.Subject != "" {
			subject = analysis.Subject
		}
		if analysis.Difficulty != "" {
			difficulty = analysis.Difficulty
		}
	}

	gameFormat, ok := gameFormatByQuestionType[questionType]
	if !ok {
		gameFormat = "exploration"
	}

	promptTemplate := fmt.Sprintf(
		"Create a %s-style learning exercise in %s at %s level that guides the learner to answer: %s",
		gameFormat, subject, difficulty, text)

	storyline := map[string]interface{}{
		"theme":      subject,
		"format":     gameFormat,
		"difficulty": difficulty,
	}
	if analysis != nil && len(analysis.KeyConcepts) > 0 {
		storyline["concepts"] = analysis.KeyConcepts
	}

	b.logger.Debug("strategy derived",
		slog.String("game_format", gameFormat),
		slog.String("question_type", questionType))

	return &generation.Strategy{
		PromptTemplate: promptTemplate,
		GameFormat:     gameFormat,
		Storyline:      storyline,
	}
}
