package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/edforge/edforge-api/internal/generation"
	"github.com/edforge/edforge-api/internal/llm"
)

const classifierSystemPrompt = `You are an education content analyst. Classify the given question.

Respond with ONLY a JSON object of this exact shape:
{
  "question_type": "factual | conceptual | procedural | reasoning",
  "subject": "the academic subject, e.g. Physics",
  "difficulty": "beginner | intermediate | advanced",
  "key_concepts": ["up to five short concept names"],
  "intent": "one sentence describing what understanding the question probes"
}`

// Analysis is the classifier's verdict for a question.
type Analysis struct {
	QuestionType string   `json:"question_type"`
	Subject      string   `json:"subject"`
	Difficulty   string   `json:"difficulty"`
	KeyConcepts  []string `json:"key_concepts,omitempty"`
	Intent       string   `json:"intent,omitempty"`
}

// Classifier runs the question analysis stage against the provider gateway
// with the standard fallback chain.
type Classifier struct {
	gateway llm.Gateway
	chain   generation.FallbackChain
	logger  *slog.Logger
}

func NewClassifier(gateway llm.Gateway, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}

	return &Classifier{
		gateway: gateway,
		chain:   generation.DefaultFallbackChain(),
		logger:  logger.With(slog.String("component", "classifier")),
	}
}

// Analyze classifies the question. Missing classification fields in the
// provider response fall back to neutral defaults so downstream prompt
// construction always has a full context.
func (c *Classifier) Analyze(ctx context.Context, text string, options []string) (*Analysis, error) {
	userPrompt := fmt.Sprintf("Question: %s", text)
	if len(options) > 0 {
		userPrompt += fmt.Sprintf("\nOptions: %s", strings.Join(options, "; "))
	}

	messages := []llm.Message{
		llm.SystemMessage(classifierSystemPrompt),
		llm.UserMessage(userPrompt),
	}

	response, err := generation.GenerateWithFallback(ctx, c.gateway, c.chain, messages, c.logger)
	if err != nil {
		return nil, err
	}

	payload, err := generation.ExtractJSON(response)
	if err != nil {
		return nil, err
	}

	var analysis Analysis
	if err := json.Unmarshal([]byte(payload), &analysis); err != nil {
		return nil, fmt.Errorf("%w: analysis JSON: %v", generation.ErrInvalidResponse, err)
	}

	if analysis.QuestionType == "" {
		analysis.QuestionType = "reasoning"
	}
	if analysis.Subject == "" {
		analysis.Subject = "General"
	}
	if analysis.Difficulty == "" {
		analysis.Difficulty = "intermediate"
	}

	c.logger.InfoContext(ctx, "question analyzed",
		slog.String("question_type", analysis.QuestionType),
		slog.String("subject", analysis.Subject),
		slog.String("difficulty", analysis.Difficulty))

	return &analysis, nil
}
