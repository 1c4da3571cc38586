package generation

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/edforge/edforge-api/internal/llm"
)

//go:embed prompts
var promptFS embed.FS

// flowAliasPriority is the fixed order in which alias field names inside a
// question_flow entry are normalized to question_text. The first alias
// present wins and is dropped; an entry that already has question_text is
// left untouched.
var flowAliasPriority = []string{"intuitive_question", "text", "question", "content"}

// StoryGenerator produces the narrative artifact for a question. It
// composes a system prompt from the embedded base template plus an optional
// per-template supplement, calls the gateway with fallback, extracts the
// JSON payload, normalizes flow-entry field aliases and validates the
// result. Validation failure is an error at this layer; there is no retry
// here.
type StoryGenerator struct {
	gateway llm.Gateway
	chain   FallbackChain
	logger  *slog.Logger
}

// NewStoryGenerator creates a StoryGenerator using the default fallback
// chain.
func NewStoryGenerator(gateway llm.Gateway, logger *slog.Logger) *StoryGenerator {
	if logger == nil {
		logger = slog.Default()
	}

	return &StoryGenerator{
		gateway: gateway,
		chain:   DefaultFallbackChain(),
		logger:  logger.With(slog.String("component", "story_generator")),
	}
}

// Generate produces the story payload for the question under the given
// strategy and template type.
func (g *StoryGenerator) Generate(
	ctx context.Context,
	question QuestionContext,
	strategy *Strategy,
	templateType string,
) (map[string]interface{}, *ValidationResult, error) {
	systemPrompt := g.systemPrompt(ctx, strategy, templateType)
	userPrompt := g.userPrompt(question, strategy, templateType)

	messages := []llm.Message{
		llm.SystemMessage(systemPrompt),
		llm.UserMessage(userPrompt),
	}

	response, err := GenerateWithFallback(ctx, g.gateway, g.chain, messages, g.logger)
	if err != nil {
		return nil, nil, err
	}

	payload, err := ExtractJSON(response)
	if err != nil {
		return nil, nil, err
	}

	var story map[string]interface{}
	if err := json.Unmarshal([]byte(payload), &story); err != nil {
		return nil, nil, fmt.Errorf("%w: story JSON: %v", ErrInvalidResponse, err)
	}

	NormalizeQuestionFlow(story)

	result := validateStory(story)
	if !result.IsValid {
		return nil, result, fmt.Errorf("%w: story: %s",
			ErrValidationFailed, strings.Join(result.Errors, ", "))
	}

	for _, warning := range result.Warnings {
		g.logger.WarnContext(ctx, "story validation warning", slog.String("warning", warning))
	}

	g.logger.InfoContext(ctx, "story generated",
		slog.String("template_type", templateType),
		slog.Any("story_title", story["story_title"]))

	return story, result, nil
}

// systemPrompt composes the base story prompt with the template supplement.
// A missing supplement degrades to base-only with a warning; it is never
// fatal.
func (g *StoryGenerator) systemPrompt(ctx context.Context, strategy *Strategy, templateType string) string {
	base, err := promptFS.ReadFile("prompts/story_base.md")
	if err != nil {
		g.logger.WarnContext(ctx, "story base prompt missing, using strategy template")
		if strategy != nil {
			return strategy.PromptTemplate
		}
		return ""
	}

	prompt := string(base)
	if templateType == "" {
		return prompt
	}

	supplement, err := promptFS.ReadFile("prompts/story_templates/" + templateType + ".txt")
	if err != nil {
		g.logger.WarnContext(ctx, "no story supplement for template, using base prompt only",
			slog.String("template_type", templateType))
		return prompt
	}

	return prompt + "\n\n" + string(supplement)
}

// userPrompt renders the question, classification and strategy for the
// provider.
func (g *StoryGenerator) userPrompt(question QuestionContext, strategy *Strategy, templateType string) string {
	gameFormat := "quiz"
	storyline := "None"
	if strategy != nil {
		if strategy.GameFormat != "" {
			gameFormat = strategy.GameFormat
		}
		if len(strategy.Storyline) > 0 {
			if data, err := json.MarshalIndent(strategy.Storyline, "", "  "); err == nil {
				storyline = string(data)
			}
		}
	}

	if templateType == "" {
		templateType = "Not specified"
	}

	return fmt.Sprintf(`Generate a story-based exercise for the following question:

Question: %s
Options: %v
Type: %s
Subject: %s
Difficulty: %s
Key Concepts: %v
Intent: %s

Game Format: %s
Storyline: %s
TemplateType: %s

Follow the schema and requirements in the system prompt. Respond with ONLY valid JSON matching the output schema.`,
		question.Text,
		question.Options,
		orDefault(question.QuestionType, "reasoning"),
		orDefault(question.Subject, "General"),
		orDefault(question.Difficulty, "intermediate"),
		question.KeyConcepts,
		question.Intent,
		gameFormat,
		storyline,
		templateType,
	)
}

// NormalizeQuestionFlow rewrites alias field names inside each
// question_flow entry to the canonical question_text, in fixed priority
// order, dropping the alias it promoted. Entries that already carry
// question_text are left alone.
func NormalizeQuestionFlow(story map[string]interface{}) {
	flow, ok := story["question_flow"].([]interface{})
	if !ok {
		return
	}

	for _, raw := range flow {
		entry, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}

		if _, present := entry["question_text"]; present {
			continue
		}

		for _, alias := range flowAliasPriority {
			if value, present := entry[alias]; present {
				entry["question_text"] = value
				delete(entry, alias)
				break
			}
		}
	}
}

// validateStory shape-checks the normalized story payload.
func validateStory(story map[string]interface{}) *ValidationResult {
	result := &ValidationResult{IsValid: true}

	title, _ := story["story_title"].(string)
	if title == "" {
		result.Errors = append(result.Errors, "missing or empty story_title")
	}

	flow, ok := story["question_flow"].([]interface{})
	if !ok || len(flow) == 0 {
		result.Errors = append(result.Errors, "question_flow must be a non-empty list")
	} else {
		for i, raw := range flow {
			entry, ok := raw.(map[string]interface{})
			if !ok {
				result.Errors = append(result.Errors, fmt.Sprintf("question_flow[%d] is not an object", i))
				continue
			}
			if text, _ := entry["question_text"].(string); text == "" {
				result.Errors = append(result.Errors, fmt.Sprintf("question_flow[%d] missing question_text", i))
			}
		}
	}

	if _, present := story["narrative_intro"]; !present {
		result.Warnings = append(result.Warnings, "story has no narrative_intro")
	}
	if _, present := story["resolution"]; !present {
		result.Warnings = append(result.Warnings, "story has no resolution")
	}

	result.IsValid = len(result.Errors) == 0
	return result
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
