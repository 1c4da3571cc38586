package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/edforge/edforge-api/internal/llm"
)

const htmlSystemPrompt = `You are an expert front-end engineer. You build single-file interactive
learning exercises: one self-contained HTML document with inline CSS and
vanilla JavaScript, no external dependencies, no network calls.

Requirements:
- Produce ONE complete HTML document starting with <!DOCTYPE html>.
- Render the story narrative, then the interactive exercise described by
  the blueprint, then a resolution screen with feedback.
- Require the learner to submit their answer before any results are shown.
- Give visual feedback per answer: green for correct, red for incorrect.
- All interactivity in plain JavaScript inside a single <script> tag.
- All styling in a single <style> tag. Mobile friendly.
- Never reference external scripts, stylesheets, fonts or images other
  than URLs present in the blueprint itself.

Respond with ONLY the HTML document. You may wrap it in a fenced code
block.`

// HTMLGenerator renders the final self-contained interactive document from
// the story and blueprint artifacts.
type HTMLGenerator struct {
	gateway llm.Gateway
	chain   FallbackChain
	logger  *slog.Logger
}

func NewHTMLGenerator(gateway llm.Gateway, logger *slog.Logger) *HTMLGenerator {
	if logger == nil {
		logger = slog.Default()
	}

	return &HTMLGenerator{
		gateway: gateway,
		chain:   DefaultFallbackChain(),
		logger:  logger.With(slog.String("component", "html_generator")),
	}
}

// Generate produces the HTML document for the given story and blueprint.
func (g *HTMLGenerator) Generate(
	ctx context.Context,
	story map[string]interface{},
	blueprint map[string]interface{},
) (string, error) {
	storyJSON, err := json.MarshalIndent(story, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal story for prompt: %w", err)
	}
	blueprintJSON, err := json.MarshalIndent(blueprint, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal blueprint for prompt: %w", err)
	}

	userPrompt := fmt.Sprintf(`Build the interactive exercise.

Story:
%s

Blueprint:
%s`, storyJSON, blueprintJSON)

	messages := []llm.Message{
		llm.SystemMessage(htmlSystemPrompt),
		llm.UserMessage(userPrompt),
	}

	response, err := GenerateWithFallback(ctx, g.gateway, g.chain, messages, g.logger)
	if err != nil {
		return "", err
	}

	html, err := ExtractHTML(response)
	if err != nil {
		return "", err
	}
	if err := validateHTML(html); err != nil {
		return "", err
	}

	g.logger.InfoContext(ctx, "html generated", slog.Int("bytes", len(html)))

	return html, nil
}

// validateHTML is a structural shape check, not a parser. It rejects
// responses that are clearly not a usable document.
func validateHTML(html string) error {
	trimmed := strings.TrimSpace(html)
	if trimmed == "" {
		return fmt.Errorf("%w: empty html response", ErrInvalidResponse)
	}

	lower := strings.ToLower(trimmed)
	if !strings.Contains(lower, "<html") && !strings.HasPrefix(lower, "<!doctype") {
		return fmt.Errorf("%w: response does not look like an html document", ErrInvalidResponse)
	}
	if !strings.Contains(lower, "</html>") {
		return fmt.Errorf("%w: html document is truncated", ErrInvalidResponse)
	}

	return nil
}
