package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/edforge/edforge-api/internal/generation"
	"github.com/edforge/edforge-api/internal/llm"
	"github.com/edforge/edforge-api/internal/template"
)

const routerSystemPromptFormat = `You are an exercise designer. Choose the single best interactive
template for the given question from this closed catalog:

%s

Respond with ONLY a JSON object:
{
  "templateType": "one identifier from the catalog, verbatim",
  "confidence": 0.0,
  "rationale": "one or two sentences"
}`

// RoutingDecision is the template routing stage output. Confidence is
// display-only; it never gates behavior.
type RoutingDecision struct {
	TemplateType string  `json:"templateType"`
	Confidence   float64 `json:"confidence"`
	Rationale    string  `json:"rationale"`
}

// TemplateRouter selects a template identifier from the closed catalog via
// the provider gateway. A selection outside the catalog is an invalid
// response, not a silent default.
type TemplateRouter struct {
	gateway  llm.Gateway
	registry *template.Registry
	chain    generation.FallbackChain
	logger   *slog.Logger
}

func NewTemplateRouter(gateway llm.Gateway, registry *template.Registry, logger *slog.Logger) *TemplateRouter {
	if logger == nil {
		logger = slog.Default()
	}

	return &TemplateRouter{
		gateway:  gateway,
		registry: registry,
		chain:    generation.DefaultFallbackChain(),
		logger:   logger.With(slog.String("component", "template_router")),
	}
}

// Route selects the template for the question. The prompt offers only
// templates with a loaded descriptor: a known identifier without one
// could be routed to but never validated downstream.
func (r *TemplateRouter) Route(ctx context.Context, text string, analysis *Analysis) (*RoutingDecision, error) {
	systemPrompt := fmt.Sprintf(routerSystemPromptFormat,
		strings.Join(r.registry.ListLoaded(), "\n"))

	analysisJSON, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal analysis for prompt: %w", err)
	}

	userPrompt := fmt.Sprintf("Question: %s\n\nClassification:\n%s", text, analysisJSON)

	messages := []llm.Message{
		llm.SystemMessage(systemPrompt),
		llm.UserMessage(userPrompt),
	}

	response, err := generation.GenerateWithFallback(ctx, r.gateway, r.chain, messages, r.logger)
	if err != nil {
		return nil, err
	}

	payload, err := generation.ExtractJSON(response)
	if err != nil {
		return nil, err
	}

	var decision RoutingDecision
	if err := json.Unmarshal([]byte(payload), &decision); err != nil {
		return nil, fmt.Errorf("%w: routing JSON: %v", generation.ErrInvalidResponse, err)
	}

	if !r.registry.IsKnownType(decision.TemplateType) {
		return nil, fmt.Errorf("%w: routed to unknown template %q",
			generation.ErrInvalidResponse, decision.TemplateType)
	}

	r.logger.InfoContext(ctx, "template routed",
		slog.String("template_type", decision.TemplateType),
		slog.Float64("confidence", decision.Confidence),
		slog.String("rationale", truncate(decision.Rationale, 100)))

	return &decision, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
