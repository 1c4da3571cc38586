package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/edforge/edforge-api/internal/llm"
	"github.com/edforge/edforge-api/internal/template"
)

// BlueprintGenerator produces the template-conformant interaction data for
// a story. The template descriptor drives both the prompt and the
// post-processing: its interface description is appended to the system
// prompt and its numeric field list drives string-to-number coercion.
type BlueprintGenerator struct {
	gateway  llm.Gateway
	registry *template.Registry
	chain    FallbackChain
	logger   *slog.Logger
}

func NewBlueprintGenerator(gateway llm.Gateway, registry *template.Registry, logger *slog.Logger) *BlueprintGenerator {
	if logger == nil {
		logger = slog.Default()
	}

	return &BlueprintGenerator{
		gateway:  gateway,
		registry: registry,
		chain:    DefaultFallbackChain(),
		logger:   logger.With(slog.String("component", "blueprint_generator")),
	}
}

// Generate produces the blueprint for the given story and template type.
// The returned blueprint always carries the requested templateType, even
// when the provider answered with a different one.
func (g *BlueprintGenerator) Generate(
	ctx context.Context,
	story map[string]interface{},
	templateType string,
) (map[string]interface{}, *ValidationResult, error) {
	descriptor, ok := g.registry.Get(templateType)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrTemplateNotFound, templateType)
	}

	systemPrompt := g.systemPrompt(ctx, descriptor)

	storyJSON, err := json.MarshalIndent(story, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("marshal story for prompt: %w", err)
	}

	userPrompt := fmt.Sprintf(`Generate the blueprint for this story using the %s template:

%s

Respond with ONLY valid JSON matching the template schema.`, templateType, storyJSON)

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

	var blueprint map[string]interface{}
	if err := json.Unmarshal([]byte(payload), &blueprint); err != nil {
		return nil, nil, fmt.Errorf("%w: blueprint JSON: %v", ErrInvalidResponse, err)
	}

	CoerceNumericFields(blueprint, descriptor.NumericFields)

	if got, _ := blueprint["templateType"].(string); got != templateType {
		g.logger.WarnContext(ctx, "provider returned mismatched templateType, overwriting",
			slog.String("requested", templateType),
			slog.String("returned", got))
	}
	blueprint["templateType"] = templateType

	valid, errs := g.registry.Validate(blueprint, templateType)
	result := &ValidationResult{IsValid: valid, Errors: errs}
	if !valid {
		return nil, result, fmt.Errorf("%w: blueprint: %s",
			ErrValidationFailed, strings.Join(errs, ", "))
	}

	g.logger.InfoContext(ctx, "blueprint generated", slog.String("template_type", templateType))

	return blueprint, result, nil
}

func (g *BlueprintGenerator) systemPrompt(ctx context.Context, descriptor *template.Descriptor) string {
	base, err := promptFS.ReadFile("prompts/blueprint_base.md")
	if err != nil {
		g.logger.WarnContext(ctx, "blueprint base prompt missing, using descriptor only")
		return descriptor.InterfaceDescription()
	}

	return string(base) + "\n\n" + descriptor.InterfaceDescription()
}

// CoerceNumericFields converts string values of known numeric fields to
// numbers, anywhere in the blueprint tree. Values inside a targetValues
// object are coerced regardless of key name. Strings that do not parse as
// numbers are left unchanged.
func CoerceNumericFields(node interface{}, numericFields []string) {
	fields := make(map[string]bool, len(numericFields))
	for _, name := range numericFields {
		fields[name] = true
	}
	coerceNode(node, fields, false)
}

func coerceNode(node interface{}, fields map[string]bool, inTargetValues bool) {
	switch typed := node.(type) {
	case map[string]interface{}:
		for key, value := range typed {
			if str, ok := value.(string); ok && (inTargetValues || fields[key]) {
				if num, ok := parseNumber(str); ok {
					typed[key] = num
					continue
				}
			}
			coerceNode(value, fields, inTargetValues || key == "targetValues")
		}
	case []interface{}:
		for _, item := range typed {
			coerceNode(item, fields, inTargetValues)
		}
	}
}

// parseNumber parses a numeric string the way JSON distinguishes numbers:
// a decimal point or exponent yields a float, otherwise an integer.
func parseNumber(s string) (interface{}, bool) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil, false
	}

	if strings.ContainsAny(trimmed, ".eE") {
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return nil, false
		}
		return f, true
	}

	i, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return nil, false
	}
	return int(i), true
}
