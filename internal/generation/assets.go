package generation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/edforge/edforge-api/internal/domain"
)

// AssetPlanner derives the asset requests a blueprint needs. Which parts
// of the blueprint carry an assetPrompt depends on the template type; a
// template with no image slots plans nothing.
type AssetPlanner struct {
	logger *slog.Logger
}

func NewAssetPlanner(logger *slog.Logger) *AssetPlanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &AssetPlanner{logger: logger.With(slog.String("component", "asset_planner"))}
}

// Plan extracts asset requests from the blueprint. Purposes are the
// injection keys used later by InjectAssetURLs.
func (p *AssetPlanner) Plan(ctx context.Context, blueprint map[string]interface{}) []domain.AssetRequest {
	var requests []domain.AssetRequest
	templateType, _ := blueprint["templateType"].(string)

	switch templateType {
	case "LABEL_DIAGRAM":
		requests = appendAssetRequest(requests, blueprint, "diagram", "diagram")
	case "IMAGE_HOTSPOT_QA":
		requests = appendAssetRequest(requests, blueprint, "image", "image")
	case "PARAMETER_PLAYGROUND":
		requests = appendAssetRequest(requests, blueprint, "visualization", "visualization")
	case "SPOT_THE_MISTAKE":
		requests = appendAssetRequest(requests, blueprint, "content", "content")
	case "MICRO_SCENARIO_BRANCHING":
		scenarios, _ := blueprint["scenarios"].([]interface{})
		for i, raw := range scenarios {
			scenario, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			if prompt, _ := scenario["assetPrompt"].(string); prompt != "" {
				requests = append(requests, domain.AssetRequest{
					Type:    "image",
					Purpose: fmt.Sprintf("scenario_%d", i),
					Prompt:  prompt,
				})
			}
		}
	case "BEFORE_AFTER_TRANSFORMER":
		requests = appendAssetRequest(requests, blueprint, "beforeState", "before")
		requests = appendAssetRequest(requests, blueprint, "afterState", "after")
	}

	p.logger.InfoContext(ctx, "planned asset requests",
		slog.String("template_type", templateType),
		slog.Int("count", len(requests)))

	return requests
}

func appendAssetRequest(requests []domain.AssetRequest, blueprint map[string]interface{}, field, purpose string) []domain.AssetRequest {
	section, ok := blueprint[field].(map[string]interface{})
	if !ok {
		return requests
	}
	prompt, _ := section["assetPrompt"].(string)
	if prompt == "" {
		return requests
	}
	return append(requests, domain.AssetRequest{Type: "image", Purpose: purpose, Prompt: prompt})
}

// AssetGenerator resolves planned requests to URLs. Image generation is
// not wired to a real provider yet, so each request resolves to a
// deterministic placeholder URL keyed by purpose.
type AssetGenerator struct {
	logger *slog.Logger
}

func NewAssetGenerator(logger *slog.Logger) *AssetGenerator {
	if logger == nil {
		logger = slog.Default()
	}
	return &AssetGenerator{logger: logger.With(slog.String("component", "asset_generator"))}
}

// Generate returns a purpose-to-URL map for the given requests.
// Non-image request types are ignored.
func (g *AssetGenerator) Generate(ctx context.Context, requests []domain.AssetRequest) map[string]string {
	urls := make(map[string]string, len(requests))

	for _, req := range requests {
		if req.Type != "image" {
			continue
		}
		g.logger.InfoContext(ctx, "generating image asset",
			slog.String("purpose", req.Purpose))
		urls[req.Purpose] = "https://placeholder.com/800x600?text=" + strings.ReplaceAll(req.Purpose, "_", "+")
	}

	return urls
}

// InjectAssetURLs writes resolved URLs back into the blueprint at the
// template-specific locations. Unknown purposes and missing sections are
// skipped silently.
func InjectAssetURLs(blueprint map[string]interface{}, assetURLs map[string]string) {
	templateType, _ := blueprint["templateType"].(string)

	switch templateType {
	case "LABEL_DIAGRAM":
		injectSectionURL(blueprint, "diagram", assetURLs["diagram"])
	case "IMAGE_HOTSPOT_QA":
		injectSectionURL(blueprint, "image", assetURLs["image"])
	case "PARAMETER_PLAYGROUND":
		injectSectionURL(blueprint, "visualization", assetURLs["visualization"])
	case "SPOT_THE_MISTAKE":
		injectSectionURL(blueprint, "content", assetURLs["content"])
	case "MICRO_SCENARIO_BRANCHING":
		scenarios, _ := blueprint["scenarios"].([]interface{})
		for i, raw := range scenarios {
			scenario, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			if url, present := assetURLs[fmt.Sprintf("scenario_%d", i)]; present {
				scenario["imageUrl"] = url
			}
		}
	case "BEFORE_AFTER_TRANSFORMER":
		injectSectionURL(blueprint, "beforeState", assetURLs["before"])
		injectSectionURL(blueprint, "afterState", assetURLs["after"])
	}
}

func injectSectionURL(blueprint map[string]interface{}, field, url string) {
	if url == "" {
		return
	}
	if section, ok := blueprint[field].(map[string]interface{}); ok {
		section["assetUrl"] = url
	}
}
