// Package template holds the closed catalog of exercise-template schemas
// and validates generated blueprints against them, including the data-only
// contract that keeps presentation decisions out of structured output.
package template

import (
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

//go:embed descriptors/*.json
var descriptorFS embed.FS

// templateTypes is the closed catalog. Adding a template means adding an
// identifier here and a descriptor file under descriptors/.
var templateTypes = []string{
	"LABEL_DIAGRAM",
	"IMAGE_HOTSPOT_QA",
	"SEQUENCE_BUILDER",
	"TIMELINE_ORDER",
	"BUCKET_SORT",
	"MATCH_PAIRS",
	"MATRIX_MATCH",
	"PARAMETER_PLAYGROUND",
	"GRAPH_SKETCHER",
	"VECTOR_SANDBOX",
	"STATE_TRACER_CODE",
	"SPOT_THE_MISTAKE",
	"CONCEPT_MAP_BUILDER",
	"MICRO_SCENARIO_BRANCHING",
	"DESIGN_CONSTRAINT_BUILDER",
	"PROBABILITY_LAB",
	"BEFORE_AFTER_TRANSFORMER",
	"GEOMETRY_BUILDER",
}

// Descriptor is one exercise-template schema. Loaded once, read-only after.
type Descriptor struct {
	TemplateType    string          `json:"templateType"`
	DisplayName     string          `json:"displayName"`
	Description     string          `json:"description"`
	BlueprintSchema BlueprintSchema `json:"blueprintSchema"`
	NumericFields   []string        `json:"numericFields,omitempty"`
}

// BlueprintSchema lists the top-level fields a blueprint of this template
// must carry.
type BlueprintSchema struct {
	RequiredFields []string `json:"requiredFields"`
}

// CatalogStatus reports which descriptors loaded and which are absent, so
// callers see a partial catalog explicitly instead of silent omission.
type CatalogStatus struct {
	Loaded  []string `json:"loaded"`
	Missing []string `json:"missing"`
}

// Partial reports whether any catalog entry is missing its descriptor.
func (s CatalogStatus) Partial() bool {
	return len(s.Missing) > 0
}

// Registry is the catalog of template descriptors. It is owned by the
// composition root and injected where needed; descriptors load once at
// first access (or via an explicit Load call at startup).
type Registry struct {
	logger *slog.Logger

	once        sync.Once
	descriptors map[string]*Descriptor
	missing     []string
}

// NewRegistry creates an unloaded registry. Descriptors are read from the
// embedded descriptor files on first access.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}

	return &Registry{
		logger: logger.With(slog.String("component", "template_registry")),
	}
}

// Load forces descriptor loading. Calling it at startup lets the
// composition root log the catalog status before serving; it is safe to
// skip, since every accessor loads on demand.
func (r *Registry) Load() CatalogStatus {
	r.ensureLoaded()
	return r.Status()
}

// ensureLoaded populates the descriptor map exactly once. A descriptor file
// that is missing or unreadable is tolerated: the template is reported
// missing rather than failing registry construction outright.
func (r *Registry) ensureLoaded() {
	r.once.Do(func() {
		r.descriptors = make(map[string]*Descriptor, len(templateTypes))

		for _, templateType := range templateTypes {
			data, err := descriptorFS.ReadFile("descriptors/" + templateType + ".json")
			if err != nil {
				r.logger.Warn("template descriptor not found",
					slog.String("template_type", templateType))
				r.missing = append(r.missing, templateType)
				continue
			}

			var desc Descriptor
			if err := json.Unmarshal(data, &desc); err != nil {
				r.logger.Error("failed to parse template descriptor",
					slog.String("template_type", templateType),
					slog.String("error", err.Error()))
				r.missing = append(r.missing, templateType)
				continue
			}

			r.descriptors[templateType] = &desc
			r.logger.Debug("loaded template descriptor",
				slog.String("template_type", templateType))
		}
	})
}

// Get returns the descriptor for a template type, or false if the type is
// unknown or its descriptor did not load.
func (r *Registry) Get(templateType string) (*Descriptor, bool) {
	r.ensureLoaded()
	desc, ok := r.descriptors[templateType]
	return desc, ok
}

// ListLoaded returns the template types whose descriptors loaded.
func (r *Registry) ListLoaded() []string {
	r.ensureLoaded()

	loaded := make([]string, 0, len(r.descriptors))
	for _, templateType := range templateTypes {
		if _, ok := r.descriptors[templateType]; ok {
			loaded = append(loaded, templateType)
		}
	}
	return loaded
}

// TemplateTypes returns the full closed catalog of identifiers, regardless
// of descriptor availability.
func (r *Registry) TemplateTypes() []string {
	out := make([]string, len(templateTypes))
	copy(out, templateTypes)
	return out
}

// IsKnownType reports whether the identifier belongs to the closed catalog.
func (r *Registry) IsKnownType(templateType string) bool {
	for _, t := range templateTypes {
		if t == templateType {
			return true
		}
	}
	return false
}

// Status returns the partial-catalog report.
func (r *Registry) Status() CatalogStatus {
	r.ensureLoaded()

	status := CatalogStatus{
		Loaded:  r.ListLoaded(),
		Missing: make([]string, len(r.missing)),
	}
	copy(status.Missing, r.missing)
	return status
}

// InterfaceDescription renders a compact field list for prompt
// construction, derived from the descriptor's schema.
func (d *Descriptor) InterfaceDescription() string {
	out := fmt.Sprintf("Template %s (%s): %s\nRequired top-level fields:\n",
		d.TemplateType, d.DisplayName, d.Description)
	for _, field := range d.BlueprintSchema.RequiredFields {
		out += "  - " + field + "\n"
	}
	return out
}
