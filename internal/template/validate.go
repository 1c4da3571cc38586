package template

import (
	"fmt"
)

// uiHintFields are field names that signal a presentation decision leaked
// into a blueprint. Blueprints carry domain data only; a separate rendering
// layer owns all presentation.
var uiHintFields = []string{"type", "component", "widget", "control", "uiType", "componentType"}

// topLevelAllowlist are the top-level metadata keys whose subtrees are
// exempt from the UI-hint scan.
var topLevelAllowlist = map[string]bool{
	"templateType":   true,
	"title":          true,
	"narrativeIntro": true,
}

// maxHintScanDepth bounds the recursive UI-hint scan.
const maxHintScanDepth = 5

// Validate checks a decoded blueprint against the template's schema and the
// data-only contract. It returns ok plus the full list of violations:
// unknown template, each missing required field, a templateType mismatch,
// an explicit animationCues container, and any UI-hint field found within
// the bounded scan depth. The scan starts at the blueprint's own keys; the
// allowlist only exempts the metadata subtrees from recursion.
func (r *Registry) Validate(blueprint map[string]interface{}, templateType string) (bool, []string) {
	desc, ok := r.Get(templateType)
	if !ok {
		return false, []string{fmt.Sprintf("template %s not found", templateType)}
	}

	var errs []string

	for _, field := range desc.BlueprintSchema.RequiredFields {
		if _, present := blueprint[field]; !present {
			errs = append(errs, fmt.Sprintf("missing required field: %s", field))
		}
	}

	if got, _ := blueprint["templateType"].(string); got != templateType {
		errs = append(errs, fmt.Sprintf("templateType mismatch: expected %s, got %v",
			templateType, blueprint["templateType"]))
	}

	if _, present := blueprint["animationCues"]; present {
		errs = append(errs, "blueprint contains 'animationCues': blueprints are data-only, animations belong to the rendering layer")
	}

	for _, hint := range uiHintFields {
		if _, present := blueprint[hint]; present {
			errs = append(errs, fmt.Sprintf(
				"blueprint contains UI hint field '%s': blueprints are data-only, the rendering layer decides UI",
				hint))
		}
	}

	for key, value := range blueprint {
		if topLevelAllowlist[key] {
			continue
		}
		errs = scanForUIHints(value, key, 1, errs)
	}

	return len(errs) == 0, errs
}

// scanForUIHints walks the payload up to maxHintScanDepth collecting
// data-only contract violations.
func scanForUIHints(value interface{}, path string, depth int, errs []string) []string {
	if depth > maxHintScanDepth {
		return errs
	}

	switch v := value.(type) {
	case map[string]interface{}:
		for _, hint := range uiHintFields {
			if _, present := v[hint]; present {
				errs = append(errs, fmt.Sprintf(
					"blueprint contains UI hint field '%s.%s': blueprints are data-only, the rendering layer decides UI",
					path, hint))
			}
		}
		for key, nested := range v {
			errs = scanForUIHints(nested, path+"."+key, depth+1, errs)
		}
	case []interface{}:
		for i, item := range v {
			errs = scanForUIHints(item, fmt.Sprintf("%s[%d]", path, i), depth+1, errs)
		}
	}

	return errs
}
