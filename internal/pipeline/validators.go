package pipeline

import (
	"github.com/edforge/edforge-api/internal/analysis"
	"github.com/edforge/edforge-api/internal/generation"
)

// StageValidator checks a stage's output before the step is accepted. A
// failing validator downgrades an otherwise-successful handler result into
// a pipeline failure.
type StageValidator func(output interface{}) *generation.ValidationResult

// stageValidators registers validators for the stages whose provider-facing
// output needs gating beyond what the handler itself checks. Generation
// stages validate inside their generators and carry the result on the
// StageResult instead.
var stageValidators = map[string]StageValidator{
	StageQuestionAnalysis: validateAnalysisOutput,
	StageTemplateRouting:  validateRoutingOutput,
}

// validatorFor returns the registered validator for a stage, or nil.
func validatorFor(stageName string) StageValidator {
	return stageValidators[stageName]
}

func validateAnalysisOutput(output interface{}) *generation.ValidationResult {
	result := &generation.ValidationResult{IsValid: true}

	a, ok := output.(*analysis.Analysis)
	if !ok || a == nil {
		result.IsValid = false
		result.Errors = append(result.Errors, "analysis output has wrong shape")
		return result
	}

	if a.QuestionType == "" {
		result.Errors = append(result.Errors, "missing question_type")
	}
	if a.Subject == "" {
		result.Errors = append(result.Errors, "missing subject")
	}
	if a.Difficulty == "" {
		result.Errors = append(result.Errors, "missing difficulty")
	}

	result.IsValid = len(result.Errors) == 0
	return result
}

func validateRoutingOutput(output interface{}) *generation.ValidationResult {
	result := &generation.ValidationResult{IsValid: true}

	decision, ok := output.(*analysis.RoutingDecision)
	if !ok || decision == nil {
		result.IsValid = false
		result.Errors = append(result.Errors, "routing output has wrong shape")
		return result
	}

	if decision.TemplateType == "" {
		result.Errors = append(result.Errors, "missing templateType")
	}

	result.IsValid = len(result.Errors) == 0
	return result
}
