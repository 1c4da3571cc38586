package pipeline

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/edforge/edforge-api/internal/analysis"
	"github.com/edforge/edforge-api/internal/domain"
	"github.com/edforge/edforge-api/internal/generation"
)

// TransientState is the in-flight run data. It is exclusively owned by one
// orchestrator invocation, seeded from the persisted question, mutated by
// stage handlers, and rebuilt from persisted step outputs on manual retry.
// Each stage field is nil until its stage has run.
type TransientState struct {
	QuestionID      uuid.UUID
	QuestionText    string
	QuestionOptions []string

	FileContent []byte
	Filename    string

	Parsed        *analysis.ParsedDocument
	Extracted     *analysis.ExtractedQuestion
	Analysis      *analysis.Analysis
	TemplateType  string
	Routing       *analysis.RoutingDecision
	Strategy      *generation.Strategy
	Story         map[string]interface{}
	Blueprint     map[string]interface{}
	AssetRequests []domain.AssetRequest
	AssetURLs     map[string]string
}

// NewTransientState seeds run state from the persisted question plus the
// optional raw upload.
func NewTransientState(question *domain.Question, fileContent []byte, filename string) *TransientState {
	return &TransientState{
		QuestionID:      question.ID,
		QuestionText:    question.Text,
		QuestionOptions: question.Options,
		FileContent:     fileContent,
		Filename:        filename,
	}
}

// EffectiveText returns the question text the downstream stages work with:
// the extracted text when extraction ran, else the stored question text.
func (s *TransientState) EffectiveText() string {
	if s.Extracted != nil && s.Extracted.Text != "" {
		return s.Extracted.Text
	}
	return s.QuestionText
}

// EffectiveOptions returns the options the downstream stages work with.
func (s *TransientState) EffectiveOptions() []string {
	if s.Extracted != nil && len(s.Extracted.Options) > 0 {
		return s.Extracted.Options
	}
	return s.QuestionOptions
}

// Snapshot renders the sanitized entry-state snapshot stored on every step
// record. Binary payloads are replaced by a size marker, never stored raw.
func (s *TransientState) Snapshot() json.RawMessage {
	snapshot := map[string]interface{}{
		"question_id":      s.QuestionID,
		"question_text":    s.QuestionText,
		"question_options": s.QuestionOptions,
		"file_content":     fmt.Sprintf("<binary data: %d bytes>", len(s.FileContent)),
	}

	if s.Filename != "" {
		snapshot["filename"] = s.Filename
	}
	if s.Parsed != nil {
		snapshot["parsed_data"] = s.Parsed
	}
	if s.Extracted != nil {
		snapshot["extracted_question"] = s.Extracted
	}
	if s.Analysis != nil {
		snapshot["analysis"] = s.Analysis
	}
	if s.TemplateType != "" {
		snapshot["template_type"] = s.TemplateType
	}
	if s.Strategy != nil {
		snapshot["strategy"] = s.Strategy
	}
	if s.Story != nil {
		snapshot["story"] = s.Story
	}
	if s.Blueprint != nil {
		snapshot["blueprint"] = s.Blueprint
	}
	if s.AssetRequests != nil {
		snapshot["asset_requests"] = s.AssetRequests
	}
	if s.AssetURLs != nil {
		snapshot["asset_urls"] = s.AssetURLs
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return nil
	}
	return data
}

// assetPlanOutput is the persisted output of the asset planning stage.
type assetPlanOutput struct {
	AssetRequests []domain.AssetRequest `json:"asset_requests"`
	RequestCount  int                   `json:"asset_request_count"`
}

// assetGenOutput is the persisted output of the asset generation stage. It
// carries the injected blueprint so replay sees resolved URLs.
type assetGenOutput struct {
	AssetURLs map[string]string      `json:"asset_urls"`
	Blueprint map[string]interface{} `json:"blueprint"`
}

// skipOutput is the persisted output of a skipped stage.
type skipOutput struct {
	Message string `json:"message"`
}

// ApplyOutput folds one completed step's persisted output back into the
// state. Replaying completed steps' outputs in stage order reconstructs the
// TransientState deterministically without re-running any stage.
func (s *TransientState) ApplyOutput(stageName string, output json.RawMessage) error {
	if len(output) == 0 {
		return nil
	}

	switch stageName {
	case StageDocumentParsing:
		var parsed analysis.ParsedDocument
		if err := json.Unmarshal(output, &parsed); err != nil {
			return fmt.Errorf("replay %s: %w", stageName, err)
		}
		if parsed.Text != "" {
			s.Parsed = &parsed
		}

	case StageQuestionExtraction:
		var extracted analysis.ExtractedQuestion
		if err := json.Unmarshal(output, &extracted); err != nil {
			return fmt.Errorf("replay %s: %w", stageName, err)
		}
		if extracted.Text != "" {
			s.Extracted = &extracted
		}

	case StageQuestionAnalysis:
		var a analysis.Analysis
		if err := json.Unmarshal(output, &a); err != nil {
			return fmt.Errorf("replay %s: %w", stageName, err)
		}
		s.Analysis = &a

	case StageTemplateRouting:
		var decision analysis.RoutingDecision
		if err := json.Unmarshal(output, &decision); err != nil {
			return fmt.Errorf("replay %s: %w", stageName, err)
		}
		s.Routing = &decision
		s.TemplateType = decision.TemplateType

	case StageStrategyCreation:
		var strategy generation.Strategy
		if err := json.Unmarshal(output, &strategy); err != nil {
			return fmt.Errorf("replay %s: %w", stageName, err)
		}
		s.Strategy = &strategy

	case StageStoryGeneration:
		var story map[string]interface{}
		if err := json.Unmarshal(output, &story); err != nil {
			return fmt.Errorf("replay %s: %w", stageName, err)
		}
		s.Story = story

	case StageBlueprintGeneration:
		var blueprint map[string]interface{}
		if err := json.Unmarshal(output, &blueprint); err != nil {
			return fmt.Errorf("replay %s: %w", stageName, err)
		}
		s.Blueprint = blueprint

	case StageAssetPlanning:
		var plan assetPlanOutput
		if err := json.Unmarshal(output, &plan); err != nil {
			return fmt.Errorf("replay %s: %w", stageName, err)
		}
		s.AssetRequests = plan.AssetRequests

	case StageAssetGeneration:
		var gen assetGenOutput
		if err := json.Unmarshal(output, &gen); err != nil {
			return fmt.Errorf("replay %s: %w", stageName, err)
		}
		s.AssetURLs = gen.AssetURLs
		if gen.Blueprint != nil {
			s.Blueprint = gen.Blueprint
		}

	default:
		return fmt.Errorf("%w: %q", ErrUnknownStage, stageName)
	}

	return nil
}
