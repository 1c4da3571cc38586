package generation

import "encoding/json"

// QuestionContext carries the question plus its classification into prompt
// construction. Classification fields may be empty when analysis has not
// run.
type QuestionContext struct {
	Text         string   `json:"text"`
	Options      []string `json:"options,omitempty"`
	QuestionType string   `json:"question_type,omitempty"`
	Subject      string   `json:"subject,omitempty"`
	Difficulty   string   `json:"difficulty,omitempty"`
	KeyConcepts  []string `json:"key_concepts,omitempty"`
	Intent       string   `json:"intent,omitempty"`
}

// Strategy is the derived generation strategy consumed by the story
// generator.
type Strategy struct {
	PromptTemplate string                 `json:"prompt_template"`
	GameFormat     string                 `json:"game_format"`
	Storyline      map[string]interface{} `json:"storyline,omitempty"`
}

// ValidationResult records a stage validator's verdict and is persisted on
// the step record alongside the output.
type ValidationResult struct {
	IsValid  bool     `json:"is_valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// ToJSON serializes the validation result for step-record storage.
func (v *ValidationResult) ToJSON() json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}
