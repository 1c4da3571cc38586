package domain

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Validation errors for final pipeline artifacts
var (
	ErrEmptyStoryData     = errors.New("story data cannot be empty")
	ErrEmptyBlueprintData = errors.New("blueprint data cannot be empty")
)

// Story is the narrative artifact produced by the story generation stage.
// The data is stored as JSONB; its shape is owned by the story prompt
// schema, not by this layer.
type Story struct {
	ID         uuid.UUID       `json:"id"`
	QuestionID uuid.UUID       `json:"question_id"`
	Data       json.RawMessage `json:"data"`
	CreatedAt  time.Time       `json:"created_at"`
}

// NewStory creates a new Story artifact for the given question.
func NewStory(questionID uuid.UUID, data json.RawMessage) (*Story, error) {
	story := &Story{
		ID:         uuid.New(),
		QuestionID: questionID,
		Data:       data,
		CreatedAt:  time.Now().UTC(),
	}

	if err := story.Validate(); err != nil {
		return nil, err
	}

	return story, nil
}

// Validate checks if the Story has valid data.
func (s *Story) Validate() error {
	if s.ID == uuid.Nil || s.QuestionID == uuid.Nil {
		return ErrInvalidID
	}

	if len(s.Data) == 0 {
		return ErrEmptyStoryData
	}

	var js json.RawMessage
	if err := json.Unmarshal(s.Data, &js); err != nil {
		return ErrValidation
	}

	return nil
}

// Blueprint is the data-only structured exercise artifact. TemplateType is
// immutable once set and must equal the templateType embedded in Data.
// Assets maps asset purpose to resolved URL.
type Blueprint struct {
	ID           uuid.UUID       `json:"id"`
	QuestionID   uuid.UUID       `json:"question_id"`
	TemplateType string          `json:"template_type"`
	Data         json.RawMessage `json:"data"`
	Assets       json.RawMessage `json:"assets,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// NewBlueprint creates a new Blueprint artifact.
func NewBlueprint(questionID uuid.UUID, templateType string, data, assets json.RawMessage) (*Blueprint, error) {
	blueprint := &Blueprint{
		ID:           uuid.New(),
		QuestionID:   questionID,
		TemplateType: templateType,
		Data:         data,
		Assets:       assets,
		CreatedAt:    time.Now().UTC(),
	}

	if err := blueprint.Validate(); err != nil {
		return nil, err
	}

	return blueprint, nil
}

// Validate checks if the Blueprint has valid data.
func (b *Blueprint) Validate() error {
	if b.ID == uuid.Nil || b.QuestionID == uuid.Nil {
		return ErrInvalidID
	}

	if b.TemplateType == "" {
		return ErrInvalidTemplateType
	}

	if len(b.Data) == 0 {
		return ErrEmptyBlueprintData
	}

	return nil
}

// Visualization links a finished run's artifacts together: the optional
// self-contained HTML document, the story payload, and the blueprint if one
// was generated. It is the record surfaced to reading clients.
type Visualization struct {
	ID          uuid.UUID       `json:"id"`
	ProcessID   uuid.UUID       `json:"process_id"`
	QuestionID  uuid.UUID       `json:"question_id"`
	HTML        string          `json:"html,omitempty"`
	Story       json.RawMessage `json:"story,omitempty"`
	BlueprintID *uuid.UUID      `json:"blueprint_id,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// NewVisualization creates a new Visualization record.
func NewVisualization(processID, questionID uuid.UUID, html string, story json.RawMessage) (*Visualization, error) {
	viz := &Visualization{
		ID:         uuid.New(),
		ProcessID:  processID,
		QuestionID: questionID,
		HTML:       html,
		Story:      story,
		CreatedAt:  time.Now().UTC(),
	}

	if err := viz.Validate(); err != nil {
		return nil, err
	}

	return viz, nil
}

// Validate checks if the Visualization has valid data.
func (v *Visualization) Validate() error {
	if v.ID == uuid.Nil || v.ProcessID == uuid.Nil || v.QuestionID == uuid.Nil {
		return ErrInvalidID
	}

	return nil
}

// AssetRequest describes one asset the planning stage decided a blueprint
// needs. Purpose keys the substructure the resolved URL is injected into.
type AssetRequest struct {
	Type    string `json:"type"`
	Purpose string `json:"purpose"`
	Prompt  string `json:"prompt"`
}
