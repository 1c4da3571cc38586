package api

import (
	"encoding/json"
	"time"

	"github.com/edforge/edforge-api/internal/domain"
)

// Common request/response structures

// CreateQuestionRequest defines the payload for the question submission
// endpoint.
type CreateQuestionRequest struct {
	Text    string   `json:"text"              validate:"required,min=1,max=2000"`
	Options []string `json:"options,omitempty" validate:"omitempty,max=10,dive,min=1"`
}

// GenerateRequest defines the payload for starting a pipeline run.
type GenerateRequest struct {
	QuestionID string `json:"question_id" validate:"required,uuid"`
}

// QuestionResponse represents a stored question.
type QuestionResponse struct {
	ID         string    `json:"id"`
	Text       string    `json:"text"`
	Options    []string  `json:"options,omitempty"`
	SourceFile string    `json:"source_file,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// ProcessResponse represents a pipeline run.
type ProcessResponse struct {
	ID           string    `json:"id"`
	QuestionID   string    `json:"question_id"`
	Status       string    `json:"status"`
	Progress     int       `json:"progress"`
	CurrentStep  string    `json:"current_step,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// StepResponse represents a single recorded pipeline step.
type StepResponse struct {
	ID           string          `json:"id"`
	StepName     string          `json:"step_name"`
	StepNumber   int             `json:"step_number"`
	Status       string          `json:"status"`
	Validation   json.RawMessage `json:"validation,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
	RetryCount   int             `json:"retry_count"`
	StartedAt    *time.Time      `json:"started_at,omitempty"`
	FinishedAt   *time.Time      `json:"finished_at,omitempty"`
}

// ProgressResponse combines a process with its recorded steps.
type ProgressResponse struct {
	Process ProcessResponse `json:"process"`
	Steps   []StepResponse  `json:"steps"`
}

// VisualizationResponse represents a generated exercise.
type VisualizationResponse struct {
	ID          string          `json:"id"`
	ProcessID   string          `json:"process_id"`
	QuestionID  string          `json:"question_id"`
	BlueprintID string          `json:"blueprint_id,omitempty"`
	Story       json.RawMessage `json:"story,omitempty"`
	HasHTML     bool            `json:"has_html"`
	CreatedAt   time.Time       `json:"created_at"`
}

func questionToResponse(question *domain.Question) QuestionResponse {
	return QuestionResponse{
		ID:         question.ID.String(),
		Text:       question.Text,
		Options:    question.Options,
		SourceFile: question.SourceFile,
		CreatedAt:  question.CreatedAt,
	}
}

func processToResponse(process *domain.Process) ProcessResponse {
	return ProcessResponse{
		ID:           process.ID.String(),
		QuestionID:   process.QuestionID.String(),
		Status:       string(process.Status),
		Progress:     process.Progress,
		CurrentStep:  process.CurrentStep,
		ErrorMessage: process.ErrorMessage,
		CreatedAt:    process.CreatedAt,
		UpdatedAt:    process.UpdatedAt,
	}
}

func stepToResponse(step *domain.PipelineStep) StepResponse {
	resp := StepResponse{
		ID:           step.ID.String(),
		StepName:     step.StepName,
		StepNumber:   step.StepNumber,
		Status:       string(step.Status),
		Validation:   step.Validation,
		ErrorMessage: step.ErrorMessage,
		RetryCount:   step.RetryCount,
		FinishedAt:   step.FinishedAt,
	}
	if !step.StartedAt.IsZero() {
		started := step.StartedAt
		resp.StartedAt = &started
	}
	return resp
}

func visualizationToResponse(viz *domain.Visualization) VisualizationResponse {
	resp := VisualizationResponse{
		ID:         viz.ID.String(),
		ProcessID:  viz.ProcessID.String(),
		QuestionID: viz.QuestionID.String(),
		Story:      viz.Story,
		HasHTML:    viz.HTML != "",
		CreatedAt:  viz.CreatedAt,
	}
	if viz.BlueprintID != nil {
		resp.BlueprintID = viz.BlueprintID.String()
	}
	return resp
}
