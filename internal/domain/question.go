package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for Question
var (
	ErrEmptyQuestionID   = errors.New("question ID cannot be empty")
	ErrEmptyQuestionText = errors.New("question text cannot be empty")
)

// Question represents a submitted question to be turned into an interactive
// exercise. Options is nil for free-form questions.
type Question struct {
	ID         uuid.UUID `json:"id"`
	Text       string    `json:"text"`
	Options    []string  `json:"options,omitempty"`
	SourceFile string    `json:"source_file,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewQuestion creates a new Question with the given text and options.
// Returns an error if validation fails.
func NewQuestion(text string, options []string) (*Question, error) {
	question := &Question{
		ID:        uuid.New(),
		Text:      text,
		Options:   options,
		CreatedAt: time.Now().UTC(),
	}

	if err := question.Validate(); err != nil {
		return nil, err
	}

	return question, nil
}

// Validate checks if the Question has valid data.
func (q *Question) Validate() error {
	if q.ID == uuid.Nil {
		return ErrEmptyQuestionID
	}

	if q.Text == "" {
		return ErrEmptyQuestionText
	}

	return nil
}

// QuestionAnalysis holds the classifier's verdict for a question. There is
// at most one analysis row per question; re-analysis updates it in place.
type QuestionAnalysis struct {
	ID           uuid.UUID `json:"id"`
	QuestionID   uuid.UUID `json:"question_id"`
	QuestionType string    `json:"question_type"`
	Subject      string    `json:"subject"`
	Difficulty   string    `json:"difficulty"`
	KeyConcepts  []string  `json:"key_concepts,omitempty"`
	Intent       string    `json:"intent,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewQuestionAnalysis creates an analysis record for the given question.
func NewQuestionAnalysis(questionID uuid.UUID, questionType, subject, difficulty string) (*QuestionAnalysis, error) {
	analysis := &QuestionAnalysis{
		ID:           uuid.New(),
		QuestionID:   questionID,
		QuestionType: questionType,
		Subject:      subject,
		Difficulty:   difficulty,
		UpdatedAt:    time.Now().UTC(),
	}

	if err := analysis.Validate(); err != nil {
		return nil, err
	}

	return analysis, nil
}

// Validate checks if the QuestionAnalysis has valid data.
func (a *QuestionAnalysis) Validate() error {
	if a.ID == uuid.Nil {
		return ErrInvalidID
	}

	if a.QuestionID == uuid.Nil {
		return ErrEmptyQuestionID
	}

	if a.QuestionType == "" || a.Subject == "" || a.Difficulty == "" {
		return ErrEmptyContent
	}

	return nil
}
