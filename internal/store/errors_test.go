package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsNotFoundError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "generic not found", err: ErrNotFound, want: true},
		{name: "question not found", err: ErrQuestionNotFound, want: true},
		{name: "process not found", err: ErrProcessNotFound, want: true},
		{name: "step not found", err: ErrStepNotFound, want: true},
		{name: "analysis not found", err: ErrAnalysisNotFound, want: true},
		{name: "visualization not found", err: ErrVisualizationNotFound, want: true},
		{name: "wrapped not found", err: fmt.Errorf("lookup failed: %w", ErrBlueprintNotFound), want: true},
		{name: "duplicate", err: ErrDuplicate, want: false},
		{name: "unrelated", err: errors.New("boom"), want: false},
		{name: "nil", err: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsNotFoundError(tt.err))
		})
	}
}

func TestEntityErrorsWrapNotFound(t *testing.T) {
	t.Parallel()

	for _, err := range []error{
		ErrQuestionNotFound,
		ErrProcessNotFound,
		ErrStepNotFound,
		ErrAnalysisNotFound,
		ErrStoryNotFound,
		ErrBlueprintNotFound,
		ErrVisualizationNotFound,
	} {
		assert.ErrorIs(t, err, ErrNotFound)
	}
}
