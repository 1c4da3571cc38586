package generation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edforge/edforge-api/internal/domain"
)

func TestAssetPlannerPlan(t *testing.T) {
	t.Parallel()

	planner := NewAssetPlanner(testLogger())

	t.Run("label diagram plans one diagram asset", func(t *testing.T) {
		t.Parallel()

		blueprint := map[string]interface{}{
			"templateType": "LABEL_DIAGRAM",
			"diagram":      map[string]interface{}{"assetPrompt": "a heart cross-section"},
		}

		requests := planner.Plan(context.Background(), blueprint)

		require.Len(t, requests, 1)
		assert.Equal(t, "image", requests[0].Type)
		assert.Equal(t, "diagram", requests[0].Purpose)
		assert.Equal(t, "a heart cross-section", requests[0].Prompt)
	})

	t.Run("branching scenarios get indexed purposes", func(t *testing.T) {
		t.Parallel()

		blueprint := map[string]interface{}{
			"templateType": "MICRO_SCENARIO_BRANCHING",
			"scenarios": []interface{}{
				map[string]interface{}{"assetPrompt": "a crossroads"},
				map[string]interface{}{"text": "no image here"},
				map[string]interface{}{"assetPrompt": "a bridge"},
			},
		}

		requests := planner.Plan(context.Background(), blueprint)

		require.Len(t, requests, 2)
		assert.Equal(t, "scenario_0", requests[0].Purpose)
		assert.Equal(t, "scenario_2", requests[1].Purpose)
	})

	t.Run("before and after states both planned", func(t *testing.T) {
		t.Parallel()

		blueprint := map[string]interface{}{
			"templateType": "BEFORE_AFTER_TRANSFORMER",
			"beforeState":  map[string]interface{}{"assetPrompt": "wilted plant"},
			"afterState":   map[string]interface{}{"assetPrompt": "thriving plant"},
		}

		requests := planner.Plan(context.Background(), blueprint)

		require.Len(t, requests, 2)
		assert.Equal(t, "before", requests[0].Purpose)
		assert.Equal(t, "after", requests[1].Purpose)
	})

	t.Run("template without image slots plans nothing", func(t *testing.T) {
		t.Parallel()

		blueprint := map[string]interface{}{
			"templateType": "SEQUENCE_BUILDER",
			"items":        []interface{}{"a", "b"},
		}

		assert.Empty(t, planner.Plan(context.Background(), blueprint))
	})

	t.Run("missing assetPrompt plans nothing", func(t *testing.T) {
		t.Parallel()

		blueprint := map[string]interface{}{
			"templateType": "LABEL_DIAGRAM",
			"diagram":      map[string]interface{}{"description": "no prompt"},
		}

		assert.Empty(t, planner.Plan(context.Background(), blueprint))
	})
}

func TestAssetGeneratorGenerate(t *testing.T) {
	t.Parallel()

	generator := NewAssetGenerator(testLogger())

	requests := []domain.AssetRequest{
		{Type: "image", Purpose: "scenario_1", Prompt: "a bridge"},
		{Type: "audio", Purpose: "theme", Prompt: "calm music"},
	}

	urls := generator.Generate(context.Background(), requests)

	require.Len(t, urls, 1)
	assert.Equal(t, "https://placeholder.com/800x600?text=scenario+1", urls["scenario_1"])
	assert.NotContains(t, urls, "theme")
}

func TestInjectAssetURLs(t *testing.T) {
	t.Parallel()

	t.Run("section templates get assetUrl", func(t *testing.T) {
		t.Parallel()

		blueprint := map[string]interface{}{
			"templateType": "IMAGE_HOTSPOT_QA",
			"image":        map[string]interface{}{"assetPrompt": "a map"},
		}

		InjectAssetURLs(blueprint, map[string]string{"image": "https://cdn.example/map.png"})

		image := blueprint["image"].(map[string]interface{})
		assert.Equal(t, "https://cdn.example/map.png", image["assetUrl"])
	})

	t.Run("scenarios get imageUrl by index", func(t *testing.T) {
		t.Parallel()

		blueprint := map[string]interface{}{
			"templateType": "MICRO_SCENARIO_BRANCHING",
			"scenarios": []interface{}{
				map[string]interface{}{"assetPrompt": "a crossroads"},
				map[string]interface{}{"text": "no image"},
			},
		}

		InjectAssetURLs(blueprint, map[string]string{"scenario_0": "https://cdn.example/0.png"})

		first := blueprint["scenarios"].([]interface{})[0].(map[string]interface{})
		second := blueprint["scenarios"].([]interface{})[1].(map[string]interface{})
		assert.Equal(t, "https://cdn.example/0.png", first["imageUrl"])
		assert.NotContains(t, second, "imageUrl")
	})

	t.Run("missing section is skipped", func(t *testing.T) {
		t.Parallel()

		blueprint := map[string]interface{}{"templateType": "LABEL_DIAGRAM"}
		InjectAssetURLs(blueprint, map[string]string{"diagram": "https://cdn.example/d.png"})
		assert.NotContains(t, blueprint, "diagram")
	})
}
