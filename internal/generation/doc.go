// Package generation builds prompts for the content stages of the pipeline,
// invokes the provider gateway with primary/fallback ordering, extracts
// structured output from free-form responses, and normalizes it. It owns
// the story, HTML and blueprint generators plus asset planning and
// resolution; it performs no persistence and no whole-stage retry.
package generation
