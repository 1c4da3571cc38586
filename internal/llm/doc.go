// Package llm provides the gateway to external text-generation providers.
// It abstracts provider selection behind a uniform role-tagged message call,
// allowing the generation layer to switch between OpenAI, Anthropic and
// Gemini backends without coupling to any vendor SDK. The gateway performs
// no retry or caching of its own; callers own fallback ordering and the
// retry wrapper in this package is opt-in.
package llm
