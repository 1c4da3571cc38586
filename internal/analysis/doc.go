// Package analysis implements the upstream pipeline stages: document
// parsing, question extraction, question classification, template routing
// and strategy derivation. Classification and routing call the provider
// gateway; the rest are deterministic.
package analysis
