// Package pipeline contains the run engine: the fixed stage list, the
// per-stage step executor, the transient run state with deterministic
// replay, and the orchestrator that drives a process from resume point to
// final artifacts with auditable step records.
package pipeline
