// Package domain holds the core entities of the generation pipeline:
// questions, processes, pipeline steps, and the artifacts the stages
// produce. It has no knowledge of persistence or transport.
package domain
