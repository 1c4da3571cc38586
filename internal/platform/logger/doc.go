// Package logger configures structured JSON logging on top of log/slog,
// with the level taken from server configuration.
package logger
