// Package config loads and validates application settings from config
// files and environment variables, exposing them as typed structs so the
// rest of the codebase never reads raw keys.
package config
