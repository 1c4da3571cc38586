package llm

import (
	"context"
)

// Role tags a message with its conversational position.
type Role string

// Supported message roles
const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// Message is one role-tagged entry in the ordered prompt sent to a provider.
type Message struct {
	Role    Role
	Content string
}

// Provider identifies a text-generation backend.
type Provider string

// Supported providers
const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderGemini    Provider = "gemini"
)

// Gateway defines the uniform call into interchangeable text-generation
// backends. Implementations must be constructible without credentials:
// a missing API key surfaces as ErrNoCredentials on the first real call,
// keeping the rest of the system testable without live keys.
type Gateway interface {
	// Generate sends the ordered message list to the selected provider and
	// returns the raw response text. Timeout enforcement belongs to the
	// transport beneath the provider SDK, not this layer.
	Generate(ctx context.Context, messages []Message, provider Provider) (string, error)
}

// SystemMessage is a convenience constructor for a system-role message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage is a convenience constructor for a user-role message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}
