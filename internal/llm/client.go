package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/edforge/edforge-api/internal/config"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/openai"
	"google.golang.org/genai"
)

// Client implements Gateway over the OpenAI, Anthropic and Gemini SDKs.
// Provider clients are built lazily on first use so that a Client can be
// constructed with no credentials configured.
type Client struct {
	cfg    config.LLMConfig
	retry  RetryConfig
	logger *slog.Logger

	mu     sync.Mutex
	chat   map[Provider]llms.Model
	gemini *genai.Client
}

// NewClient creates a gateway client. It never fails on missing
// credentials; those surface on the first call to the provider in question.
func NewClient(cfg config.LLMConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		cfg: cfg,
		retry: RetryConfig{
			MaxRetries: cfg.MaxRetries,
			BaseDelay:  time.Duration(cfg.RetryDelaySeconds) * time.Second,
		},
		logger: logger.With(slog.String("component", "llm_gateway")),
		chat:   make(map[Provider]llms.Model),
	}
}

// Ensure Client implements the Gateway interface
var _ Gateway = (*Client)(nil)

// Generate implements Gateway.Generate.
func (c *Client) Generate(ctx context.Context, messages []Message, provider Provider) (string, error) {
	if len(messages) == 0 {
		return "", ErrNoMessages
	}

	c.logger.DebugContext(ctx, "calling provider",
		slog.String("provider", string(provider)),
		slog.Int("message_count", len(messages)))

	switch provider {
	case ProviderOpenAI, ProviderAnthropic:
		return WithRetry(ctx, c.retry, c.logger, func(ctx context.Context) (string, error) {
			return c.generateChat(ctx, messages, provider)
		}, isPermanentError)
	case ProviderGemini:
		return WithRetry(ctx, c.retry, c.logger, func(ctx context.Context) (string, error) {
			return c.generateGemini(ctx, messages)
		}, isPermanentError)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}
}

// isPermanentError reports whether a provider error cannot be cured by
// retrying the same call.
func isPermanentError(err error) bool {
	return errors.Is(err, ErrNoCredentials) || errors.Is(err, ErrUnknownProvider)
}

// generateChat handles the langchaingo-backed providers.
func (c *Client) generateChat(ctx context.Context, messages []Message, provider Provider) (string, error) {
	model, err := c.chatModel(provider)
	if err != nil {
		return "", err
	}

	content := make([]llms.MessageContent, 0, len(messages))
	for _, m := range messages {
		role := llms.ChatMessageTypeHuman
		if m.Role == RoleSystem {
			role = llms.ChatMessageTypeSystem
		}
		content = append(content, llms.MessageContent{
			Role:  role,
			Parts: []llms.ContentPart{llms.TextPart(m.Content)},
		})
	}

	resp, err := model.GenerateContent(ctx, content)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrProviderFailure, provider, err)
	}

	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0].Content == "" {
		return "", fmt.Errorf("%w: %s", ErrEmptyResponse, provider)
	}

	return resp.Choices[0].Content, nil
}

// generateGemini handles the genai-backed provider. Gemini takes a single
// prompt, so the role-tagged messages are flattened in order.
func (c *Client) generateGemini(ctx context.Context, messages []Message) (string, error) {
	client, err := c.geminiClient(ctx)
	if err != nil {
		return "", err
	}

	var prompt strings.Builder
	for i, m := range messages {
		if i > 0 {
			prompt.WriteString("\n\n")
		}
		prompt.WriteString(m.Content)
	}

	resp, err := client.Models.GenerateContent(ctx, c.cfg.GeminiModel, genai.Text(prompt.String()), nil)
	if err != nil {
		return "", fmt.Errorf("%w: gemini: %v", ErrProviderFailure, err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("%w: gemini", ErrEmptyResponse)
	}

	return text, nil
}

// chatModel returns the cached langchaingo model for the provider, building
// it on first use.
func (c *Client) chatModel(provider Provider) (llms.Model, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if model, ok := c.chat[provider]; ok {
		return model, nil
	}

	var (
		model llms.Model
		err   error
	)

	switch provider {
	case ProviderOpenAI:
		if c.cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("%w: openai", ErrNoCredentials)
		}
		model, err = openai.New(
			openai.WithToken(c.cfg.OpenAIAPIKey),
			openai.WithModel(c.cfg.OpenAIModel),
		)
	case ProviderAnthropic:
		if c.cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("%w: anthropic", ErrNoCredentials)
		}
		model, err = anthropic.New(
			anthropic.WithToken(c.cfg.AnthropicAPIKey),
			anthropic.WithModel(c.cfg.AnthropicModel),
		)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrProviderFailure, provider, err)
	}

	c.chat[provider] = model
	return model, nil
}

// geminiClient returns the cached genai client, building it on first use.
func (c *Client) geminiClient(ctx context.Context) (*genai.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gemini != nil {
		return c.gemini, nil
	}

	if c.cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini", ErrNoCredentials)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  c.cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: gemini: %v", ErrProviderFailure, err)
	}

	c.gemini = client
	return client, nil
}
