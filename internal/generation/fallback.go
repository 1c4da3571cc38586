package generation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/edforge/edforge-api/internal/llm"
)

// FallbackChain names the primary provider and the single secondary tried
// after any primary failure. There is no further chain and no inner retry:
// if both calls fail, the failure propagates to the stage.
type FallbackChain struct {
	Primary   llm.Provider
	Secondary llm.Provider
}

// DefaultFallbackChain tries OpenAI first and falls back to Anthropic.
func DefaultFallbackChain() FallbackChain {
	return FallbackChain{
		Primary:   llm.ProviderOpenAI,
		Secondary: llm.ProviderAnthropic,
	}
}

// GenerateWithFallback performs the shared fallback contract of every
// LLM-backed stage: one primary call, one secondary call on any primary
// error.
func GenerateWithFallback(
	ctx context.Context,
	gateway llm.Gateway,
	chain FallbackChain,
	messages []llm.Message,
	logger *slog.Logger,
) (string, error) {
	response, primaryErr := gateway.Generate(ctx, messages, chain.Primary)
	if primaryErr == nil {
		return response, nil
	}

	logger.WarnContext(ctx, "primary provider failed, trying fallback",
		slog.String("primary", string(chain.Primary)),
		slog.String("secondary", string(chain.Secondary)),
		slog.String("error", primaryErr.Error()))

	response, secondaryErr := gateway.Generate(ctx, messages, chain.Secondary)
	if secondaryErr == nil {
		return response, nil
	}

	return "", fmt.Errorf("%w: primary (%s): %v; fallback (%s): %v",
		ErrAllProvidersFailed, chain.Primary, primaryErr, chain.Secondary, secondaryErr)
}
