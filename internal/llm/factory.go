package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/abhisek/pathwise/internal/store"
)

// NewProvider creates a Provider from configuration, wrapped as
// caller → rate limit → retry → logging → base. It returns an error
// wrapping ErrNotConfigured when no usable provider is selected.
func NewProvider(ctx context.Context, cfg Config, eventRepo store.EventRepo, logger *zap.Logger) (Provider, error) {
	if cfg.Provider == ProviderMock {
		return NewMockProvider(), nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var base Provider
	var err error
	switch cfg.Provider {
	case ProviderAnthropic:
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case ProviderOpenAI:
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case ProviderGemini:
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case ProviderOpenRouter:
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	logged := WithLogging(base, cfg.Provider, eventRepo, logger)
	retried := WithRetry(logged, cfg.Retry, logger)
	return WithRateLimit(retried, cfg.RequestsPerSecond, cfg.Burst), nil
}
