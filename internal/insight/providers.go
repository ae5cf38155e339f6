package insight

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hpungsan/murmur/internal/config"
)

// ProvidersFromConfig builds the remote chain in configured order.
// Providers without a credential are left out, so an unconfigured
// deployment gets an empty chain and never touches the network.
func ProvidersFromConfig(ctx context.Context, cfg *config.Config) ([]Provider, error) {
	var providers []Provider
	for _, name := range cfg.InsightProviders {
		key := cfg.ProviderKey(name)
		if key == "" {
			continue
		}
		switch name {
		case config.ProviderOpenAI:
			providers = append(providers, NewOpenAIProvider(key, cfg.OpenAIModel, cfg.OpenAIBaseURL, cfg.InsightMaxTokens))
		case config.ProviderAnthropic:
			providers = append(providers, NewAnthropicProvider(key, cfg.AnthropicModel, cfg.AnthropicBaseURL, cfg.InsightMaxTokens))
		case config.ProviderGemini:
			p, err := NewGeminiProvider(ctx, key, cfg.GeminiModel, cfg.GeminiBaseURL, cfg.InsightMaxTokens)
			if err != nil {
				return nil, err
			}
			providers = append(providers, p)
		default:
			return nil, fmt.Errorf("unknown insight provider %q", name)
		}
	}
	return providers, nil
}

// NewEngineFromConfig wires an Engine from configuration.
func NewEngineFromConfig(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Engine, error) {
	providers, err := ProvidersFromConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewEngine(providers,
		WithTimeout(time.Duration(cfg.InsightTimeoutSeconds)*time.Second),
		WithLogger(logger),
	), nil
}
