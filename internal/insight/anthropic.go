package insight

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicProvider summarizes through the Anthropic messages API.
type AnthropicProvider struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewAnthropicProvider builds a provider. baseURL may be empty for the public API.
func NewAnthropicProvider(apiKey, model, baseURL string, maxTokens int) *AnthropicProvider {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &AnthropicProvider{
		client:    anthropic.NewClient(opts...),
		model:     model,
		maxTokens: int64(maxTokens),
	}
}

// Name implements Provider.
func (p *AnthropicProvider) Name() string { return "anthropic" }

// Summarize implements Provider.
func (p *AnthropicProvider) Summarize(ctx context.Context, prompt string) (*Result, error) {
	message, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(p.model),
		MaxTokens:   p.maxTokens,
		Temperature: anthropic.Float(temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return nil, err
	}

	for _, block := range message.Content {
		if block.Type == "text" {
			return ParseResponse(strings.TrimSpace(block.Text))
		}
	}
	return nil, stderrors.New("no text content in response")
}
