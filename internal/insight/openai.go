package insight

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIProvider summarizes through the OpenAI chat completions API.
type OpenAIProvider struct {
	client    openai.Client
	model     string
	maxTokens int64
}

// NewOpenAIProvider builds a provider. baseURL may be empty for the public API.
func NewOpenAIProvider(apiKey, model, baseURL string, maxTokens int) *OpenAIProvider {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIProvider{
		client:    openai.NewClient(opts...),
		model:     model,
		maxTokens: int64(maxTokens),
	}
}

// Name implements Provider.
func (p *OpenAIProvider) Name() string { return "openai" }

// Summarize implements Provider.
func (p *OpenAIProvider) Summarize(ctx context.Context, prompt string) (*Result, error) {
	completion, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		MaxTokens:   openai.Int(p.maxTokens),
		Temperature: openai.Float(temperature),
	})
	if err != nil {
		return nil, err
	}
	if len(completion.Choices) == 0 {
		return nil, stderrors.New("no choices in response")
	}
	return ParseResponse(strings.TrimSpace(completion.Choices[0].Message.Content))
}
