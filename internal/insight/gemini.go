package insight

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GeminiProvider summarizes through the Gemini API.
type GeminiProvider struct {
	client    *genai.Client
	model     string
	maxTokens int32
}

// NewGeminiProvider builds a provider. baseURL may be empty for the public API.
func NewGeminiProvider(ctx context.Context, apiKey, model, baseURL string, maxTokens int) (*GeminiProvider, error) {
	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiProvider{
		client:    client,
		model:     model,
		maxTokens: int32(maxTokens),
	}, nil
}

// Name implements Provider.
func (p *GeminiProvider) Name() string { return "gemini" }

// Summarize implements Provider.
func (p *GeminiProvider) Summarize(ctx context.Context, prompt string) (*Result, error) {
	temp := float32(temperature)
	resp, err := p.client.Models.GenerateContent(ctx,
		p.model,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)},
		&genai.GenerateContentConfig{
			MaxOutputTokens: p.maxTokens,
			Temperature:     &temp,
		},
	)
	if err != nil {
		return nil, err
	}

	out := strings.TrimSpace(resp.Text())
	if out == "" {
		return nil, stderrors.New("no text content in response")
	}
	return ParseResponse(out)
}
