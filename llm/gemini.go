package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GeminiClient completes prompts through the Gemini API.
type GeminiClient struct {
	client       *genai.Client
	model        string
	maxNewTokens int
}

// NewGeminiClient builds a client for the Gemini API. An empty apiBase uses
// the public endpoint.
func NewGeminiClient(ctx context.Context, apiKey, apiBase, model string, maxNewTokens int) (*GeminiClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if strings.TrimSpace(model) == "" {
		model = "gemini-2.0-flash"
	}
	if maxNewTokens <= 0 {
		maxNewTokens = DefaultMaxNewTokens
	}

	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if base := strings.TrimSpace(apiBase); base != "" {
		cc.HTTPOptions.BaseURL = strings.TrimRight(base, "/") + "/"
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiClient{client: client, model: model, maxNewTokens: maxNewTokens}, nil
}

func (g *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](0),
		CandidateCount:  1,
		MaxOutputTokens: int32(g.maxNewTokens),
	})
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("gemini returned no text")
	}
	return text, nil
}
