package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// AnthropicClient completes prompts through the Messages API.
type AnthropicClient struct {
	apiKey       string
	apiURL       string
	model        string
	maxNewTokens int
	client       *http.Client
}

func NewAnthropicClient(apiKey, apiBase, model string, maxNewTokens int, timeout time.Duration) (*AnthropicClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("anthropic api key is required")
	}
	if apiBase == "" {
		apiBase = "https://api.anthropic.com"
	}
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}
	if maxNewTokens <= 0 {
		maxNewTokens = DefaultMaxNewTokens
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &AnthropicClient{
		apiKey:       apiKey,
		apiURL:       strings.TrimSuffix(apiBase, "/") + "/v1/messages",
		model:        model,
		maxNewTokens: maxNewTokens,
		client:       &http.Client{Timeout: timeout},
	}, nil
}

func (a *AnthropicClient) Complete(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]any{
		"model":       a.model,
		"max_tokens":  a.maxNewTokens,
		"temperature": 0,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("anthropic request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("anthropic http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("decode anthropic response: %w", err)
	}
	var sb strings.Builder
	for _, c := range result.Content {
		if c.Type == "" || c.Type == "text" {
			sb.WriteString(c.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("anthropic returned no text")
	}
	return sb.String(), nil
}
