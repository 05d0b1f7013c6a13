package llm

import (
	"context"
	"fmt"

	"dss/config"
)

// NewCompleter builds the backend named by cfg.Backend.
func NewCompleter(ctx context.Context, cfg config.LLMConfig) (Completer, error) {
	switch cfg.Backend {
	case "", "ollama":
		c := NewOllamaClientWithTimeout(cfg.URL, cfg.Model, cfg.Timeout)
		if cfg.MaxNewTokens > 0 {
			c.MaxNewTokens = cfg.MaxNewTokens
		}
		return c, nil
	case "gemini":
		return NewGeminiClient(ctx, cfg.APIKey, cfg.URL, cfg.Model, cfg.MaxNewTokens)
	case "anthropic":
		return NewAnthropicClient(cfg.APIKey, cfg.URL, cfg.Model, cfg.MaxNewTokens, cfg.Timeout)
	default:
		return nil, fmt.Errorf("unknown llm backend: %q", cfg.Backend)
	}
}
