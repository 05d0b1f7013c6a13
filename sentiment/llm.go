package sentiment

import (
	"context"
	"fmt"

	"dss/llm"
)

// LLMClassifier asks a language model for a one-word label.
type LLMClassifier struct {
	c llm.Completer
}

func NewLLMClassifier(c llm.Completer) *LLMClassifier {
	return &LLMClassifier{c: c}
}

func (l *LLMClassifier) Classify(ctx context.Context, text string) (Label, error) {
	out, err := l.c.Complete(ctx, llm.SentimentPrompt(text))
	if err != nil {
		return "", fmt.Errorf("llm sentiment: %w", err)
	}
	label := ParseLabel(out)
	if label == "" {
		return "", fmt.Errorf("llm sentiment: empty answer")
	}
	return label, nil
}
