package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

const DefaultMaxNewTokens = 512

// StrategyPrompt embeds the role and the serialized market state.
func StrategyPrompt(role string, marketState map[string]any) (string, error) {
	if marketState == nil {
		marketState = map[string]any{}
	}
	state, err := json.Marshal(marketState)
	if err != nil {
		return "", fmt.Errorf("marshal market state: %w", err)
	}
	return "You are a financial strategist.\n" +
		"Role: " + role + "\n" +
		"Market state: " + string(state) + "\n" +
		`Please provide a JSON with keys "risk_pref" (0–1) and "target_return" (0–1).`, nil
}

func SentimentPrompt(text string) string {
	return strings.TrimSpace(`
You are a financial sentiment classifier.
Classify the overall sentiment of the text below toward the market.
Answer with exactly one word: positive, neutral or negative.

Text:
`) + "\n" + strings.TrimSpace(text)
}
