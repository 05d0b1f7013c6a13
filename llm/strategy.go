package llm

import (
	"context"
	"encoding/json"
	"fmt"
)

// Completer is a text-generation backend with deterministic decoding.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// GenerateStrategy asks the model for a strategy object. No retry, no schema check.
func GenerateStrategy(ctx context.Context, c Completer, role string, marketState map[string]any) (map[string]any, error) {
	prompt, err := StrategyPrompt(role, marketState)
	if err != nil {
		return nil, err
	}
	out, err := c.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	raw, err := ExtractJSONObject(out)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parse strategy json: %w", err)
	}
	return m, nil
}

type Preferences struct {
	RiskPref     float64 `json:"risk_pref"`
	TargetReturn float64 `json:"target_return"`
}

// StrategyPreferences reads the two numeric keys the prompt asks for.
func StrategyPreferences(m map[string]any) (Preferences, error) {
	var p Preferences
	rp, ok := m["risk_pref"].(float64)
	if !ok {
		return p, fmt.Errorf("risk_pref missing or not a number")
	}
	tr, ok := m["target_return"].(float64)
	if !ok {
		return p, fmt.Errorf("target_return missing or not a number")
	}
	p.RiskPref = rp
	p.TargetReturn = tr
	return p, nil
}
