package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompleter struct {
	out     string
	err     error
	prompts []string
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.out, f.err
}

func TestGenerateStrategy_ParsesNumericFields(t *testing.T) {
	fc := &fakeCompleter{out: "  The strategy is {\"risk_pref\": 0.3, \"target_return\": 0.1} as requested.\n"}

	m, err := GenerateStrategy(context.Background(), fc, "conservative", map[string]any{"vix": 18.5})
	require.NoError(t, err)

	p, err := StrategyPreferences(m)
	require.NoError(t, err)
	assert.Equal(t, 0.3, p.RiskPref)
	assert.Equal(t, 0.1, p.TargetReturn)

	require.Len(t, fc.prompts, 1)
	assert.Contains(t, fc.prompts[0], "Role: conservative\n")
	assert.Contains(t, fc.prompts[0], `Market state: {"vix":18.5}`)
}

func TestGenerateStrategy_NoBracesIsParseError(t *testing.T) {
	fc := &fakeCompleter{out: "I cannot help with that."}
	_, err := GenerateStrategy(context.Background(), fc, "neutral", nil)
	require.ErrorIs(t, err, ErrNoJSONObject)
}

func TestGenerateStrategy_MalformedSpan(t *testing.T) {
	fc := &fakeCompleter{out: "{risk_pref: high}"}
	_, err := GenerateStrategy(context.Background(), fc, "neutral", nil)
	require.Error(t, err)
	var syn *json.SyntaxError
	assert.True(t, errors.As(err, &syn), "expected json syntax error, got %v", err)
}

func TestGenerateStrategy_BackendError(t *testing.T) {
	fc := &fakeCompleter{err: errors.New("connection refused")}
	_, err := GenerateStrategy(context.Background(), fc, "neutral", nil)
	require.EqualError(t, err, "connection refused")
}

func TestStrategyPrompt_EmptyState(t *testing.T) {
	p, err := StrategyPrompt("aggressive", nil)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(p, "You are a financial strategist.\nRole: aggressive\nMarket state: {}\n"))
}

func TestStrategyPreferences_Missing(t *testing.T) {
	_, err := StrategyPreferences(map[string]any{"risk_pref": "high"})
	require.Error(t, err)
}
