package strategy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dss/sentiment"
)

func writeStrategy(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "strategy.json")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestAdjust_AlphaZeroUnchanged(t *testing.T) {
	doc := Document{"risk_pref": 0.4, "target_return": 0.1}
	for _, l := range []sentiment.Label{sentiment.Positive, sentiment.Neutral, sentiment.Negative, "mixed"} {
		adj, err := Adjust(doc, 0, l)
		require.NoError(t, err)
		assert.Equal(t, 0.4, adj.After)
	}
	assert.Equal(t, 0.4, doc["risk_pref"])
}

func TestAdjust_Table(t *testing.T) {
	tests := []struct {
		name  string
		doc   Document
		alpha float64
		label sentiment.Label
		want  float64
	}{
		{"positive", Document{"risk_pref": 0.5}, 0.1, sentiment.Positive, 0.6},
		{"negative", Document{"risk_pref": 0.5}, 0.2, sentiment.Negative, 0.3},
		{"neutral", Document{"risk_pref": 0.5}, 0.3, sentiment.Neutral, 0.5},
		{"unknown label", Document{"risk_pref": 0.5}, 0.3, "confused", 0.5},
		{"missing risk_pref", Document{}, 0.1, sentiment.Positive, 0.1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adj, err := Adjust(tt.doc, tt.alpha, tt.label)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, adj.After, 1e-12)
			assert.InDelta(t, tt.want, tt.doc["risk_pref"], 1e-12)
		})
	}
}

func TestAdjust_NonNumeric(t *testing.T) {
	_, err := Adjust(Document{"risk_pref": "high"}, 0.1, sentiment.Positive)
	require.Error(t, err)
}

func TestAdjustFile_ConservativePositive(t *testing.T) {
	p := writeStrategy(t, `{"role":"conservative","risk_pref":0.3,"extra":{"k":[1,2]}}`)

	adj, err := AdjustFile(p, 0.1, sentiment.Positive)
	require.NoError(t, err)
	assert.InDelta(t, 0.1, adj.After-adj.Before, 1e-12)

	raw, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "\n    \"risk_pref\": 0.4")

	doc, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "conservative", doc["role"])
	assert.Equal(t, map[string]any{"k": []any{1.0, 2.0}}, doc["extra"])
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)

	_, err = Load(writeStrategy(t, "not json"))
	require.Error(t, err)
}

func TestCatalog(t *testing.T) {
	recs := Catalog()
	require.Len(t, recs, 9)

	counts := map[Tier]int{}
	for _, r := range recs {
		tier, err := r.Tier()
		require.NoError(t, err)
		counts[tier]++
	}
	if diff := cmp.Diff(map[Tier]int{Conservative: 3, Neutral: 3, Aggressive: 3}, counts); diff != "" {
		t.Fatalf("tier counts mismatch (-want +got):\n%s", diff)
	}

	r, ok := Lookup("strategy_neutral_3")
	require.True(t, ok)
	assert.Equal(t, "NVDA", r.Company)
	assert.Equal(t, 8.2, r.FinancialRatios["eps"])
}

func TestTierFromID(t *testing.T) {
	_, err := TierFromID("strategy_reckless_1")
	require.Error(t, err)
	_, err = TierFromID("s1")
	require.Error(t, err)
	tier, err := TierFromID("strategy_aggressive_2")
	require.NoError(t, err)
	assert.Equal(t, Aggressive, tier)
}

func TestTierLabel(t *testing.T) {
	tests := []struct {
		tier  Tier
		label string
	}{
		{Conservative, "Conservative"},
		{Neutral, "Neutral"},
		{Aggressive, "Aggressive"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.label, tt.tier.Label())
		got, err := ParseTier(tt.label)
		require.NoError(t, err)
		assert.Equal(t, tt.tier, got)
	}

	got, err := ParseTier(" neutral ")
	require.NoError(t, err)
	assert.Equal(t, Neutral, got)
	_, err = ParseTier("Reckless")
	require.Error(t, err)
}
