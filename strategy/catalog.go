package strategy

import (
	"fmt"
	"strings"
)

type Tier string

const (
	Conservative Tier = "conservative"
	Neutral      Tier = "neutral"
	Aggressive   Tier = "aggressive"
)

var Tiers = []Tier{Conservative, Neutral, Aggressive}

// Label is the capitalised name used in the evaluation table.
func (t Tier) Label() string {
	if t == "" {
		return ""
	}
	return strings.ToUpper(string(t[:1])) + string(t[1:])
}

// ParseTier accepts a tier in any case, e.g. "Conservative" or "conservative".
func ParseTier(s string) (Tier, error) {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Tiers {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown tier %q", s)
}

// Record is the per-strategy config written to configs/<id>.json.
type Record struct {
	ID              string             `json:"strategy_id"`
	Company         string             `json:"company"`
	Summary         string             `json:"strategy_summary"`
	FinancialRatios map[string]float64 `json:"financial_ratios"`
	SentimentScore  float64            `json:"sentiment_score"`
	RiskScore       float64            `json:"risk_score"`
}

// Tier derives the tier from the id (strategy_<tier>_<n>).
func (r Record) Tier() (Tier, error) {
	return TierFromID(r.ID)
}

func TierFromID(id string) (Tier, error) {
	parts := strings.Split(id, "_")
	if len(parts) < 2 {
		return "", fmt.Errorf("strategy id %q has no tier", id)
	}
	t := Tier(parts[1])
	for _, known := range Tiers {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("strategy id %q: unknown tier %q", id, parts[1])
}

func record(id, company, mix string, roe, eps, sent, risk float64) Record {
	return Record{
		ID:              id,
		Company:         company,
		Summary:         mix,
		FinancialRatios: map[string]float64{"roe": roe, "eps": eps},
		SentimentScore:  sent,
		RiskScore:       risk,
	}
}

// Catalog returns the nine synthetic strategies in generation order.
func Catalog() []Record {
	return []Record{
		record("strategy_conservative_1", "AAPL", "Conservative strategy (60% bonds, 30% stocks, 10% cash)", 0.32, 5.4, 0.15, 0.20),
		record("strategy_conservative_2", "MSFT", "Conservative strategy (55% bonds, 35% stocks, 10% cash)", 0.35, 6.2, 0.18, 0.22),
		record("strategy_conservative_3", "GOOGL", "Conservative strategy (50% bonds, 40% stocks, 10% cash)", 0.28, 4.8, 0.12, 0.25),
		record("strategy_neutral_1", "AMZN", "Neutral strategy (40% bonds, 50% stocks, 10% cash)", 0.25, 3.2, 0.35, 0.45),
		record("strategy_neutral_2", "META", "Neutral strategy (35% bonds, 55% stocks, 10% cash)", 0.30, 4.5, 0.42, 0.48),
		record("strategy_neutral_3", "NVDA", "Neutral strategy (30% bonds, 60% stocks, 10% cash)", 0.45, 8.2, 0.38, 0.52),
		record("strategy_aggressive_1", "TSLA", "Aggressive strategy (20% bonds, 70% stocks, 10% cash)", 0.22, 2.8, 0.65, 0.75),
		record("strategy_aggressive_2", "AMD", "Aggressive strategy (15% bonds, 75% stocks, 10% cash)", 0.35, 3.5, 0.58, 0.68),
		record("strategy_aggressive_3", "COIN", "Aggressive strategy (10% bonds, 80% stocks, 10% cash)", 0.18, 1.2, 0.72, 0.82),
	}
}

// Lookup finds a catalog record by id.
func Lookup(id string) (Record, bool) {
	for _, r := range Catalog() {
		if r.ID == id {
			return r, true
		}
	}
	return Record{}, false
}
