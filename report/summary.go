package report

import (
	"encoding/json"
	"math"
	"sort"

	"dss/dataset"
)

// Summary is an aggregate view over the evaluation table. Non-finite metrics
// are left out of the aggregates and rendered as null.
type Summary struct {
	TotalStrategies  int                   `json:"total_strategies"`
	ByTier           map[string]int        `json:"by_tier"`
	MeanReturn       *float64              `json:"mean_cumulative_return"`
	MeanSharpe       *float64              `json:"mean_sharpe_ratio"`
	WorstMaxDrawdown *float64              `json:"worst_max_drawdown"`
	TopBySharpe      []StrategyPerformance `json:"top_by_sharpe"`
	BottomBySharpe   []StrategyPerformance `json:"bottom_by_sharpe"`
	Strategies       []StrategyPerformance `json:"strategies"`
}

type StrategyPerformance struct {
	StrategyID       string   `json:"strategy_id"`
	StrategyType     string   `json:"strategy_type"`
	CumulativeReturn *float64 `json:"cumulative_return"`
	SharpeRatio      *float64 `json:"sharpe_ratio"`
	MaxDrawdown      *float64 `json:"max_drawdown"`
	TTFScore         string   `json:"ttf_score"`
	TrustScore       string   `json:"trust_score"`
}

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// Finite returns nil for NaN and infinities so the value encodes as JSON null.
func Finite(v float64) *float64 {
	if !isFinite(v) {
		return nil
	}
	return &v
}

func Summarize(rows []dataset.Evaluation) Summary {
	sum := Summary{TotalStrategies: len(rows), ByTier: map[string]int{}}

	perfs := make([]StrategyPerformance, 0, len(rows))
	var retSum, sharpeSum float64
	var retN, sharpeN int
	var worstDD *float64
	for _, e := range rows {
		perfs = append(perfs, StrategyPerformance{
			StrategyID:       e.StrategyID,
			StrategyType:     string(e.StrategyType),
			CumulativeReturn: Finite(e.CumulativeReturn),
			SharpeRatio:      Finite(e.SharpeRatio),
			MaxDrawdown:      Finite(e.MaxDrawdown),
			TTFScore:         e.TTFScore,
			TrustScore:       e.TrustScore,
		})
		sum.ByTier[string(e.StrategyType)]++
		if isFinite(e.CumulativeReturn) {
			retSum += e.CumulativeReturn
			retN++
		}
		if isFinite(e.SharpeRatio) {
			sharpeSum += e.SharpeRatio
			sharpeN++
		}
		if dd := Finite(e.MaxDrawdown); dd != nil && (worstDD == nil || *dd > *worstDD) {
			worstDD = dd
		}
	}

	if retN > 0 {
		sum.MeanReturn = Finite(retSum / float64(retN))
	}
	if sharpeN > 0 {
		sum.MeanSharpe = Finite(sharpeSum / float64(sharpeN))
	}
	sum.WorstMaxDrawdown = worstDD
	sum.Strategies = perfs

	// Undefined Sharpe ratios are not ranked.
	ranked := make([]StrategyPerformance, 0, len(perfs))
	for _, p := range perfs {
		if p.SharpeRatio != nil {
			ranked = append(ranked, p)
		}
	}
	byDesc := append([]StrategyPerformance(nil), ranked...)
	sort.SliceStable(byDesc, func(i, j int) bool { return *byDesc[i].SharpeRatio > *byDesc[j].SharpeRatio })
	sum.TopBySharpe = firstN(byDesc, 3)

	byAsc := append([]StrategyPerformance(nil), ranked...)
	sort.SliceStable(byAsc, func(i, j int) bool { return *byAsc[i].SharpeRatio < *byAsc[j].SharpeRatio })
	sum.BottomBySharpe = firstN(byAsc, 3)

	return sum
}

func firstN(p []StrategyPerformance, n int) []StrategyPerformance {
	if len(p) > n {
		return p[:n]
	}
	return p
}

func (s Summary) MarshalIndented() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}
