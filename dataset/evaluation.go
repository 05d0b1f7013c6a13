package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strings"

	"gonum.org/v1/gonum/stat/distuv"

	"dss/backtest"
	"dss/internal/fsutil"
	"dss/strategy"
)

var ErrUnknownTier = errors.New("unknown strategy tier")

// Evaluation joins a strategy's scores with its final metrics and the qualitative
// IS ratings of its tier.
type Evaluation struct {
	StrategyID       string        `json:"strategy_id"`
	StrategyType     strategy.Tier `json:"strategy_type"`
	RiskScore        float64       `json:"risk_score"`
	SentimentScore   float64       `json:"sentiment_score"`
	CumulativeReturn float64       `json:"cumulative_return"`
	SharpeRatio      float64       `json:"sharpe_ratio"`
	MaxDrawdown      float64       `json:"max_drawdown"`
	TTFScore         string        `json:"ttf_score"`
	InfoQuality      float64       `json:"info_quality"`
	Usability        float64       `json:"usability"`
	TrustScore       string        `json:"trust_score"`
}

type tierRating struct {
	ttf            string
	infoLo, infoHi float64
	useLo, useHi   float64
	trust          string
}

var ratings = map[strategy.Tier]tierRating{
	strategy.Conservative: {ttf: "High", infoLo: 0.85, infoHi: 0.95, useLo: 0.80, useHi: 0.90, trust: "Good"},
	strategy.Neutral:      {ttf: "Medium", infoLo: 0.70, infoHi: 0.80, useLo: 0.70, useHi: 0.80, trust: "Medium"},
	strategy.Aggressive:   {ttf: "Low", infoLo: 0.60, infoHi: 0.70, useLo: 0.60, useHi: 0.70, trust: "Low"},
}

// Evaluate builds the evaluation row for rec from its series. The two uniform
// draws come from src in the order info quality, usability.
func Evaluate(rec strategy.Record, s backtest.Series, src rand.Source) (Evaluation, error) {
	tier, err := rec.Tier()
	if err != nil {
		return Evaluation{}, fmt.Errorf("%w: %v", ErrUnknownTier, err)
	}
	rt, ok := ratings[tier]
	if !ok {
		return Evaluation{}, fmt.Errorf("%w: %s", ErrUnknownTier, tier)
	}
	final, ok := s.Final()
	if !ok {
		return Evaluation{}, fmt.Errorf("series %s is empty", rec.ID)
	}
	info := distuv.Uniform{Min: rt.infoLo, Max: rt.infoHi, Src: src}
	use := distuv.Uniform{Min: rt.useLo, Max: rt.useHi, Src: src}
	return Evaluation{
		StrategyID:       rec.ID,
		StrategyType:     tier,
		RiskScore:        rec.RiskScore,
		SentimentScore:   rec.SentimentScore,
		CumulativeReturn: final.CumulativeReturn,
		SharpeRatio:      final.SharpeRatio,
		MaxDrawdown:      final.MaxDrawdown,
		TTFScore:         rt.ttf,
		InfoQuality:      info.Rand(),
		Usability:        use.Rand(),
		TrustScore:       rt.trust,
	}, nil
}

var evaluationHeader = []string{
	"strategy_id", "strategy_type", "risk_score", "sentiment_score",
	"cumulative_return", "sharpe_ratio", "max_drawdown",
	"ttf_score", "info_quality", "usability", "trust_score",
}

func WriteEvaluationCSV(w io.Writer, rows []Evaluation) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(evaluationHeader); err != nil {
		return err
	}
	f := backtest.FormatFloat
	for _, e := range rows {
		rec := []string{
			e.StrategyID, e.StrategyType.Label(), f(e.RiskScore), f(e.SentimentScore),
			f(e.CumulativeReturn), f(e.SharpeRatio), f(e.MaxDrawdown),
			e.TTFScore, f(e.InfoQuality), f(e.Usability), e.TrustScore,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteEvaluationFile(path string, rows []Evaluation) error {
	if err := fsutil.EnsureParentDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteEvaluationCSV(f, rows); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func ReadEvaluationCSV(r io.Reader) ([]Evaluation, error) {
	cr := csv.NewReader(r)
	recs, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("empty evaluation csv")
	}
	idx := map[string]int{}
	for i, h := range recs[0] {
		idx[strings.TrimSpace(h)] = i
	}
	for _, h := range evaluationHeader {
		if _, ok := idx[h]; !ok {
			return nil, fmt.Errorf("evaluation csv missing column %q", h)
		}
	}

	out := make([]Evaluation, 0, len(recs)-1)
	for n, rec := range recs[1:] {
		var perr error
		num := func(name string) float64 {
			v, err := backtest.ParseFloat(rec[idx[name]])
			if err != nil && perr == nil {
				perr = fmt.Errorf("line %d: %s: %w", n+2, name, err)
			}
			return v
		}
		tier, err := strategy.ParseTier(rec[idx["strategy_type"]])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w: %v", n+2, ErrUnknownTier, err)
		}
		e := Evaluation{
			StrategyID:       rec[idx["strategy_id"]],
			StrategyType:     tier,
			RiskScore:        num("risk_score"),
			SentimentScore:   num("sentiment_score"),
			CumulativeReturn: num("cumulative_return"),
			SharpeRatio:      num("sharpe_ratio"),
			MaxDrawdown:      num("max_drawdown"),
			TTFScore:         rec[idx["ttf_score"]],
			InfoQuality:      num("info_quality"),
			Usability:        num("usability"),
			TrustScore:       rec[idx["trust_score"]],
		}
		if perr != nil {
			return nil, perr
		}
		out = append(out, e)
	}
	return out, nil
}

func ReadEvaluationFile(path string) ([]Evaluation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	rows, err := ReadEvaluationCSV(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}
