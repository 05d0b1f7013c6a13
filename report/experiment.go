package report

import (
	"bytes"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"gonum.org/v1/gonum/floats"

	"dss/backtest"
	"dss/internal/fsutil"
)

// EvaluateTTF classifies task-technology fit from a strategy summary.
func EvaluateTTF(summary string) string {
	s := strings.ToLower(summary)
	switch {
	case strings.Contains(s, "conservative"):
		return "High"
	case strings.Contains(s, "aggressive"):
		return "Medium"
	}
	return "Normal"
}

// EvaluateISSuccess rates information quality and usability.
func EvaluateISSuccess(infoQuality, usability float64) string {
	switch {
	case infoQuality > 0.8 && usability > 0.8:
		return "Excellent"
	case infoQuality > 0.6:
		return "Good"
	}
	return "Normal"
}

// EvaluateTrust rates algorithmic trust from a risk score; lower risk is better.
func EvaluateTrust(riskScore float64) string {
	switch {
	case riskScore < 0.3:
		return "Excellent"
	case riskScore < 0.5:
		return "Good"
	}
	return "Normal"
}

// Arm is one experiment arm backed by a result CSV.
type Arm struct {
	Name  string // S1, S2
	Label string // legend, e.g. "S1: LLM+PPO"
	Path  string
}

type Experiment struct {
	S1, S2          Arm
	StrategySummary string
	InfoQuality     float64
	Usability       float64
	RiskScore       float64
}

// DefaultExperiment mirrors the two-arm PPO vs risk-aware CPPO comparison.
func DefaultExperiment(resultsDir string) Experiment {
	return Experiment{
		S1:              Arm{Name: "S1", Label: "S1: LLM+PPO", Path: filepath.Join(resultsDir, "s1_ppo_results.csv")},
		S2:              Arm{Name: "S2", Label: "S2: LLM Risk+CPPO", Path: filepath.Join(resultsDir, "s2_risk_results.csv")},
		StrategySummary: "Conservative strategy (60% bonds, 30% stocks, 10% cash)",
		InfoQuality:     0.9,
		Usability:       0.85,
		RiskScore:       0.35,
	}
}

// ArmMetrics are the headline numbers for one arm: final return and Sharpe,
// and the minimum of the drawdown column.
type ArmMetrics struct {
	CumulativeReturn float64 `json:"cumulative_return"`
	SharpeRatio      float64 `json:"sharpe_ratio"`
	MaxDrawdown      float64 `json:"max_drawdown"`
}

func armMetrics(s backtest.Series) (ArmMetrics, error) {
	final, ok := s.Final()
	if !ok {
		return ArmMetrics{}, fmt.Errorf("series %s is empty", s.ID)
	}
	dd := make([]float64, 0, len(s.Rows))
	for _, r := range s.Rows {
		if !math.IsNaN(r.MaxDrawdown) {
			dd = append(dd, r.MaxDrawdown)
		}
	}
	mdd := math.NaN()
	if len(dd) > 0 {
		mdd = floats.Min(dd)
	}
	return ArmMetrics{CumulativeReturn: final.CumulativeReturn, SharpeRatio: final.SharpeRatio, MaxDrawdown: mdd}, nil
}

// ExperimentResult is what WriteExperiment produced.
type ExperimentResult struct {
	Path    string     `json:"path"`
	Plots   []string   `json:"plots"`
	S1      ArmMetrics `json:"s1"`
	S2      ArmMetrics `json:"s2"`
	TTF     string     `json:"ttf"`
	Success string     `json:"is_success"`
	Trust   string     `json:"trust"`
}

// ExperimentMarkdown renders the experiment summary. Plot links are relative to reports/.
func ExperimentMarkdown(x Experiment, s1, s2 ArmMetrics, plots []string, now time.Time) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "# IS Experiment Results (%s)\n\n", now.Format("2006.01"))
	b.WriteString("## TTF-based Strategy Classification\n")
	fmt.Fprintf(&b, "- Strategy: %s  \n- Task-Technology Fit (TTF): %s\n\n", x.StrategySummary, EvaluateTTF(x.StrategySummary))
	b.WriteString("## IS Success Model Evaluation\n")
	fmt.Fprintf(&b, "- Information Quality: %s  \n- System Usability: High\n\n", EvaluateISSuccess(x.InfoQuality, x.Usability))
	b.WriteString("## Algorithmic Trust Analysis\n")
	fmt.Fprintf(&b, "- System Reliability: %s\n\n", EvaluateTrust(x.RiskScore))
	b.WriteString("## Quantitative Summary\n")
	fmt.Fprintf(&b, "|Metric| %s | %s |\n|---|---|---|\n", x.S1.Name, x.S2.Name)
	fmt.Fprintf(&b, "|Cumulative Return (CR)|%s|%s|\n", pct(s1.CumulativeReturn, 2), pct(s2.CumulativeReturn, 2))
	fmt.Fprintf(&b, "|Sharpe Ratio (SR)|%s|%s|\n", f2(s1.SharpeRatio), f2(s2.SharpeRatio))
	fmt.Fprintf(&b, "|Max Drawdown (MDD)|%s|%s|\n\n", pct(s1.MaxDrawdown, 2), pct(s2.MaxDrawdown, 2))
	b.WriteString("## Charts\n")
	for _, p := range plots {
		name := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
		fmt.Fprintf(&b, "- ![%s](%s)\n", name, filepath.ToSlash(p))
	}
	b.WriteString("\n---\n")
	b.WriteString("*This report was generated automatically.*\n")
	return b.Bytes()
}

// WriteExperiment reads both arms, renders their charts under plotsDir and writes the
// summary to outPath.
func WriteExperiment(x Experiment, plotsDir, outPath string, now time.Time) (*ExperimentResult, error) {
	arms := []Arm{x.S1, x.S2}
	series := make([]backtest.Series, len(arms))
	metrics := make([]ArmMetrics, len(arms))
	for i, a := range arms {
		s, err := backtest.ReadSeriesFile(a.Path, a.Name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", a.Name, err)
		}
		m, err := armMetrics(s)
		if err != nil {
			return nil, err
		}
		series[i], metrics[i] = s, m
	}

	var plots []string
	for i, a := range arms {
		svg, err := backtest.RenderReturnCurveSVG("Cumulative Return Curve: "+a.Label, seriesDates(series[i]),
			[]backtest.Curve{{Label: a.Label, Values: series[i].Curve()}}, backtest.SVGChartOptions{Width: 800, Height: 400})
		if err != nil {
			return nil, fmt.Errorf("%s chart: %w", a.Name, err)
		}
		p := filepath.Join(plotsDir, strings.ToLower(a.Name)+"_return_curve.svg")
		if err := fsutil.WriteFile(p, svg); err != nil {
			return nil, err
		}
		plots = append(plots, p)
	}

	points := []backtest.ScatterPoint{
		{Label: x.S1.Name, X: metrics[0].SharpeRatio, Y: metrics[0].MaxDrawdown, Color: "#3b82f6"},
		{Label: x.S2.Name, X: metrics[1].SharpeRatio, Y: metrics[1].MaxDrawdown, Color: "#ef4444"},
	}
	if svg, err := backtest.RenderScatterSVG("Sharpe Ratio vs Max Drawdown", "Sharpe Ratio", "Max Drawdown", points, backtest.SVGChartOptions{Width: 600, Height: 600}); err == nil {
		p := filepath.Join(plotsDir, "sharpe_vs_mdd.svg")
		if err := fsutil.WriteFile(p, svg); err != nil {
			return nil, err
		}
		plots = append(plots, p)
	}

	links := make([]string, len(plots))
	for i, p := range plots {
		rel, err := filepath.Rel(filepath.Dir(outPath), p)
		if err != nil {
			rel = p
		}
		links[i] = rel
	}
	if err := fsutil.WriteFile(outPath, ExperimentMarkdown(x, metrics[0], metrics[1], links, now)); err != nil {
		return nil, err
	}

	return &ExperimentResult{
		Path:    outPath,
		Plots:   plots,
		S1:      metrics[0],
		S2:      metrics[1],
		TTF:     EvaluateTTF(x.StrategySummary),
		Success: EvaluateISSuccess(x.InfoQuality, x.Usability),
		Trust:   EvaluateTrust(x.RiskScore),
	}, nil
}
