package report

import (
	"bytes"
	"fmt"
	"math"

	"dss/dataset"
)

// f2 formats like Python's "{:.2f}", including "nan" for NaN.
func f2(v float64) string { return fixed(v, 2) }

func pct(v float64, prec int) string { return fixed(v*100, prec) + "%" }

func fixed(v float64, prec int) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	return fmt.Sprintf("%.*f", prec, v)
}

// StrategyMarkdown renders reports/<id>.md for one evaluation row.
func StrategyMarkdown(e dataset.Evaluation) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "# Strategy Performance Report: %s\n\n", e.StrategyID)
	b.WriteString("## Quantitative Metrics\n")
	fmt.Fprintf(&b, "- Cumulative Return: %s\n", pct(e.CumulativeReturn, 2))
	fmt.Fprintf(&b, "- Sharpe Ratio: %s\n", f2(e.SharpeRatio))
	fmt.Fprintf(&b, "- Maximum Drawdown: %s\n\n", pct(e.MaxDrawdown, 2))
	b.WriteString("## IS Theoretical Evaluation\n")
	fmt.Fprintf(&b, "- Task-Technology Fit (TTF): %s\n", e.TTFScore)
	fmt.Fprintf(&b, "- Information Quality: %s\n", f2(e.InfoQuality))
	fmt.Fprintf(&b, "- System Usability: %s\n", f2(e.Usability))
	fmt.Fprintf(&b, "- Algorithmic Trust: %s\n\n", e.TrustScore)
	b.WriteString("## Risk and Sentiment Analysis\n")
	fmt.Fprintf(&b, "- Risk Score: %s\n", f2(e.RiskScore))
	fmt.Fprintf(&b, "- Sentiment Score: %s\n", f2(e.SentimentScore))
	return b.Bytes()
}

// SummaryMarkdown renders reports/summary.md.
func SummaryMarkdown(rows []dataset.Evaluation) []byte {
	var b bytes.Buffer
	b.WriteString("# IS Research Strategy Summary\n\n")
	b.WriteString("## Quantitative Metrics\n")
	b.WriteString("| Strategy | Return | Sharpe | MDD |\n")
	b.WriteString("|----------|--------|--------|-----|\n")
	for _, e := range rows {
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", e.StrategyID, pct(e.CumulativeReturn, 1), f2(e.SharpeRatio), pct(e.MaxDrawdown, 1))
	}
	b.WriteString("\n## IS Theoretical Evaluation\n")
	for _, e := range rows {
		fmt.Fprintf(&b, "- %s: TTF = %s, Info Quality = %s, Trust = %s\n", e.StrategyID, e.TTFScore, f2(e.InfoQuality), e.TrustScore)
	}
	return b.Bytes()
}
