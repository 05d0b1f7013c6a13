package report

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"dss/backtest"
	"dss/dataset"
	"dss/internal/fsutil"
)

// Writer renders reports and charts into a dataset layout.
type Writer struct {
	layout dataset.Layout
	log    zerolog.Logger
}

func NewWriter(l dataset.Layout, log zerolog.Logger) *Writer {
	return &Writer{layout: l, log: log}
}

// Written lists the files produced by one pass.
type Written struct {
	Reports []string `json:"reports"`
	Charts  []string `json:"charts"`
}

// WriteReports renders every per-strategy report plus the summary.
func (w *Writer) WriteReports(rows []dataset.Evaluation) (Written, error) {
	var out Written
	for _, e := range rows {
		p := w.layout.ReportPath(e.StrategyID)
		if err := fsutil.WriteFile(p, StrategyMarkdown(e)); err != nil {
			return out, fmt.Errorf("write report %s: %w", e.StrategyID, err)
		}
		out.Reports = append(out.Reports, p)
	}
	p := w.layout.ReportPath("summary")
	if err := fsutil.WriteFile(p, SummaryMarkdown(rows)); err != nil {
		return out, fmt.Errorf("write summary report: %w", err)
	}
	out.Reports = append(out.Reports, p)
	return out, nil
}

// WriteCharts renders a return curve per series and the Sharpe/drawdown scatter.
func (w *Writer) WriteCharts(rows []dataset.Evaluation, series []backtest.Series) ([]string, error) {
	var out []string
	for _, s := range series {
		if len(s.Rows) < 2 {
			w.log.Warn().Str("strategy_id", s.ID).Int("rows", len(s.Rows)).Msg("Skipping chart for short series")
			continue
		}
		svg, err := backtest.RenderReturnCurveSVG("Cumulative Return Curve: "+s.ID, seriesDates(s), []backtest.Curve{{Label: s.ID, Values: s.Curve()}}, backtest.SVGChartOptions{})
		if err != nil {
			return out, fmt.Errorf("render chart %s: %w", s.ID, err)
		}
		p := w.layout.ChartPath(s.ID)
		if err := fsutil.WriteFile(p, svg); err != nil {
			return out, err
		}
		out = append(out, p)
	}

	points := make([]backtest.ScatterPoint, 0, len(rows))
	for _, e := range rows {
		points = append(points, backtest.ScatterPoint{Label: e.StrategyID, X: e.MaxDrawdown, Y: e.SharpeRatio})
	}
	svg, err := backtest.RenderScatterSVG("Sharpe Ratio vs Max Drawdown", "Max Drawdown", "Sharpe Ratio", points, backtest.SVGChartOptions{Width: 720, Height: 560})
	if err != nil {
		w.log.Warn().Err(err).Msg("Skipping scatter chart")
		return out, nil
	}
	p := w.layout.ChartPath("sharpe_vs_mdd")
	if err := fsutil.WriteFile(p, svg); err != nil {
		return out, err
	}
	return append(out, p), nil
}

// WriteAll loads the evaluation table and result series from the layout and
// renders reports and charts.
func (w *Writer) WriteAll() (Written, error) {
	rows, err := dataset.ReadEvaluationFile(w.layout.EvaluationPath())
	if err != nil {
		return Written{}, err
	}
	out, err := w.WriteReports(rows)
	if err != nil {
		return out, err
	}
	series, err := dataset.LoadSeries(w.layout, rows)
	if err != nil {
		return out, err
	}
	charts, err := w.WriteCharts(rows, series)
	out.Charts = charts
	if err != nil {
		return out, err
	}
	w.log.Info().Int("reports", len(out.Reports)).Int("charts", len(out.Charts)).Msg("Reports written")
	return out, nil
}

func seriesDates(s backtest.Series) []time.Time {
	out := make([]time.Time, len(s.Rows))
	for i, r := range s.Rows {
		out[i] = r.Date
	}
	return out
}
