package backtest

import "time"

const (
	TradingDaysPerYear = 252
	// DrawdownEpsilon is the smallest running peak that counts as a drawdown base.
	DrawdownEpsilon = 1e-9
	DateLayout      = "2006-01-02"
)

// Row is one simulated day. Sharpe and drawdown are whole-series statistics
// repeated on every row.
type Row struct {
	Date             time.Time `json:"date"`
	CumulativeReturn float64   `json:"cumulative_return"`
	SharpeRatio      float64   `json:"sharpe_ratio"`
	MaxDrawdown      float64   `json:"max_drawdown"`
}

type Series struct {
	ID   string `json:"strategy_id"`
	Rows []Row  `json:"rows"`
}

// Final returns the last row.
func (s Series) Final() (Row, bool) {
	if len(s.Rows) == 0 {
		return Row{}, false
	}
	return s.Rows[len(s.Rows)-1], true
}

// Curve returns the cumulative-return column.
func (s Series) Curve() []float64 {
	out := make([]float64, len(s.Rows))
	for i, r := range s.Rows {
		out[i] = r.CumulativeReturn
	}
	return out
}

// BuildSeries turns daily returns into a dated result series starting at start.
func BuildSeries(id string, start time.Time, returns []float64) Series {
	cum := Cumulative(returns)
	sharpe := SharpeRatio(returns)
	mdd := MaxDrawdown(cum)

	rows := make([]Row, len(cum))
	for i, c := range cum {
		rows[i] = Row{
			Date:             start.AddDate(0, 0, i),
			CumulativeReturn: c,
			SharpeRatio:      sharpe,
			MaxDrawdown:      mdd,
		}
	}
	return Series{ID: id, Rows: rows}
}
