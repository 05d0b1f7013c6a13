package dataset

import (
	"encoding/csv"
	"fmt"
	"os"

	"dss/backtest"
	"dss/internal/fsutil"
)

// WriteCurvesFile writes one cumulative-return column per strategy and the date
// as the last column. Series are aligned by row index.
func WriteCurvesFile(path string, series []backtest.Series) error {
	if len(series) == 0 {
		return fmt.Errorf("no series to write")
	}
	n := len(series[0].Rows)
	header := make([]string, 0, len(series)+1)
	for _, s := range series {
		if len(s.Rows) != n {
			return fmt.Errorf("series %s has %d rows, want %d", s.ID, len(s.Rows), n)
		}
		header = append(header, s.ID)
	}
	header = append(header, "date")

	return writeCSV(path, func(cw *csv.Writer) error {
		if err := cw.Write(header); err != nil {
			return err
		}
		for i := 0; i < n; i++ {
			rec := make([]string, 0, len(header))
			for _, s := range series {
				rec = append(rec, backtest.FormatFloat(s.Rows[i].CumulativeReturn))
			}
			rec = append(rec, series[0].Rows[i].Date.Format(backtest.DateLayout))
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

func WriteScatterFile(path string, rows []Evaluation) error {
	return writeCSV(path, func(cw *csv.Writer) error {
		if err := cw.Write([]string{"strategy_id", "sharpe_ratio", "max_drawdown"}); err != nil {
			return err
		}
		for _, e := range rows {
			if err := cw.Write([]string{e.StrategyID, backtest.FormatFloat(e.SharpeRatio), backtest.FormatFloat(e.MaxDrawdown)}); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeCSV(path string, fill func(*csv.Writer) error) error {
	if err := fsutil.EnsureParentDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(f)
	if err := fill(cw); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
