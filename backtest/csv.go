package backtest

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"dss/internal/fsutil"
)

var seriesHeader = []string{"date", "cumulative_return", "sharpe_ratio", "max_drawdown"}

// FormatFloat renders a CSV cell. NaN becomes an empty cell.
func FormatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ParseFloat reverses FormatFloat.
func ParseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

func WriteSeriesCSV(w io.Writer, s Series) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(seriesHeader); err != nil {
		return err
	}
	for _, r := range s.Rows {
		rec := []string{
			r.Date.Format(DateLayout),
			FormatFloat(r.CumulativeReturn),
			FormatFloat(r.SharpeRatio),
			FormatFloat(r.MaxDrawdown),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteSeriesFile(path string, s Series) error {
	if err := fsutil.EnsureParentDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteSeriesCSV(f, s); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// ReadSeriesCSV reads a result CSV. Columns are located by header name so extra
// columns are tolerated.
func ReadSeriesCSV(r io.Reader, id string) (Series, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	recs, err := cr.ReadAll()
	if err != nil {
		return Series{}, err
	}
	if len(recs) == 0 {
		return Series{}, fmt.Errorf("empty result csv")
	}
	idx := map[string]int{}
	for i, h := range recs[0] {
		idx[strings.TrimSpace(h)] = i
	}
	for _, h := range seriesHeader {
		if _, ok := idx[h]; !ok {
			return Series{}, fmt.Errorf("result csv missing column %q", h)
		}
	}

	out := Series{ID: id, Rows: make([]Row, 0, len(recs)-1)}
	for n, rec := range recs[1:] {
		line := n + 2
		cell := func(name string) string {
			i := idx[name]
			if i >= len(rec) {
				return ""
			}
			return rec[i]
		}
		d, err := time.Parse(DateLayout, strings.TrimSpace(cell("date")))
		if err != nil {
			return Series{}, fmt.Errorf("line %d: date: %w", line, err)
		}
		row := Row{Date: d}
		for _, f := range []struct {
			name string
			dst  *float64
		}{
			{"cumulative_return", &row.CumulativeReturn},
			{"sharpe_ratio", &row.SharpeRatio},
			{"max_drawdown", &row.MaxDrawdown},
		} {
			v, err := ParseFloat(cell(f.name))
			if err != nil {
				return Series{}, fmt.Errorf("line %d: %s: %w", line, f.name, err)
			}
			*f.dst = v
		}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}

func ReadSeriesFile(path, id string) (Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return Series{}, err
	}
	defer f.Close()
	s, err := ReadSeriesCSV(f, id)
	if err != nil {
		return Series{}, fmt.Errorf("read %s: %w", path, err)
	}
	return s, nil
}
