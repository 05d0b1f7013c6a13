package dataset

import (
	"path/filepath"

	"dss/internal/fsutil"
)

// Layout resolves artifact paths under a dataset root. Strategy ids join the
// directories: configs/<id>.json, results/<id>_results.csv, reports/<id>.md.
type Layout struct {
	Root string
}

func (l Layout) root() string {
	if l.Root == "" {
		return "."
	}
	return l.Root
}

func (l Layout) ConfigsDir() string { return filepath.Join(l.root(), "configs") }
func (l Layout) ResultsDir() string { return filepath.Join(l.root(), "results") }
func (l Layout) ReportsDir() string { return filepath.Join(l.root(), "reports") }

func (l Layout) ConfigPath(id string) string {
	return filepath.Join(l.ConfigsDir(), fsutil.SanitizeFilename(id)+".json")
}

func (l Layout) ResultPath(id string) string {
	return filepath.Join(l.ResultsDir(), fsutil.SanitizeFilename(id)+"_results.csv")
}

func (l Layout) ReportPath(id string) string {
	return filepath.Join(l.ReportsDir(), fsutil.SanitizeFilename(id)+".md")
}

func (l Layout) EvaluationPath() string {
	return filepath.Join(l.ResultsDir(), "evaluation_dataset.csv")
}

func (l Layout) CurvesPath() string {
	return filepath.Join(l.ResultsDir(), "cumulative_return_over_time.csv")
}

func (l Layout) ScatterPath() string {
	return filepath.Join(l.ResultsDir(), "summary_scatter.csv")
}

// ChartPath places an SVG chart under reports/charts.
func (l Layout) ChartPath(name string) string {
	return filepath.Join(l.ReportsDir(), "charts", fsutil.SanitizeFilename(name)+".svg")
}
