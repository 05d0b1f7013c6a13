package dssctl

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"dss/dataset"
	"dss/report"
)

func newReportCmd(a *app) *cobra.Command {
	var root string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render Markdown reports and charts from an existing dataset",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := report.NewWriter(a.layout(root), a.log)
			written, err := w.WriteAll()
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Reports: %d\nCharts:  %d\n", len(written.Reports), len(written.Charts))
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&root, "root", "", "dataset root (default from config)")
	cmd.AddCommand(newReportExperimentCmd(a, &root), newReportShowCmd(a, &root), newReportSummaryCmd(a, &root))
	return cmd
}

func (a *app) layout(root string) dataset.Layout {
	if root == "" {
		root = a.cfg.Dataset.Root
	}
	return dataset.Layout{Root: root}
}

func newReportExperimentCmd(a *app, root *string) *cobra.Command {
	var s1, s2, out, plots, summary string
	var info, usability, risk float64
	cmd := &cobra.Command{
		Use:   "experiment",
		Short: "Compare two result CSVs (S1/S2) and write experiment_summary.md",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			l := a.layout(*root)
			x := report.DefaultExperiment(l.ResultsDir())
			f := cmd.Flags()
			if s1 != "" {
				x.S1.Path = s1
			}
			if s2 != "" {
				x.S2.Path = s2
			}
			if f.Changed("summary-text") {
				x.StrategySummary = summary
			}
			if f.Changed("info-quality") {
				x.InfoQuality = info
			}
			if f.Changed("usability") {
				x.Usability = usability
			}
			if f.Changed("risk-score") {
				x.RiskScore = risk
			}
			if out == "" {
				out = filepath.Join(l.ReportsDir(), "experiment_summary.md")
			}
			if plots == "" {
				plots = filepath.Join(l.ReportsDir(), "plots")
			}

			res, err := report.WriteExperiment(x, plots, out, time.Now())
			if err != nil {
				return err
			}
			return a.writeJSON(res)
		},
	}
	f := cmd.Flags()
	f.StringVar(&s1, "s1", "", "S1 result CSV (default results/s1_ppo_results.csv)")
	f.StringVar(&s2, "s2", "", "S2 result CSV (default results/s2_risk_results.csv)")
	f.StringVar(&out, "out", "", "summary path (default reports/experiment_summary.md)")
	f.StringVar(&plots, "plots-dir", "", "chart directory (default reports/plots)")
	f.StringVar(&summary, "summary-text", "", "strategy summary used for the TTF classification")
	f.Float64Var(&info, "info-quality", 0, "information quality in [0,1]")
	f.Float64Var(&usability, "usability", 0, "system usability in [0,1]")
	f.Float64Var(&risk, "risk-score", 0, "risk score in [0,1]")
	return cmd
}

func newReportShowCmd(a *app, root *string) *cobra.Command {
	var style string
	var width int
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Render reports/<id>.md in the terminal",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := report.ShowFile(a.layout(*root).ReportPath(args[0]), style, width)
			if err != nil {
				return err
			}
			fmt.Fprint(a.stdout, out)
			return nil
		},
	}
	cmd.Flags().StringVar(&style, "style", "", "glamour style name or JSON path (default: auto)")
	cmd.Flags().IntVar(&width, "width", 80, "word wrap width")
	return cmd
}

func newReportSummaryCmd(a *app, root *string) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print the aggregate view of the evaluation table as JSON",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := dataset.ReadEvaluationFile(a.layout(*root).EvaluationPath())
			if err != nil {
				return err
			}
			b, err := report.Summarize(rows).MarshalIndented()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(a.stdout, string(b))
			return err
		},
	}
}
