package dssctl

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"dss/dataset"
	"dss/report"
	"dss/store"
)

func newDatasetCmd(a *app) *cobra.Command {
	var root, start string
	var seed int64
	var days int
	var noReports bool
	cmd := &cobra.Command{
		Use:   "dataset",
		Short: "Generate the synthetic strategy dataset, its reports and charts",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg.Dataset
			f := cmd.Flags()
			if f.Changed("root") {
				cfg.Root = root
			}
			if f.Changed("seed") {
				cfg.Seed = seed
			}
			if f.Changed("days") {
				if days < 2 {
					return usageError{fmt.Errorf("--days must be at least 2")}
				}
				cfg.Days = days
			}
			if f.Changed("start") {
				t, err := time.Parse("2006-01-02", start)
				if err != nil {
					return usageError{fmt.Errorf("--start: %w", err)}
				}
				cfg.Start = t
			}

			ctx := cmd.Context()
			g := dataset.NewGenerator(cfg, a.log)
			res, err := g.Generate(ctx)
			if err != nil {
				return err
			}

			var written report.Written
			if !noReports {
				w := report.NewWriter(g.Layout(), a.log)
				if written, err = w.WriteReports(res.Evaluations); err != nil {
					return err
				}
				if written.Charts, err = w.WriteCharts(res.Evaluations, res.Series); err != nil {
					return err
				}
			}

			id := ""
			st, err := a.openStore()
			if err != nil {
				return err
			}
			if st != nil {
				defer st.Close()
				id = store.NewID()
				if err := st.SaveEvaluations(ctx, id, res.Evaluations); err != nil {
					return err
				}
				a.log.Info().Str("dataset_id", id).Str("store", st.Path()).Msg("Evaluations recorded")
			}

			l := g.Layout()
			fmt.Fprintf(a.stdout, "Strategies: %d\n", len(res.Records))
			fmt.Fprintf(a.stdout, "Evaluation: %s\n", l.EvaluationPath())
			fmt.Fprintf(a.stdout, "Reports:    %d\n", len(written.Reports))
			fmt.Fprintf(a.stdout, "Charts:     %d\n", len(written.Charts))
			if id != "" {
				fmt.Fprintf(a.stdout, "Dataset ID: %s\n", id)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&root, "root", "", "output root for configs/, results/ and reports/")
	f.Int64Var(&seed, "seed", 0, "random seed")
	f.IntVar(&days, "days", 0, "trading days per series")
	f.StringVar(&start, "start", "", "first date, YYYY-MM-DD")
	f.BoolVar(&noReports, "no-reports", false, "skip Markdown reports and charts")
	return cmd
}
