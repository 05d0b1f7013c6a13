package dssctl

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newHistoryCmd(a *app) *cobra.Command {
	var limit int
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded pipeline runs, newest first",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			if st == nil {
				return usageError{fmt.Errorf("history is disabled")}
			}
			defer st.Close()

			runs, err := st.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if asJSON {
				return a.writeJSON(runs)
			}
			if len(runs) == 0 {
				fmt.Fprintln(a.stdout, "No runs recorded.")
				return nil
			}

			w := a.stdout
			fmt.Fprintf(w, "%-20s %-10s %-14s %-8s %-10s %-6s %-10s %s\n", "STARTED", "STATUS", "ROLE", "GEN", "SENTIMENT", "NP", "STEP/EXIT", "ID")
			for _, r := range runs {
				label := r.SentimentLabel
				if label == "" {
					label = "-"
				}
				step := "-"
				if r.FailedStep != "" {
					step = r.FailedStep
					if r.ExitCode != nil {
						step += "/" + strconv.Itoa(*r.ExitCode)
					}
				}
				fmt.Fprintf(w, "%-20s %-10s %-14s %-8s %-10s %-6d %-10s %s\n",
					r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.Status, truncate(r.Role, 14), r.Generator, label, r.NProcs, step, r.ID)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of runs to show; 0 means all")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "~"
}
