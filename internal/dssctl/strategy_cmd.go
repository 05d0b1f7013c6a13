package dssctl

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"dss/llm"
	"dss/sentiment"
	"dss/strategy"
)

func newStrategyCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "strategy",
		Short: "Generate or adjust a strategy document",
	}
	cmd.AddCommand(newStrategyGenerateCmd(a), newStrategyAdjustCmd(a))
	return cmd
}

func newStrategyGenerateCmd(a *app) *cobra.Command {
	var role, statePath, out string
	var strict bool
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Ask the configured LLM for a strategy JSON",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireFlags(cmd, "role", "market-state"); err != nil {
				return err
			}
			raw, err := os.ReadFile(statePath)
			if err != nil {
				return fmt.Errorf("read market state: %w", err)
			}
			var state map[string]any
			if err := json.Unmarshal(raw, &state); err != nil {
				return fmt.Errorf("parse market state: %w", err)
			}

			ctx := cmd.Context()
			c, err := a.deps.newCompleter(ctx, a.cfg.LLM)
			if err != nil {
				return err
			}
			a.log.Info().Str("backend", a.cfg.LLM.Backend).Str("model", a.cfg.LLM.Model).Str("role", role).Msg("Generating strategy")
			doc, err := llm.GenerateStrategy(ctx, c, role, state)
			if err != nil {
				return err
			}
			if strict {
				if _, err := llm.StrategyPreferences(doc); err != nil {
					return fmt.Errorf("strict check: %w", err)
				}
			}

			if out == "" {
				return a.writeJSON(doc)
			}
			if err := strategy.Document(doc).Save(out); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Strategy written to %s\n", out)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&role, "role", "", "investor role (required)")
	f.StringVar(&statePath, "market-state", "", "market state JSON file (required)")
	f.StringVar(&out, "out", "", "write the strategy here instead of stdout")
	f.BoolVar(&strict, "strict", false, "require numeric risk_pref and target_return")
	return cmd
}

func newStrategyAdjustCmd(a *app) *cobra.Command {
	var path, label, data, encoding string
	var alpha float64
	cmd := &cobra.Command{
		Use:   "adjust",
		Short: "Shift risk_pref of a strategy file by a sentiment label",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireFlags(cmd, "strategy"); err != nil {
				return err
			}
			if (label == "") == (data == "") {
				return usageError{fmt.Errorf("exactly one of --label or --sentiment-data is required")}
			}
			if !cmd.Flags().Changed("alpha") {
				alpha = a.cfg.Pipeline.Alpha
			}
			if encoding == "" {
				encoding = a.cfg.Sentiment.Encoding
			}

			l := sentiment.ParseLabel(label)
			if data != "" {
				ctx := cmd.Context()
				text, err := sentiment.ReadText(data, encoding)
				if err != nil {
					return err
				}
				cls, err := a.classifier(ctx, nil)
				if err != nil {
					return err
				}
				if l, err = cls.Classify(ctx, text); err != nil {
					return fmt.Errorf("classify sentiment: %w", err)
				}
			}
			if !l.Known() {
				a.log.Warn().Str("label", string(l)).Msg("Unknown sentiment label, scoring as 0")
			}

			adj, err := strategy.AdjustFile(path, alpha, l)
			if err != nil {
				return err
			}
			return a.writeJSON(adj)
		},
	}
	f := cmd.Flags()
	f.StringVar(&path, "strategy", "", "strategy JSON file to update in place (required)")
	f.StringVar(&label, "label", "", "sentiment label: positive, neutral or negative")
	f.StringVar(&data, "sentiment-data", "", "classify this text file instead of passing --label")
	f.StringVar(&encoding, "sentiment-encoding", "", "encoding of --sentiment-data")
	f.Float64Var(&alpha, "alpha", 0.1, "sentiment weight")
	return cmd
}
