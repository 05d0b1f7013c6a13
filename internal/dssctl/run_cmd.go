package dssctl

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"dss/llm"
	"dss/pipeline"
)

func newRunCmd(a *app) *cobra.Command {
	var o pipeline.Options
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Generate a strategy, optionally adjust it by sentiment, then launch RL training",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := cmd.Flags()
			if !f.Changed("alpha") {
				o.Alpha = a.cfg.Pipeline.Alpha
			}
			if !f.Changed("n-procs") {
				o.NProcs = a.cfg.Pipeline.NProcs
			}
			if !f.Changed("generator") {
				o.Generator = a.cfg.Pipeline.Generator
			}
			if o.SentimentEncoding == "" {
				o.SentimentEncoding = a.cfg.Sentiment.Encoding
			}
			if err := o.Validate(); err != nil {
				return err
			}
			return a.runPipeline(cmd.Context(), o)
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.Role, "role", "", "investor role passed to the strategy generator (required)")
	f.StringVar(&o.MarketState, "market-state", "", "market state JSON file (required)")
	f.BoolVar(&o.UseEmotion, "use-emotion", false, "adjust risk_pref by the sentiment of --sentiment-data")
	f.StringVar(&o.SentimentData, "sentiment-data", "", "text file to classify (required with --use-emotion)")
	f.StringVar(&o.SentimentEncoding, "sentiment-encoding", "", "encoding of --sentiment-data (utf-8, euc-kr, gbk, ...)")
	f.Float64Var(&o.Alpha, "alpha", 0.1, "sentiment weight: risk_pref += alpha * score")
	f.StringVar(&o.OutputDir, "output-dir", "", "directory for strategy.json and RL output (required)")
	f.IntVar(&o.NProcs, "n-procs", 8, "RL processes; <= 0 means one per physical core")
	f.StringVar(&o.Generator, "generator", "script", "strategy generator: script or llm")
	return cmd
}

func (a *app) runPipeline(ctx context.Context, o pipeline.Options) error {
	var opts []pipeline.Option

	needLLM := o.Generator == pipeline.GeneratorLLM || (o.UseEmotion && a.cfg.Sentiment.Backend == "llm")
	var completer llm.Completer
	if needLLM {
		c, err := a.deps.newCompleter(ctx, a.cfg.LLM)
		if err != nil {
			return err
		}
		completer = c
		opts = append(opts, pipeline.WithCompleter(c))
	}

	if o.UseEmotion {
		cls, err := a.classifier(ctx, completer)
		if err != nil {
			return err
		}
		opts = append(opts, pipeline.WithClassifier(cls))
	}

	st, err := a.openStore()
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close()
		opts = append(opts, pipeline.WithRecorder(st))
	}

	p := pipeline.New(a.cfg.Pipeline, a.deps.newRunner(a.log, a.stdout, a.stderr), a.log, opts...)
	res, err := p.Run(ctx, o)
	if err != nil {
		return err
	}
	if err := a.writeJSON(res); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}
