package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"

	"dss/config"
	"dss/llm"
	"dss/sentiment"
	"dss/store"
	"dss/strategy"
)

// RunRecorder persists run history.
type RunRecorder interface {
	RecordRun(ctx context.Context, r *store.Run) error
}

type Pipeline struct {
	cfg        config.PipelineConfig
	runner     ProcessRunner
	completer  llm.Completer
	classifier sentiment.Classifier
	recorder   RunRecorder
	cores      func() (int, error)
	log        zerolog.Logger
}

type Option func(*Pipeline)

// WithCompleter enables the in-process llm generator.
func WithCompleter(c llm.Completer) Option { return func(p *Pipeline) { p.completer = c } }

func WithClassifier(c sentiment.Classifier) Option { return func(p *Pipeline) { p.classifier = c } }

func WithRecorder(r RunRecorder) Option { return func(p *Pipeline) { p.recorder = r } }

func New(cfg config.PipelineConfig, runner ProcessRunner, log zerolog.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:    cfg,
		runner: runner,
		log:    log,
		cores: func() (int, error) {
			return cpu.Counts(false)
		},
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

type Result struct {
	RunID        string               `json:"run_id,omitempty"`
	StrategyPath string               `json:"strategy_path"`
	OutputDir    string               `json:"output_dir"`
	NProcs       int                  `json:"n_procs"`
	Adjustment   *strategy.Adjustment `json:"adjustment,omitempty"`
}

// Run executes generate, the optional sentiment adjustment and the RL launch in
// order. The first failure aborts the run; nothing is retried or rolled back.
func (p *Pipeline) Run(ctx context.Context, o Options) (*Result, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	gen := o.Generator
	if gen == "" {
		gen = p.cfg.Generator
	}
	if gen == "" {
		gen = GeneratorScript
	}

	started := time.Now()
	res := &Result{
		OutputDir:    o.OutputDir,
		StrategyPath: filepath.Join(o.OutputDir, "strategy.json"),
		NProcs:       p.procs(o.NProcs),
	}

	err := p.run(ctx, o, gen, res)
	p.record(ctx, o, gen, res, started, err)
	if err != nil {
		return res, err
	}
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, o Options, gen string, res *Result) error {
	if err := os.MkdirAll(o.OutputDir, 0o755); err != nil {
		return stepError(StepGenerate, fmt.Errorf("create output dir: %w", err))
	}

	p.log.Info().Str("role", o.Role).Str("generator", gen).Str("output", res.StrategyPath).Msg("Generating strategy")
	if err := p.generate(ctx, o, gen, res.StrategyPath); err != nil {
		return stepError(StepGenerate, err)
	}

	if o.UseEmotion {
		adj, err := p.adjust(ctx, o, res.StrategyPath)
		if err != nil {
			return stepError(StepSentiment, err)
		}
		res.Adjustment = &adj
		p.log.Info().
			Str("label", string(adj.Label)).
			Float64("score", adj.Score).
			Float64("risk_pref_before", adj.Before).
			Float64("risk_pref_after", adj.After).
			Msg("Applied sentiment adjustment")
	}

	if err := p.train(ctx, res); err != nil {
		return stepError(StepRL, err)
	}
	p.log.Info().Str("output_dir", res.OutputDir).Msg("Pipeline finished")
	return nil
}

func (p *Pipeline) generate(ctx context.Context, o Options, gen, out string) error {
	switch gen {
	case GeneratorScript:
		return p.runner.Run(ctx, Command{
			Name: p.cfg.Python,
			Args: []string{p.cfg.StrategyScript, "--role", o.Role, "--state-file", o.MarketState, "--output", out},
		})
	case GeneratorLLM:
		if p.completer == nil {
			return fmt.Errorf("llm generator selected but no model is configured")
		}
		raw, err := os.ReadFile(o.MarketState)
		if err != nil {
			return fmt.Errorf("read market state: %w", err)
		}
		var state map[string]any
		if err := json.Unmarshal(raw, &state); err != nil {
			return fmt.Errorf("parse market state: %w", err)
		}
		doc, err := llm.GenerateStrategy(ctx, p.completer, o.Role, state)
		if err != nil {
			return err
		}
		return strategy.Document(doc).Save(out)
	}
	return fmt.Errorf("%w: unknown generator %q", ErrUsage, gen)
}

func (p *Pipeline) adjust(ctx context.Context, o Options, path string) (strategy.Adjustment, error) {
	if p.classifier == nil {
		return strategy.Adjustment{}, fmt.Errorf("no sentiment classifier configured")
	}
	text, err := sentiment.ReadText(o.SentimentData, o.SentimentEncoding)
	if err != nil {
		return strategy.Adjustment{}, err
	}
	label, err := p.classifier.Classify(ctx, text)
	if err != nil {
		return strategy.Adjustment{}, err
	}
	if !label.Known() {
		p.log.Warn().Str("label", string(label)).Msg("Unknown sentiment label, scoring as 0")
	}
	return strategy.AdjustFile(path, o.Alpha, label)
}

func (p *Pipeline) train(ctx context.Context, res *Result) error {
	absStrategy, err := filepath.Abs(res.StrategyPath)
	if err != nil {
		return err
	}
	absOut, err := filepath.Abs(res.OutputDir)
	if err != nil {
		return err
	}
	args := append([]string(nil), p.cfg.LauncherArgs...)
	args = append(args, "-np", strconv.Itoa(res.NProcs), p.cfg.Python, p.cfg.RLScript)
	return p.runner.Run(ctx, Command{
		Name: p.cfg.Launcher,
		Args: args,
		Env:  []string{"STRATEGY_PATH=" + absStrategy, "OUTPUT_DIR=" + absOut},
	})
}

func (p *Pipeline) procs(n int) int {
	if n > 0 {
		return n
	}
	c, err := p.cores()
	if err != nil || c <= 0 {
		p.log.Warn().Err(err).Msg("Core count unavailable, using 1 process")
		return 1
	}
	return c
}

func (p *Pipeline) record(ctx context.Context, o Options, gen string, res *Result, started time.Time, runErr error) {
	if p.recorder == nil {
		return
	}
	r := &store.Run{
		Role:        o.Role,
		MarketState: o.MarketState,
		OutputDir:   o.OutputDir,
		Generator:   gen,
		UseEmotion:  o.UseEmotion,
		NProcs:      res.NProcs,
		Status:      store.StatusSucceeded,
		StartedAt:   started,
		FinishedAt:  time.Now(),
	}
	if a := res.Adjustment; a != nil {
		r.SentimentLabel = string(a.Label)
		r.SentimentScore = &a.Score
		r.RiskBefore = &a.Before
		r.RiskAfter = &a.After
	}
	if runErr != nil {
		r.Status = store.StatusFailed
		r.Error = runErr.Error()
		var se *StepError
		if errors.As(runErr, &se) {
			r.FailedStep = se.Step
			if se.ExitCode != 0 {
				code := se.ExitCode
				r.ExitCode = &code
			}
		}
	}
	// Cancelled runs are recorded too.
	if err := p.recorder.RecordRun(context.WithoutCancel(ctx), r); err != nil {
		p.log.Warn().Err(err).Msg("Failed to record run")
		return
	}
	res.RunID = r.ID
}
