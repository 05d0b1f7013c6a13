package dssctl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"dss/config"
	"dss/internal/logger"
	"dss/llm"
	"dss/pipeline"
	"dss/sentiment"
	"dss/store"
)

// Version is reported by --version.
var Version = "dev"

// deps are the seams tests replace.
type deps struct {
	newRunner    func(log zerolog.Logger, stdout, stderr io.Writer) pipeline.ProcessRunner
	newCompleter func(ctx context.Context, cfg config.LLMConfig) (llm.Completer, error)
}

func defaultDeps() deps {
	return deps{
		newRunner: func(log zerolog.Logger, stdout, stderr io.Writer) pipeline.ProcessRunner {
			r := pipeline.NewExecRunner(log)
			r.Stdout, r.Stderr = stdout, stderr
			return r
		},
		newCompleter: llm.NewCompleter,
	}
}

type app struct {
	stdout io.Writer
	stderr io.Writer
	deps   deps

	configPath string
	logLevel   string
	noHistory  bool

	cfg *config.Config
	log zerolog.Logger
}

// Run executes the dss command line and returns the process exit code:
// 0 on success, 2 on usage errors, the child's status when an external step
// exits non-zero, 1 otherwise.
func Run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return run(ctx, args, os.Stdout, os.Stderr, defaultDeps())
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, d deps) int {
	a := &app{stdout: stdout, stderr: stderr, deps: d, log: zerolog.Nop()}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	code := exitCode(err)
	fmt.Fprintf(stderr, "[ERROR] %v\n", err)
	if code == 2 {
		fmt.Fprintln(stderr, "Run 'dss --help' for usage.")
	}
	return code
}

type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func exitCode(err error) int {
	var ue usageError
	if errors.As(err, &ue) || errors.Is(err, pipeline.ErrUsage) || strings.HasPrefix(err.Error(), "unknown command") {
		return 2
	}
	var se *pipeline.StepError
	if errors.As(err, &se) && se.ExitCode > 0 {
		return se.ExitCode
	}
	return 1
}

// usageArgs turns positional-argument validation failures into usage errors.
func usageArgs(v cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := v(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}

func requireFlags(cmd *cobra.Command, names ...string) error {
	var missing []string
	for _, n := range names {
		f := cmd.Flags().Lookup(n)
		if f == nil || strings.TrimSpace(f.Value.String()) == "" {
			missing = append(missing, "--"+n)
		}
	}
	if len(missing) > 0 {
		return usageError{fmt.Errorf("missing required flag(s): %s", strings.Join(missing, ", "))}
	}
	return nil
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "dss",
		Short:         "Decision-support pipeline: LLM strategy, sentiment adjustment, RL backtest, IS reports",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError{err}
	})

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "config file (YAML); defaults to ./dss.yaml when present")
	pf.StringVar(&a.logLevel, "log-level", "", "log level override: debug, info, warn, error")
	pf.BoolVar(&a.noHistory, "no-history", false, "do not record runs or datasets in the SQLite history")

	root.AddCommand(
		newRunCmd(a),
		newStrategyCmd(a),
		newDatasetCmd(a),
		newReportCmd(a),
		newServeCmd(a),
		newHistoryCmd(a),
	)
	return root
}

func (a *app) init() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	a.cfg = cfg
	a.log = logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty, Out: a.stderr})
	return nil
}

// openStore returns nil when history is disabled.
func (a *app) openStore() (*store.Store, error) {
	if a.noHistory || strings.TrimSpace(a.cfg.StorePath) == "" {
		return nil, nil
	}
	return store.Open(a.cfg.StorePath)
}

// classifier builds the configured sentiment backend. c is reused for the llm
// backend when non-nil.
func (a *app) classifier(ctx context.Context, c llm.Completer) (sentiment.Classifier, error) {
	if a.cfg.Sentiment.Backend == "llm" {
		if c == nil {
			var err error
			if c, err = a.deps.newCompleter(ctx, a.cfg.LLM); err != nil {
				return nil, err
			}
		}
		return sentiment.NewLLMClassifier(c), nil
	}
	cc, err := sentiment.NewCommandClassifier(a.cfg.Sentiment.Command, a.log)
	if err != nil {
		return nil, err
	}
	return cc, nil
}

func (a *app) writeJSON(v any) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
