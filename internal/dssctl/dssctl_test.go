package dssctl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dss/backtest"
	"dss/config"
	"dss/llm"
	"dss/pipeline"
	"dss/strategy"
)

type exitError struct{ code int }

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }
func (e exitError) ExitCode() int { return e.code }

type fakeRunner struct {
	calls []pipeline.Command
	fail  map[string]error
}

func (f *fakeRunner) Run(_ context.Context, c pipeline.Command) error {
	f.calls = append(f.calls, c)
	if err := f.fail[c.Name]; err != nil {
		return err
	}
	for i, a := range c.Args {
		if a == "--output" && i+1 < len(c.Args) {
			return os.WriteFile(c.Args[i+1], []byte(`{"risk_pref": 0.5, "target_return": 0.07}`), 0o644)
		}
	}
	return nil
}

type fakeCompleter string

func (f fakeCompleter) Complete(context.Context, string) (string, error) { return string(f), nil }

type harness struct {
	t         *testing.T
	dir       string
	config    string
	runner    *fakeRunner
	completer llm.Completer
}

func newHarness(t *testing.T, extraYAML string) *harness {
	t.Helper()
	dir := t.TempDir()
	cfg := filepath.Join(dir, "dss.yaml")
	body := fmt.Sprintf("store:\n  path: %s\nlog:\n  pretty: false\n  level: error\n%s", filepath.Join(dir, "dss.db"), extraYAML)
	require.NoError(t, os.WriteFile(cfg, []byte(body), 0o644))
	return &harness{t: t, dir: dir, config: cfg, runner: &fakeRunner{}, completer: fakeCompleter("positive")}
}

func (h *harness) run(args ...string) (int, string, string) {
	h.t.Helper()
	var stdout, stderr bytes.Buffer
	d := deps{
		newRunner: func(zerolog.Logger, io.Writer, io.Writer) pipeline.ProcessRunner { return h.runner },
		newCompleter: func(context.Context, config.LLMConfig) (llm.Completer, error) {
			return h.completer, nil
		},
	}
	code := run(context.Background(), append([]string{"--config", h.config}, args...), &stdout, &stderr, d)
	return code, stdout.String(), stderr.String()
}

func (h *harness) write(name, body string) string {
	h.t.Helper()
	p := filepath.Join(h.dir, name)
	require.NoError(h.t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestRun_UsageErrors(t *testing.T) {
	h := newHarness(t, "")
	state := h.write("state.json", "{}")

	tests := []struct {
		name string
		args []string
	}{
		{"unknown command", []string{"bogus"}},
		{"unknown flag", []string{"run", "--bogus"}},
		{"missing role", []string{"run", "--market-state", state, "--output-dir", h.dir}},
		{"emotion without data", []string{"run", "--role", "r", "--market-state", state, "--output-dir", h.dir, "--use-emotion"}},
		{"bad generator", []string{"run", "--role", "r", "--market-state", state, "--output-dir", h.dir, "--generator", "magic"}},
		{"show without id", []string{"report", "show"}},
		{"adjust without label", []string{"strategy", "adjust", "--strategy", state}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := h.run(tt.args...)
			assert.Equal(t, 2, code)
			assert.Contains(t, stderr, "[ERROR]")
		})
	}
	assert.Empty(t, h.runner.calls)
}

func TestRun_PipelineWithSentiment(t *testing.T) {
	h := newHarness(t, "sentiment:\n  backend: llm\n")
	state := h.write("state.json", `{"vix": 18}`)
	news := h.write("news.txt", "Earnings beat expectations.")
	out := filepath.Join(h.dir, "out")

	code, stdout, stderr := h.run("run",
		"--role", "conservative", "--market-state", state,
		"--use-emotion", "--sentiment-data", news,
		"--output-dir", out, "--n-procs", "2")
	require.Equal(t, 0, code, stderr)

	var res pipeline.Result
	require.NoError(t, json.Unmarshal([]byte(stdout), &res))
	require.NotNil(t, res.Adjustment)
	assert.InDelta(t, 0.6, res.Adjustment.After, 1e-12)
	assert.NotEmpty(t, res.RunID)

	doc, err := strategy.Load(filepath.Join(out, "strategy.json"))
	require.NoError(t, err)
	rp, err := doc.RiskPref()
	require.NoError(t, err)
	assert.InDelta(t, 0.6, rp, 1e-12)

	require.Len(t, h.runner.calls, 2)
	rl := h.runner.calls[1]
	assert.Equal(t, "mpirun", rl.Name)
	assert.Contains(t, strings.Join(rl.Args, " "), "-np 2")

	code, stdout, _ = h.run("history", "--json")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, `"status": "succeeded"`)
	assert.Contains(t, stdout, `"sentiment_label": "positive"`)
}

func TestRun_PropagatesChildExitCode(t *testing.T) {
	h := newHarness(t, "")
	h.runner.fail = map[string]error{"mpirun": exitError{code: 3}}
	state := h.write("state.json", "{}")

	code, _, stderr := h.run("run", "--role", "r", "--market-state", state, "--output-dir", filepath.Join(h.dir, "out"))
	assert.Equal(t, 3, code)
	assert.Contains(t, stderr, "step rl failed")

	code, stdout, _ := h.run("history")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "failed")
	assert.Contains(t, stdout, "rl/3")
}

func TestRun_NoHistory(t *testing.T) {
	h := newHarness(t, "")
	state := h.write("state.json", "{}")

	code, _, _ := h.run("--no-history", "run", "--role", "r", "--market-state", state, "--output-dir", filepath.Join(h.dir, "out"))
	require.Equal(t, 0, code)
	_, err := os.Stat(filepath.Join(h.dir, "dss.db"))
	assert.True(t, os.IsNotExist(err))

	code, _, _ = h.run("--no-history", "history")
	assert.Equal(t, 2, code)
}

func TestStrategyGenerate(t *testing.T) {
	h := newHarness(t, "")
	state := h.write("state.json", `{"trend": "up"}`)
	out := filepath.Join(h.dir, "strategy.json")

	h.completer = fakeCompleter(`Sure: {"risk_pref": 0.3, "target_return": 0.08} done`)
	code, stdout, stderr := h.run("strategy", "generate", "--role", "neutral", "--market-state", state, "--out", out, "--strict")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, out)

	doc, err := strategy.Load(out)
	require.NoError(t, err)
	assert.Equal(t, 0.08, doc["target_return"])

	h.completer = fakeCompleter(`{"risk_pref": "high"}`)
	code, _, stderr = h.run("strategy", "generate", "--role", "neutral", "--market-state", state, "--strict")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "strict check")

	h.completer = fakeCompleter("no json here")
	code, _, stderr = h.run("strategy", "generate", "--role", "neutral", "--market-state", state)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, llm.ErrNoJSONObject.Error())
}

func TestStrategyAdjust(t *testing.T) {
	h := newHarness(t, "")
	p := h.write("strategy.json", `{"risk_pref": 0.5, "name": "x"}`)

	code, stdout, stderr := h.run("strategy", "adjust", "--strategy", p, "--label", "negative", "--alpha", "0.2")
	require.Equal(t, 0, code, stderr)
	var adj strategy.Adjustment
	require.NoError(t, json.Unmarshal([]byte(stdout), &adj))
	assert.InDelta(t, 0.3, adj.After, 1e-12)

	doc, err := strategy.Load(p)
	require.NoError(t, err)
	assert.Equal(t, "x", doc["name"])
}

func TestDatasetAndReports(t *testing.T) {
	h := newHarness(t, "")
	root := filepath.Join(h.dir, "data")

	code, stdout, stderr := h.run("dataset", "--root", root, "--seed", "7", "--days", "30")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "Strategies: 9")
	assert.Contains(t, stdout, "Reports:    10")
	assert.Contains(t, stdout, "Dataset ID: ")
	assert.FileExists(t, filepath.Join(root, "results", "evaluation_dataset.csv"))
	assert.FileExists(t, filepath.Join(root, "reports", "summary.md"))

	first, err := os.ReadFile(filepath.Join(root, "reports", "strategy_neutral_2.md"))
	require.NoError(t, err)

	code, stdout, stderr = h.run("report", "--root", root)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "Reports: 10")
	second, err := os.ReadFile(filepath.Join(root, "reports", "strategy_neutral_2.md"))
	require.NoError(t, err)
	assert.Equal(t, first, second)

	code, stdout, stderr = h.run("report", "show", "strategy_neutral_2", "--root", root, "--style", "notty")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "Strategy Performance Report")

	code, stdout, _ = h.run("report", "summary", "--root", root)
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, `"total_strategies": 9`)

	code, _, _ = h.run("report", "show", "missing", "--root", root)
	assert.Equal(t, 1, code)
}

func TestReportExperiment(t *testing.T) {
	h := newHarness(t, "")
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s1 := filepath.Join(h.dir, "s1.csv")
	s2 := filepath.Join(h.dir, "s2.csv")
	require.NoError(t, backtest.WriteSeriesFile(s1, backtest.BuildSeries("s1", start, []float64{0.01, 0.02, -0.01})))
	require.NoError(t, backtest.WriteSeriesFile(s2, backtest.BuildSeries("s2", start, []float64{0.005, 0.0, 0.001})))
	out := filepath.Join(h.dir, "reports", "experiment_summary.md")

	code, stdout, stderr := h.run("report", "experiment", "--s1", s1, "--s2", s2, "--out", out,
		"--plots-dir", filepath.Join(h.dir, "plots"), "--risk-score", "0.6")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, `"trust"`)

	md, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(md), "|Metric| S1 | S2 |")
	assert.Contains(t, string(md), "System Reliability: Normal")
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 2, exitCode(fmt.Errorf("wrap: %w", pipeline.ErrUsage)))
	assert.Equal(t, 2, exitCode(usageError{fmt.Errorf("x")}))
	assert.Equal(t, 5, exitCode(&pipeline.StepError{Step: pipeline.StepRL, ExitCode: 5}))
	assert.Equal(t, 1, exitCode(&pipeline.StepError{Step: pipeline.StepGenerate}))
	assert.Equal(t, 1, exitCode(fmt.Errorf("boom")))
}
