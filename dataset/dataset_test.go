package dataset

import (
	"context"
	"math"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"dss/backtest"
	"dss/config"
	"dss/strategy"
)

func newTestGenerator(root string, seed int64) *Generator {
	return NewGenerator(config.DatasetConfig{
		Root:  root,
		Seed:  seed,
		Days:  90,
		Start: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}, zerolog.Nop())
}

func TestGenerate_WritesArtifacts(t *testing.T) {
	root := t.TempDir()
	g := newTestGenerator(root, 42)

	res, err := g.Generate(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Evaluations, 9)

	l := g.Layout()
	for _, rec := range res.Records {
		_, err := os.Stat(l.ConfigPath(rec.ID))
		require.NoError(t, err, rec.ID)

		s, err := backtest.ReadSeriesFile(l.ResultPath(rec.ID), rec.ID)
		require.NoError(t, err)
		require.Len(t, s.Rows, 90)
		assert.Equal(t, "2025-01-01", s.Rows[0].Date.Format(backtest.DateLayout))
		assert.Equal(t, "2025-03-31", s.Rows[89].Date.Format(backtest.DateLayout))
	}

	rows, err := ReadEvaluationFile(l.EvaluationPath())
	require.NoError(t, err)
	require.Len(t, rows, 9)
	if diff := cmp.Diff(res.Evaluations, rows, cmpopts.EquateApprox(0, 1e-12), cmpopts.EquateNaNs()); diff != "" {
		t.Fatalf("evaluation csv mismatch (-want +got):\n%s", diff)
	}

	evalCSV, err := os.ReadFile(l.EvaluationPath())
	require.NoError(t, err)
	assert.Contains(t, string(evalCSV), "\nstrategy_conservative_1,Conservative,")
	assert.Contains(t, string(evalCSV), "\nstrategy_aggressive_3,Aggressive,")

	raw, err := os.ReadFile(l.ConfigPath("strategy_conservative_1"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "{\n  \"strategy_id\": \"strategy_conservative_1\""))

	curves, err := os.ReadFile(l.CurvesPath())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(curves)), "\n")
	require.Len(t, lines, 91)
	assert.True(t, strings.HasSuffix(lines[0], ",strategy_aggressive_3,date"))

	scatter, err := os.ReadFile(l.ScatterPath())
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(scatter)), "\n"), 10)
}

func TestBuild_Deterministic(t *testing.T) {
	a, err := newTestGenerator("", 7).Build(context.Background())
	require.NoError(t, err)
	b, err := newTestGenerator("", 7).Build(context.Background())
	require.NoError(t, err)
	if diff := cmp.Diff(a, b, cmpopts.EquateNaNs()); diff != "" {
		t.Fatalf("same seed produced different datasets:\n%s", diff)
	}

	c, err := newTestGenerator("", 8).Build(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, a.Evaluations[0].CumulativeReturn, c.Evaluations[0].CumulativeReturn)
}

func TestBuild_SharpeMatchesReturns(t *testing.T) {
	g := newTestGenerator("", 42)
	res, err := g.Build(context.Background())
	require.NoError(t, err)

	for i, rec := range res.Records {
		tier, err := rec.Tier()
		require.NoError(t, err)
		r, err := g.Returns(tier, i)
		require.NoError(t, err)

		mean, std := stat.PopMeanStdDev(r, nil)
		want := mean / std * math.Sqrt(252)
		assert.Equal(t, want, res.Evaluations[i].SharpeRatio, rec.ID)

		mdd := res.Evaluations[i].MaxDrawdown
		assert.GreaterOrEqual(t, mdd, 0.0)
		if floats.Min(res.Series[i].Curve()) > 0 {
			assert.LessOrEqual(t, mdd, 1.0, rec.ID)
		}
	}

	// A curve that stays positive while falling from its peak.
	s := backtest.BuildSeries("positive", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), []float64{0.1, -0.05, 0.02, -0.06})
	final, ok := s.Final()
	require.True(t, ok)
	assert.InDelta(t, 0.9, final.MaxDrawdown, 1e-12)
	assert.LessOrEqual(t, final.MaxDrawdown, 1.0)
}

func TestEvaluate_TierLadder(t *testing.T) {
	res, err := newTestGenerator("", 1).Build(context.Background())
	require.NoError(t, err)

	for _, e := range res.Evaluations {
		switch e.StrategyType {
		case strategy.Conservative:
			assert.Equal(t, "High", e.TTFScore)
			assert.Equal(t, "Good", e.TrustScore)
			assert.True(t, e.InfoQuality >= 0.85 && e.InfoQuality < 0.95)
			assert.True(t, e.Usability >= 0.80 && e.Usability < 0.90)
		case strategy.Neutral:
			assert.Equal(t, "Medium", e.TTFScore)
			assert.Equal(t, "Medium", e.TrustScore)
			assert.True(t, e.InfoQuality >= 0.70 && e.InfoQuality < 0.80)
		case strategy.Aggressive:
			assert.Equal(t, "Low", e.TTFScore)
			assert.Equal(t, "Low", e.TrustScore)
			assert.True(t, e.Usability >= 0.60 && e.Usability < 0.70)
		default:
			t.Fatalf("unexpected tier %q", e.StrategyType)
		}
	}
}

func TestEvaluate_UnknownTier(t *testing.T) {
	rec := strategy.Record{ID: "strategy_reckless_1"}
	_, err := Evaluate(rec, backtest.Series{}, nil)
	require.ErrorIs(t, err, ErrUnknownTier)
}

func TestReadEvaluationCSV_MissingColumn(t *testing.T) {
	_, err := ReadEvaluationCSV(strings.NewReader("strategy_id,risk_score\nx,0.1\n"))
	require.Error(t, err)
}

func TestReadEvaluationCSV_TierLabels(t *testing.T) {
	header := strings.Join(evaluationHeader, ",") + "\n"
	rows, err := ReadEvaluationCSV(strings.NewReader(header +
		"strategy_neutral_1,Neutral,0.45,0.35,0.02,1.1,0.05,Medium,0.75,0.72,Medium\n" +
		"strategy_aggressive_1,aggressive,0.75,0.65,0.04,,nan,Low,0.65,0.61,Low\n"))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, strategy.Neutral, rows[0].StrategyType)
	assert.Equal(t, strategy.Aggressive, rows[1].StrategyType)
	assert.True(t, math.IsNaN(rows[1].SharpeRatio))

	_, err = ReadEvaluationCSV(strings.NewReader(header +
		"strategy_x_1,Reckless,0.1,0.1,0.1,0.1,0.1,Low,0.1,0.1,Low\n"))
	require.ErrorIs(t, err, ErrUnknownTier)
}

func TestGenerate_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestGenerator(t.TempDir(), 1).Generate(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
