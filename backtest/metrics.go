package backtest

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Cumulative is the running sum of daily returns.
func Cumulative(returns []float64) []float64 {
	out := make([]float64, len(returns))
	if len(returns) == 0 {
		return out
	}
	floats.CumSum(out, returns)
	return out
}

// SharpeRatio is mean/std*sqrt(252) with the population standard deviation.
// It is NaN for an empty series or zero volatility.
func SharpeRatio(returns []float64) float64 {
	if len(returns) == 0 {
		return math.NaN()
	}
	mean, std := stat.PopMeanStdDev(returns, nil)
	if std == 0 || math.IsNaN(std) {
		return math.NaN()
	}
	return mean / std * math.Sqrt(TradingDaysPerYear)
}

// MaxDrawdown is max over t of (peak_t - cum_t)/peak_t, where peak_t is the running
// maximum of cum. Points whose peak is not above DrawdownEpsilon are skipped, so a
// curve that never rises above zero reports 0.
func MaxDrawdown(cum []float64) float64 {
	if len(cum) == 0 {
		return 0
	}
	peak := cum[0]
	maxDD := 0.0
	for _, c := range cum {
		if c > peak {
			peak = c
		}
		if peak <= DrawdownEpsilon {
			continue
		}
		if dd := (peak - c) / peak; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}
