package formulas

import (
	"github.com/markcheno/go-talib"
)

// Trend classifies the direction of a metric series.
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendStable     Trend = "stable"
	TrendDecreasing Trend = "decreasing"
)

// ClassifyTrend determines the direction of a series by comparing the latest
// EMA value against the EMA one period window earlier.
//
// Args:
//
//	values: Metric observations, chronological
//	period: EMA smoothing period (and lookback distance)
//	tolerance: Relative change below which the series counts as stable
//
// Series too short for the EMA window are reported as stable.
func ClassifyTrend(values []float64, period int, tolerance float64) Trend {
	if period < 1 || len(values) < 2*period {
		return TrendStable
	}

	ema := talib.Ema(values, period)

	latest := ema[len(ema)-1]
	earlier := ema[len(ema)-1-period]
	if !IsFinite(latest) || !IsFinite(earlier) || earlier == 0 {
		return TrendStable
	}

	change := (latest - earlier) / earlier
	switch {
	case change > tolerance:
		return TrendIncreasing
	case change < -tolerance:
		return TrendDecreasing
	default:
		return TrendStable
	}
}

// RollingVolatility computes a windowed volatility series from returns, used
// as the input to trend classification. Each point is the non-annualized
// standard deviation of the trailing window.
func RollingVolatility(returns []float64, window int) []float64 {
	if window < 2 || len(returns) < window {
		return nil
	}

	out := make([]float64, 0, len(returns)-window+1)
	for i := window; i <= len(returns); i++ {
		out = append(out, StdDev(returns[i-window:i]))
	}
	return out
}
