package formulas

import (
	"math"
)

// SharpeRatio calculates the annualized Sharpe ratio from periodic returns.
//
// Sharpe Formula:
//
//	Sharpe = (Mean Return - Periodic Risk-free Rate) / Std Dev of Returns
//	Annualized: Sharpe × sqrt(252) for daily returns
//
// Args:
//
//	returns: Array of periodic fractional returns
//	riskFreeRateAnnual: Risk-free rate (annual, as decimal, e.g. 0.02 for 2%)
//
// Returns 0 when volatility is 0 (avoids division by zero).
func SharpeRatio(returns []float64, riskFreeRateAnnual float64) float64 {
	if len(returns) < 2 {
		return 0
	}

	vol := SampleVolatility(returns, false)
	if vol == 0 {
		return 0
	}

	periodicRiskFree := riskFreeRateAnnual / TradingDaysPerYear
	sharpe := (Mean(returns) - periodicRiskFree) / vol

	return sharpe * math.Sqrt(TradingDaysPerYear)
}

// SortinoRatio calculates the downside-deviation variant of the Sharpe ratio.
// Only returns below the periodic risk-free rate contribute to the
// denominator. Returns 0 when there is no downside in the series.
func SortinoRatio(returns []float64, riskFreeRateAnnual float64) float64 {
	if len(returns) < 2 {
		return 0
	}

	periodicRiskFree := riskFreeRateAnnual / TradingDaysPerYear

	var downsideSquaredSum float64
	downsideCount := 0
	for _, r := range returns {
		if r < periodicRiskFree {
			deviation := r - periodicRiskFree
			downsideSquaredSum += deviation * deviation
			downsideCount++
		}
	}

	if downsideCount == 0 {
		return 0
	}

	downsideDeviation := math.Sqrt(downsideSquaredSum / float64(downsideCount))
	if downsideDeviation == 0 {
		return 0
	}

	sortino := (Mean(returns) - periodicRiskFree) / downsideDeviation
	return sortino * math.Sqrt(TradingDaysPerYear)
}
