package formulas

// DrawdownResult represents drawdown analysis of a return series
type DrawdownResult struct {
	MaxDrawdown     float64 `json:"max_drawdown"`     // Worst peak-to-trough decline (0.25 = 25% loss from peak)
	DurationPeriods int     `json:"duration_periods"` // Longest contiguous run of periods spent below a prior peak
}

// MaxDrawdown calculates the maximum drawdown from a periodic return series.
//
// Drawdown Formula:
//
//	Wealth[i]   = Wealth[i-1] * (1 + Returns[i])
//	Drawdown    = (Peak - Wealth) / Peak
//	MaxDrawdown = Maximum of all drawdowns
//
// The result is always in [0, 1]: an all-positive series never dips below its
// running peak (0), and wealth compounded from returns > -1 never goes
// negative, so a drawdown cannot exceed 100%.
func MaxDrawdown(returns []float64) DrawdownResult {
	if len(returns) == 0 {
		return DrawdownResult{}
	}

	wealth := 1.0
	peak := 1.0
	maxDrawdown := 0.0

	currentRun := 0
	longestRun := 0

	for _, r := range returns {
		wealth *= 1 + r

		if wealth >= peak {
			peak = wealth
			currentRun = 0
			continue
		}

		currentRun++
		if currentRun > longestRun {
			longestRun = currentRun
		}

		if peak > 0 {
			drawdown := (peak - wealth) / peak
			if drawdown > maxDrawdown {
				maxDrawdown = drawdown
			}
		}
	}

	// Returns <= -1 wipe the position out; cap at a full loss.
	if maxDrawdown > 1 {
		maxDrawdown = 1
	}
	if maxDrawdown < 0 {
		maxDrawdown = 0
	}

	return DrawdownResult{
		MaxDrawdown:     maxDrawdown,
		DurationPeriods: longestRun,
	}
}
