package stress

// DefaultScenarios is the built-in shock catalog. Probabilities are rough
// annualized estimates, not calibrated figures.
func DefaultScenarios() []Scenario {
	return []Scenario{
		{
			ID:                      "market_crash_2008",
			Name:                    "2008-style Market Crash",
			Severity:                SeverityExtreme,
			Probability:             0.05,
			MarketShockPct:          -45,
			VolatilityIncreasePct:   150,
			CorrelationBreakdownPct: 80,
			LiquidityShockPct:       -25,
		},
		{
			ID:                      "black_swan_event",
			Name:                    "Black Swan Event",
			Severity:                SeverityExtreme,
			Probability:             0.01,
			MarketShockPct:          -80,
			VolatilityIncreasePct:   300,
			CorrelationBreakdownPct: 95,
			LiquidityShockPct:       -10,
		},
		{
			ID:                      "flash_crash",
			Name:                    "Flash Crash",
			Severity:                SeverityHigh,
			Probability:             0.15,
			MarketShockPct:          -15,
			VolatilityIncreasePct:   200,
			CorrelationBreakdownPct: 60,
			LiquidityShockPct:       -40,
		},
		{
			ID:                      "liquidity_crisis",
			Name:                    "Liquidity Crisis",
			Severity:                SeverityHigh,
			Probability:             0.10,
			MarketShockPct:          -20,
			VolatilityIncreasePct:   80,
			CorrelationBreakdownPct: 70,
			LiquidityShockPct:       -60,
		},
		{
			ID:                      "volatility_spike",
			Name:                    "Volatility Spike",
			Severity:                SeverityMedium,
			Probability:             0.30,
			MarketShockPct:          -10,
			VolatilityIncreasePct:   120,
			CorrelationBreakdownPct: 40,
			LiquidityShockPct:       -15,
		},
		{
			ID:                      "stablecoin_depeg",
			Name:                    "Stablecoin Depeg",
			Severity:                SeverityHigh,
			Probability:             0.08,
			MarketShockPct:          -30,
			VolatilityIncreasePct:   180,
			CorrelationBreakdownPct: 85,
			LiquidityShockPct:       -45,
		},
		{
			ID:                      "regulatory_crackdown",
			Name:                    "Regulatory Crackdown",
			Severity:                SeverityMedium,
			Probability:             0.20,
			MarketShockPct:          -25,
			VolatilityIncreasePct:   60,
			CorrelationBreakdownPct: 30,
			LiquidityShockPct:       -20,
		},
	}
}
