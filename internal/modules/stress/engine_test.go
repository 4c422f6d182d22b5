package stress

import (
	"testing"

	"github.com/aristath/riskwatch/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }

func testEngine(cfg EngineConfig) *Engine {
	return NewEngine(cfg, zerolog.Nop())
}

func TestRunZeroShockScenarioIsLossless(t *testing.T) {
	engine := testEngine(EngineConfig{})
	engine.RegisterScenario(Scenario{
		ID:       "calm_waters",
		Name:     "No Shock",
		Severity: SeverityLow,
	})

	positions := []domain.Position{
		{AssetID: "BTC", Amount: 1, AvgBuyPrice: 10000, Volatility: floatPtr(45)},
	}

	results, err := engine.Run(positions, []string{"calm_waters"})
	require.NoError(t, err)
	require.Len(t, results, 1)

	res := results[0]
	assert.InDelta(t, 0, res.LossAmount, 1e-6)
	assert.InDelta(t, 0, res.LossPercentage, 1e-6)
	assert.False(t, res.VaRBreach)
	assert.Equal(t, domain.RiskLevelLow, res.RiskLevel)
	assert.InDelta(t, res.PortfolioValueBefore, res.PortfolioValueAfter, 1e-6)
}

func TestRunBlackSwanEvent(t *testing.T) {
	engine := testEngine(EngineConfig{})

	positions := []domain.Position{
		{AssetID: "BTC", Amount: 1, AvgBuyPrice: 10000, VaR95: floatPtr(500)},
	}

	results, err := engine.Run(positions, []string{"black_swan_event"})
	require.NoError(t, err)
	require.Len(t, results, 1)

	res := results[0]
	// -80% market shock plus the 0.3-weighted -10% liquidity drag = -83%
	assert.InDelta(t, -83, res.LossPercentage, 1e-9)
	assert.InDelta(t, 8300, res.LossAmount, 1e-9)
	assert.InDelta(t, 10000, res.PortfolioValueBefore, 1e-9)
	assert.InDelta(t, 1700, res.PortfolioValueAfter, 1e-9)
	assert.True(t, res.VaRBreach, "an 8300 loss dwarfs the 500 VaR budget")
	assert.Equal(t, domain.RiskLevelCritical, res.RiskLevel)
	assert.Equal(t, 548, res.RecoveryTimeDays)
	assert.False(t, res.Timestamp.IsZero())
}

func TestRunVolatilityAddOnWorsensLoss(t *testing.T) {
	engine := testEngine(EngineConfig{})

	plain := []domain.Position{
		{AssetID: "A", Amount: 1, AvgBuyPrice: 10000},
	}
	volatile := []domain.Position{
		{AssetID: "A", Amount: 1, AvgBuyPrice: 10000, Volatility: floatPtr(60)},
	}

	plainRes, err := engine.Run(plain, []string{"volatility_spike"})
	require.NoError(t, err)
	volatileRes, err := engine.Run(volatile, []string{"volatility_spike"})
	require.NoError(t, err)

	assert.Greater(t, volatileRes[0].LossAmount, plainRes[0].LossAmount,
		"a known-volatile position must lose more under a volatility scenario")
}

func TestRunUnknownScenarioLenient(t *testing.T) {
	engine := testEngine(EngineConfig{})

	positions := []domain.Position{
		{AssetID: "BTC", Amount: 1, AvgBuyPrice: 1000},
	}

	results, err := engine.Run(positions, []string{"no_such_scenario", "flash_crash"})
	require.NoError(t, err)
	require.Len(t, results, 1, "unknown IDs are dropped, known ones still run")
	assert.Equal(t, "flash_crash", results[0].ScenarioID)
}

func TestRunUnknownScenarioStrict(t *testing.T) {
	engine := testEngine(EngineConfig{StrictScenarios: true})

	positions := []domain.Position{
		{AssetID: "BTC", Amount: 1, AvgBuyPrice: 1000},
	}

	_, err := engine.Run(positions, []string{"no_such_scenario", "flash_crash"})
	require.Error(t, err)
	assert.True(t, domain.IsValidationError(err))
}

func TestRunValidation(t *testing.T) {
	engine := testEngine(EngineConfig{})

	_, err := engine.Run(nil, []string{"flash_crash"})
	require.Error(t, err)
	assert.True(t, domain.IsValidationError(err), "empty portfolio")

	_, err = engine.Run([]domain.Position{{Amount: 1, AvgBuyPrice: 100}}, []string{"flash_crash"})
	require.Error(t, err)
	assert.True(t, domain.IsValidationError(err), "missing asset id")
}

func TestRunConfigurableWeights(t *testing.T) {
	light := testEngine(EngineConfig{LiquidityWeight: 0.1})
	heavy := testEngine(EngineConfig{LiquidityWeight: 0.9})

	positions := []domain.Position{
		{AssetID: "BTC", Amount: 1, AvgBuyPrice: 10000},
	}

	lightRes, err := light.Run(positions, []string{"liquidity_crisis"})
	require.NoError(t, err)
	heavyRes, err := heavy.Run(positions, []string{"liquidity_crisis"})
	require.NoError(t, err)

	assert.Greater(t, heavyRes[0].LossAmount, lightRes[0].LossAmount)
}

func TestRecoveryTimeBuckets(t *testing.T) {
	engine := testEngine(EngineConfig{})

	tests := []struct {
		lossPct  float64
		severity Severity
		want     int
	}{
		{-5, SeverityLow, 30},
		{-15, SeverityLow, 90},
		{-30, SeverityLow, 180},
		{-60, SeverityLow, 365},
		{-60, SeverityHigh, 438},
		{-60, SeverityExtreme, 548},
		{-15, SeverityExtreme, 135},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, engine.recoveryTime(tt.lossPct, tt.severity),
			"loss %.0f%% severity %s", tt.lossPct, tt.severity)
	}
}

func TestStressRiskLevel(t *testing.T) {
	tests := []struct {
		lossPct   float64
		varBreach bool
		want      domain.RiskLevel
	}{
		{0, false, domain.RiskLevelLow},
		{-9, false, domain.RiskLevelLow},
		{-11, false, domain.RiskLevelMedium},
		{-26, false, domain.RiskLevelHigh},
		{-51, false, domain.RiskLevelCritical},
		{-5, true, domain.RiskLevelCritical},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, stressRiskLevel(tt.lossPct, tt.varBreach),
			"loss %.0f%% breach=%v", tt.lossPct, tt.varBreach)
	}
}

func TestDefaultScenarioCatalog(t *testing.T) {
	engine := testEngine(EngineConfig{})
	scenarios := engine.Scenarios()

	require.Len(t, scenarios, 7)

	seen := make(map[string]bool)
	for _, s := range scenarios {
		seen[s.ID] = true
		assert.NotEmpty(t, s.Name)
		assert.Greater(t, s.Probability, 0.0)
		assert.LessOrEqual(t, s.Probability, 1.0)
		assert.Less(t, s.MarketShockPct, 0.0, "every built-in scenario is a downside shock")
	}
	for _, id := range []string{
		"market_crash_2008", "black_swan_event", "flash_crash",
		"liquidity_crisis", "volatility_spike", "stablecoin_depeg",
		"regulatory_crackdown",
	} {
		assert.True(t, seen[id], "missing scenario %s", id)
	}
}
