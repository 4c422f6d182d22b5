package risk

import (
	"math"
	"math/rand"
	"testing"

	"github.com/aristath/riskwatch/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testReturns generates a reproducible daily return series standardized to
// the exact sample mean and stddev requested, so assertions against the
// closed-form parametric figures are not subject to sampling noise.
func testReturns(t *testing.T, n int, mean, stddev float64, seed int64) []float64 {
	t.Helper()

	rng := rand.New(rand.NewSource(seed))
	raw := make([]float64, n)
	for i := range raw {
		raw[i] = rng.NormFloat64()
	}

	var sum float64
	for _, v := range raw {
		sum += v
	}
	rawMean := sum / float64(n)

	var sqSum float64
	for _, v := range raw {
		d := v - rawMean
		sqSum += d * d
	}
	rawStd := math.Sqrt(sqSum / float64(n-1))

	returns := make([]float64, n)
	for i, v := range raw {
		returns[i] = mean + (v-rawMean)/rawStd*stddev
	}
	return returns
}

func testCalculator(cfg CalculatorConfig) *Calculator {
	return NewCalculator(cfg, zerolog.Nop())
}

func TestVaRInputValidation(t *testing.T) {
	valid := VaRInput{
		PortfolioValue:  100000,
		Returns:         []float64{0.01, -0.02, 0.005},
		ConfidenceLevel: 0.95,
		TimeHorizonDays: 1,
	}

	tests := []struct {
		name   string
		mutate func(*VaRInput)
	}{
		{"zero portfolio value", func(in *VaRInput) { in.PortfolioValue = 0 }},
		{"negative portfolio value", func(in *VaRInput) { in.PortfolioValue = -1 }},
		{"empty returns", func(in *VaRInput) { in.Returns = nil }},
		{"NaN return", func(in *VaRInput) { in.Returns = []float64{0.01, math.NaN()} }},
		{"infinite return", func(in *VaRInput) { in.Returns = []float64{0.01, math.Inf(1)} }},
		{"confidence at zero", func(in *VaRInput) { in.ConfidenceLevel = 0 }},
		{"confidence at one", func(in *VaRInput) { in.ConfidenceLevel = 1 }},
		{"zero horizon", func(in *VaRInput) { in.TimeHorizonDays = 0 }},
	}

	calc := testCalculator(CalculatorConfig{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)

			_, err := calc.HistoricalVaR(in)
			require.Error(t, err)
			assert.True(t, domain.IsValidationError(err), "expected a validation error, got %v", err)
		})
	}

	t.Run("valid input passes", func(t *testing.T) {
		_, err := calc.HistoricalVaR(valid)
		assert.NoError(t, err)
	})
}

// Historical VaR must be non-decreasing as confidence tightens: the 99%
// quantile sits deeper in the loss tail than the 95% or 90% quantile.
func TestHistoricalVaRMonotonicInConfidence(t *testing.T) {
	calc := testCalculator(CalculatorConfig{})
	returns := testReturns(t, 252, 0.0005, 0.02, 11)

	input := VaRInput{
		PortfolioValue:  100000,
		Returns:         returns,
		TimeHorizonDays: 1,
	}

	prev := 0.0
	for _, confidence := range []float64{0.90, 0.95, 0.99} {
		input.ConfidenceLevel = confidence
		result, err := calc.HistoricalVaR(input)
		require.NoError(t, err)

		assert.GreaterOrEqual(t, result.VaR, prev,
			"VaR at %.2f confidence should not be below VaR at the previous level", confidence)
		prev = result.VaR
	}
}

func TestHistoricalVaRScalesWithHorizon(t *testing.T) {
	calc := testCalculator(CalculatorConfig{})
	returns := testReturns(t, 252, 0.0, 0.02, 3)

	oneDay, err := calc.HistoricalVaR(VaRInput{
		PortfolioValue: 100000, Returns: returns, ConfidenceLevel: 0.95, TimeHorizonDays: 1,
	})
	require.NoError(t, err)

	tenDay, err := calc.HistoricalVaR(VaRInput{
		PortfolioValue: 100000, Returns: returns, ConfidenceLevel: 0.95, TimeHorizonDays: 10,
	})
	require.NoError(t, err)

	assert.InDelta(t, oneDay.VaR*math.Sqrt(10), tenDay.VaR, 1e-9)
}

// Concrete case from the parametric model: 252 returns with stddev 0.02 on a
// 100k portfolio at 95% confidence give VaR ~= 1.645 * 0.02 * 100000 = 3290,
// within sampling tolerance of the generated series.
func TestParametricVaRConcreteCase(t *testing.T) {
	calc := testCalculator(CalculatorConfig{})
	returns := testReturns(t, 252, 0.001, 0.02, 42)

	result, err := calc.ParametricVaR(VaRInput{
		PortfolioValue:  100000,
		Returns:         returns,
		ConfidenceLevel: 0.95,
		TimeHorizonDays: 1,
	})
	require.NoError(t, err)

	assert.Equal(t, MethodParametric, result.Method)
	assert.InEpsilon(t, 3290.0, result.VaR, 0.05)
}

func TestParametricVaRUnlistedConfidenceFallsBack(t *testing.T) {
	calc := testCalculator(CalculatorConfig{})
	returns := testReturns(t, 252, 0.0, 0.02, 5)

	// 0.97 has no z-table entry; it must fall back to the 95% z-score.
	at97, err := calc.ParametricVaR(VaRInput{
		PortfolioValue: 100000, Returns: returns, ConfidenceLevel: 0.97, TimeHorizonDays: 1,
	})
	require.NoError(t, err)

	at95, err := calc.ParametricVaR(VaRInput{
		PortfolioValue: 100000, Returns: returns, ConfidenceLevel: 0.95, TimeHorizonDays: 1,
	})
	require.NoError(t, err)

	assert.InDelta(t, at95.VaR, at97.VaR, 1e-9)
}

func TestMonteCarloVaRReproducibleWithSeed(t *testing.T) {
	returns := testReturns(t, 252, 0.001, 0.02, 9)
	input := VaRInput{
		PortfolioValue:  100000,
		Returns:         returns,
		ConfidenceLevel: 0.95,
		TimeHorizonDays: 1,
	}

	first, err := testCalculator(CalculatorConfig{
		Rand: rand.New(rand.NewSource(1234)),
	}).MonteCarloVaR(input)
	require.NoError(t, err)

	second, err := testCalculator(CalculatorConfig{
		Rand: rand.New(rand.NewSource(1234)),
	}).MonteCarloVaR(input)
	require.NoError(t, err)

	assert.Equal(t, first.VaR, second.VaR, "same seed must produce identical simulations")
}

// Monte Carlo draws from the same moments as the parametric model, so with
// enough simulations the two estimates should land close together.
func TestMonteCarloVaRAgreesWithParametric(t *testing.T) {
	calc := testCalculator(CalculatorConfig{
		Simulations: 50000,
		Rand:        rand.New(rand.NewSource(77)),
	})
	returns := testReturns(t, 252, 0.001, 0.02, 42)

	input := VaRInput{
		PortfolioValue:  100000,
		Returns:         returns,
		ConfidenceLevel: 0.95,
		TimeHorizonDays: 1,
	}

	mc, err := calc.MonteCarloVaR(input)
	require.NoError(t, err)

	parametric, err := calc.ParametricVaR(input)
	require.NoError(t, err)

	assert.InEpsilon(t, parametric.VaR, mc.VaR, 0.10)
}

// Expected shortfall averages the worse-or-equal tail, so it can never be
// smaller than VaR at the same confidence level.
func TestExpectedShortfallDominatesVaR(t *testing.T) {
	calc := testCalculator(CalculatorConfig{})

	for _, seed := range []int64{1, 2, 3, 4, 5} {
		returns := testReturns(t, 252, 0.0005, 0.02, seed)

		for _, confidence := range []float64{0.90, 0.95, 0.99} {
			es, err := calc.ExpectedShortfall(100000, returns, confidence)
			require.NoError(t, err)

			v, err := calc.HistoricalVaR(VaRInput{
				PortfolioValue:  100000,
				Returns:         returns,
				ConfidenceLevel: confidence,
				TimeHorizonDays: 1,
			})
			require.NoError(t, err)

			assert.GreaterOrEqual(t, es, v.VaR,
				"seed %d confidence %.2f: ES must dominate VaR", seed, confidence)
		}
	}
}

func TestCalculateAll(t *testing.T) {
	calc := testCalculator(CalculatorConfig{
		Simulations: 2000,
		Rand:        rand.New(rand.NewSource(8)),
	})
	returns := testReturns(t, 252, 0.001, 0.02, 21)

	all, err := calc.CalculateAll(VaRInput{
		PortfolioValue:  100000,
		Returns:         returns,
		ConfidenceLevel: 0.95,
		TimeHorizonDays: 1,
	})
	require.NoError(t, err)

	assert.Equal(t, MethodHistorical, all.Historical.Method)
	assert.Equal(t, MethodParametric, all.Parametric.Method)
	assert.Equal(t, MethodMonteCarlo, all.MonteCarlo.Method)
	assert.Greater(t, all.Historical.VaR, 0.0)
	assert.Greater(t, all.Parametric.VaR, 0.0)
	assert.Greater(t, all.MonteCarlo.VaR, 0.0)
	assert.GreaterOrEqual(t, all.ExpectedShortfall, all.Historical.VaR)
}

func TestVarIndex(t *testing.T) {
	tests := []struct {
		n          int
		confidence float64
		want       int
	}{
		{100, 0.95, 5},
		{100, 0.99, 1},
		{252, 0.95, 12},
		{1, 0.95, 0},
		{2, 0.99, 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, varIndex(tt.n, tt.confidence),
			"varIndex(%d, %.3f)", tt.n, tt.confidence)
	}
}
