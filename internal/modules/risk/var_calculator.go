package risk

import (
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/aristath/riskwatch/internal/domain"
	"github.com/aristath/riskwatch/pkg/formulas"
	"github.com/rs/zerolog"
)

// DefaultSimulations is the Monte Carlo iteration count used when the
// configuration does not override it.
const DefaultSimulations = 10000

// zScores maps standard confidence levels to normal quantiles.
// Unlisted levels fall back to the 95% z-score with a logged warning.
var zScores = map[float64]float64{
	0.90:  1.28,
	0.95:  1.645,
	0.99:  2.33,
	0.995: 2.58,
	0.999: 3.09,
}

const defaultZScore = 1.645

// CalculatorConfig configures a Calculator
type CalculatorConfig struct {
	// Simulations is the Monte Carlo iteration count (default 10000)
	Simulations int
	// Rand is the pseudo-random source for simulation draws. Injectable so
	// simulation runs are reproducible in tests and audits; defaults to a
	// time-seeded source.
	Rand *rand.Rand
}

// Calculator computes Value-at-Risk under historical, parametric and
// Monte Carlo models, plus Expected Shortfall. It holds no state beyond its
// PRNG: all methods are pure given the same random source. Monte Carlo runs
// sharing one Calculator must not be invoked concurrently.
type Calculator struct {
	simulations int
	rng         *rand.Rand
	log         zerolog.Logger
}

// NewCalculator creates a VaR calculator
func NewCalculator(cfg CalculatorConfig, log zerolog.Logger) *Calculator {
	sims := cfg.Simulations
	if sims <= 0 {
		sims = DefaultSimulations
	}

	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &Calculator{
		simulations: sims,
		rng:         rng,
		log:         log.With().Str("service", "var_calculator").Logger(),
	}
}

// HistoricalVaR computes VaR from the empirical return distribution.
// No distributional assumption; accuracy is bounded by sample size
// (at least MinRecommendedSampleSize observations recommended).
func (c *Calculator) HistoricalVaR(input VaRInput) (*VaRResult, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	sorted := append([]float64(nil), input.Returns...)
	sort.Float64s(sorted)

	quantile := quantileReturn(sorted, input.ConfidenceLevel)
	return c.buildResult(input, math.Abs(quantile), MethodHistorical)
}

// ParametricVaR computes VaR assuming approximately normal returns
// (a documented limitation of the model, not a defect):
//
//	VaR = |z| × σ × portfolioValue × √timeHorizon
func (c *Calculator) ParametricVaR(input VaRInput) (*VaRResult, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	sigma := formulas.StdDev(input.Returns)
	z := c.zScore(input.ConfidenceLevel)

	return c.buildResult(input, math.Abs(z)*sigma, MethodParametric)
}

// MonteCarloVaR estimates VaR by simulating normal return draws with the
// sample mean and standard deviation, via the Box-Muller transform, then
// extracting the same empirical quantile as HistoricalVaR.
func (c *Calculator) MonteCarloVaR(input VaRInput) (*VaRResult, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	mu := formulas.Mean(input.Returns)
	sigma := formulas.StdDev(input.Returns)

	simulated := make([]float64, c.simulations)
	for i := range simulated {
		simulated[i] = mu + c.normalDraw()*sigma
	}
	sort.Float64s(simulated)

	quantile := quantileReturn(simulated, input.ConfidenceLevel)
	return c.buildResult(input, math.Abs(quantile), MethodMonteCarlo)
}

// ExpectedShortfall computes the average loss in the tail at or below the
// VaR quantile (inclusive):
//
//	ES = |mean(tail)| × portfolioValue
//
// ES is never smaller than VaR at the same confidence level, since it
// averages a worse-or-equal subset of the distribution.
func (c *Calculator) ExpectedShortfall(portfolioValue float64, returns []float64, confidenceLevel float64) (float64, error) {
	input := VaRInput{
		PortfolioValue:  portfolioValue,
		Returns:         returns,
		ConfidenceLevel: confidenceLevel,
		TimeHorizonDays: 1,
	}
	if err := input.Validate(); err != nil {
		return 0, err
	}

	sorted := append([]float64(nil), returns...)
	sort.Float64s(sorted)

	idx := varIndex(len(sorted), confidenceLevel)
	tail := sorted[:idx+1]

	es := math.Abs(formulas.Mean(tail)) * portfolioValue
	if err := domain.GuardFinite("expected_shortfall", es); err != nil {
		return 0, err
	}
	return es, nil
}

// CalculateAll bundles all three VaR models plus expected shortfall for
// side-by-side comparison.
func (c *Calculator) CalculateAll(input VaRInput) (*AllVaRMetrics, error) {
	historical, err := c.HistoricalVaR(input)
	if err != nil {
		return nil, err
	}

	parametric, err := c.ParametricVaR(input)
	if err != nil {
		return nil, err
	}

	monteCarlo, err := c.MonteCarloVaR(input)
	if err != nil {
		return nil, err
	}

	es, err := c.ExpectedShortfall(input.PortfolioValue, input.Returns, input.ConfidenceLevel)
	if err != nil {
		return nil, err
	}

	return &AllVaRMetrics{
		Historical:        *historical,
		Parametric:        *parametric,
		MonteCarlo:        *monteCarlo,
		ExpectedShortfall: es,
	}, nil
}

// buildResult scales a per-period loss fraction to the portfolio and horizon
// and applies the numeric guard before handing the figure to the caller.
func (c *Calculator) buildResult(input VaRInput, lossFraction float64, method VaRMethod) (*VaRResult, error) {
	value := lossFraction * input.PortfolioValue * math.Sqrt(float64(input.TimeHorizonDays))
	if err := domain.GuardFinite("var", value); err != nil {
		return nil, err
	}

	return &VaRResult{
		VaR:             value,
		ConfidenceLevel: input.ConfidenceLevel,
		TimeHorizonDays: input.TimeHorizonDays,
		Method:          method,
		CalculationDate: time.Now().UTC(),
	}, nil
}

// zScore looks up the normal quantile for a confidence level
func (c *Calculator) zScore(confidenceLevel float64) float64 {
	if z, ok := zScores[confidenceLevel]; ok {
		return z
	}

	c.log.Warn().
		Float64("confidence_level", confidenceLevel).
		Float64("default_z", defaultZScore).
		Msg("No z-score table entry for confidence level, using 95% default")
	return defaultZScore
}

// normalDraw generates a standard normal variate via the Box-Muller
// transform: z0 = sqrt(-2 ln U1) * cos(2π U2)
func (c *Calculator) normalDraw() float64 {
	u1 := c.rng.Float64()
	for u1 == 0 {
		u1 = c.rng.Float64()
	}
	u2 := c.rng.Float64()

	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}

// varIndex is the empirical quantile index: floor((1-confidence) * n)
func varIndex(n int, confidenceLevel float64) int {
	idx := int(math.Floor((1 - confidenceLevel) * float64(n)))
	if idx >= n {
		idx = n - 1
	}
	if idx < 0 {
		idx = 0
	}
	return idx
}

// quantileReturn extracts the sorted return at the VaR index, or 0 when the
// sample is too small to resolve the quantile.
func quantileReturn(sorted []float64, confidenceLevel float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	return sorted[varIndex(len(sorted), confidenceLevel)]
}
