package risk

import (
	"math/rand"
	"testing"

	"github.com/aristath/riskwatch/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testService() *Service {
	calc := NewCalculator(CalculatorConfig{
		Simulations: 2000,
		Rand:        rand.New(rand.NewSource(99)),
	}, zerolog.Nop())
	return NewService(calc, ServiceConfig{}, zerolog.Nop())
}

func TestBuildMetric(t *testing.T) {
	svc := testService()
	returns := testReturns(t, 252, 0.001, 0.02, 13)

	metric, err := svc.BuildMetric(100000, returns, nil)
	require.NoError(t, err)

	assert.Greater(t, metric.VaR95, 0.0)
	assert.GreaterOrEqual(t, metric.VaR99, metric.VaR95)
	assert.Equal(t, metric.VaRHistorical, metric.VaR95)
	assert.GreaterOrEqual(t, metric.ExpectedShortfall95, metric.VaR95)
	assert.GreaterOrEqual(t, metric.MaxDrawdown, 0.0)
	assert.LessOrEqual(t, metric.MaxDrawdown, 1.0)
	assert.InDelta(t, 0.02, metric.DailyVolatility, 1e-9)
	assert.Equal(t, 1.0, metric.Beta, "no market series defaults to market neutral")
	assert.GreaterOrEqual(t, metric.RiskScore, 0.0)
	assert.LessOrEqual(t, metric.RiskScore, 100.0)
	assert.Equal(t, RiskLevelFromScore(metric.RiskScore), metric.RiskLevel)
	assert.Equal(t, 1.0, metric.Confidence, "a full trading year earns full confidence")
	assert.False(t, metric.Timestamp.IsZero())
}

func TestBuildMetricShortSeriesLowersConfidence(t *testing.T) {
	svc := testService()
	returns := testReturns(t, 63, 0.0, 0.02, 4)

	metric, err := svc.BuildMetric(50000, returns, nil)
	require.NoError(t, err)

	assert.InDelta(t, 0.25, metric.Confidence, 1e-9)
}

func TestBuildMetricValidation(t *testing.T) {
	svc := testService()

	_, err := svc.BuildMetric(0, []float64{0.01}, nil)
	require.Error(t, err)
	assert.True(t, domain.IsValidationError(err))

	_, err = svc.BuildMetric(1000, nil, nil)
	require.Error(t, err)
	assert.True(t, domain.IsValidationError(err))
}

func TestBuildMetricBetaAgainstMarket(t *testing.T) {
	svc := testService()
	market := testReturns(t, 252, 0.0005, 0.015, 17)

	levered := make([]float64, len(market))
	for i, r := range market {
		levered[i] = 2 * r
	}

	metric, err := svc.BuildMetric(100000, levered, market)
	require.NoError(t, err)

	assert.InDelta(t, 2.0, metric.Beta, 1e-9)
}

func TestSampleConfidence(t *testing.T) {
	assert.InDelta(t, 1.0, sampleConfidence(252), 1e-12)
	assert.InDelta(t, 1.0, sampleConfidence(500), 1e-12)
	assert.InDelta(t, 0.5, sampleConfidence(126), 1e-12)
	assert.InDelta(t, 0.0, sampleConfidence(0), 1e-12)
}
