package scheduler

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/aristath/riskwatch/internal/domain"
	"github.com/aristath/riskwatch/internal/modules/alerts"
	"github.com/aristath/riskwatch/internal/modules/risk"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubOwners struct {
	owners []string
}

func (s stubOwners) ActiveOwners() ([]string, error) { return s.owners, nil }

type stubPositions map[string][]domain.Position

func (s stubPositions) GetPositions(owner string) ([]domain.Position, error) {
	return s[owner], nil
}

type stubReturns struct {
	series []float64
	err    error
}

func (s stubReturns) GetReturns(owner, assetID string, limit int) ([]float64, error) {
	return s.series, s.err
}

func sweepService() *risk.Service {
	calc := risk.NewCalculator(risk.CalculatorConfig{
		Simulations: 500,
		Rand:        rand.New(rand.NewSource(7)),
	}, zerolog.Nop())
	return risk.NewService(calc, risk.ServiceConfig{}, zerolog.Nop())
}

// choppyReturns alternates +-5% daily, which annualizes to roughly 79%
// volatility and grinds out a slow drawdown. Both breach the default alert
// thresholds.
func choppyReturns(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		if i%2 == 0 {
			out[i] = -0.05
		} else {
			out[i] = 0.05
		}
	}
	return out
}

func TestRiskSweepTriggersAlerts(t *testing.T) {
	alertEngine := alerts.NewEngine(alerts.EngineConfig{}, nil, nil, zerolog.Nop())

	job := NewRiskSweepJob(RiskSweepConfig{
		Owners: stubOwners{owners: []string{"user-1"}},
		Positions: stubPositions{
			"user-1": {{AssetID: "BTC", Amount: 1, AvgBuyPrice: 50000}},
		},
		Returns:     stubReturns{series: choppyReturns(252)},
		Service:     sweepService(),
		Aggregator:  risk.NewAggregator(zerolog.Nop()),
		AlertEngine: alertEngine,
		Log:         zerolog.Nop(),
	})

	require.NoError(t, job.Run())

	triggered := alertEngine.AlertsForOwner("user-1", 10)
	require.NotEmpty(t, triggered, "choppy returns must breach at least one default threshold")

	categories := map[alerts.Category]bool{}
	for _, a := range triggered {
		categories[a.Category] = true
	}
	assert.True(t, categories[alerts.CategoryVolatilitySpike], "annualized volatility near 79 is over the default threshold of 60")
}

func TestRiskSweepSkipsOwnerWithoutPositions(t *testing.T) {
	alertEngine := alerts.NewEngine(alerts.EngineConfig{}, nil, nil, zerolog.Nop())

	job := NewRiskSweepJob(RiskSweepConfig{
		Owners:      stubOwners{owners: []string{"empty-user"}},
		Positions:   stubPositions{},
		Returns:     stubReturns{series: choppyReturns(252)},
		Service:     sweepService(),
		Aggregator:  risk.NewAggregator(zerolog.Nop()),
		AlertEngine: alertEngine,
		Log:         zerolog.Nop(),
	})

	require.NoError(t, job.Run())
	assert.Empty(t, alertEngine.RecentAlerts(10))
}

func TestRiskSweepContinuesPastFailingOwner(t *testing.T) {
	job := NewRiskSweepJob(RiskSweepConfig{
		Owners: stubOwners{owners: []string{"broken", "also-broken"}},
		Positions: stubPositions{
			"broken":      {{AssetID: "BTC", Amount: 1, AvgBuyPrice: 50000}},
			"also-broken": {{AssetID: "ETH", Amount: 2, AvgBuyPrice: 2500}},
		},
		Returns:    stubReturns{err: errors.New("feed unavailable")},
		Service:    sweepService(),
		Aggregator: risk.NewAggregator(zerolog.Nop()),
		Log:        zerolog.Nop(),
	})

	// Per-owner failures are logged and skipped, never returned
	require.NoError(t, job.Run())
}
