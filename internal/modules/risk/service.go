package risk

import (
	"math"
	"time"

	"github.com/aristath/riskwatch/pkg/formulas"
	"github.com/rs/zerolog"
)

// ServiceConfig configures metric construction
type ServiceConfig struct {
	// RiskFreeRateAnnual feeds the Sharpe ratio (default 0.02)
	RiskFreeRateAnnual float64
	// TrendWindow is the rolling window (periods) for the volatility series
	// behind the risk trend classification (default 30)
	TrendWindow int
	// TrendTolerance is the relative EMA change below which the trend counts
	// as stable (default 0.05)
	TrendTolerance float64
}

func (c ServiceConfig) withDefaults() ServiceConfig {
	if c.RiskFreeRateAnnual == 0 {
		c.RiskFreeRateAnnual = 0.02
	}
	if c.TrendWindow == 0 {
		c.TrendWindow = 30
	}
	if c.TrendTolerance == 0 {
		c.TrendTolerance = 0.05
	}
	return c
}

// Service builds full risk metric snapshots from raw return series by
// combining the VaR calculator with the statistical formulas package.
type Service struct {
	calc *Calculator
	cfg  ServiceConfig
	log  zerolog.Logger
}

// NewService creates a risk metric service
func NewService(calc *Calculator, cfg ServiceConfig, log zerolog.Logger) *Service {
	return &Service{
		calc: calc,
		cfg:  cfg.withDefaults(),
		log:  log.With().Str("service", "risk").Logger(),
	}
}

// BuildMetric computes a complete risk snapshot for a portfolio (or single
// asset) from its return series. marketReturns may be nil; beta then falls
// back to the market-neutral default of 1.
func (s *Service) BuildMetric(portfolioValue float64, returns, marketReturns []float64) (*Metric, error) {
	base := VaRInput{
		PortfolioValue:  portfolioValue,
		Returns:         returns,
		ConfidenceLevel: 0.95,
		TimeHorizonDays: 1,
	}
	if err := base.Validate(); err != nil {
		return nil, err
	}

	hist95, err := s.calc.HistoricalVaR(base)
	if err != nil {
		return nil, err
	}

	in99 := base
	in99.ConfidenceLevel = 0.99
	hist99, err := s.calc.HistoricalVaR(in99)
	if err != nil {
		return nil, err
	}

	param95, err := s.calc.ParametricVaR(base)
	if err != nil {
		return nil, err
	}

	mc95, err := s.calc.MonteCarloVaR(base)
	if err != nil {
		return nil, err
	}

	es95, err := s.calc.ExpectedShortfall(portfolioValue, returns, 0.95)
	if err != nil {
		return nil, err
	}
	es99, err := s.calc.ExpectedShortfall(portfolioValue, returns, 0.99)
	if err != nil {
		return nil, err
	}

	dailyVol := formulas.SampleVolatility(returns, false)
	annualVol := formulas.SampleVolatility(returns, true)
	drawdown := formulas.MaxDrawdown(returns)
	sharpe := formulas.SharpeRatio(returns, s.cfg.RiskFreeRateAnnual)
	beta := formulas.Beta(returns, marketReturns)

	score := s.riskScore(annualVol, drawdown.MaxDrawdown, hist95.VaR/portfolioValue)

	m := &Metric{
		VaR95:                      hist95.VaR,
		VaR99:                      hist99.VaR,
		VaRHistorical:              hist95.VaR,
		VaRParametric:              param95.VaR,
		VaRMonteCarlo:              mc95.VaR,
		ExpectedShortfall95:        es95,
		ExpectedShortfall99:        es99,
		Volatility:                 annualVol,
		DailyVolatility:            dailyVol,
		MaxDrawdown:                drawdown.MaxDrawdown,
		MaxDrawdownDurationPeriods: drawdown.DurationPeriods,
		SharpeRatio:                sharpe,
		Beta:                       beta,
		RiskScore:                  score,
		RiskLevel:                  RiskLevelFromScore(score),
		RiskTrend:                  string(s.riskTrend(returns)),
		Confidence:                 sampleConfidence(len(returns)),
		Timestamp:                  time.Now().UTC(),
	}

	s.log.Debug().
		Float64("var_95", m.VaR95).
		Float64("risk_score", m.RiskScore).
		Str("risk_level", string(m.RiskLevel)).
		Int("sample_size", len(returns)).
		Msg("Risk metric computed")

	return m, nil
}

// riskScore combines volatility, drawdown and relative VaR into a 0-100
// score. The component caps keep any single driver from saturating the
// scale on its own.
func (s *Service) riskScore(annualVol, maxDrawdown, var95Fraction float64) float64 {
	volScore := math.Min(40, annualVol*100*0.5)    // 80% annual vol saturates at 40
	ddScore := math.Min(30, maxDrawdown*100*0.6)   // 50% drawdown saturates at 30
	varScore := math.Min(30, var95Fraction*100*6)  // 5% daily VaR saturates at 30

	return clampScore(volScore + ddScore + varScore)
}

// riskTrend classifies the direction of rolling volatility
func (s *Service) riskTrend(returns []float64) formulas.Trend {
	series := formulas.RollingVolatility(returns, s.cfg.TrendWindow)
	if series == nil {
		return formulas.TrendStable
	}
	return formulas.ClassifyTrend(series, 5, s.cfg.TrendTolerance)
}

// sampleConfidence reflects data sufficiency in [0, 1]: a full trading year
// of observations earns full confidence, shorter series proportionally less.
func sampleConfidence(n int) float64 {
	return math.Min(1, float64(n)/formulas.TradingDaysPerYear)
}
