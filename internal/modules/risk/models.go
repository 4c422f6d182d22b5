package risk

import (
	"time"

	"github.com/aristath/riskwatch/internal/domain"
	"github.com/aristath/riskwatch/pkg/formulas"
)

// VaRMethod identifies the statistical model behind a VaR figure
type VaRMethod string

const (
	MethodHistorical VaRMethod = "Historical"
	MethodParametric VaRMethod = "Parametric"
	MethodMonteCarlo VaRMethod = "MonteCarlo"
)

// MinRecommendedSampleSize is the minimum return-series length below which
// the empirical quantile of historical VaR becomes unreliable. Shorter series
// are still accepted; the reduced accuracy is reflected in the metric's
// confidence field rather than rejected.
const MinRecommendedSampleSize = 30

// VaRInput holds the validated inputs shared by all VaR models
type VaRInput struct {
	PortfolioValue  float64   `json:"portfolio_value"`
	Returns         []float64 `json:"returns"`
	ConfidenceLevel float64   `json:"confidence_level"`
	TimeHorizonDays int       `json:"time_horizon_days"`
}

// Validate checks the input against the calculator's contract. Violations
// are fatal and returned as a ValidationError.
func (in VaRInput) Validate() error {
	if in.PortfolioValue <= 0 {
		return domain.NewValidationError("portfolio_value", "must be positive")
	}
	if err := domain.GuardFinite("portfolio_value", in.PortfolioValue); err != nil {
		return err
	}
	if len(in.Returns) == 0 {
		return domain.NewValidationError("returns", "must not be empty")
	}
	for _, r := range in.Returns {
		if !formulas.IsFinite(r) {
			return domain.NewValidationError("returns", "contains a non-finite value")
		}
	}
	if in.ConfidenceLevel <= 0 || in.ConfidenceLevel >= 1 {
		return domain.NewValidationError("confidence_level", "must be in (0, 1)")
	}
	if in.TimeHorizonDays <= 0 {
		return domain.NewValidationError("time_horizon_days", "must be positive")
	}
	return nil
}

// VaRResult is a single VaR figure plus the parameters that produced it
type VaRResult struct {
	VaR             float64   `json:"var"`
	ConfidenceLevel float64   `json:"confidence_level"`
	TimeHorizonDays int       `json:"time_horizon"`
	Method          VaRMethod `json:"method"`
	CalculationDate time.Time `json:"calculation_date"`
}

// AllVaRMetrics bundles the three VaR models plus expected shortfall for
// side-by-side comparison at a single confidence level.
type AllVaRMetrics struct {
	Historical        VaRResult `json:"historical"`
	Parametric        VaRResult `json:"parametric"`
	MonteCarlo        VaRResult `json:"monte_carlo"`
	ExpectedShortfall float64   `json:"expected_shortfall"`
}

// Metric is a full portfolio risk snapshot. Immutable once produced;
// later computations supersede it rather than mutate it.
type Metric struct {
	VaR95                      float64          `json:"var_95" msgpack:"var_95"`
	VaR99                      float64          `json:"var_99" msgpack:"var_99"`
	VaRHistorical              float64          `json:"var_historical" msgpack:"var_historical"`
	VaRParametric              float64          `json:"var_parametric" msgpack:"var_parametric"`
	VaRMonteCarlo              float64          `json:"var_monte_carlo" msgpack:"var_monte_carlo"`
	ExpectedShortfall95        float64          `json:"expected_shortfall_95" msgpack:"expected_shortfall_95"`
	ExpectedShortfall99        float64          `json:"expected_shortfall_99" msgpack:"expected_shortfall_99"`
	Volatility                 float64          `json:"volatility" msgpack:"volatility"` // Annualized, fractional
	DailyVolatility            float64          `json:"daily_volatility" msgpack:"daily_volatility"`
	MaxDrawdown                float64          `json:"max_drawdown" msgpack:"max_drawdown"`
	MaxDrawdownDurationPeriods int              `json:"max_drawdown_duration_periods" msgpack:"max_drawdown_duration_periods"`
	SharpeRatio                float64          `json:"sharpe_ratio" msgpack:"sharpe_ratio"`
	Beta                       float64          `json:"beta" msgpack:"beta"`
	RiskLevel                  domain.RiskLevel `json:"risk_level" msgpack:"risk_level"`
	RiskScore                  float64          `json:"risk_score" msgpack:"risk_score"` // 0-100
	RiskTrend                  string           `json:"risk_trend" msgpack:"risk_trend"`
	Confidence                 float64          `json:"confidence" msgpack:"confidence"` // 0-1, data sufficiency
	Timestamp                  time.Time        `json:"timestamp" msgpack:"timestamp"`
}

// RiskLevelFromScore maps a 0-100 risk score to its qualitative level
func RiskLevelFromScore(score float64) domain.RiskLevel {
	switch {
	case score < 30:
		return domain.RiskLevelLow
	case score < 50:
		return domain.RiskLevelMedium
	case score < 70:
		return domain.RiskLevelHigh
	default:
		return domain.RiskLevelCritical
	}
}
