// Package stress applies named shock scenarios to portfolio positions and
// reports post-shock losses, VaR breaches and qualitative risk levels.
package stress

import (
	"time"

	"github.com/aristath/riskwatch/internal/domain"
)

// Severity grades how extreme a scenario is
type Severity string

const (
	SeverityLow     Severity = "LOW"
	SeverityMedium  Severity = "MEDIUM"
	SeverityHigh    Severity = "HIGH"
	SeverityExtreme Severity = "EXTREME"
)

// Scenario is a named shock applied to every position in the portfolio.
// Static reference data, never derived from market state.
type Scenario struct {
	ID                      string   `json:"id"`
	Name                    string   `json:"name"`
	Severity                Severity `json:"severity"`
	Probability             float64  `json:"probability"` // (0, 1]
	MarketShockPct          float64  `json:"market_shock_pct"`          // e.g. -45 = 45% drop
	VolatilityIncreasePct   float64  `json:"volatility_increase_pct"`   // e.g. 150 = volatility 2.5x
	CorrelationBreakdownPct float64  `json:"correlation_breakdown_pct"` // diversification lost under stress
	LiquidityShockPct       float64  `json:"liquidity_shock_pct"`       // additional exit-cost drag
}

// Result is the outcome of running one scenario against the portfolio
type Result struct {
	ScenarioID           string           `json:"scenario_id"`
	ScenarioName         string           `json:"scenario_name"`
	PortfolioValueBefore float64          `json:"portfolio_value_before"`
	PortfolioValueAfter  float64          `json:"portfolio_value_after"`
	LossAmount           float64          `json:"loss_amount"` // always >= 0
	LossPercentage       float64          `json:"loss_percentage"`
	VaRBreach            bool             `json:"var_breach"`
	MaxDrawdown          float64          `json:"max_drawdown"`
	RecoveryTimeDays     int              `json:"recovery_time_days"`
	RiskLevel            domain.RiskLevel `json:"risk_level"`
	Timestamp            time.Time        `json:"timestamp"`
}
