package risk

import (
	"math"

	"github.com/aristath/riskwatch/internal/domain"
	"github.com/rs/zerolog"
)

// DiversificationPerPosition is the per-position contribution to the
// diversification score. A deliberately simple position-count heuristic;
// a correlation-aware replacement needs calibration with a domain expert.
const DiversificationPerPosition = 20

// PositionRisk pairs a position with its per-asset risk snapshot
type PositionRisk struct {
	Position domain.Position `json:"position"`
	Metric   *Metric         `json:"metric,omitempty"`
}

// PortfolioRisk is the value-weighted portfolio-level risk summary
type PortfolioRisk struct {
	TotalValue           float64          `json:"total_value"`
	VaR95                float64          `json:"var_95"`
	VaR99                float64          `json:"var_99"`
	Volatility           float64          `json:"volatility"`
	SharpeRatio          float64          `json:"sharpe_ratio"`
	MaxDrawdown          float64          `json:"max_drawdown"`
	RiskScore            float64          `json:"risk_score"`
	RiskLevel            domain.RiskLevel `json:"risk_level"`
	DiversificationScore float64          `json:"diversification_score"`
	PositionCount        int              `json:"position_count"`
}

// Aggregator rolls per-position risk metrics up into a portfolio summary
type Aggregator struct {
	log zerolog.Logger
}

// NewAggregator creates a portfolio risk aggregator
func NewAggregator(log zerolog.Logger) *Aggregator {
	return &Aggregator{
		log: log.With().Str("service", "risk_aggregator").Logger(),
	}
}

// Aggregate combines per-position metrics into a portfolio-level summary.
//
// VaR, volatility, sharpe and risk score are value-weighted; max drawdown is
// the worst across positions (conservative, not averaged). Positions without
// a usable metric are skipped with a logged warning and never abort the rest
// of the batch. Aggregating N identical positions reproduces that position's
// own risk values exactly.
func (a *Aggregator) Aggregate(positions []PositionRisk) PortfolioRisk {
	included := make([]PositionRisk, 0, len(positions))
	totalValue := 0.0

	for _, pr := range positions {
		if pr.Metric == nil {
			a.log.Warn().
				Str("asset_id", pr.Position.AssetID).
				Msg("Position has no risk metric, skipping in aggregation")
			continue
		}
		if err := pr.Position.Validate(); err != nil {
			a.log.Warn().
				Err(err).
				Str("asset_id", pr.Position.AssetID).
				Msg("Malformed position, skipping in aggregation")
			continue
		}

		included = append(included, pr)
		totalValue += pr.Position.Value()
	}

	result := PortfolioRisk{
		TotalValue:    totalValue,
		PositionCount: len(included),
		RiskLevel:     domain.RiskLevelLow,
	}
	if len(included) == 0 || totalValue <= 0 {
		return result
	}

	for _, pr := range included {
		weight := pr.Position.Value() / totalValue
		m := pr.Metric

		result.VaR95 += weight * m.VaR95
		result.VaR99 += weight * m.VaR99
		result.Volatility += weight * m.Volatility
		result.SharpeRatio += weight * m.SharpeRatio
		result.RiskScore += weight * m.RiskScore

		if m.MaxDrawdown > result.MaxDrawdown {
			result.MaxDrawdown = m.MaxDrawdown
		}
	}

	result.RiskScore = clampScore(result.RiskScore)
	result.RiskLevel = RiskLevelFromScore(result.RiskScore)
	result.DiversificationScore = math.Min(100, float64(len(included))*DiversificationPerPosition)

	return result
}

// clampScore bounds a risk score to [0, 100]
func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
