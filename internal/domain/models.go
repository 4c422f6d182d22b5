package domain

// RiskLevel is a qualitative classification of portfolio risk
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "LOW"
	RiskLevelMedium   RiskLevel = "MEDIUM"
	RiskLevelHigh     RiskLevel = "HIGH"
	RiskLevelCritical RiskLevel = "CRITICAL"
)

// Rank orders risk levels for worst-case comparisons
func (l RiskLevel) Rank() int {
	switch l {
	case RiskLevelMedium:
		return 1
	case RiskLevelHigh:
		return 2
	case RiskLevelCritical:
		return 3
	default:
		return 0
	}
}

// Position represents a portfolio position as supplied by the caller.
// The engine never mutates positions; derived values are returned, not
// written back.
type Position struct {
	AssetID      string   `json:"asset_id"`
	Amount       float64  `json:"amount"`
	AvgBuyPrice  float64  `json:"avg_buy_price"`
	CurrentValue *float64 `json:"current_value,omitempty"` // Defaults to Amount * AvgBuyPrice
	Volatility   *float64 `json:"volatility,omitempty"`    // Annualized, percent (e.g. 45 = 45%)
	VaR95        *float64 `json:"var_95,omitempty"`        // Absolute 1-day 95% VaR for this position
}

// Value returns the position's current value, falling back to cost basis
// when no market value was supplied.
func (p Position) Value() float64 {
	if p.CurrentValue != nil {
		return *p.CurrentValue
	}
	return p.Amount * p.AvgBuyPrice
}

// Validate checks the position for malformed fields
func (p Position) Validate() error {
	if p.AssetID == "" {
		return NewValidationError("asset_id", "must not be empty")
	}
	if err := GuardFinite("amount", p.Amount); err != nil {
		return err
	}
	if err := GuardFinite("avg_buy_price", p.AvgBuyPrice); err != nil {
		return err
	}
	if p.CurrentValue != nil {
		if err := GuardFinite("current_value", *p.CurrentValue); err != nil {
			return err
		}
	}
	return nil
}

// PortfolioSnapshot is an ephemeral view over a set of positions,
// recomputed per request.
type PortfolioSnapshot struct {
	Positions  []Position `json:"positions"`
	TotalValue float64    `json:"total_value"`
}

// NewPortfolioSnapshot builds a snapshot with the derived total value
func NewPortfolioSnapshot(positions []Position) PortfolioSnapshot {
	total := 0.0
	for _, p := range positions {
		total += p.Value()
	}
	return PortfolioSnapshot{
		Positions:  positions,
		TotalValue: total,
	}
}
