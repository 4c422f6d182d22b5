// Package alerts evaluates computed risk and market values against
// per-owner thresholds and produces deduplicated alert records.
package alerts

import (
	"time"

	"github.com/aristath/riskwatch/internal/domain"
)

// Category identifies which rule family produced an alert
type Category string

const (
	CategoryVaRBreach         Category = "VAR_BREACH"
	CategoryVolatilitySpike   Category = "VOLATILITY_SPIKE"
	CategoryDrawdownWarning   Category = "DRAWDOWN_WARNING"
	CategoryConcentrationRisk Category = "CONCENTRATION_RISK"
	CategoryLiquidityRisk     Category = "LIQUIDITY_RISK"
	CategoryExchangeFlow      Category = "EXCHANGE_FLOW"
	CategoryFundingRate       Category = "FUNDING_RATE"
	CategorySentiment         Category = "SENTIMENT"
	CategoryDerivatives       Category = "DERIVATIVES"
	CategoryVolume            Category = "VOLUME"
	CategoryVolatility        Category = "VOLATILITY"
	CategorySystem            Category = "SYSTEM"
)

// Type is the notification tier of an alert
type Type string

const (
	TypeInfo     Type = "INFO"
	TypeWarning  Type = "WARNING"
	TypeCritical Type = "CRITICAL"
)

// Alert is a single triggered threshold breach. Lifecycle: created, then
// either acknowledged by the owner or purged once it ages past retention.
type Alert struct {
	ID           string                 `json:"id"`
	OwnerKey     string                 `json:"owner_key"`
	Category     Category               `json:"category"`
	Type         Type                   `json:"type"`
	Severity     domain.RiskLevel       `json:"severity"`
	Title        string                 `json:"title"`
	Message      string                 `json:"message"`
	AssetID      string                 `json:"asset_id,omitempty"`
	Threshold    float64                `json:"threshold"`
	CurrentValue float64                `json:"current_value"`
	TriggeredAt  time.Time              `json:"triggered_at"`
	Acknowledged bool                   `json:"acknowledged"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// RuleKey is the deduplication key for cooldown tracking. Two breaches of
// the same rule for the same owner share a key regardless of magnitude.
func (a Alert) RuleKey() string {
	return RuleKey(a.OwnerKey, a.Category, a.Type)
}

// RuleKey builds the cooldown map key for an (owner, category, type) rule
func RuleKey(ownerKey string, category Category, alertType Type) string {
	return ownerKey + "|" + string(category) + "|" + string(alertType)
}

// Config holds one owner's alerting thresholds. Threshold units are percent
// (e.g. VaRThresholdPct = 5 means "alert when 1-day VaR exceeds 5% of
// portfolio value").
type Config struct {
	VaRThresholdPct           float64 `json:"var_threshold_pct"`
	VolatilityThresholdPct    float64 `json:"volatility_threshold_pct"`
	DrawdownThresholdPct      float64 `json:"drawdown_threshold_pct"`
	ConcentrationThresholdPct float64 `json:"concentration_threshold_pct"`
	Enabled                   bool    `json:"enabled"`
}

// DefaultConfig returns the thresholds used for owners that never stored
// their own configuration.
func DefaultConfig() Config {
	return Config{
		VaRThresholdPct:           5,
		VolatilityThresholdPct:    60,
		DrawdownThresholdPct:      20,
		ConcentrationThresholdPct: 40,
		Enabled:                   true,
	}
}

// PositionSignal is the slice of a position that alert rules look at
type PositionSignal struct {
	AssetID       string   `json:"asset_id"`
	Value         float64  `json:"value"`
	VolatilityPct *float64 `json:"volatility_pct,omitempty"`
}

// MarketSignals carries raw market readings for the market-driven rules.
// Nil fields mean "no reading available"; those rules are skipped.
type MarketSignals struct {
	ExchangeNetFlowPct    *float64 `json:"exchange_net_flow_pct,omitempty"`   // net exchange inflow as % of daily volume
	FundingRatePct        *float64 `json:"funding_rate_pct,omitempty"`        // perpetual funding rate, percent per 8h
	SentimentScore        *float64 `json:"sentiment_score,omitempty"`         // -100 (extreme fear) .. 100 (extreme greed)
	OpenInterestChangePct *float64 `json:"open_interest_change_pct,omitempty"`
	VolumeChangePct       *float64 `json:"volume_change_pct,omitempty"` // vs trailing average
	VolatilityIndex       *float64 `json:"volatility_index,omitempty"`  // 0..100
}

// Signals is one evaluation batch for an owner. Nil pointer fields are
// readings the caller could not supply; the corresponding rules are skipped
// rather than failing the batch.
type Signals struct {
	PortfolioValue float64          `json:"portfolio_value"`
	VaRPct         *float64         `json:"var_pct,omitempty"`        // 1-day 95% VaR as % of portfolio value
	VolatilityPct  *float64         `json:"volatility_pct,omitempty"` // annualized, percent
	DrawdownPct    *float64         `json:"drawdown_pct,omitempty"`   // current drawdown, percent
	Positions      []PositionSignal `json:"positions,omitempty"`
	Market         *MarketSignals   `json:"market,omitempty"`
}

// Stats summarizes alert activity over the rolling 24h and 7d windows
type Stats struct {
	Total24h   int              `json:"total_24h"`
	Total7d    int              `json:"total_7d"`
	ByType     map[Type]int     `json:"by_type"`
	ByCategory map[Category]int `json:"by_category"`
	Unacked    int              `json:"unacknowledged"`
}
