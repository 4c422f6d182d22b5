package alerts

import (
	"fmt"
	"math"

	"github.com/aristath/riskwatch/internal/domain"
	"github.com/rs/zerolog"
)

// Market-signal thresholds are engine-level calibration, not per-owner
// configuration like the portfolio thresholds in Config.
const (
	exchangeFlowThresholdPct = 15  // net exchange inflow as % of daily volume
	fundingRateThresholdPct  = 0.1 // per 8h funding period
	sentimentThreshold       = 75  // absolute score, either extreme
	openInterestThresholdPct = 25
	volumeChangeThresholdPct = 200
	volatilityIndexThreshold = 80
	severityEscalationRatio  = 1.5
)

// candidate is a rule breach before deduplication and persistence
type candidate struct {
	Category     Category
	Type         Type
	Severity     domain.RiskLevel
	Title        string
	Message      string
	AssetID      string
	Threshold    float64
	CurrentValue float64
	Metadata     map[string]interface{}
}

// evaluateRules runs the full rule battery against one owner's signals.
// A malformed reading skips its own rule with a warning and never aborts
// the rest of the batch.
func evaluateRules(cfg Config, signals Signals, log zerolog.Logger) []candidate {
	var out []candidate

	appendBreach := func(c candidate) {
		if err := domain.GuardFinite("current_value", c.CurrentValue); err != nil {
			log.Warn().Str("category", string(c.Category)).Err(err).Msg("Skipping rule with malformed reading")
			return
		}
		out = append(out, escalate(c))
	}

	if signals.VaRPct != nil && *signals.VaRPct > cfg.VaRThresholdPct {
		appendBreach(candidate{
			Category:     CategoryVaRBreach,
			Type:         TypeWarning,
			Severity:     domain.RiskLevelHigh,
			Title:        "Value-at-Risk threshold breached",
			Message:      fmt.Sprintf("1-day VaR is %.2f%% of portfolio value (threshold %.2f%%)", *signals.VaRPct, cfg.VaRThresholdPct),
			Threshold:    cfg.VaRThresholdPct,
			CurrentValue: *signals.VaRPct,
		})
	}

	if signals.VolatilityPct != nil && *signals.VolatilityPct > cfg.VolatilityThresholdPct {
		appendBreach(candidate{
			Category:     CategoryVolatilitySpike,
			Type:         TypeWarning,
			Severity:     domain.RiskLevelMedium,
			Title:        "Portfolio volatility spike",
			Message:      fmt.Sprintf("Annualized volatility at %.1f%% (threshold %.1f%%)", *signals.VolatilityPct, cfg.VolatilityThresholdPct),
			Threshold:    cfg.VolatilityThresholdPct,
			CurrentValue: *signals.VolatilityPct,
		})
	}

	if signals.DrawdownPct != nil && *signals.DrawdownPct > cfg.DrawdownThresholdPct {
		appendBreach(candidate{
			Category:     CategoryDrawdownWarning,
			Type:         TypeWarning,
			Severity:     domain.RiskLevelHigh,
			Title:        "Drawdown warning",
			Message:      fmt.Sprintf("Portfolio is %.1f%% below its peak (threshold %.1f%%)", *signals.DrawdownPct, cfg.DrawdownThresholdPct),
			Threshold:    cfg.DrawdownThresholdPct,
			CurrentValue: *signals.DrawdownPct,
		})
	}

	if c, ok := concentrationBreach(cfg, signals, log); ok {
		appendBreach(c)
	}

	if signals.Market != nil {
		out = append(out, marketRules(*signals.Market, log)...)
	}

	return out
}

// concentrationBreach finds the largest position weight and compares it to
// the owner's concentration threshold.
func concentrationBreach(cfg Config, signals Signals, log zerolog.Logger) (candidate, bool) {
	if signals.PortfolioValue <= 0 || len(signals.Positions) == 0 {
		return candidate{}, false
	}

	topAsset := ""
	topWeight := 0.0
	for _, pos := range signals.Positions {
		if pos.Value <= 0 || math.IsNaN(pos.Value) || math.IsInf(pos.Value, 0) {
			log.Warn().Str("asset_id", pos.AssetID).Msg("Skipping position with unusable value in concentration check")
			continue
		}
		weight := pos.Value / signals.PortfolioValue * 100
		if weight > topWeight {
			topWeight = weight
			topAsset = pos.AssetID
		}
	}

	if topWeight <= cfg.ConcentrationThresholdPct {
		return candidate{}, false
	}
	return candidate{
		Category:     CategoryConcentrationRisk,
		Type:         TypeWarning,
		Severity:     domain.RiskLevelMedium,
		Title:        "Concentration risk",
		Message:      fmt.Sprintf("%s is %.1f%% of the portfolio (threshold %.1f%%)", topAsset, topWeight, cfg.ConcentrationThresholdPct),
		AssetID:      topAsset,
		Threshold:    cfg.ConcentrationThresholdPct,
		CurrentValue: topWeight,
	}, true
}

// marketRules evaluates the raw market readings. These thresholds are
// absolute-magnitude comparisons since both directions are noteworthy.
func marketRules(m MarketSignals, log zerolog.Logger) []candidate {
	var out []candidate

	check := func(reading *float64, threshold float64, c candidate) {
		if reading == nil {
			return
		}
		if err := domain.GuardFinite("current_value", *reading); err != nil {
			log.Warn().Str("category", string(c.Category)).Err(err).Msg("Skipping rule with malformed reading")
			return
		}
		if math.Abs(*reading) <= threshold {
			return
		}
		c.Threshold = threshold
		c.CurrentValue = *reading
		out = append(out, escalate(c))
	}

	check(m.ExchangeNetFlowPct, exchangeFlowThresholdPct, candidate{
		Category: CategoryExchangeFlow,
		Type:     TypeInfo,
		Severity: domain.RiskLevelMedium,
		Title:    "Unusual exchange flow",
		Message:  fmt.Sprintf("Net exchange flow at %.1f%% of daily volume", deref(m.ExchangeNetFlowPct)),
	})
	check(m.FundingRatePct, fundingRateThresholdPct, candidate{
		Category: CategoryFundingRate,
		Type:     TypeInfo,
		Severity: domain.RiskLevelMedium,
		Title:    "Extreme funding rate",
		Message:  fmt.Sprintf("Funding rate at %.3f%% per period", deref(m.FundingRatePct)),
	})
	check(m.SentimentScore, sentimentThreshold, candidate{
		Category: CategorySentiment,
		Type:     TypeInfo,
		Severity: domain.RiskLevelLow,
		Title:    "Sentiment at an extreme",
		Message:  fmt.Sprintf("Sentiment score at %.0f", deref(m.SentimentScore)),
	})
	check(m.OpenInterestChangePct, openInterestThresholdPct, candidate{
		Category: CategoryDerivatives,
		Type:     TypeWarning,
		Severity: domain.RiskLevelMedium,
		Title:    "Open interest swing",
		Message:  fmt.Sprintf("Open interest changed %.1f%%", deref(m.OpenInterestChangePct)),
	})
	check(m.VolumeChangePct, volumeChangeThresholdPct, candidate{
		Category: CategoryVolume,
		Type:     TypeInfo,
		Severity: domain.RiskLevelLow,
		Title:    "Volume anomaly",
		Message:  fmt.Sprintf("Volume at %.0f%% of trailing average", deref(m.VolumeChangePct)),
	})
	check(m.VolatilityIndex, volatilityIndexThreshold, candidate{
		Category: CategoryVolatility,
		Type:     TypeWarning,
		Severity: domain.RiskLevelHigh,
		Title:    "Market volatility index elevated",
		Message:  fmt.Sprintf("Volatility index at %.0f", deref(m.VolatilityIndex)),
	})

	return out
}

// escalate bumps a breach one tier when the reading overshoots its
// threshold by more than severityEscalationRatio.
func escalate(c candidate) candidate {
	if c.Threshold <= 0 {
		return c
	}
	if math.Abs(c.CurrentValue)/c.Threshold <= severityEscalationRatio {
		return c
	}

	switch c.Type {
	case TypeInfo:
		c.Type = TypeWarning
	case TypeWarning:
		c.Type = TypeCritical
	}
	switch c.Severity {
	case domain.RiskLevelLow:
		c.Severity = domain.RiskLevelMedium
	case domain.RiskLevelMedium:
		c.Severity = domain.RiskLevelHigh
	case domain.RiskLevelHigh:
		c.Severity = domain.RiskLevelCritical
	}
	return c
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
