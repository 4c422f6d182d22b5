package stress

import (
	"math"
	"time"

	"github.com/aristath/riskwatch/internal/domain"
	"github.com/rs/zerolog"
)

// EngineConfig exposes the engine's calibration knobs. The weights are
// heuristic, not derived from a formal model, so they are configuration
// rather than literals in the loss formula.
type EngineConfig struct {
	// VolatilityWeight scales the volatility-amplification add-on (default 0.5)
	VolatilityWeight float64
	// LiquidityWeight scales the liquidity-shock add-on (default 0.3)
	LiquidityWeight float64
	// DrawdownAmplifier converts a scenario loss percentage into an estimated
	// max drawdown (default 1.2)
	DrawdownAmplifier float64
	// StrictScenarios rejects requests naming unknown scenario IDs instead of
	// silently filtering them out (default false, the lenient mode)
	StrictScenarios bool
}

func (c EngineConfig) withDefaults() EngineConfig {
	if c.VolatilityWeight == 0 {
		c.VolatilityWeight = 0.5
	}
	if c.LiquidityWeight == 0 {
		c.LiquidityWeight = 0.3
	}
	if c.DrawdownAmplifier == 0 {
		c.DrawdownAmplifier = 1.2
	}
	return c
}

// Engine runs shock scenarios against portfolio positions
type Engine struct {
	cfg       EngineConfig
	scenarios map[string]Scenario
	log       zerolog.Logger
}

// NewEngine creates a stress test engine with the default scenario catalog
func NewEngine(cfg EngineConfig, log zerolog.Logger) *Engine {
	e := &Engine{
		cfg:       cfg.withDefaults(),
		scenarios: make(map[string]Scenario),
		log:       log.With().Str("service", "stress").Logger(),
	}
	for _, s := range DefaultScenarios() {
		e.scenarios[s.ID] = s
	}
	return e
}

// Scenarios returns the catalog, for discovery endpoints
func (e *Engine) Scenarios() []Scenario {
	out := make([]Scenario, 0, len(e.scenarios))
	for _, s := range DefaultScenarios() {
		out = append(out, e.scenarios[s.ID])
	}
	for _, s := range e.scenarios {
		if !isDefaultScenario(s.ID) {
			out = append(out, s)
		}
	}
	return out
}

// RegisterScenario adds or replaces a scenario in the catalog
func (e *Engine) RegisterScenario(s Scenario) {
	e.scenarios[s.ID] = s
}

func isDefaultScenario(id string) bool {
	for _, s := range DefaultScenarios() {
		if s.ID == id {
			return true
		}
	}
	return false
}

// Run applies the named scenarios to the positions. In lenient mode unknown
// scenario IDs are filtered out with a logged warning; in strict mode they
// fail the request with a ValidationError.
func (e *Engine) Run(positions []domain.Position, scenarioIDs []string) ([]Result, error) {
	if len(positions) == 0 {
		return nil, domain.NewValidationError("positions", "must not be empty")
	}
	for _, p := range positions {
		if err := p.Validate(); err != nil {
			return nil, err
		}
	}

	selected := make([]Scenario, 0, len(scenarioIDs))
	for _, id := range scenarioIDs {
		scenario, ok := e.scenarios[id]
		if !ok {
			if e.cfg.StrictScenarios {
				return nil, domain.NewValidationError("scenario_ids", "unknown scenario: "+id)
			}
			e.log.Warn().Str("scenario_id", id).Msg("Unknown stress scenario, skipping")
			continue
		}
		selected = append(selected, scenario)
	}

	results := make([]Result, 0, len(selected))
	for _, scenario := range selected {
		results = append(results, e.runScenario(positions, scenario))
	}
	return results, nil
}

// runScenario computes the portfolio-wide impact of a single scenario
func (e *Engine) runScenario(positions []domain.Position, scenario Scenario) Result {
	valueBefore := 0.0
	totalLoss := 0.0
	totalVaR95 := 0.0

	for _, pos := range positions {
		value := pos.Value()
		valueBefore += value
		totalLoss += e.positionLoss(pos, scenario)
		if pos.VaR95 != nil {
			totalVaR95 += *pos.VaR95
		}
	}

	lossPct := 0.0
	if valueBefore > 0 {
		lossPct = totalLoss / valueBefore * 100
	}

	varBreach := math.Abs(totalLoss) > totalVaR95 && totalVaR95 > 0

	return Result{
		ScenarioID:           scenario.ID,
		ScenarioName:         scenario.Name,
		PortfolioValueBefore: valueBefore,
		PortfolioValueAfter:  valueBefore + totalLoss,
		LossAmount:           math.Abs(totalLoss),
		LossPercentage:       lossPct,
		VaRBreach:            varBreach,
		MaxDrawdown:          math.Abs(lossPct) * e.cfg.DrawdownAmplifier,
		RecoveryTimeDays:     e.recoveryTime(lossPct, scenario.Severity),
		RiskLevel:            stressRiskLevel(lossPct, varBreach),
		Timestamp:            time.Now().UTC(),
	}
}

// positionLoss estimates a single position's loss under a scenario:
// the direct market shock, plus a volatility-amplification term when the
// position's volatility is known, plus a liquidity exit-cost term.
func (e *Engine) positionLoss(pos domain.Position, scenario Scenario) float64 {
	value := pos.Value()

	loss := value * (scenario.MarketShockPct / 100)

	if pos.Volatility != nil {
		volAddOn := value * (*pos.Volatility / 100) * (scenario.VolatilityIncreasePct / 100)
		loss -= e.cfg.VolatilityWeight * math.Abs(volAddOn)
	}

	loss += e.cfg.LiquidityWeight * value * (scenario.LiquidityShockPct / 100)

	return loss
}

// recoveryTime buckets recovery by loss magnitude, then stretches it for the
// more severe scenario classes.
func (e *Engine) recoveryTime(lossPct float64, severity Severity) int {
	magnitude := math.Abs(lossPct)

	var days float64
	switch {
	case magnitude < 10:
		days = 30
	case magnitude < 25:
		days = 90
	case magnitude < 50:
		days = 180
	default:
		days = 365
	}

	switch severity {
	case SeverityExtreme:
		days *= 1.5
	case SeverityHigh:
		days *= 1.2
	}

	return int(math.Round(days))
}

// stressRiskLevel grades a scenario outcome
func stressRiskLevel(lossPct float64, varBreach bool) domain.RiskLevel {
	switch {
	case lossPct < -50 || varBreach:
		return domain.RiskLevelCritical
	case lossPct < -25:
		return domain.RiskLevelHigh
	case lossPct < -10:
		return domain.RiskLevelMedium
	default:
		return domain.RiskLevelLow
	}
}
