package scheduler

import (
	"github.com/aristath/riskwatch/internal/domain"
	"github.com/aristath/riskwatch/internal/events"
	"github.com/aristath/riskwatch/internal/modules/alerts"
	"github.com/aristath/riskwatch/internal/modules/risk"
	"github.com/rs/zerolog"
)

// returnsWindow is how many periodic returns the sweep requests per series,
// one trading year.
const returnsWindow = 252

// RiskSweepConfig holds the collaborators for the periodic risk sweep
type RiskSweepConfig struct {
	Owners      domain.OwnerProvider
	Positions   domain.PositionProvider
	Returns     domain.ReturnsProvider
	Service     *risk.Service
	Aggregator  *risk.Aggregator
	Snapshots   *risk.SnapshotRepository // optional
	AlertEngine *alerts.Engine           // optional
	Events      *events.Manager          // optional
	Log         zerolog.Logger
}

// RiskSweepJob recomputes portfolio risk for every active owner, stores the
// snapshot and feeds the results to the alert engine. One owner failing
// never aborts the sweep for the rest.
type RiskSweepJob struct {
	cfg RiskSweepConfig
	log zerolog.Logger
}

// NewRiskSweepJob creates a new risk sweep job
func NewRiskSweepJob(cfg RiskSweepConfig) *RiskSweepJob {
	return &RiskSweepJob{
		cfg: cfg,
		log: cfg.Log.With().Str("job", "risk_sweep").Logger(),
	}
}

// Name returns the job name
func (j *RiskSweepJob) Name() string {
	return "risk_sweep"
}

// Run executes the sweep
func (j *RiskSweepJob) Run() error {
	owners, err := j.cfg.Owners.ActiveOwners()
	if err != nil {
		return err
	}

	swept := 0
	for _, owner := range owners {
		if err := j.sweepOwner(owner); err != nil {
			j.log.Warn().Err(err).Str("owner", owner).Msg("Risk sweep failed for owner")
			continue
		}
		swept++
	}

	j.log.Info().Int("owners", swept).Int("total", len(owners)).Msg("Risk sweep completed")
	if j.cfg.Events != nil {
		j.cfg.Events.Emit(events.RiskSweepCompleted, "scheduler", map[string]interface{}{
			"owners_swept": swept,
			"owners_total": len(owners),
		})
	}
	return nil
}

func (j *RiskSweepJob) sweepOwner(owner string) error {
	positions, err := j.cfg.Positions.GetPositions(owner)
	if err != nil {
		return err
	}
	if len(positions) == 0 {
		j.log.Debug().Str("owner", owner).Msg("No positions, skipping")
		return nil
	}

	snapshot := domain.NewPortfolioSnapshot(positions)

	portfolioReturns, err := j.cfg.Returns.GetReturns(owner, "", returnsWindow)
	if err != nil {
		return err
	}

	metric, err := j.cfg.Service.BuildMetric(snapshot.TotalValue, portfolioReturns, nil)
	if err != nil {
		return err
	}

	if j.cfg.Snapshots != nil {
		if err := j.cfg.Snapshots.SaveLatest(owner, metric); err != nil {
			j.log.Warn().Err(err).Str("owner", owner).Msg("Failed to store risk snapshot")
		}
	}

	aggregated := j.cfg.Aggregator.Aggregate(j.positionRisks(owner, positions))

	if j.cfg.AlertEngine != nil {
		if _, err := j.cfg.AlertEngine.ProcessSignals(owner, j.buildSignals(snapshot, metric, aggregated)); err != nil {
			j.log.Warn().Err(err).Str("owner", owner).Msg("Alert evaluation failed")
		}
	}
	return nil
}

// positionRisks computes a per-position metric where return history exists.
// Positions without history keep a nil metric and are skipped downstream.
func (j *RiskSweepJob) positionRisks(owner string, positions []domain.Position) []risk.PositionRisk {
	out := make([]risk.PositionRisk, 0, len(positions))
	for _, pos := range positions {
		pr := risk.PositionRisk{Position: pos}

		assetReturns, err := j.cfg.Returns.GetReturns(owner, pos.AssetID, returnsWindow)
		if err != nil || len(assetReturns) == 0 {
			j.log.Debug().Str("owner", owner).Str("asset", pos.AssetID).Msg("No return history for position")
			out = append(out, pr)
			continue
		}

		metric, err := j.cfg.Service.BuildMetric(pos.Value(), assetReturns, nil)
		if err != nil {
			j.log.Warn().Err(err).Str("asset", pos.AssetID).Msg("Per-position metric failed")
			out = append(out, pr)
			continue
		}
		pr.Metric = metric
		out = append(out, pr)
	}
	return out
}

// buildSignals converts the sweep's outputs into the alert engine's input.
// The portfolio-level metric drives the VaR and drawdown readings; the
// aggregated per-position view supplies volatility when available, since it
// reflects actual position weights.
func (j *RiskSweepJob) buildSignals(snapshot domain.PortfolioSnapshot, metric *risk.Metric, aggregated risk.PortfolioRisk) alerts.Signals {
	signals := alerts.Signals{PortfolioValue: snapshot.TotalValue}

	if snapshot.TotalValue > 0 {
		varPct := metric.VaR95 / snapshot.TotalValue * 100
		signals.VaRPct = &varPct
	}

	volPct := metric.Volatility * 100
	if aggregated.PositionCount > 0 && aggregated.Volatility > 0 {
		volPct = aggregated.Volatility * 100
	}
	signals.VolatilityPct = &volPct

	ddPct := metric.MaxDrawdown * 100
	signals.DrawdownPct = &ddPct

	for _, pos := range snapshot.Positions {
		ps := alerts.PositionSignal{
			AssetID: pos.AssetID,
			Value:   pos.Value(),
		}
		if pos.Volatility != nil {
			v := *pos.Volatility
			ps.VolatilityPct = &v
		}
		signals.Positions = append(signals.Positions, ps)
	}

	return signals
}
