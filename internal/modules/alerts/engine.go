package alerts

import (
	"sync"
	"time"

	"github.com/aristath/riskwatch/internal/domain"
	"github.com/aristath/riskwatch/internal/events"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// EngineConfig exposes the deduplication and retention knobs
type EngineConfig struct {
	// Cooldown is the minimum gap between two alerts sharing a rule key
	// (default 30 minutes)
	Cooldown time.Duration
	// Retention bounds how long alerts stay in history (default 7 days)
	Retention time.Duration
	// MaxHistory caps the in-memory history length (default 1000)
	MaxHistory int
}

func (c EngineConfig) withDefaults() EngineConfig {
	if c.Cooldown == 0 {
		c.Cooldown = 30 * time.Minute
	}
	if c.Retention == 0 {
		c.Retention = 7 * 24 * time.Hour
	}
	if c.MaxHistory == 0 {
		c.MaxHistory = 1000
	}
	return c
}

// Engine evaluates signals against per-owner thresholds and owns its alert
// history and cooldown state. Construct one per host application; there is
// no process-wide instance.
type Engine struct {
	cfg    EngineConfig
	repo   *Repository
	events *events.Manager
	log    zerolog.Logger

	mu        sync.Mutex
	history   []Alert
	lastFired map[string]time.Time
	configs   map[string]Config
	notifier  Notifier

	now func() time.Time
}

// NewEngine creates an alert engine. repo may be nil for a purely in-memory
// engine; alerts then live only in process history.
func NewEngine(cfg EngineConfig, repo *Repository, eventManager *events.Manager, log zerolog.Logger) *Engine {
	return &Engine{
		cfg:       cfg.withDefaults(),
		repo:      repo,
		events:    eventManager,
		log:       log.With().Str("service", "alerts").Logger(),
		lastFired: make(map[string]time.Time),
		configs:   make(map[string]Config),
		now:       time.Now,
	}
}

// SetNotifier installs the delivery sink for newly created alerts. Without
// one, alerts are only stored and emitted as events.
func (e *Engine) SetNotifier(n Notifier) {
	e.mu.Lock()
	e.notifier = n
	e.mu.Unlock()
}

// ProcessSignals runs the rule battery for one owner and returns the alerts
// it created. Breaches inside a rule's cooldown window are suppressed
// without resetting the cooldown timer.
func (e *Engine) ProcessSignals(ownerKey string, signals Signals) ([]Alert, error) {
	if ownerKey == "" {
		return nil, domain.NewValidationError("owner_key", "must not be empty")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	e.purgeLocked(now)

	cfg := e.configForOwnerLocked(ownerKey)
	if !cfg.Enabled {
		e.log.Debug().Str("owner", ownerKey).Msg("Alerting disabled for owner")
		return nil, nil
	}

	var created []Alert
	for _, c := range evaluateRules(cfg, signals, e.log) {
		key := RuleKey(ownerKey, c.Category, c.Type)
		if last, ok := e.lastFired[key]; ok && now.Sub(last) < e.cfg.Cooldown {
			e.log.Debug().
				Str("rule_key", key).
				Time("last_fired", last).
				Msg("Breach suppressed by cooldown")
			continue
		}

		alert := Alert{
			ID:           uuid.New().String(),
			OwnerKey:     ownerKey,
			Category:     c.Category,
			Type:         c.Type,
			Severity:     c.Severity,
			Title:        c.Title,
			Message:      c.Message,
			AssetID:      c.AssetID,
			Threshold:    c.Threshold,
			CurrentValue: c.CurrentValue,
			TriggeredAt:  now,
			Metadata:     c.Metadata,
		}

		e.history = append(e.history, alert)
		if len(e.history) > e.cfg.MaxHistory {
			e.history = e.history[len(e.history)-e.cfg.MaxHistory:]
		}
		e.lastFired[key] = now

		if e.repo != nil {
			if err := e.repo.Save(alert); err != nil {
				// History already holds the alert; a failed write degrades
				// durability, not this batch.
				e.log.Warn().Err(err).Str("alert_id", alert.ID).Msg("Failed to persist alert")
			}
		}
		if e.events != nil {
			e.events.Emit(events.AlertTriggered, "alerts", map[string]interface{}{
				"alert_id": alert.ID,
				"owner":    ownerKey,
				"category": alert.Category,
				"type":     alert.Type,
			})
		}
		if e.notifier != nil {
			if err := e.notifier.Dispatch(alert); err != nil {
				e.log.Warn().Err(err).Str("alert_id", alert.ID).Msg("Alert dispatch failed")
			}
		}

		created = append(created, alert)
	}

	if len(created) > 0 {
		e.log.Info().Str("owner", ownerKey).Int("count", len(created)).Msg("Alerts triggered")
	}
	return created, nil
}

// RecentAlerts returns the newest alerts across all owners
func (e *Engine) RecentAlerts(limit int) []Alert {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.filteredLocked(limit, func(Alert) bool { return true })
}

// AlertsForOwner returns the newest alerts for one owner
func (e *Engine) AlertsForOwner(ownerKey string, limit int) []Alert {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.filteredLocked(limit, func(a Alert) bool { return a.OwnerKey == ownerKey })
}

// filteredLocked walks history newest-first. Caller holds e.mu.
func (e *Engine) filteredLocked(limit int, keep func(Alert) bool) []Alert {
	if limit <= 0 {
		limit = 50
	}
	out := make([]Alert, 0, limit)
	for i := len(e.history) - 1; i >= 0 && len(out) < limit; i-- {
		if keep(e.history[i]) {
			out = append(out, e.history[i])
		}
	}
	return out
}

// Stats summarizes alert activity over the rolling 24h and 7d windows
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	stats := Stats{
		ByType:     make(map[Type]int),
		ByCategory: make(map[Category]int),
	}
	for _, a := range e.history {
		age := now.Sub(a.TriggeredAt)
		if age > 7*24*time.Hour {
			continue
		}
		stats.Total7d++
		stats.ByType[a.Type]++
		stats.ByCategory[a.Category]++
		if age <= 24*time.Hour {
			stats.Total24h++
		}
		if !a.Acknowledged {
			stats.Unacked++
		}
	}
	return stats
}

// Acknowledge marks an alert as seen. Returns false when the ID is unknown.
func (e *Engine) Acknowledge(id string) bool {
	e.mu.Lock()
	found := false
	for i := range e.history {
		if e.history[i].ID == id {
			e.history[i].Acknowledged = true
			found = true
			break
		}
	}
	e.mu.Unlock()

	if found {
		if e.repo != nil {
			if err := e.repo.Acknowledge(id); err != nil {
				e.log.Warn().Err(err).Str("alert_id", id).Msg("Failed to persist acknowledgement")
			}
		}
		if e.events != nil {
			e.events.Emit(events.AlertAcknowledged, "alerts", map[string]interface{}{"alert_id": id})
		}
	}
	return found
}

// ConfigForOwner returns the owner's thresholds, falling back to stored
// configuration and then to the defaults.
func (e *Engine) ConfigForOwner(ownerKey string) Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.configForOwnerLocked(ownerKey)
}

func (e *Engine) configForOwnerLocked(ownerKey string) Config {
	if cfg, ok := e.configs[ownerKey]; ok {
		return cfg
	}
	if e.repo != nil {
		if cfg, err := e.repo.GetConfig(ownerKey); err != nil {
			e.log.Warn().Err(err).Str("owner", ownerKey).Msg("Failed to load alert config, using defaults")
		} else if cfg != nil {
			e.configs[ownerKey] = *cfg
			return *cfg
		}
	}
	return DefaultConfig()
}

// UpdateConfig replaces an owner's thresholds
func (e *Engine) UpdateConfig(ownerKey string, cfg Config) error {
	if ownerKey == "" {
		return domain.NewValidationError("owner_key", "must not be empty")
	}
	for field, v := range map[string]float64{
		"var_threshold_pct":           cfg.VaRThresholdPct,
		"volatility_threshold_pct":    cfg.VolatilityThresholdPct,
		"drawdown_threshold_pct":      cfg.DrawdownThresholdPct,
		"concentration_threshold_pct": cfg.ConcentrationThresholdPct,
	} {
		if err := domain.GuardFinite(field, v); err != nil {
			return err
		}
		if v <= 0 {
			return domain.NewValidationError(field, "must be positive")
		}
	}

	e.mu.Lock()
	e.configs[ownerKey] = cfg
	e.mu.Unlock()

	if e.repo != nil {
		if err := e.repo.UpsertConfig(ownerKey, cfg); err != nil {
			return err
		}
	}
	return nil
}

// PurgeExpired drops alerts older than retention from history and storage.
// Also runs at the start of every processing cycle; exposed for the
// scheduler's housekeeping job.
func (e *Engine) PurgeExpired() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.purgeLocked(e.now())
}

// purgeLocked drops expired history and stale cooldown entries. Caller
// holds e.mu.
func (e *Engine) purgeLocked(now time.Time) int {
	cutoff := now.Add(-e.cfg.Retention)

	kept := e.history[:0]
	purged := 0
	for _, a := range e.history {
		if a.TriggeredAt.Before(cutoff) {
			purged++
			continue
		}
		kept = append(kept, a)
	}
	e.history = kept

	for key, last := range e.lastFired {
		if now.Sub(last) >= e.cfg.Cooldown {
			delete(e.lastFired, key)
		}
	}

	if purged > 0 {
		if e.repo != nil {
			if err := e.repo.PurgeBefore(cutoff); err != nil {
				e.log.Warn().Err(err).Msg("Failed to purge stored alerts")
			}
		}
		if e.events != nil {
			e.events.Emit(events.AlertsPurged, "alerts", map[string]interface{}{"count": purged})
		}
	}
	return purged
}
