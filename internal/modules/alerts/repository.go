package alerts

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Repository handles alert database operations
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new alert repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "alerts").Logger(),
	}
}

// Save inserts an alert record
func (r *Repository) Save(alert Alert) error {
	var metadata []byte
	if alert.Metadata != nil {
		var err error
		metadata, err = json.Marshal(alert.Metadata)
		if err != nil {
			return fmt.Errorf("failed to encode alert metadata: %w", err)
		}
	}

	query := `
		INSERT INTO alerts
		(id, owner_key, category, type, severity, title, message, asset_id,
		 threshold, current_value, triggered_at, acknowledged, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		alert.ID,
		alert.OwnerKey,
		string(alert.Category),
		string(alert.Type),
		string(alert.Severity),
		alert.Title,
		alert.Message,
		nullString(alert.AssetID),
		alert.Threshold,
		alert.CurrentValue,
		alert.TriggeredAt.UTC().Format(time.RFC3339),
		alert.Acknowledged,
		nullBytes(metadata),
	)
	if err != nil {
		return fmt.Errorf("failed to save alert: %w", err)
	}
	return nil
}

// ListRecent retrieves the newest alerts across all owners
func (r *Repository) ListRecent(limit int) ([]Alert, error) {
	query := `
		SELECT id, owner_key, category, type, severity, title, message, asset_id,
		       threshold, current_value, triggered_at, acknowledged, metadata
		FROM alerts
		ORDER BY triggered_at DESC
		LIMIT ?
	`
	return r.list(query, limit)
}

// ListForOwner retrieves the newest alerts for one owner
func (r *Repository) ListForOwner(ownerKey string, limit int) ([]Alert, error) {
	query := `
		SELECT id, owner_key, category, type, severity, title, message, asset_id,
		       threshold, current_value, triggered_at, acknowledged, metadata
		FROM alerts
		WHERE owner_key = ?
		ORDER BY triggered_at DESC
		LIMIT ?
	`
	return r.list(query, ownerKey, limit)
}

func (r *Repository) list(query string, args ...interface{}) ([]Alert, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []Alert
	for rows.Next() {
		var (
			a           Alert
			assetID     sql.NullString
			triggeredAt string
			metadata    []byte
		)
		if err := rows.Scan(
			&a.ID, &a.OwnerKey, &a.Category, &a.Type, &a.Severity,
			&a.Title, &a.Message, &assetID,
			&a.Threshold, &a.CurrentValue, &triggeredAt, &a.Acknowledged, &metadata,
		); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}

		a.AssetID = assetID.String
		if ts, err := time.Parse(time.RFC3339, triggeredAt); err == nil {
			a.TriggeredAt = ts
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &a.Metadata); err != nil {
				r.log.Warn().Err(err).Str("alert_id", a.ID).Msg("Unreadable alert metadata, dropping")
			}
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// Acknowledge marks a stored alert as seen
func (r *Repository) Acknowledge(id string) error {
	_, err := r.db.Exec("UPDATE alerts SET acknowledged = 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to acknowledge alert: %w", err)
	}
	return nil
}

// PurgeBefore deletes alerts triggered before the cutoff
func (r *Repository) PurgeBefore(cutoff time.Time) error {
	result, err := r.db.Exec(
		"DELETE FROM alerts WHERE triggered_at < ?",
		cutoff.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to purge alerts: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n > 0 {
		r.log.Info().Int64("count", n).Msg("Purged expired alerts")
	}
	return nil
}

// GetConfig loads an owner's stored thresholds. Returns nil when the owner
// has no stored configuration.
func (r *Repository) GetConfig(ownerKey string) (*Config, error) {
	query := `
		SELECT var_threshold_pct, volatility_threshold_pct,
		       drawdown_threshold_pct, concentration_threshold_pct, enabled
		FROM alert_configs
		WHERE owner_key = ?
	`

	var cfg Config
	err := r.db.QueryRow(query, ownerKey).Scan(
		&cfg.VaRThresholdPct,
		&cfg.VolatilityThresholdPct,
		&cfg.DrawdownThresholdPct,
		&cfg.ConcentrationThresholdPct,
		&cfg.Enabled,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get alert config: %w", err)
	}
	return &cfg, nil
}

// UpsertConfig stores an owner's thresholds
func (r *Repository) UpsertConfig(ownerKey string, cfg Config) error {
	query := `
		INSERT INTO alert_configs
		(owner_key, var_threshold_pct, volatility_threshold_pct,
		 drawdown_threshold_pct, concentration_threshold_pct, enabled, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(owner_key) DO UPDATE SET
			var_threshold_pct = excluded.var_threshold_pct,
			volatility_threshold_pct = excluded.volatility_threshold_pct,
			drawdown_threshold_pct = excluded.drawdown_threshold_pct,
			concentration_threshold_pct = excluded.concentration_threshold_pct,
			enabled = excluded.enabled,
			updated_at = excluded.updated_at
	`

	_, err := r.db.Exec(query,
		ownerKey,
		cfg.VaRThresholdPct,
		cfg.VolatilityThresholdPct,
		cfg.DrawdownThresholdPct,
		cfg.ConcentrationThresholdPct,
		cfg.Enabled,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert alert config: %w", err)
	}
	return nil
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullBytes(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return b
}
