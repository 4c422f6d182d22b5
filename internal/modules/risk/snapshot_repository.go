package risk

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/aristath/riskwatch/internal/database"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// SnapshotRepository persists the latest computed risk metric per owner so
// read-side collaborators (dashboard, alerting) can reuse it without
// recomputation. Metrics are stored as msgpack blobs: the snapshot is an
// opaque value object, not a queryable row.
type SnapshotRepository struct {
	db  *database.DB
	log zerolog.Logger
}

// NewSnapshotRepository creates a risk snapshot repository
func NewSnapshotRepository(db *database.DB, log zerolog.Logger) *SnapshotRepository {
	return &SnapshotRepository{
		db:  db,
		log: log.With().Str("repository", "risk_snapshots").Logger(),
	}
}

// SaveLatest upserts the owner's current risk snapshot
func (r *SnapshotRepository) SaveLatest(ownerKey string, metric *Metric) error {
	payload, err := msgpack.Marshal(metric)
	if err != nil {
		return fmt.Errorf("failed to encode risk snapshot: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO risk_snapshots (owner_key, payload, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(owner_key) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`, ownerKey, payload, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to store risk snapshot: %w", err)
	}

	return nil
}

// GetLatest loads the owner's most recent risk snapshot, or nil when none
// has been computed yet.
func (r *SnapshotRepository) GetLatest(ownerKey string) (*Metric, error) {
	var payload []byte
	err := r.db.QueryRow(
		"SELECT payload FROM risk_snapshots WHERE owner_key = ?", ownerKey,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load risk snapshot: %w", err)
	}

	var metric Metric
	if err := msgpack.Unmarshal(payload, &metric); err != nil {
		return nil, fmt.Errorf("failed to decode risk snapshot: %w", err)
	}

	return &metric, nil
}
