package alerts

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/aristath/riskwatch/internal/database"
	"github.com/aristath/riskwatch/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRepo(t *testing.T) *Repository {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())

	return NewRepository(db.Conn(), zerolog.Nop())
}

func storedAlert(owner string, triggeredAt time.Time) Alert {
	return Alert{
		ID:           uuid.New().String(),
		OwnerKey:     owner,
		Category:     CategoryVaRBreach,
		Type:         TypeWarning,
		Severity:     domain.RiskLevelHigh,
		Title:        "Value-at-Risk threshold breached",
		Message:      "1-day VaR is 6.00% of portfolio value (threshold 5.00%)",
		Threshold:    5,
		CurrentValue: 6,
		TriggeredAt:  triggeredAt,
		Metadata:     map[string]interface{}{"source": "sweep"},
	}
}

func TestRepositorySaveAndList(t *testing.T) {
	repo := testRepo(t)
	now := time.Now().UTC().Truncate(time.Second)

	first := storedAlert("user-1", now.Add(-time.Hour))
	second := storedAlert("user-1", now)
	other := storedAlert("user-2", now)

	require.NoError(t, repo.Save(first))
	require.NoError(t, repo.Save(second))
	require.NoError(t, repo.Save(other))

	mine, err := repo.ListForOwner("user-1", 10)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, second.ID, mine[0].ID, "newest first")
	assert.Equal(t, first.ID, mine[1].ID)
	assert.True(t, mine[0].TriggeredAt.Equal(second.TriggeredAt))
	assert.Equal(t, "sweep", mine[0].Metadata["source"])

	all, err := repo.ListRecent(10)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestRepositoryAcknowledge(t *testing.T) {
	repo := testRepo(t)

	alert := storedAlert("user-1", time.Now().UTC())
	require.NoError(t, repo.Save(alert))
	require.NoError(t, repo.Acknowledge(alert.ID))

	stored, err := repo.ListForOwner("user-1", 1)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.True(t, stored[0].Acknowledged)
}

func TestRepositoryPurgeBefore(t *testing.T) {
	repo := testRepo(t)
	now := time.Now().UTC()

	old := storedAlert("user-1", now.Add(-8*24*time.Hour))
	fresh := storedAlert("user-1", now)
	require.NoError(t, repo.Save(old))
	require.NoError(t, repo.Save(fresh))

	require.NoError(t, repo.PurgeBefore(now.Add(-7*24*time.Hour)))

	remaining, err := repo.ListForOwner("user-1", 10)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, fresh.ID, remaining[0].ID)
}

func TestRepositoryConfigRoundtrip(t *testing.T) {
	repo := testRepo(t)

	missing, err := repo.GetConfig("nobody")
	require.NoError(t, err)
	assert.Nil(t, missing, "unknown owner has no stored config")

	cfg := Config{
		VaRThresholdPct:           7.5,
		VolatilityThresholdPct:    80,
		DrawdownThresholdPct:      30,
		ConcentrationThresholdPct: 50,
		Enabled:                   true,
	}
	require.NoError(t, repo.UpsertConfig("user-1", cfg))

	stored, err := repo.GetConfig("user-1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, cfg, *stored)

	cfg.Enabled = false
	require.NoError(t, repo.UpsertConfig("user-1", cfg))

	updated, err := repo.GetConfig("user-1")
	require.NoError(t, err)
	assert.False(t, updated.Enabled)
}
