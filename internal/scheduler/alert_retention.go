package scheduler

import (
	"time"

	"github.com/aristath/riskwatch/internal/modules/alerts"
	"github.com/rs/zerolog"
)

// AlertRetentionJob drops alerts that have aged past the retention window.
// The engine also purges opportunistically on every processing cycle; this
// job covers stored rows from before the current process started, which the
// in-memory purge never sees.
type AlertRetentionJob struct {
	log       zerolog.Logger
	engine    *alerts.Engine
	repo      *alerts.Repository
	retention time.Duration
}

// NewAlertRetentionJob creates a new alert retention job
func NewAlertRetentionJob(engine *alerts.Engine, repo *alerts.Repository, retention time.Duration, log zerolog.Logger) *AlertRetentionJob {
	return &AlertRetentionJob{
		log:       log.With().Str("job", "alert_retention").Logger(),
		engine:    engine,
		repo:      repo,
		retention: retention,
	}
}

// Name returns the job name
func (j *AlertRetentionJob) Name() string {
	return "alert_retention"
}

// Run executes the retention sweep
func (j *AlertRetentionJob) Run() error {
	purged := j.engine.PurgeExpired()

	if j.repo != nil {
		if err := j.repo.PurgeBefore(time.Now().Add(-j.retention)); err != nil {
			return err
		}
	}

	j.log.Debug().Int("purged_from_history", purged).Msg("Alert retention sweep completed")
	return nil
}
