package server

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/aristath/riskwatch/internal/database"
	"github.com/aristath/riskwatch/internal/scheduler"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemHandlers handles system-wide monitoring and operations endpoints
type SystemHandlers struct {
	log       zerolog.Logger
	db        *database.DB
	startedAt time.Time

	// Jobs (set after registration in main.go)
	riskSweepJob      scheduler.Job
	healthCheckJob    scheduler.Job
	alertRetentionJob scheduler.Job
}

// NewSystemHandlers creates a new system handlers instance
func NewSystemHandlers(db *database.DB, log zerolog.Logger) *SystemHandlers {
	return &SystemHandlers{
		log:       log.With().Str("component", "system_handlers").Logger(),
		db:        db,
		startedAt: time.Now(),
	}
}

// SetJobs registers job references for manual triggering.
// Called after jobs are registered in main.go.
func (h *SystemHandlers) SetJobs(riskSweep, healthCheck, alertRetention scheduler.Job) {
	h.riskSweepJob = riskSweep
	h.healthCheckJob = healthCheck
	h.alertRetentionJob = alertRetention
}

// RegisterRoutes registers system monitoring and job trigger routes
func (h *SystemHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/system", func(r chi.Router) {
		r.Get("/status", h.HandleStatus)
		r.Get("/resources", h.HandleResources)
	})
	r.Route("/jobs", func(r chi.Router) {
		r.Post("/risk-sweep", h.triggerJob(func() scheduler.Job { return h.riskSweepJob }))
		r.Post("/health-check", h.triggerJob(func() scheduler.Job { return h.healthCheckJob }))
		r.Post("/alert-retention", h.triggerJob(func() scheduler.Job { return h.alertRetentionJob }))
	})
}

// HandleStatus handles GET /api/system/status
func (h *SystemHandlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	dbStatus := "ok"
	if err := h.db.Conn().Ping(); err != nil {
		dbStatus = "unreachable"
	}

	h.writeJSON(w, map[string]interface{}{
		"status":         "running",
		"uptime_seconds": int(time.Since(h.startedAt).Seconds()),
		"database":       dbStatus,
		"goroutines":     runtime.NumGoroutine(),
		"memory": map[string]interface{}{
			"alloc_mb":       m.Alloc / 1024 / 1024,
			"total_alloc_mb": m.TotalAlloc / 1024 / 1024,
			"sys_mb":         m.Sys / 1024 / 1024,
			"num_gc":         m.NumGC,
		},
	})
}

// HandleResources handles GET /api/system/resources
func (h *SystemHandlers) HandleResources(w http.ResponseWriter, r *http.Request) {
	cpuAvg, ramPercent := h.getSystemStats()

	h.writeJSON(w, map[string]interface{}{
		"cpu_percent": cpuAvg,
		"ram_percent": ramPercent,
	})
}

// getSystemStats reads CPU and RAM usage percentages.
// Samples CPU over 100ms rather than the usual 1s so the endpoint stays
// responsive for dashboard polling.
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}

// triggerJob runs a registered background job immediately
func (h *SystemHandlers) triggerJob(get func() scheduler.Job) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job := get()
		if job == nil {
			h.writeJSON(w, map[string]string{
				"status":  "error",
				"message": "job not registered",
			})
			return
		}

		h.log.Info().Str("job", job.Name()).Msg("Manual job trigger")
		go func() {
			if err := job.Run(); err != nil {
				h.log.Error().Err(err).Str("job", job.Name()).Msg("Manually triggered job failed")
			}
		}()

		h.writeJSON(w, map[string]string{
			"status":  "success",
			"message": job.Name() + " triggered",
		})
	}
}

// writeJSON writes a JSON response
func (h *SystemHandlers) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}
