package stress

import (
	"encoding/json"
	"net/http"

	"github.com/aristath/riskwatch/internal/domain"
	"github.com/aristath/riskwatch/internal/events"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles stress testing HTTP requests
type Handler struct {
	engine *Engine
	events *events.Manager
	log    zerolog.Logger
}

// NewHandler creates a new stress handler
func NewHandler(engine *Engine, eventManager *events.Manager, log zerolog.Logger) *Handler {
	return &Handler{
		engine: engine,
		events: eventManager,
		log:    log.With().Str("handler", "stress").Logger(),
	}
}

// RegisterRoutes registers all stress testing routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/risk/stress-test", func(r chi.Router) {
		r.Post("/", h.HandleRun)
		r.Get("/scenarios", h.HandleListScenarios)
	})
}

type runRequest struct {
	Positions   []domain.Position `json:"positions"`
	ScenarioIDs []string          `json:"scenario_ids,omitempty"` // empty = full catalog
}

// HandleRun handles POST /api/risk/stress-test
func (h *Handler) HandleRun(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ids := req.ScenarioIDs
	if len(ids) == 0 {
		for _, s := range h.engine.Scenarios() {
			ids = append(ids, s.ID)
		}
	}

	results, err := h.engine.Run(req.Positions, ids)
	if err != nil {
		if domain.IsValidationError(err) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error().Err(err).Msg("Stress test failed")
		h.writeError(w, http.StatusInternalServerError, "stress test failed")
		return
	}

	worst := domain.RiskLevelLow
	for _, res := range results {
		if res.RiskLevel.Rank() > worst.Rank() {
			worst = res.RiskLevel
		}
	}
	h.events.Emit(events.StressTestCompleted, "stress", map[string]interface{}{
		"scenarios":  len(results),
		"worst_case": worst,
	})

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"results": results,
		"count":   len(results),
	})
}

// HandleListScenarios handles GET /api/risk/stress-test/scenarios
func (h *Handler) HandleListScenarios(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"scenarios": h.engine.Scenarios(),
	})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}

// writeError writes a JSON error response
func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
