package alerts

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/aristath/riskwatch/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles alerting HTTP requests
type Handler struct {
	engine *Engine
	log    zerolog.Logger
}

// NewHandler creates a new alerts handler
func NewHandler(engine *Engine, log zerolog.Logger) *Handler {
	return &Handler{
		engine: engine,
		log:    log.With().Str("handler", "alerts").Logger(),
	}
}

// RegisterRoutes registers all alerting routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/alerts", func(r chi.Router) {
		r.Post("/process", h.HandleProcessSignals)
		r.Get("/recent", h.HandleRecentAlerts)
		r.Get("/stats", h.HandleStats)
		r.Post("/{id}/acknowledge", h.HandleAcknowledge)
		r.Get("/owner/{owner}", h.HandleOwnerAlerts)
		r.Get("/config/{owner}", h.HandleGetConfig)
		r.Put("/config/{owner}", h.HandleUpdateConfig)
	})
}

type processRequest struct {
	OwnerKey string  `json:"owner_key"`
	Signals  Signals `json:"signals"`
}

// HandleProcessSignals handles POST /api/alerts/process
func (h *Handler) HandleProcessSignals(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.engine.ProcessSignals(req.OwnerKey, req.Signals)
	if err != nil {
		if domain.IsValidationError(err) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error().Err(err).Msg("Signal processing failed")
		h.writeError(w, http.StatusInternalServerError, "signal processing failed")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"alerts": created,
		"count":  len(created),
	})
}

// HandleRecentAlerts handles GET /api/alerts/recent
func (h *Handler) HandleRecentAlerts(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"alerts": h.engine.RecentAlerts(queryLimit(r)),
	})
}

// HandleOwnerAlerts handles GET /api/alerts/owner/{owner}
func (h *Handler) HandleOwnerAlerts(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"alerts": h.engine.AlertsForOwner(owner, queryLimit(r)),
	})
}

// HandleStats handles GET /api/alerts/stats
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.engine.Stats())
}

// HandleAcknowledge handles POST /api/alerts/{id}/acknowledge
func (h *Handler) HandleAcknowledge(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.engine.Acknowledge(id) {
		h.writeError(w, http.StatusNotFound, "unknown alert id")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "acknowledged"})
}

// HandleGetConfig handles GET /api/alerts/config/{owner}
func (h *Handler) HandleGetConfig(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	h.writeJSON(w, http.StatusOK, h.engine.ConfigForOwner(owner))
}

// HandleUpdateConfig handles PUT /api/alerts/config/{owner}
func (h *Handler) HandleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")

	var cfg Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.engine.UpdateConfig(owner, cfg); err != nil {
		if domain.IsValidationError(err) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error().Err(err).Str("owner", owner).Msg("Failed to update alert config")
		h.writeError(w, http.StatusInternalServerError, "failed to update config")
		return
	}

	h.writeJSON(w, http.StatusOK, cfg)
}

func queryLimit(r *http.Request) int {
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			return n
		}
	}
	return 50
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
