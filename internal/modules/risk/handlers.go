package risk

import (
	"encoding/json"
	"net/http"

	"github.com/aristath/riskwatch/internal/domain"
	"github.com/aristath/riskwatch/internal/events"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles risk computation HTTP requests
type Handler struct {
	calc       *Calculator
	service    *Service
	aggregator *Aggregator
	snapshots  *SnapshotRepository
	events     *events.Manager
	log        zerolog.Logger
}

// NewHandler creates a new risk handler
func NewHandler(
	calc *Calculator,
	service *Service,
	aggregator *Aggregator,
	snapshots *SnapshotRepository,
	eventManager *events.Manager,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		calc:       calc,
		service:    service,
		aggregator: aggregator,
		snapshots:  snapshots,
		events:     eventManager,
		log:        log.With().Str("handler", "risk").Logger(),
	}
}

// RegisterRoutes registers all risk computation routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/risk", func(r chi.Router) {
		r.Post("/var", h.HandleCalculateVaR)
		r.Post("/metrics", h.HandleBuildMetric)
		r.Post("/aggregate", h.HandleAggregate)
		r.Get("/snapshots/{owner}", h.HandleGetSnapshot)
	})
}

type varRequest struct {
	VaRInput
	Method string `json:"method,omitempty"` // historical | parametric | montecarlo | all (default historical)
}

// HandleCalculateVaR handles POST /api/risk/var
func (h *Handler) HandleCalculateVaR(w http.ResponseWriter, r *http.Request) {
	var req varRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var (
		result interface{}
		err    error
	)
	switch req.Method {
	case "", "historical":
		result, err = h.calc.HistoricalVaR(req.VaRInput)
	case "parametric":
		result, err = h.calc.ParametricVaR(req.VaRInput)
	case "montecarlo":
		result, err = h.calc.MonteCarloVaR(req.VaRInput)
	case "all":
		result, err = h.calc.CalculateAll(req.VaRInput)
	default:
		h.writeError(w, http.StatusBadRequest, "unknown method: "+req.Method)
		return
	}
	if err != nil {
		h.writeComputeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

type metricRequest struct {
	OwnerKey       string    `json:"owner_key,omitempty"`
	PortfolioValue float64   `json:"portfolio_value"`
	Returns        []float64 `json:"returns"`
	MarketReturns  []float64 `json:"market_returns,omitempty"`
}

// HandleBuildMetric handles POST /api/risk/metrics
func (h *Handler) HandleBuildMetric(w http.ResponseWriter, r *http.Request) {
	var req metricRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	metric, err := h.service.BuildMetric(req.PortfolioValue, req.Returns, req.MarketReturns)
	if err != nil {
		h.writeComputeError(w, err)
		return
	}

	if req.OwnerKey != "" && h.snapshots != nil {
		if err := h.snapshots.SaveLatest(req.OwnerKey, metric); err != nil {
			// The computation succeeded; a failed cache write degrades reads,
			// not this response.
			h.log.Warn().Err(err).Str("owner", req.OwnerKey).Msg("Failed to store risk snapshot")
		}
	}

	h.events.Emit(events.RiskMetricComputed, "risk", map[string]interface{}{
		"owner_key":  req.OwnerKey,
		"risk_level": metric.RiskLevel,
		"risk_score": metric.RiskScore,
	})

	h.writeJSON(w, http.StatusOK, metric)
}

type aggregateRequest struct {
	Positions []PositionRisk `json:"positions"`
}

// HandleAggregate handles POST /api/risk/aggregate
func (h *Handler) HandleAggregate(w http.ResponseWriter, r *http.Request) {
	var req aggregateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	h.writeJSON(w, http.StatusOK, h.aggregator.Aggregate(req.Positions))
}

// HandleGetSnapshot handles GET /api/risk/snapshots/{owner}
func (h *Handler) HandleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")

	metric, err := h.snapshots.GetLatest(owner)
	if err != nil {
		h.log.Error().Err(err).Str("owner", owner).Msg("Failed to load risk snapshot")
		h.writeError(w, http.StatusInternalServerError, "failed to load snapshot")
		return
	}
	if metric == nil {
		h.writeError(w, http.StatusNotFound, "no snapshot for owner")
		return
	}

	h.writeJSON(w, http.StatusOK, metric)
}

// writeComputeError maps engine errors to HTTP responses: validation errors
// are the caller's fault, everything else is ours.
func (h *Handler) writeComputeError(w http.ResponseWriter, err error) {
	if domain.IsValidationError(err) {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.log.Error().Err(err).Msg("Risk computation failed")
	h.writeError(w, http.StatusInternalServerError, "computation failed")
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
