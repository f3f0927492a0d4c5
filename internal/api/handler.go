package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/nexgen-logistics/lanewatch/internal/domain"
	"github.com/nexgen-logistics/lanewatch/internal/filter"
	"github.com/nexgen-logistics/lanewatch/internal/model"
	"github.com/nexgen-logistics/lanewatch/internal/pipeline"
)

// Handler holds dependencies for API handlers.
type Handler struct {
	runner  *pipeline.Runner
	cache   domain.Cache
	version string
}

// NewHandler creates a new API handler.
func NewHandler(runner *pipeline.Runner, cache domain.Cache, version string) *Handler {
	return &Handler{
		runner:  runner,
		cache:   cache,
		version: version,
	}
}

const dateLayout = "2006-01-02"

// parseParams reads the shared filter query parameters.
func parseParams(r *http.Request) (filter.Params, error) {
	q := r.URL.Query()
	p := filter.Params{
		Origin:      q.Get("origin"),
		VehicleType: q.Get("vehicle_type"),
		Expr:        q.Get("expr"),
	}

	if v := q.Get("start"); v != "" {
		ts, err := time.Parse(dateLayout, v)
		if err != nil {
			return p, fmt.Errorf("invalid start date %q, want YYYY-MM-DD", v)
		}
		p.Start = ts
	}
	if v := q.Get("end"); v != "" {
		ts, err := time.Parse(dateLayout, v)
		if err != nil {
			return p, fmt.Errorf("invalid end date %q, want YYYY-MM-DD", v)
		}
		p.End = ts
	}
	return p, nil
}

// run parses filter params and executes the pipeline, writing the error
// response itself on failure.
func (h *Handler) run(w http.ResponseWriter, r *http.Request) (*pipeline.Result, bool) {
	params, err := parseParams(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return nil, false
	}

	res, err := h.runner.Run(r.Context(), params)
	if err != nil {
		// The only run error is a bad filter expression.
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return nil, false
	}
	return res, true
}

// Health returns server health status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"

	if h.cache != nil {
		if err := h.cache.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  status,
		"version": h.version,
	})
}

// Ready returns whether the server is ready to accept traffic.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ready":   "true",
		"records": h.runner.RecordCount(),
	})
}

// Summary handles GET /summary.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	res, ok := h.run(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"run_id":       res.RunID,
		"generated_at": res.GeneratedAt,
		"record_count": res.RecordCount,
		"kpis":         res.KPIs,
		"metadata":     res.Metadata,
	})
}

// Orders handles GET /orders.
func (h *Handler) Orders(w http.ResponseWriter, r *http.Request) {
	res, ok := h.run(w, r)
	if !ok {
		return
	}

	orders := res.Orders
	if limit, ok := parseLimit(w, r); !ok {
		return
	} else if limit > 0 && limit < len(orders) {
		orders = orders[:limit]
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count":  len(orders),
		"total":  res.RecordCount,
		"orders": orders,
	})
}

// RouteRisk handles GET /routes/risk.
func (h *Handler) RouteRisk(w http.ResponseWriter, r *http.Request) {
	res, ok := h.run(w, r)
	if !ok {
		return
	}

	routes := res.RouteRisk
	if limit, ok := parseLimit(w, r); !ok {
		return
	} else if limit > 0 && limit < len(routes) {
		routes = routes[:limit]
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count":  len(routes),
		"routes": routes,
	})
}

// RouteEfficiency handles GET /routes/efficiency.
func (h *Handler) RouteEfficiency(w http.ResponseWriter, r *http.Request) {
	res, ok := h.run(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":  len(res.RouteEfficiency),
		"routes": res.RouteEfficiency,
	})
}

// Recommendations handles GET /recommendations.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	res, ok := h.run(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":           len(res.Recommendations),
		"recommendations": res.Recommendations,
	})
}

// CostModel handles GET /models/cost.
func (h *Handler) CostModel(w http.ResponseWriter, r *http.Request) {
	res, ok := h.run(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"features": model.CostFeatures,
		"model":    res.CostModel,
	})
}

// DelayModel handles GET /models/delay.
func (h *Handler) DelayModel(w http.ResponseWriter, r *http.Request) {
	res, ok := h.run(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"features":   model.DelayFeatures,
		"model":      res.DelayModel,
		"classifier": res.DelayClassifier,
	})
}

// PredictRequest is the request body for the predict endpoints. Features
// are named so callers never depend on positional ordering.
type PredictRequest struct {
	Features map[string]float64 `json:"features"`
}

func (req *PredictRequest) vector(names []string) ([]float64, error) {
	out := make([]float64, len(names))
	for i, name := range names {
		v, ok := req.Features[name]
		if !ok {
			return nil, fmt.Errorf("missing feature %q", name)
		}
		out[i] = v
	}
	return out, nil
}

// PredictCost handles POST /models/cost/predict.
func (h *Handler) PredictCost(w http.ResponseWriter, r *http.Request) {
	h.predict(w, r, func(set *pipeline.ModelSet, req *PredictRequest) (map[string]any, error) {
		if set.Cost == nil {
			return nil, errModelUnavailable
		}
		features, err := req.vector(set.Cost.Names)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"predicted_cost_inr": set.Cost.Predict(features),
			"features":           set.Cost.Names,
		}, nil
	})
}

// PredictDelay handles POST /models/delay/predict. The classifier's
// delayed-probability is included when it was fit and the request carries
// its feature set.
func (h *Handler) PredictDelay(w http.ResponseWriter, r *http.Request) {
	h.predict(w, r, func(set *pipeline.ModelSet, req *PredictRequest) (map[string]any, error) {
		if set.Delay == nil {
			return nil, errModelUnavailable
		}
		features, err := req.vector(set.Delay.Names)
		if err != nil {
			return nil, err
		}
		out := map[string]any{
			"predicted_delay_days": set.Delay.Predict(features),
			"features":             set.Delay.Names,
		}
		if set.Classifier != nil {
			if cf, err := req.vector(set.Classifier.Names); err == nil {
				out["delayed_probability"] = set.Classifier.PredictProb(cf)
			}
		}
		return out, nil
	})
}

var errModelUnavailable = errors.New("model unavailable: insufficient training data")

func (h *Handler) predict(w http.ResponseWriter, r *http.Request, fn func(*pipeline.ModelSet, *PredictRequest) (map[string]any, error)) {
	params, err := parseParams(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	var req PredictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON request body"})
		return
	}
	if len(req.Features) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "features are required"})
		return
	}

	set, err := h.runner.Models(r.Context(), params)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if set == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": errModelUnavailable.Error()})
		return
	}

	out, err := fn(set, &req)
	if err != nil {
		if errors.Is(err, errModelUnavailable) {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Emissions handles GET /emissions.
func (h *Handler) Emissions(w http.ResponseWriter, r *http.Request) {
	res, ok := h.run(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, res.Emissions)
}

// Anomalies handles GET /anomalies.
func (h *Handler) Anomalies(w http.ResponseWriter, r *http.Request) {
	res, ok := h.run(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, res.Anomalies)
}

// Fleet handles GET /fleet.
func (h *Handler) Fleet(w http.ResponseWriter, r *http.Request) {
	res, ok := h.run(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"statuses": res.Fleet})
}

// Warehouse handles GET /warehouse.
func (h *Handler) Warehouse(w http.ResponseWriter, r *http.Request) {
	res, ok := h.run(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, res.Warehouse)
}

// Reload handles POST /reload. On failure the previous dataset keeps
// serving and the error is surfaced to the caller.
func (h *Handler) Reload(w http.ResponseWriter, r *http.Request) {
	if err := h.runner.Reload(r.Context()); err != nil {
		slog.Error("dataset reload failed", "error", err)
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}

	slog.Info("dataset reloaded", "records", h.runner.RecordCount())
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "dataset reloaded",
		"records": h.runner.RecordCount(),
	})
}

// parseLimit reads an optional positive limit query param; 0 means no
// limit. It writes the error response itself on a malformed value.
func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(v)
	if err != nil || limit < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a non-negative integer"})
		return 0, false
	}
	return limit, true
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
