package restserver

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/weldtech/weldwatch/internal/storage/spc"
	"github.com/weldtech/weldwatch/internal/types"
)

// Handlers contains all HTTP handlers for the REST server
type Handlers struct {
	controller *Controller
}

// NewHandlers creates a new handlers instance
func NewHandlers(ctrl *Controller) *Handlers {
	return &Handlers{controller: ctrl}
}

// StationStatus is the per-station element of the /api/status response.
type StationStatus struct {
	Name      string `json:"name"`
	Connected bool   `json:"connected"`
	Power     bool   `json:"power"`
	State     string `json:"state"`
}

// GetStatus reports link and PLC state for every configured station.
func (h *Handlers) GetStatus(w http.ResponseWriter, req *http.Request) {
	statuses := make([]StationStatus, 0, len(h.controller.Stations))
	for _, st := range h.controller.Stations {
		power, state := st.Status()
		statuses = append(statuses, StationStatus{
			Name:      st.Name(),
			Connected: st.Connected(),
			Power:     power,
			State:     state,
		})
	}

	writeJSON(w, http.StatusOK, statuses)
}

// GetActiveModel reports the model whose limits cycles are currently
// judged against.
func (h *Handlers) GetActiveModel(w http.ResponseWriter, req *http.Request) {
	if h.controller.Provider == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "model database is not configured",
		})
		return
	}

	model, ok := h.controller.Provider.CachedModel()
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"active": false})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"active": true,
		"model":  model,
	})
}

// GetRecentCycles returns the most recent cycle results, newest first.
// An optional limit query parameter caps the count; default 50.
func (h *Handlers) GetRecentCycles(w http.ResponseWriter, req *http.Request) {
	if h.controller.SPC == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "spc storage backend is not configured",
		})
		return
	}

	limit := 50
	if v := req.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	cycles := h.controller.SPC.Recent(limit)
	if cycles == nil {
		cycles = []types.CycleResult{}
	}

	writeJSON(w, http.StatusOK, cycles)
}

// SPCResponse pairs the rolling-window summary with the limits it was
// computed against, if any.
type SPCResponse struct {
	Summary spc.Summary        `json:"summary"`
	Limits  *types.ActiveModel `json:"limits,omitempty"`
}

// GetSPCSummary reports process-capability statistics over the rolling
// window, computed against the active model's limits when one is set.
func (h *Handlers) GetSPCSummary(w http.ResponseWriter, req *http.Request) {
	if h.controller.SPC == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "spc storage backend is not configured",
		})
		return
	}

	var limits *types.ActiveModel
	if h.controller.Provider != nil {
		if model, ok := h.controller.Provider.CachedModel(); ok {
			limits = &model
		}
	}

	writeJSON(w, http.StatusOK, SPCResponse{
		Summary: h.controller.SPC.Summarize(limits),
		Limits:  limits,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
