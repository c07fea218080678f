package handlers

import (
	"encoding/json"
	"net/http"

	"carrier-lookup/internal/database"
)

// HealthHandler reports service health: the database and, when a probe is
// wired in, the headless browser lookups depend on.
type HealthHandler struct {
	db           *database.DB
	browserCheck func() error
}

// NewHealthHandler creates a health handler. browserCheck probes Chrome
// availability and may be nil when no browser is part of the deployment.
func NewHealthHandler(db *database.DB, browserCheck func() error) *HealthHandler {
	return &HealthHandler{db: db, browserCheck: browserCheck}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Browser  string `json:"browser,omitempty"`
	Message  string `json:"message,omitempty"`
}

// HealthCheck handles GET /api/health. A broken database is a hard 503;
// a missing browser degrades the service (lookups will fail) but batch
// history remains readable, so the endpoint still answers 200.
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:   "healthy",
		Database: "ok",
	}

	if err := h.db.IsHealthy(); err != nil {
		response.Status = "unhealthy"
		response.Database = "error"
		response.Message = err.Error()

		writeHealth(w, http.StatusServiceUnavailable, response)
		return
	}

	if h.browserCheck != nil {
		if err := h.browserCheck(); err != nil {
			response.Status = "degraded"
			response.Browser = "error"
			response.Message = err.Error()

			writeHealth(w, http.StatusOK, response)
			return
		}
		response.Browser = "ok"
	}

	writeHealth(w, http.StatusOK, response)
}

func writeHealth(w http.ResponseWriter, code int, response HealthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(response)
}
