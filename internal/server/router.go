package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Lookups interface {
		CreateLookup(w http.ResponseWriter, r *http.Request)
		CreateLookupFromFile(w http.ResponseWriter, r *http.Request)
	}
	Batches interface {
		GetBatches(w http.ResponseWriter, r *http.Request)
		GetBatchByID(w http.ResponseWriter, r *http.Request)
	}
	Health interface {
		HealthCheck(w http.ResponseWriter, r *http.Request)
	}
}

// NewRouter builds the HTTP route table.
func NewRouter(h Handlers) http.Handler {
	r := chi.NewRouter()

	r.Get("/", rootHandler)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health.HealthCheck)

		r.Post("/lookups", h.Lookups.CreateLookup)
		r.Post("/lookups/file", h.Lookups.CreateLookupFromFile)

		r.Get("/batches", h.Batches.GetBatches)
		r.Get("/batches/{id}", h.Batches.GetBatchByID)
	})

	return r
}

// rootHandler answers GET / with a small service banner.
func rootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"message": "Carrier lookup service is running",
	})
}
