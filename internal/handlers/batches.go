package handlers

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"carrier-lookup/internal/database"

	"github.com/go-chi/chi/v5"
)

// BatchHandler serves persisted lookup batch history
type BatchHandler struct {
	db *database.DB
}

// NewBatchHandler creates a new batch history handler
func NewBatchHandler(db *database.DB) *BatchHandler {
	return &BatchHandler{db: db}
}

// GetBatches handles GET /api/batches
func (h *BatchHandler) GetBatches(w http.ResponseWriter, r *http.Request) {
	batches, err := h.db.Batches.GetAll()
	if err != nil {
		log.Printf("ERROR: Failed to get batches: %v", err)
		http.Error(w, fmt.Sprintf("Failed to get batches: %v", err), http.StatusInternalServerError)
		return
	}

	if batches == nil {
		batches = []database.Batch{}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(batches)
}

// GetBatchByID handles GET /api/batches/{id}
func (h *BatchHandler) GetBatchByID(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.Atoi(idStr)
	if err != nil {
		http.Error(w, "Invalid batch ID", http.StatusBadRequest)
		return
	}

	batch, err := h.db.Batches.GetByID(id)
	if err != nil {
		if err == sql.ErrNoRows {
			http.Error(w, "Batch not found", http.StatusNotFound)
			return
		}
		log.Printf("ERROR: Failed to get batch %d: %v", id, err)
		http.Error(w, fmt.Sprintf("Failed to get batch: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(batch)
}
