package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"carrier-lookup/internal/database"
	"carrier-lookup/internal/parser"
	"carrier-lookup/internal/scraper"
)

// maxUploadSize bounds identifier file uploads.
const maxUploadSize = 10 << 20 // 10 MiB

// LookupRunner runs one identifier batch. Implemented by scraper.Runner;
// tests substitute fakes.
type LookupRunner interface {
	Run(ctx context.Context, pageURL string, identifiers []string) (*scraper.Outcome, error)
}

// LookupRequest is the body of POST /api/lookups
type LookupRequest struct {
	WebsiteURL  string   `json:"website_url"`
	Identifiers []string `json:"identifiers"`
}

// LookupResponse is the response shape of both lookup endpoints
type LookupResponse struct {
	Status         string           `json:"status"`
	Message        string           `json:"message"`
	Results        []scraper.Record `json:"results"`
	TotalProcessed int              `json:"total_processed"`
	Errors         []string         `json:"errors"`
	SkippedLines   []string         `json:"skipped_lines,omitempty"`
	BatchID        int              `json:"batch_id,omitempty"`
}

// LookupHandler handles lookup batch requests
type LookupHandler struct {
	db         *database.DB
	runner     LookupRunner
	defaultURL string
	// slots admits at most N batches at once; every admitted batch owns
	// its own isolated browser session.
	slots chan struct{}
}

// NewLookupHandler creates a new lookup handler
func NewLookupHandler(db *database.DB, runner LookupRunner, defaultURL string, maxConcurrentBatches int) *LookupHandler {
	if maxConcurrentBatches < 1 {
		maxConcurrentBatches = 1
	}
	return &LookupHandler{
		db:         db,
		runner:     runner,
		defaultURL: defaultURL,
		slots:      make(chan struct{}, maxConcurrentBatches),
	}
}

// CreateLookup handles POST /api/lookups
func (h *LookupHandler) CreateLookup(w http.ResponseWriter, r *http.Request) {
	var req LookupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("ERROR: Invalid JSON in CreateLookup: %v", err)
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if len(req.Identifiers) == 0 {
		http.Error(w, "No identifiers provided for lookup", http.StatusBadRequest)
		return
	}

	h.runBatch(w, r, req.WebsiteURL, req.Identifiers, nil)
}

// CreateLookupFromFile handles POST /api/lookups/file. The uploaded file is
// streamed straight into the line parser; nothing touches disk.
func (h *LookupHandler) CreateLookupFromFile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("identifiers")
	if err != nil {
		http.Error(w, "Missing identifiers file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	identifiers, skipped, err := parser.Parse(file)
	if err != nil {
		log.Printf("ERROR: Failed to read identifiers file: %v", err)
		http.Error(w, fmt.Sprintf("Error reading identifiers file: %v", err), http.StatusInternalServerError)
		return
	}
	for _, line := range skipped {
		log.Printf("WARN: Skipping malformed line in file: %q", line)
	}

	if len(identifiers) == 0 {
		http.Error(w, "No valid identifiers found in the uploaded file", http.StatusBadRequest)
		return
	}

	h.runBatch(w, r, r.FormValue("website_url"), identifiers, skipped)
}

// runBatch admits, runs and persists one batch, then writes the response.
func (h *LookupHandler) runBatch(w http.ResponseWriter, r *http.Request, pageURL string, identifiers []string, skipped []string) {
	if pageURL == "" {
		pageURL = h.defaultURL
	}

	select {
	case h.slots <- struct{}{}:
		defer func() { <-h.slots }()
	default:
		http.Error(w, "Too many lookup batches in flight, try again later", http.StatusServiceUnavailable)
		return
	}

	log.Printf("INFO: Starting lookup batch of %d identifiers against %s", len(identifiers), pageURL)

	outcome, err := h.runner.Run(r.Context(), pageURL, identifiers)
	if err != nil {
		log.Printf("ERROR: Lookup batch failed: %v", err)
		http.Error(w, fmt.Sprintf("Critical browser error during lookup: %v. Ensure Chrome/Chromium is correctly set up on the server.", err),
			http.StatusInternalServerError)
		return
	}

	response := LookupResponse{
		Status:         outcome.Status(),
		Message:        outcome.Message(),
		Results:        outcome.Records,
		TotalProcessed: outcome.TotalProcessed,
		Errors:         outcome.Errors,
		SkippedLines:   skipped,
	}
	response.BatchID = h.persist(pageURL, outcome)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// persist stores the batch for history. Persistence failures are logged
// and never fail the lookup response.
func (h *LookupHandler) persist(pageURL string, outcome *scraper.Outcome) int {
	if h.db == nil {
		return 0
	}

	batch := &database.Batch{
		PageURL:        pageURL,
		Status:         outcome.Status(),
		Message:        outcome.Message(),
		TotalProcessed: outcome.TotalProcessed,
		Errors:         outcome.Errors,
	}
	for _, record := range outcome.Records {
		batch.Records = append(batch.Records, database.LookupRecord{
			Identifier: record.Identifier,
			Name:       record.Name,
			Phone:      record.Phone,
			Email:      record.Email,
		})
	}

	if err := h.db.Batches.Create(batch); err != nil {
		log.Printf("ERROR: Failed to persist lookup batch: %v", err)
		return 0
	}
	return batch.ID
}
