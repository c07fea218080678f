package main

import (
	"log"
	"net/http"
	"time"

	"carrier-lookup/internal/config"
	"carrier-lookup/internal/database"
	"carrier-lookup/internal/handlers"
	"carrier-lookup/internal/scraper"
	"carrier-lookup/internal/server"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database
	db, err := database.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	log.Printf("INFO: Database initialized at %s", cfg.DBPath)

	if err := scraper.ValidateChromeAvailable(); err != nil {
		log.Printf("WARN: %v; lookups will fail until Chrome/Chromium is installed", err)
	}

	// Build the scraping stack
	options := scraper.DefaultOptions()
	options.Headless = cfg.Headless
	options.Timeout = cfg.LookupTimeout
	options.SettleDelay = cfg.SettleDelay
	options.PaceInterval = cfg.PaceInterval
	if cfg.UserAgent != "" {
		options.UserAgent = cfg.UserAgent
	}

	manager := scraper.NewManager(options)
	extractor := scraper.NewExtractor(scraper.SnapshotPage(), options)
	runner := scraper.NewRunner(manager, extractor, options)

	router := server.NewRouter(server.Handlers{
		Lookups: handlers.NewLookupHandler(db, runner, cfg.PageURL, cfg.MaxConcurrentBatches),
		Batches: handlers.NewBatchHandler(db),
		Health:  handlers.NewHealthHandler(db, scraper.ValidateChromeAvailable),
	})

	handler := server.Chain(
		router,
		server.LoggingMiddleware,
		server.RecoveryMiddleware,
		server.CORSMiddleware,
		server.ContentTypeMiddleware,
		server.SecurityMiddleware,
	)

	srv := &http.Server{
		Addr:    cfg.Address(),
		Handler: handler,

		ReadTimeout: 15 * time.Second,
		// Lookup batches hold the response open while the whole batch
		// runs, so the write timeout cannot be a flat 15s.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	shutdownTimeout := 30 * time.Second
	if err := server.HandleSignals(srv, shutdownTimeout); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
