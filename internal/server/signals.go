package server

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// SignalHandler manages graceful shutdown of the HTTP server
type SignalHandler struct {
	server          *http.Server
	shutdownTimeout time.Duration
}

// NewSignalHandler creates a new signal handler
func NewSignalHandler(server *http.Server, shutdownTimeout time.Duration) *SignalHandler {
	return &SignalHandler{
		server:          server,
		shutdownTimeout: shutdownTimeout,
	}
}

// WaitForShutdown blocks until SIGINT or SIGTERM, then drains the server.
// In-flight lookup batches get the full shutdown window to finish writing
// their responses.
func (sh *SignalHandler) WaitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	log.Printf("INFO: Received signal: %v", sig)
	log.Println("INFO: Initiating graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), sh.shutdownTimeout)
	defer cancel()

	if err := sh.server.Shutdown(ctx); err != nil {
		log.Printf("WARN: Server forced to shutdown due to timeout: %v", err)
	} else {
		log.Println("INFO: Server gracefully shut down")
	}
}

// HandleSignals starts the server and blocks until it is shut down.
func HandleSignals(server *http.Server, shutdownTimeout time.Duration) error {
	go func() {
		log.Printf("INFO: Starting server on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	handler := NewSignalHandler(server, shutdownTimeout)
	handler.WaitForShutdown()

	return nil
}
