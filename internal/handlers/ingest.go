package handlers

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_pipeline.go -package=mocks fundfacts-ai/internal/handlers Pipeline

import (
	"context"
	"encoding/json"
	"net/http"

	"fundfacts-ai/internal/contextutil"
	"fundfacts-ai/internal/ingest"
)

// Pipeline drives chunk preparation and vector indexing.
// This interface is defined from the handler's perspective (consumer-first).
type Pipeline interface {
	// Run ingests every stored scheme into an empty vector index; a
	// populated index must be refreshed through Rebuild instead.
	Run(ctx context.Context) (ingest.Stats, error)
	// Rebuild clears the vector index and then runs a full ingestion.
	Rebuild(ctx context.Context) (ingest.Stats, error)
	// Coverage reports per-field fact coverage and chunk token statistics.
	Coverage(ctx context.Context) (*ingest.CoverageStats, error)
}

// IngestHandler handles HTTP requests for triggering re-ingestion.
type IngestHandler struct {
	pipeline Pipeline
}

// NewIngestHandler creates a new IngestHandler.
func NewIngestHandler(pipeline Pipeline) *IngestHandler {
	return &IngestHandler{
		pipeline: pipeline,
	}
}

// IngestResponse represents the response from the ingest endpoint.
type IngestResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// ServeHTTP handles HTTP requests for triggering re-ingestion.
func (h *IngestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	// Check for force parameter
	force := r.URL.Query().Get("force") == "true"

	if force {
		logger.InfoContext(ctx, "force rebuild triggered via API")
	} else {
		logger.InfoContext(ctx, "ingestion triggered via API")
	}

	// Trigger ingestion in a goroutine so it doesn't block the HTTP response.
	// Use background context so ingestion continues after the request completes.
	go func() {
		ingestCtx := context.Background()
		var (
			stats ingest.Stats
			err   error
		)
		if force {
			stats, err = h.pipeline.Rebuild(ingestCtx)
		} else {
			stats, err = h.pipeline.Run(ingestCtx)
		}
		if err != nil {
			logger.ErrorContext(ingestCtx, "ingestion completed with errors", "error", err)
		} else {
			logger.InfoContext(ingestCtx, "ingestion completed successfully",
				"schemes", stats.Schemes, "chunks", stats.Chunks)
		}
	}()

	// Return immediately with accepted status
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	message := "Ingestion started. Check server logs for progress."
	if force {
		message = "Force rebuild started (all existing vectors cleared). Check server logs for progress."
	}
	_ = json.NewEncoder(w).Encode(IngestResponse{
		Message: message,
		Status:  "accepted",
	})
}

// writeError writes an error response.
func (h *IngestHandler) writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error: message,
	})
}
