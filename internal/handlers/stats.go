package handlers

import (
	"encoding/json"
	"net/http"

	"fundfacts-ai/internal/contextutil"
	"fundfacts-ai/internal/ingest"
	"fundfacts-ai/internal/storage"
	"fundfacts-ai/internal/vectorstore"
)

// StatsHandler handles HTTP requests for corpus statistics.
type StatsHandler struct {
	vectorStore vectorstore.VectorStore
	schemes     storage.SchemeStore
	pipeline    Pipeline
}

// NewStatsHandler creates a new StatsHandler. pipeline may be nil, in which
// case the response omits coverage statistics.
func NewStatsHandler(vectorStore vectorstore.VectorStore, schemes storage.SchemeStore, pipeline Pipeline) *StatsHandler {
	return &StatsHandler{
		vectorStore: vectorStore,
		schemes:     schemes,
		pipeline:    pipeline,
	}
}

// StatsResponse represents the corpus statistics response.
type StatsResponse struct {
	// VectorStore describes the bound vector collection.
	VectorStore vectorstore.CollectionStats `json:"vector_store"`

	// Schemes is the number of schemes in the fact database.
	Schemes int `json:"schemes"`

	// Coverage contains per-field fact coverage and chunk token statistics.
	Coverage *ingest.CoverageStats `json:"coverage,omitempty"`
}

// ServeHTTP handles HTTP requests for corpus statistics.
func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	collectionStats, err := h.vectorStore.Stats(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "failed to get vector store stats", "error", err)
		h.writeError(w, http.StatusServiceUnavailable, "Vector store unavailable")
		return
	}

	count, err := h.schemes.Count(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "failed to count schemes", "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to count schemes")
		return
	}

	resp := StatsResponse{
		VectorStore: collectionStats,
		Schemes:     count,
	}

	// Coverage walks every stored scheme, so its failure downgrades the
	// response instead of failing it.
	if h.pipeline != nil {
		coverage, err := h.pipeline.Coverage(ctx)
		if err != nil {
			logger.WarnContext(ctx, "failed to compute coverage stats", "error", err)
		} else {
			resp.Coverage = coverage
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.ErrorContext(ctx, "failed to encode response", "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to encode response")
		return
	}
}

// writeError writes an error response.
func (h *StatsHandler) writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error: message,
	})
}
