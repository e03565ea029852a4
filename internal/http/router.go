package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"fundfacts-ai/internal/handlers"
	"fundfacts-ai/internal/service"
	"fundfacts-ai/internal/storage"
	"fundfacts-ai/internal/vectorstore"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Answers     service.AnswerService
	Pipeline    handlers.Pipeline
	VectorStore vectorstore.VectorStore
	Schemes     storage.SchemeStore
	DB          handlers.DBPinger
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(CORS)

	askHandler := handlers.NewAskHandler(deps.Answers, deps.Pipeline)
	ingestHandler := handlers.NewIngestHandler(deps.Pipeline)
	statsHandler := handlers.NewStatsHandler(deps.VectorStore, deps.Schemes, deps.Pipeline)
	healthHandler := handlers.NewHealthHandler(deps.DB, deps.VectorStore)

	// Register API routes
	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodPost, "/ask", askHandler)
		r.Method(http.MethodPost, "/ingest", ingestHandler)
		r.Method(http.MethodGet, "/stats", statsHandler)
		r.Method(http.MethodGet, "/health", healthHandler)
	})

	return r
}
