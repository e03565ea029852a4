package main

import (
	"context"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"

	"fundfacts-ai/internal/config"
	"fundfacts-ai/internal/http"
	"fundfacts-ai/internal/ingest"
	"fundfacts-ai/internal/llm"
	"fundfacts-ai/internal/retrieval"
	"fundfacts-ai/internal/service"
	"fundfacts-ai/internal/storage"
	"fundfacts-ai/internal/vectorstore"
)

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.GoogleAPIKey == "" {
		log.Fatalf("GOOGLE_API_KEY is required")
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel, "format", cfg.LogFormat)

	// Initialize database
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("Database initialized", "path", cfg.DBPath)

	schemeRepo := storage.NewSchemeRepo(db)

	ctx := context.Background()

	// Initialize Qdrant vector store
	vectorStore, err := vectorstore.NewQdrantStore(cfg.QdrantURL(), cfg.QdrantCollection, cfg.EmbeddingVectorSize)
	if err != nil {
		log.Fatalf("Failed to create Qdrant client: %v", err)
	}
	if err := vectorStore.EnsureCollection(ctx); err != nil {
		log.Fatalf("Failed to ensure Qdrant collection: %v", err)
	}
	slog.Info("Qdrant collection ready", "collection", cfg.QdrantCollection, "vector_size", cfg.EmbeddingVectorSize)

	// Validate embeddings service vector size (fail-fast)
	embedder := llm.NewEmbeddingsClient(cfg.EmbeddingsURL, cfg.EmbeddingsAPIKey, cfg.EmbeddingsModel, cfg.EmbeddingVectorSize)
	dim, err := embedder.Dimension(ctx)
	if err != nil {
		log.Fatalf("Failed to validate embeddings service: %v", err)
	}
	if dim != cfg.EmbeddingVectorSize {
		log.Fatalf("Embedding vector size mismatch: expected %d, got %d", cfg.EmbeddingVectorSize, dim)
	}
	slog.Info("Embeddings client validated", "model", cfg.EmbeddingsModel, "vector_size", dim)

	// Resolve the generation model, falling back through known candidates
	generator, err := llm.ResolveModel(ctx, cfg.GeminiBaseURL, cfg.GoogleAPIKey, cfg.GeminiModel)
	if err != nil {
		log.Fatalf("Failed to resolve generation model: %v", err)
	}
	slog.Info("Language model ready", "model", generator.ModelName())

	prompts, err := config.LoadPrompts(cfg.PromptsConfig)
	if err != nil {
		log.Fatalf("Failed to load prompts: %v", err)
	}

	retriever := retrieval.NewRetriever(embedder, vectorStore)
	answerService := service.NewAnswerService(retriever, generator, schemeRepo, prompts.SystemPrompt, prompts.RefusalMessage)
	pipeline := ingest.NewPipeline(schemeRepo, embedder, vectorStore)

	// Create router with dependencies
	deps := &http.Deps{
		Answers:     answerService,
		Pipeline:    pipeline,
		VectorStore: vectorStore,
		Schemes:     schemeRepo,
		DB:          db,
	}
	router := http.NewRouter(deps)

	// Start API server
	slog.Info("Starting API server", "addr", cfg.HTTPAddr)
	slog.Debug("Gemini configuration", "base_url", cfg.GeminiBaseURL, "model", generator.ModelName())
	if err := nethttp.ListenAndServe(cfg.HTTPAddr, router); err != nil {
		log.Fatalf("API server failed to start: %v", err)
	}
}
