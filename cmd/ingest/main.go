package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"fundfacts-ai/internal/config"
	"fundfacts-ai/internal/ingest"
	"fundfacts-ai/internal/llm"
	"fundfacts-ai/internal/scraper"
	"fundfacts-ai/internal/storage"
	"fundfacts-ai/internal/vectorstore"
)

func main() {
	rebuild := flag.Bool("rebuild", false, "clear the vector collection before indexing")
	skipFetch := flag.Bool("skip-fetch", false, "index already-stored schemes without scraping")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	opts := &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))

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

	schemeRepo := storage.NewSchemeRepo(db)
	ctx := context.Background()

	failures := 0
	if *skipFetch {
		slog.Info("Skipping scrape, indexing stored schemes")
	} else {
		schemes, err := config.LoadSchemes(cfg.SchemesConfig)
		if err != nil {
			log.Fatalf("Failed to load schemes config: %v", err)
		}

		fetcher := scraper.NewFetcher(cfg.ScrapeDelay, scraper.DefaultTimeout)
		slog.Info("Extracting scheme data", "schemes", len(schemes), "delay", cfg.ScrapeDelay)

		for _, s := range schemes {
			record, err := fetchScheme(ctx, fetcher, s)
			if err != nil {
				slog.Error("Failed to extract scheme", "scheme", s.Name, "error", err)
				failures++
				continue
			}
			if err := schemeRepo.Upsert(ctx, record); err != nil {
				slog.Error("Failed to save scheme", "scheme", s.Name, "error", err)
				failures++
				continue
			}
			slog.Info("Extracted scheme", "scheme", s.Name, "fields", countFacts(record))
		}

		slog.Info("Extraction finished", "succeeded", len(schemes)-failures, "failed", failures)
	}

	vectorStore, err := vectorstore.NewQdrantStore(cfg.QdrantURL(), cfg.QdrantCollection, cfg.EmbeddingVectorSize)
	if err != nil {
		log.Fatalf("Failed to create Qdrant client: %v", err)
	}
	if err := vectorStore.EnsureCollection(ctx); err != nil {
		log.Fatalf("Failed to ensure Qdrant collection: %v", err)
	}

	embedder := llm.NewEmbeddingsClient(cfg.EmbeddingsURL, cfg.EmbeddingsAPIKey, cfg.EmbeddingsModel, cfg.EmbeddingVectorSize)
	dim, err := embedder.Dimension(ctx)
	if err != nil {
		log.Fatalf("Failed to validate embeddings service: %v", err)
	}
	if dim != cfg.EmbeddingVectorSize {
		log.Fatalf("Embedding vector size mismatch: expected %d, got %d", cfg.EmbeddingVectorSize, dim)
	}

	pipeline := ingest.NewPipeline(schemeRepo, embedder, vectorStore)

	var stats ingest.Stats
	if *rebuild {
		stats, err = pipeline.Rebuild(ctx)
	} else {
		stats, err = pipeline.Run(ctx)
	}
	if err != nil {
		slog.Error("Indexing completed with errors", "error", err)
		os.Exit(1)
	}
	slog.Info("Indexing complete", "schemes", stats.Schemes, "chunks", stats.Chunks)

	if failures > 0 {
		os.Exit(1)
	}
}

// fetchScheme downloads and parses one scheme page.
func fetchScheme(ctx context.Context, fetcher *scraper.Fetcher, s config.Scheme) (*storage.SchemeRecord, error) {
	if err := scraper.ValidateURL(s.URL); err != nil {
		return nil, err
	}
	source, err := fetcher.Fetch(ctx, s.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}
	return scraper.Extract(source, s.URL, s.Name, s.Category), nil
}

// countFacts reports how many of the five fact fields extraction populated.
func countFacts(record *storage.SchemeRecord) int {
	count := 0
	for _, v := range []*string{
		record.ExpenseRatio,
		record.MinimumSIP,
		record.ExitLoad,
		record.NAV,
		record.TaxImplication,
	} {
		if v != nil {
			count++
		}
	}
	return count
}
