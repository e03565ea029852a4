package ingest

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_embedder.go -package=mocks fundfacts-ai/internal/ingest Embedder

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"fundfacts-ai/internal/contextutil"
	"fundfacts-ai/internal/storage"
	"fundfacts-ai/internal/vectorstore"
)

// Embedder produces embedding vectors for batches of chunk text.
// This interface is defined from the pipeline's perspective (consumer-first).
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Stats summarizes one pipeline run.
type Stats struct {
	Schemes int `json:"schemes"`
	Chunks  int `json:"chunks"`
	Skipped int `json:"skipped"`
}

// Pipeline turns stored scheme facts into embedded chunks in the vector
// store.
type Pipeline struct {
	schemes     storage.SchemeStore
	embedder    Embedder
	vectorStore vectorstore.VectorStore
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(schemes storage.SchemeStore, embedder Embedder, vectorStore vectorstore.VectorStore) *Pipeline {
	return &Pipeline{
		schemes:     schemes,
		embedder:    embedder,
		vectorStore: vectorStore,
	}
}

// IngestScheme prepares, embeds, and upserts the chunks for a single scheme.
// It returns the number of chunks written to the vector store.
func (p *Pipeline) IngestScheme(ctx context.Context, scheme *storage.SchemeRecord) (int, error) {
	logger := contextutil.LoggerFromContext(ctx)

	chunks := PrepareChunks(scheme)

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	vectors, err := p.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("failed to generate embeddings: %w", err)
	}
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(chunks), len(vectors))
	}

	ids := make([]string, len(chunks))
	metas := make([]map[string]any, len(chunks))
	for i, chunk := range chunks {
		ids[i] = uuid.New().String()
		metas[i] = chunk.Meta
	}

	if err := p.vectorStore.Upsert(ctx, ids, texts, vectors, metas); err != nil {
		return 0, fmt.Errorf("failed to upsert vectors: %w", err)
	}

	logger.InfoContext(ctx, "ingested scheme", "scheme", scheme.SchemeName, "chunks", len(chunks))
	return len(chunks), nil
}

// Run ingests every stored scheme into an empty collection. A collection
// that already holds documents is left untouched: chunks are never updated
// in place, so refreshing an existing generation requires Rebuild. Failures
// on individual schemes are logged and counted as skipped without stopping
// the run; a non-nil error is returned alongside the stats when any scheme
// was skipped.
func (p *Pipeline) Run(ctx context.Context) (Stats, error) {
	logger := contextutil.LoggerFromContext(ctx)

	existing, err := p.vectorStore.Stats(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to check vector store: %w", err)
	}
	if existing.Count > 0 {
		return Stats{}, fmt.Errorf("vector store already contains %d documents, use a rebuild to replace them", existing.Count)
	}

	schemes, err := p.schemes.ListAll(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to list schemes: %w", err)
	}

	logger.InfoContext(ctx, "starting ingestion", "total_schemes", len(schemes))

	var stats Stats
	for _, scheme := range schemes {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		count, err := p.IngestScheme(ctx, scheme)
		if err != nil {
			stats.Skipped++
			logger.ErrorContext(ctx, "failed to ingest scheme", "scheme", scheme.SchemeName, "error", err)
			continue
		}

		stats.Schemes++
		stats.Chunks += count
	}

	logger.InfoContext(ctx, "ingestion completed",
		"schemes", stats.Schemes, "chunks", stats.Chunks, "skipped", stats.Skipped)

	if stats.Skipped > 0 {
		return stats, fmt.Errorf("ingestion completed with %d schemes skipped", stats.Skipped)
	}

	return stats, nil
}

// Rebuild wipes the vector collection and re-ingests every stored scheme.
func (p *Pipeline) Rebuild(ctx context.Context) (Stats, error) {
	logger := contextutil.LoggerFromContext(ctx)
	logger.InfoContext(ctx, "clearing vector collection for rebuild")

	if err := p.vectorStore.ClearAll(ctx); err != nil {
		return Stats{}, fmt.Errorf("failed to clear vector store: %w", err)
	}

	return p.Run(ctx)
}
