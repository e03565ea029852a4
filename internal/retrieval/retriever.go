package retrieval

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_embedder.go -package=mocks fundfacts-ai/internal/retrieval Embedder
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_searcher.go -package=mocks fundfacts-ai/internal/retrieval Searcher

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fundfacts-ai/internal/contextutil"
	"fundfacts-ai/internal/vectorstore"
)

// ErrEmptyQuery is returned when the query is blank.
var ErrEmptyQuery = errors.New("query must be a non-empty string")

// DefaultK is the number of results retrieved when the caller does not ask
// for a specific count.
const DefaultK = 5

// overviewK is the result count used for whole-scheme lookups.
const overviewK = 10

// Embedder turns text into a fixed-dimension vector.
// This interface is defined from the retriever's perspective (consumer-first).
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Searcher performs nearest-neighbor search over the stored chunks.
type Searcher interface {
	Search(ctx context.Context, vector []float32, k int, filter map[string]any) ([]vectorstore.Hit, error)
}

// Result is a single retrieved chunk ranked by similarity to the query.
// SimilarityScore is 1 - Distance; results keep the index's ascending
// distance order.
type Result struct {
	Document        string         `json:"document"`
	Metadata        map[string]any `json:"metadata"`
	SimilarityScore float32        `json:"similarity_score"`
	Distance        float32        `json:"distance"`
}

// Retriever embeds queries and searches the vector index.
type Retriever struct {
	embedder Embedder
	searcher Searcher
}

// NewRetriever creates a new retriever over the given embedder and index.
func NewRetriever(embedder Embedder, searcher Searcher) *Retriever {
	return &Retriever{
		embedder: embedder,
		searcher: searcher,
	}
}

// Retrieve embeds the query and returns the k nearest chunks, optionally
// restricted to a single scheme. The index's ranking is preserved as-is.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int, schemeFilter string) ([]Result, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if k <= 0 {
		k = DefaultK
	}

	logger.InfoContext(ctx, "retrieval started", "query", query, "k", k, "scheme_filter", schemeFilter)

	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		logger.ErrorContext(ctx, "failed to embed query", "error", err)
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	var filter map[string]any
	if schemeFilter != "" {
		filter = map[string]any{"scheme_name": schemeFilter}
	}

	hits, err := r.searcher.Search(ctx, vector, k, filter)
	if err != nil {
		logger.ErrorContext(ctx, "failed to search vector index", "error", err)
		return nil, fmt.Errorf("failed to search vector index: %w", err)
	}

	results := make([]Result, len(hits))
	for i, hit := range hits {
		results[i] = Result{
			Document:        hit.Text,
			Metadata:        hit.Meta,
			SimilarityScore: 1 - hit.Distance,
			Distance:        hit.Distance,
		}
	}

	logger.InfoContext(ctx, "retrieval completed", "results_count", len(results), "k_requested", k)
	if len(results) > 0 {
		topScores := make([]float32, 0, 3)
		for i := 0; i < len(results) && i < 3; i++ {
			topScores = append(topScores, results[i].SimilarityScore)
		}
		logger.DebugContext(ctx, "top retrieval results", "top_3_scores", topScores)
	}

	return results, nil
}

// SchemeOverview retrieves the stored chunks for a single scheme using a
// broad query scoped by the scheme filter.
func (r *Retriever) SchemeOverview(ctx context.Context, schemeName string) ([]Result, error) {
	query := fmt.Sprintf("%s mutual fund information", schemeName)
	return r.Retrieve(ctx, query, overviewK, schemeName)
}
