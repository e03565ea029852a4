package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_vector_store.go -package=mocks fundfacts-ai/internal/vectorstore VectorStore

import (
	"context"
	"errors"
	"fmt"
)

// ErrInvalidPoints is returned when an upsert payload fails validation.
var ErrInvalidPoints = errors.New("invalid points payload")

// documentKey is the payload key under which chunk text is stored alongside
// its metadata.
const documentKey = "document"

// Hit is a single nearest-neighbor match. Distance is the index's native
// metric (cosine distance here); lower is closer.
type Hit struct {
	ID       string
	Text     string
	Meta     map[string]any
	Distance float32
}

// CollectionStats describes the bound collection.
type CollectionStats struct {
	Count    int    `json:"document_count"`
	Name     string `json:"collection_name"`
	Location string `json:"location"`
}

// VectorStore stores (text, embedding, metadata) triples for one collection
// and answers nearest-neighbor queries over them.
type VectorStore interface {
	// Upsert adds documents with their embeddings and metadata. ids may be
	// nil, in which case fresh ids are generated. texts, vectors, and metas
	// must be non-empty and of equal length, and every metadata entry must
	// carry a non-empty source_url.
	Upsert(ctx context.Context, ids []string, texts []string, vectors [][]float32, metas []map[string]any) error

	// Search returns up to k nearest neighbors of the query vector, sorted by
	// ascending distance, optionally restricted by metadata equality filters.
	Search(ctx context.Context, vector []float32, k int, filter map[string]any) ([]Hit, error)

	// ClearAll wipes every document in the collection.
	ClearAll(ctx context.Context) error

	// Stats reports the document count and collection identity.
	Stats(ctx context.Context) (CollectionStats, error)

	// Ping verifies the collection is reachable.
	Ping(ctx context.Context) error
}

// validateUpsert enforces the shared upsert contract across implementations.
func validateUpsert(ids, texts []string, vectors [][]float32, metas []map[string]any) error {
	if len(texts) == 0 || len(vectors) == 0 || len(metas) == 0 {
		return fmt.Errorf("%w: texts, vectors, and metadatas must be non-empty lists", ErrInvalidPoints)
	}
	if len(texts) != len(vectors) || len(texts) != len(metas) {
		return fmt.Errorf("%w: texts, vectors, and metadatas must have the same length", ErrInvalidPoints)
	}
	if ids != nil && len(ids) != len(texts) {
		return fmt.Errorf("%w: ids must have the same length as texts", ErrInvalidPoints)
	}
	for i, meta := range metas {
		sourceURL, ok := meta["source_url"].(string)
		if !ok || sourceURL == "" {
			return fmt.Errorf("%w: metadata at index %d is missing 'source_url'", ErrInvalidPoints, i)
		}
	}
	return nil
}
