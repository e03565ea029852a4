package vectorstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-process VectorStore using brute-force cosine search.
// Suitable for tests and small local corpora when Qdrant is not available.
type MemoryStore struct {
	name       string
	vectorSize int

	mu      sync.RWMutex
	ids     []string
	texts   []string
	vectors [][]float32
	metas   []map[string]any
}

// NewMemoryStore creates an empty in-memory store for vectors of the given size.
func NewMemoryStore(name string, vectorSize int) (*MemoryStore, error) {
	if vectorSize <= 0 {
		return nil, fmt.Errorf("vector size must be positive")
	}
	return &MemoryStore{
		name:       name,
		vectorSize: vectorSize,
	}, nil
}

// Upsert adds documents, replacing any entry that reuses an existing id.
func (m *MemoryStore) Upsert(ctx context.Context, ids []string, texts []string, vectors [][]float32, metas []map[string]any) error {
	if err := validateUpsert(ids, texts, vectors, metas); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing := make(map[string]int, len(m.ids))
	for i, id := range m.ids {
		existing[id] = i
	}

	for i := range texts {
		if len(vectors[i]) != m.vectorSize {
			return fmt.Errorf("vector dimension mismatch at index %d: got %d, expected %d", i, len(vectors[i]), m.vectorSize)
		}

		id := ""
		if ids != nil {
			id = ids[i]
		}
		if id == "" {
			id = uuid.New().String()
		}

		vec := make([]float32, m.vectorSize)
		copy(vec, vectors[i])

		meta := make(map[string]any, len(metas[i]))
		for k, v := range metas[i] {
			meta[k] = v
		}

		if at, ok := existing[id]; ok {
			m.texts[at] = texts[i]
			m.vectors[at] = vec
			m.metas[at] = meta
			continue
		}

		existing[id] = len(m.ids)
		m.ids = append(m.ids, id)
		m.texts = append(m.texts, texts[i])
		m.vectors = append(m.vectors, vec)
		m.metas = append(m.metas, meta)
	}

	return nil
}

// Search scores every stored vector by cosine distance and returns the k
// closest, ascending.
func (m *MemoryStore) Search(ctx context.Context, vector []float32, k int, filter map[string]any) ([]Hit, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be greater than 0")
	}
	if len(vector) != m.vectorSize {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(vector), m.vectorSize)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	hits := make([]Hit, 0, len(m.ids))
	for i := range m.ids {
		if !matchesFilter(m.metas[i], filter) {
			continue
		}
		hits = append(hits, Hit{
			ID:       m.ids[i],
			Text:     m.texts[i],
			Meta:     m.metas[i],
			Distance: 1 - cosineSimilarity(vector, m.vectors[i]),
		})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })

	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

// ClearAll wipes every stored document.
func (m *MemoryStore) ClearAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids = nil
	m.texts = nil
	m.vectors = nil
	m.metas = nil
	return nil
}

// Stats reports the document count.
func (m *MemoryStore) Stats(ctx context.Context) (CollectionStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return CollectionStats{
		Count:    len(m.ids),
		Name:     m.name,
		Location: "memory",
	}, nil
}

// Ping always succeeds for the in-memory store.
func (m *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

func matchesFilter(meta map[string]any, filter map[string]any) bool {
	for key, want := range filter {
		if meta[key] != want {
			return false
		}
	}
	return true
}

func cosineSimilarity(a, b []float32) float32 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
