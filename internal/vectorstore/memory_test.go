package vectorstore

import (
	"context"
	"testing"
)

func seedMemoryStore(t *testing.T) *MemoryStore {
	t.Helper()

	store, err := NewMemoryStore("facts", 3)
	if err != nil {
		t.Fatalf("NewMemoryStore() error = %v", err)
	}

	texts := []string{
		"HDFC Equity Fund (Equity) Expense Ratio: 1.05%",
		"HDFC Equity Fund (Equity) Minimum SIP: Rs 100",
		"HDFC Large Cap Fund (Large Cap) NAV: Rs 850",
	}
	vectors := [][]float32{
		{1, 0, 0},
		{0.9, 0.1, 0},
		{0, 1, 0},
	}
	metas := []map[string]any{
		{"source_url": "https://example.test/equity", "scheme_name": "HDFC Equity Fund"},
		{"source_url": "https://example.test/equity", "scheme_name": "HDFC Equity Fund"},
		{"source_url": "https://example.test/large-cap", "scheme_name": "HDFC Large Cap Fund"},
	}

	if err := store.Upsert(context.Background(), nil, texts, vectors, metas); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	return store
}

func TestMemoryStore_SearchOrdering(t *testing.T) {
	store := seedMemoryStore(t)

	hits, err := store.Search(context.Background(), []float32{1, 0, 0}, 3, nil)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if len(hits) != 3 {
		t.Fatalf("Search() returned %d hits, want 3", len(hits))
	}

	for i := 1; i < len(hits); i++ {
		if hits[i].Distance < hits[i-1].Distance {
			t.Errorf("hits not sorted by ascending distance: %f before %f", hits[i-1].Distance, hits[i].Distance)
		}
	}

	if hits[0].Text != "HDFC Equity Fund (Equity) Expense Ratio: 1.05%" {
		t.Errorf("closest hit = %q, want exact-match document first", hits[0].Text)
	}

	// Generated ids must be present when none were supplied.
	for i, hit := range hits {
		if hit.ID == "" {
			t.Errorf("hit %d has empty id", i)
		}
	}
}

func TestMemoryStore_SearchFilter(t *testing.T) {
	store := seedMemoryStore(t)

	filter := map[string]any{"scheme_name": "HDFC Large Cap Fund"}
	hits, err := store.Search(context.Background(), []float32{1, 0, 0}, 5, filter)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if len(hits) != 1 {
		t.Fatalf("Search() with filter returned %d hits, want 1", len(hits))
	}
	if hits[0].Meta["scheme_name"] != "HDFC Large Cap Fund" {
		t.Errorf("filtered hit scheme = %v, want HDFC Large Cap Fund", hits[0].Meta["scheme_name"])
	}
}

func TestMemoryStore_SearchCapsK(t *testing.T) {
	store := seedMemoryStore(t)

	hits, err := store.Search(context.Background(), []float32{1, 0, 0}, 2, nil)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 2 {
		t.Errorf("Search() returned %d hits, want 2", len(hits))
	}
}

func TestMemoryStore_EmptyIndex(t *testing.T) {
	store, err := NewMemoryStore("facts", 3)
	if err != nil {
		t.Fatalf("NewMemoryStore() error = %v", err)
	}

	hits, err := store.Search(context.Background(), []float32{1, 0, 0}, 5, nil)
	if err != nil {
		t.Fatalf("Search() on empty index error = %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("Search() on empty index returned %d hits, want 0", len(hits))
	}
}

func TestMemoryStore_DimensionChecks(t *testing.T) {
	store := seedMemoryStore(t)
	ctx := context.Background()

	if _, err := store.Search(ctx, []float32{1, 0}, 3, nil); err == nil {
		t.Error("Search() with wrong query dimension should return error")
	}

	err := store.Upsert(ctx, nil,
		[]string{"bad"},
		[][]float32{{1, 0}},
		[]map[string]any{{"source_url": "https://example.test"}},
	)
	if err == nil {
		t.Error("Upsert() with wrong vector dimension should return error")
	}
}

func TestMemoryStore_UpsertReplacesByID(t *testing.T) {
	store, err := NewMemoryStore("facts", 3)
	if err != nil {
		t.Fatalf("NewMemoryStore() error = %v", err)
	}
	ctx := context.Background()

	meta := []map[string]any{{"source_url": "https://example.test"}}
	if err := store.Upsert(ctx, []string{"p1"}, []string{"old"}, [][]float32{{1, 0, 0}}, meta); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if err := store.Upsert(ctx, []string{"p1"}, []string{"new"}, [][]float32{{1, 0, 0}}, meta); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.Count != 1 {
		t.Errorf("Stats().Count = %d after id reuse, want 1", stats.Count)
	}

	hits, err := store.Search(ctx, []float32{1, 0, 0}, 1, nil)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 1 || hits[0].Text != "new" {
		t.Errorf("Search() after replace = %+v, want the replacement text", hits)
	}
}

func TestMemoryStore_ClearAll(t *testing.T) {
	store := seedMemoryStore(t)
	ctx := context.Background()

	if err := store.ClearAll(ctx); err != nil {
		t.Fatalf("ClearAll() error = %v", err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.Count != 0 {
		t.Errorf("Stats().Count = %d after ClearAll, want 0", stats.Count)
	}
	if stats.Name != "facts" {
		t.Errorf("Stats().Name = %q, want facts", stats.Name)
	}
	if stats.Location != "memory" {
		t.Errorf("Stats().Location = %q, want memory", stats.Location)
	}
}
