package ingest_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"fundfacts-ai/internal/ingest"
	"fundfacts-ai/internal/ingest/mocks"
	"fundfacts-ai/internal/storage"
	storagemocks "fundfacts-ai/internal/storage/mocks"
	"fundfacts-ai/internal/vectorstore"
	vectormocks "fundfacts-ai/internal/vectorstore/mocks"
)

func init() {
	// Set default logger to discard output for cleaner test output
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// midCapScheme has minimum SIP and NAV populated, so it prepares three
// chunks: the two fact chunks plus the comprehensive one.
func midCapScheme() *storage.SchemeRecord {
	sip := "Rs 500"
	nav := "Rs 120.50"
	return &storage.SchemeRecord{
		ID:          "44444444-4444-4444-4444-444444444444",
		SchemeName:  "HDFC Mid Cap Fund",
		Category:    "Mid Cap",
		SourceURL:   "https://groww.in/mutual-funds/hdfc-mid-cap-fund-direct-growth",
		MinimumSIP:  &sip,
		NAV:         &nav,
		ExtractedAt: time.Date(2025, 8, 5, 16, 45, 0, 0, time.UTC),
	}
}

func vectorsFor(texts []string) [][]float32 {
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{float32(i), 0.5}
	}
	return vectors
}

func TestNewPipeline(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	p := ingest.NewPipeline(
		storagemocks.NewMockSchemeStore(ctrl),
		mocks.NewMockEmbedder(ctrl),
		vectormocks.NewMockVectorStore(ctrl),
	)
	if p == nil {
		t.Fatal("NewPipeline() returned nil")
	}
}

func TestPipeline_IngestScheme(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	schemeStore := storagemocks.NewMockSchemeStore(ctrl)
	embedder := mocks.NewMockEmbedder(ctrl)
	vectorStore := vectormocks.NewMockVectorStore(ctrl)

	wantTexts := []string{
		"HDFC Mid Cap Fund (Mid Cap) Minimum SIP: Rs 500",
		"HDFC Mid Cap Fund (Mid Cap) NAV: Rs 120.50",
		"HDFC Mid Cap Fund is a Mid Cap mutual fund scheme. Minimum SIP: Rs 500 Current NAV: Rs 120.50",
	}
	wantVectors := vectorsFor(wantTexts)

	embedder.EXPECT().
		EmbedTexts(gomock.Any(), wantTexts).
		Return(wantVectors, nil)

	var gotIDs []string
	var gotMetas []map[string]any
	vectorStore.EXPECT().
		Upsert(gomock.Any(), gomock.Any(), wantTexts, wantVectors, gomock.Any()).
		DoAndReturn(func(_ context.Context, ids, _ []string, _ [][]float32, metas []map[string]any) error {
			gotIDs = ids
			gotMetas = metas
			return nil
		})

	p := ingest.NewPipeline(schemeStore, embedder, vectorStore)

	count, err := p.IngestScheme(context.Background(), midCapScheme())
	if err != nil {
		t.Fatalf("IngestScheme() error = %v", err)
	}
	if count != len(wantTexts) {
		t.Errorf("IngestScheme() count = %d, want %d", count, len(wantTexts))
	}

	if len(gotIDs) != len(wantTexts) {
		t.Fatalf("upserted %d ids, want %d", len(gotIDs), len(wantTexts))
	}
	seen := make(map[string]bool)
	for i, id := range gotIDs {
		if len(id) != 36 {
			t.Errorf("id %d = %q, want a UUID", i, id)
		}
		if seen[id] {
			t.Errorf("id %d = %q is duplicated", i, id)
		}
		seen[id] = true
	}

	wantFieldNames := []string{"minimum_sip", "nav", "comprehensive"}
	for i, meta := range gotMetas {
		if got := meta["field_name"]; got != wantFieldNames[i] {
			t.Errorf("meta %d field_name = %v, want %q", i, got, wantFieldNames[i])
		}
		if got, _ := meta["source_url"].(string); got == "" {
			t.Errorf("meta %d is missing source_url", i)
		}
	}
}

func TestPipeline_IngestScheme_EmbedError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	schemeStore := storagemocks.NewMockSchemeStore(ctrl)
	embedder := mocks.NewMockEmbedder(ctrl)
	vectorStore := vectormocks.NewMockVectorStore(ctrl)

	embedder.EXPECT().
		EmbedTexts(gomock.Any(), gomock.Any()).
		Return(nil, errors.New("embeddings api down"))

	p := ingest.NewPipeline(schemeStore, embedder, vectorStore)

	_, err := p.IngestScheme(context.Background(), midCapScheme())
	if err == nil {
		t.Fatal("IngestScheme() expected error")
	}
	if !strings.Contains(err.Error(), "failed to generate embeddings") {
		t.Errorf("IngestScheme() error = %v", err)
	}
}

func TestPipeline_IngestScheme_CountMismatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	schemeStore := storagemocks.NewMockSchemeStore(ctrl)
	embedder := mocks.NewMockEmbedder(ctrl)
	vectorStore := vectormocks.NewMockVectorStore(ctrl)

	embedder.EXPECT().
		EmbedTexts(gomock.Any(), gomock.Any()).
		Return([][]float32{{0.1, 0.2}}, nil)

	p := ingest.NewPipeline(schemeStore, embedder, vectorStore)

	_, err := p.IngestScheme(context.Background(), midCapScheme())
	if err == nil {
		t.Fatal("IngestScheme() expected error")
	}
	if !strings.Contains(err.Error(), "embedding count mismatch: expected 3, got 1") {
		t.Errorf("IngestScheme() error = %v", err)
	}
}

func TestPipeline_IngestScheme_UpsertError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	schemeStore := storagemocks.NewMockSchemeStore(ctrl)
	embedder := mocks.NewMockEmbedder(ctrl)
	vectorStore := vectormocks.NewMockVectorStore(ctrl)

	embedder.EXPECT().
		EmbedTexts(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, texts []string) ([][]float32, error) {
			return vectorsFor(texts), nil
		})
	vectorStore.EXPECT().
		Upsert(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New("qdrant unavailable"))

	p := ingest.NewPipeline(schemeStore, embedder, vectorStore)

	_, err := p.IngestScheme(context.Background(), midCapScheme())
	if err == nil {
		t.Fatal("IngestScheme() expected error")
	}
	if !strings.Contains(err.Error(), "failed to upsert vectors") {
		t.Errorf("IngestScheme() error = %v", err)
	}
}

func TestPipeline_Run(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	schemeStore := storagemocks.NewMockSchemeStore(ctrl)
	embedder := mocks.NewMockEmbedder(ctrl)
	vectorStore := vectormocks.NewMockVectorStore(ctrl)

	second := midCapScheme()
	second.SchemeName = "HDFC Small Cap Fund"
	second.Category = "Small Cap"

	vectorStore.EXPECT().
		Stats(gomock.Any()).
		Return(vectorstore.CollectionStats{}, nil)
	schemeStore.EXPECT().
		ListAll(gomock.Any()).
		Return([]*storage.SchemeRecord{midCapScheme(), second}, nil)
	embedder.EXPECT().
		EmbedTexts(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, texts []string) ([][]float32, error) {
			return vectorsFor(texts), nil
		}).
		Times(2)
	vectorStore.EXPECT().
		Upsert(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil).
		Times(2)

	p := ingest.NewPipeline(schemeStore, embedder, vectorStore)

	stats, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	want := ingest.Stats{Schemes: 2, Chunks: 6, Skipped: 0}
	if stats != want {
		t.Errorf("Run() stats = %+v, want %+v", stats, want)
	}
}

func TestPipeline_Run_ListError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	schemeStore := storagemocks.NewMockSchemeStore(ctrl)
	embedder := mocks.NewMockEmbedder(ctrl)
	vectorStore := vectormocks.NewMockVectorStore(ctrl)

	vectorStore.EXPECT().
		Stats(gomock.Any()).
		Return(vectorstore.CollectionStats{}, nil)
	schemeStore.EXPECT().
		ListAll(gomock.Any()).
		Return(nil, errors.New("db locked"))

	p := ingest.NewPipeline(schemeStore, embedder, vectorStore)

	_, err := p.Run(context.Background())
	if err == nil {
		t.Fatal("Run() expected error")
	}
	if !strings.Contains(err.Error(), "failed to list schemes") {
		t.Errorf("Run() error = %v", err)
	}
}

func TestPipeline_Run_NonEmptyStore(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	schemeStore := storagemocks.NewMockSchemeStore(ctrl)
	embedder := mocks.NewMockEmbedder(ctrl)
	vectorStore := vectormocks.NewMockVectorStore(ctrl)

	vectorStore.EXPECT().
		Stats(gomock.Any()).
		Return(vectorstore.CollectionStats{Count: 12}, nil)

	p := ingest.NewPipeline(schemeStore, embedder, vectorStore)

	stats, err := p.Run(context.Background())
	if err == nil {
		t.Fatal("Run() expected error for a non-empty collection")
	}
	if !strings.Contains(err.Error(), "already contains 12 documents") {
		t.Errorf("Run() error = %v", err)
	}
	if stats != (ingest.Stats{}) {
		t.Errorf("Run() stats = %+v, want empty", stats)
	}
}

func TestPipeline_Run_SkipsFailedScheme(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	schemeStore := storagemocks.NewMockSchemeStore(ctrl)
	embedder := mocks.NewMockEmbedder(ctrl)
	vectorStore := vectormocks.NewMockVectorStore(ctrl)

	second := midCapScheme()
	second.SchemeName = "HDFC Small Cap Fund"

	vectorStore.EXPECT().
		Stats(gomock.Any()).
		Return(vectorstore.CollectionStats{}, nil)
	schemeStore.EXPECT().
		ListAll(gomock.Any()).
		Return([]*storage.SchemeRecord{midCapScheme(), second}, nil)
	gomock.InOrder(
		embedder.EXPECT().
			EmbedTexts(gomock.Any(), gomock.Any()).
			Return(nil, errors.New("embeddings api down")),
		embedder.EXPECT().
			EmbedTexts(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, texts []string) ([][]float32, error) {
				return vectorsFor(texts), nil
			}),
	)
	vectorStore.EXPECT().
		Upsert(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil)

	p := ingest.NewPipeline(schemeStore, embedder, vectorStore)

	stats, err := p.Run(context.Background())
	if err == nil {
		t.Fatal("Run() expected error when a scheme is skipped")
	}
	if !strings.Contains(err.Error(), "1 schemes skipped") {
		t.Errorf("Run() error = %v", err)
	}
	want := ingest.Stats{Schemes: 1, Chunks: 3, Skipped: 1}
	if stats != want {
		t.Errorf("Run() stats = %+v, want %+v", stats, want)
	}
}

func TestPipeline_Run_ContextCanceled(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	schemeStore := storagemocks.NewMockSchemeStore(ctrl)
	embedder := mocks.NewMockEmbedder(ctrl)
	vectorStore := vectormocks.NewMockVectorStore(ctrl)

	vectorStore.EXPECT().
		Stats(gomock.Any()).
		Return(vectorstore.CollectionStats{}, nil)
	schemeStore.EXPECT().
		ListAll(gomock.Any()).
		Return([]*storage.SchemeRecord{midCapScheme()}, nil)

	p := ingest.NewPipeline(schemeStore, embedder, vectorStore)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stats, err := p.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
	if stats != (ingest.Stats{}) {
		t.Errorf("Run() stats = %+v, want empty", stats)
	}
}

func TestPipeline_Rebuild(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	schemeStore := storagemocks.NewMockSchemeStore(ctrl)
	embedder := mocks.NewMockEmbedder(ctrl)
	vectorStore := vectormocks.NewMockVectorStore(ctrl)

	gomock.InOrder(
		vectorStore.EXPECT().ClearAll(gomock.Any()).Return(nil),
		vectorStore.EXPECT().
			Stats(gomock.Any()).
			Return(vectorstore.CollectionStats{}, nil),
		schemeStore.EXPECT().
			ListAll(gomock.Any()).
			Return([]*storage.SchemeRecord{midCapScheme()}, nil),
	)
	embedder.EXPECT().
		EmbedTexts(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, texts []string) ([][]float32, error) {
			return vectorsFor(texts), nil
		})
	vectorStore.EXPECT().
		Upsert(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil)

	p := ingest.NewPipeline(schemeStore, embedder, vectorStore)

	stats, err := p.Rebuild(context.Background())
	if err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	want := ingest.Stats{Schemes: 1, Chunks: 3, Skipped: 0}
	if stats != want {
		t.Errorf("Rebuild() stats = %+v, want %+v", stats, want)
	}
}

func TestPipeline_Rebuild_ClearError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	schemeStore := storagemocks.NewMockSchemeStore(ctrl)
	embedder := mocks.NewMockEmbedder(ctrl)
	vectorStore := vectormocks.NewMockVectorStore(ctrl)

	vectorStore.EXPECT().ClearAll(gomock.Any()).Return(errors.New("qdrant unavailable"))

	p := ingest.NewPipeline(schemeStore, embedder, vectorStore)

	_, err := p.Rebuild(context.Background())
	if err == nil {
		t.Fatal("Rebuild() expected error")
	}
	if !strings.Contains(err.Error(), "failed to clear vector store") {
		t.Errorf("Rebuild() error = %v", err)
	}
}
