package ingest

import (
	"context"
	"fmt"
	"math"
	"sort"

	"fundfacts-ai/internal/tokens"
)

// ChunkTokenStats contains statistics about estimated token counts in chunks.
type ChunkTokenStats struct {
	// Min is the minimum token count across all chunks.
	Min int `json:"min"`
	// Max is the maximum token count across all chunks.
	Max int `json:"max"`
	// Mean is the mean token count across all chunks.
	Mean float64 `json:"mean"`
	// P95 is the 95th percentile token count.
	P95 int `json:"p95"`
}

// CoverageStats describes how completely the stored schemes cover the fact
// fields, and the chunk volume they would produce when ingested.
type CoverageStats struct {
	// Schemes is the number of schemes in the database.
	Schemes int `json:"schemes"`
	// FieldCoverage counts, per fact field, how many schemes have it populated.
	FieldCoverage map[string]int `json:"field_coverage"`
	// Chunks is the total number of chunks the stored schemes prepare into.
	Chunks int `json:"chunks"`
	// ChunkTokens summarizes estimated token counts across those chunks.
	ChunkTokens ChunkTokenStats `json:"chunk_tokens"`
}

// Coverage computes fact-field coverage and chunk token statistics from the
// current database state.
func (p *Pipeline) Coverage(ctx context.Context) (*CoverageStats, error) {
	schemes, err := p.schemes.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list schemes: %w", err)
	}

	stats := &CoverageStats{
		Schemes:       len(schemes),
		FieldCoverage: make(map[string]int),
	}

	var tokenCounts []int
	for _, scheme := range schemes {
		for _, field := range factFields {
			if deref(field.value(scheme)) != "" {
				stats.FieldCoverage[field.name]++
			}
		}

		chunks := PrepareChunks(scheme)
		stats.Chunks += len(chunks)
		for _, chunk := range chunks {
			tokenCounts = append(tokenCounts, tokens.Estimate(chunk.Text))
		}
	}

	stats.ChunkTokens = computeTokenStats(tokenCounts)
	return stats, nil
}

// computeTokenStats computes min, max, mean, and p95 from token counts.
func computeTokenStats(tokenCounts []int) ChunkTokenStats {
	if len(tokenCounts) == 0 {
		return ChunkTokenStats{}
	}

	sorted := make([]int, len(tokenCounts))
	copy(sorted, tokenCounts)
	sort.Ints(sorted)

	sum := 0
	for _, count := range tokenCounts {
		sum += count
	}
	mean := float64(sum) / float64(len(tokenCounts))

	p95Index := int(math.Ceil(float64(len(sorted)) * 0.95))
	if p95Index >= len(sorted) {
		p95Index = len(sorted) - 1
	}

	return ChunkTokenStats{
		Min:  sorted[0],
		Max:  sorted[len(sorted)-1],
		Mean: math.Round(mean*100) / 100,
		P95:  sorted[p95Index],
	}
}
