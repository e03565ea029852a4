package ingest

import (
	"fmt"
	"strings"
	"time"

	"fundfacts-ai/internal/storage"
	"fundfacts-ai/internal/tokens"
)

// ChunkTokenLimit caps each chunk's estimated token count before embedding.
// Oversized chunks are truncated from the end, keeping the head.
const ChunkTokenLimit = 500

// Chunk is one searchable text unit derived from a scheme record, paired
// with the metadata stored alongside its vector.
type Chunk struct {
	Text string
	Meta map[string]any
}

// factField binds a scheme fact to its vector-store identity. Chunks are
// emitted in this order.
type factField struct {
	name  string
	label string
	value func(*storage.SchemeRecord) *string
}

var factFields = []factField{
	{"expense_ratio", "Expense Ratio", func(s *storage.SchemeRecord) *string { return s.ExpenseRatio }},
	{"minimum_sip", "Minimum SIP", func(s *storage.SchemeRecord) *string { return s.MinimumSIP }},
	{"exit_load", "Exit Load", func(s *storage.SchemeRecord) *string { return s.ExitLoad }},
	{"nav", "NAV", func(s *storage.SchemeRecord) *string { return s.NAV }},
	{"tax_implication", "Tax Implication", func(s *storage.SchemeRecord) *string { return s.TaxImplication }},
}

// PrepareChunks converts a scheme record into searchable chunks: one per
// populated fact field plus a comprehensive chunk summarizing the whole
// scheme. The comprehensive chunk is always emitted, so the result is never
// empty.
func PrepareChunks(scheme *storage.SchemeRecord) []Chunk {
	chunks := make([]Chunk, 0, len(factFields)+1)

	for _, field := range factFields {
		value := deref(field.value(scheme))
		if value == "" {
			continue
		}

		meta := baseMeta(scheme)
		meta["field_name"] = field.name
		meta["field_label"] = field.label
		meta["field_value"] = value

		text := fmt.Sprintf("%s (%s) %s: %s", scheme.SchemeName, scheme.Category, field.label, value)
		chunks = append(chunks, Chunk{Text: capChunk(text), Meta: meta})
	}

	meta := baseMeta(scheme)
	meta["field_name"] = "comprehensive"
	meta["field_label"] = "All Information"
	chunks = append(chunks, Chunk{Text: capChunk(comprehensiveText(scheme)), Meta: meta})

	return chunks
}

// baseMeta builds the metadata shared by every chunk of a scheme. Each call
// returns a fresh map so per-chunk keys never leak across chunks.
func baseMeta(scheme *storage.SchemeRecord) map[string]any {
	return map[string]any{
		"scheme_name":  scheme.SchemeName,
		"category":     scheme.Category,
		"source_url":   scheme.SourceURL,
		"extracted_at": scheme.ExtractedAt.UTC().Format(time.RFC3339),
	}
}

// comprehensiveText renders a one-paragraph summary of every populated fact.
func comprehensiveText(scheme *storage.SchemeRecord) string {
	parts := []string{fmt.Sprintf("%s is a %s mutual fund scheme.", scheme.SchemeName, scheme.Category)}

	if v := deref(scheme.ExpenseRatio); v != "" {
		parts = append(parts, "Expense ratio: "+v)
	}
	if v := deref(scheme.MinimumSIP); v != "" {
		parts = append(parts, "Minimum SIP: "+v)
	}
	if v := deref(scheme.NAV); v != "" {
		parts = append(parts, "Current NAV: "+v)
	}
	if v := deref(scheme.ExitLoad); v != "" {
		parts = append(parts, "Exit load: "+v)
	}
	if v := deref(scheme.TaxImplication); v != "" {
		parts = append(parts, "Tax implication: "+v)
	}

	return strings.Join(parts, " ")
}

func capChunk(text string) string {
	capped, _ := tokens.TruncateToLimit(text, ChunkTokenLimit, tokens.Ellipsis)
	return capped
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
