package assembly_test

import (
	"strings"
	"testing"

	"fundfacts-ai/internal/assembly"
	"fundfacts-ai/internal/retrieval"
	"fundfacts-ai/internal/tokens"
)

func result(scheme, label, url, doc string) retrieval.Result {
	return retrieval.Result{
		Document: doc,
		Metadata: map[string]any{
			"scheme_name": scheme,
			"field_label": label,
			"source_url":  url,
		},
	}
}

func TestAssemble_Empty(t *testing.T) {
	a := assembly.NewAssembler(assembly.DefaultConfig())

	got := a.Assemble(nil)
	if got.Text != assembly.NoRelevantInformation {
		t.Errorf("Assemble() text = %q, want %q", got.Text, assembly.NoRelevantInformation)
	}
	if len(got.Sources) != 0 {
		t.Errorf("Assemble() sources = %v, want empty", got.Sources)
	}
	if got.Metadata.UsedResults != 0 || got.Metadata.TotalResults != 0 {
		t.Errorf("Assemble() metadata = %+v, want zero", got.Metadata)
	}
}

func TestAssemble_RendersEntries(t *testing.T) {
	a := assembly.NewAssembler(assembly.DefaultConfig())

	results := []retrieval.Result{
		result("HDFC Flexi Cap Fund", "Expense Ratio", "https://example.test/flexi", "HDFC Flexi Cap Fund (Flexi Cap) Expense Ratio: 1.05%"),
		result("HDFC Flexi Cap Fund", "NAV", "https://example.test/flexi", "HDFC Flexi Cap Fund (Flexi Cap) NAV: Rs 1500"),
	}

	got := a.Assemble(results)

	want := "HDFC Flexi Cap Fund - Expense Ratio: HDFC Flexi Cap Fund (Flexi Cap) Expense Ratio: 1.05%" +
		"\n\n" +
		"HDFC Flexi Cap Fund - NAV: HDFC Flexi Cap Fund (Flexi Cap) NAV: Rs 1500"
	if got.Text != want {
		t.Errorf("Assemble() text = %q, want %q", got.Text, want)
	}
	if len(got.Sources) != 1 || got.Sources[0] != "https://example.test/flexi" {
		t.Errorf("Assemble() sources = %v, want single deduplicated URL", got.Sources)
	}
	if got.Metadata.TotalResults != 2 || got.Metadata.UsedResults != 2 {
		t.Errorf("Assemble() metadata = %+v", got.Metadata)
	}
	if len(got.Metadata.Schemes) != 1 || got.Metadata.Schemes[0] != "HDFC Flexi Cap Fund" {
		t.Errorf("Assemble() schemes = %v", got.Metadata.Schemes)
	}
}

func TestAssemble_MissingMetadataFallbacks(t *testing.T) {
	a := assembly.NewAssembler(assembly.DefaultConfig())

	got := a.Assemble([]retrieval.Result{{Document: "some fact", Metadata: map[string]any{}}})

	want := "Unknown - Information: some fact"
	if got.Text != want {
		t.Errorf("Assemble() text = %q, want %q", got.Text, want)
	}
	if len(got.Sources) != 0 {
		t.Errorf("Assemble() sources = %v, want empty", got.Sources)
	}
}

func TestAssemble_CapsToMaxResults(t *testing.T) {
	a := assembly.NewAssembler(assembly.DefaultConfig())

	results := make([]retrieval.Result, 5)
	for i, name := range []string{"S1", "S2", "S3", "S4", "S5"} {
		results[i] = result(name, "Info", "https://example.test/"+name, "short fact")
	}

	got := a.Assemble(results)
	if got.Metadata.UsedResults != 3 {
		t.Errorf("Assemble() used = %d, want 3", got.Metadata.UsedResults)
	}
	if got.Metadata.TotalResults != 5 {
		t.Errorf("Assemble() total = %d, want 5", got.Metadata.TotalResults)
	}
	if strings.Contains(got.Text, "S4") || strings.Contains(got.Text, "S5") {
		t.Errorf("Assemble() text includes results beyond max_results: %q", got.Text)
	}
	// Sources come from the limited set only.
	if len(got.Sources) != 3 {
		t.Errorf("Assemble() sources = %v, want 3", got.Sources)
	}
}

func TestAssemble_TruncatesLongDocuments(t *testing.T) {
	a := assembly.NewAssembler(assembly.Config{MaxDocTokens: 50})

	longDoc := strings.Repeat("z", 400) // ~100 estimated tokens
	got := a.Assemble([]retrieval.Result{result("A", "B", "https://example.test/a", longDoc)})

	if !strings.HasSuffix(got.Text, tokens.Ellipsis) {
		t.Errorf("Assemble() text should end with ellipsis, got %q", got.Text[len(got.Text)-10:])
	}
	if est := tokens.Estimate(got.Text); est > 55 {
		t.Errorf("Assemble() entry estimate = %d, want <= 55", est)
	}
}

func TestAssemble_DropsLowerRankedFirst(t *testing.T) {
	// Each entry is "Sn - Info: " + 200 chars, roughly 54 estimated tokens.
	// With a 150-token budget the third entry leaves only ~42 tokens, under
	// the 50-token floor, so exactly the first two survive.
	doc := strings.Repeat("y", 200)
	results := make([]retrieval.Result, 5)
	for i, name := range []string{"S1", "S2", "S3", "S4", "S5"} {
		results[i] = result(name, "Info", "https://example.test/"+name, doc)
	}

	a := assembly.NewAssembler(assembly.Config{MaxResults: 5, MaxContextTokens: 150})
	got := a.Assemble(results)

	parts := strings.Split(got.Text, "\n\n")
	if len(parts) != 2 {
		t.Fatalf("Assemble() produced %d entries, want 2", len(parts))
	}
	if !strings.HasPrefix(parts[0], "S1 - ") {
		t.Errorf("Assemble() first entry = %q, want S1", parts[0][:20])
	}
	if !strings.HasPrefix(parts[1], "S2 - ") {
		t.Errorf("Assemble() second entry = %q, want S2", parts[1][:20])
	}
	if strings.Contains(got.Text, "S3 - ") {
		t.Error("Assemble() included a lower-ranked entry past the budget stop")
	}
	if got.Metadata.UsedResults != 2 {
		t.Errorf("Assemble() used = %d, want 2", got.Metadata.UsedResults)
	}
	// The source list still covers the limited set.
	if len(got.Sources) != 5 {
		t.Errorf("Assemble() sources = %d, want 5", len(got.Sources))
	}
}

func TestAssemble_SqueezesTruncatedEntryIntoRemainingBudget(t *testing.T) {
	// Each entry is "A - B: " + 400 chars, roughly 103 estimated tokens.
	// With a 280-token budget the third entry leaves 74 tokens, above the
	// 50-token floor, so it is included truncated.
	doc := strings.Repeat("x", 400)
	results := []retrieval.Result{
		result("A", "B", "https://example.test/1", doc),
		result("A", "B", "https://example.test/2", doc),
		result("A", "B", "https://example.test/3", doc),
	}

	a := assembly.NewAssembler(assembly.Config{MaxContextTokens: 280})
	got := a.Assemble(results)

	parts := strings.Split(got.Text, "\n\n")
	if len(parts) != 3 {
		t.Fatalf("Assemble() produced %d entries, want 3", len(parts))
	}
	if !strings.HasSuffix(parts[2], tokens.Ellipsis) {
		t.Error("Assemble() squeezed entry should end with ellipsis")
	}
	if est := tokens.Estimate(parts[2]); est > 74 {
		t.Errorf("Assemble() squeezed entry estimate = %d, want <= 74", est)
	}
	if len(parts[2]) >= len(parts[0]) {
		t.Error("Assemble() squeezed entry should be shorter than a full entry")
	}
}

func TestAssemble_Idempotent(t *testing.T) {
	doc := strings.Repeat("w", 300)
	results := []retrieval.Result{
		result("S1", "Info", "https://example.test/1", doc),
		result("S2", "Info", "https://example.test/2", doc),
		result("S3", "Info", "https://example.test/3", doc),
	}
	a := assembly.NewAssembler(assembly.Config{MaxContextTokens: 160})

	first := a.Assemble(results)
	second := a.Assemble(results)

	if first.Text != second.Text {
		t.Error("Assemble() is not deterministic for identical input")
	}
	if len(first.Sources) != len(second.Sources) {
		t.Error("Assemble() source lists differ across runs")
	}
}

func TestFormatForModel_AppendsSources(t *testing.T) {
	a := assembly.NewAssembler(assembly.DefaultConfig())

	results := []retrieval.Result{
		result("S1", "Info", "https://example.test/one", "fact one"),
		result("S2", "Info", "https://example.test/two", "fact two"),
	}

	prompt, assembled := a.FormatForModel(results)

	wantSuffix := "\n\nSources:\n- https://example.test/one\n- https://example.test/two"
	if !strings.HasSuffix(prompt, wantSuffix) {
		t.Errorf("FormatForModel() = %q, want suffix %q", prompt, wantSuffix)
	}
	if !strings.HasPrefix(prompt, assembled.Text) {
		t.Error("FormatForModel() should start with the assembled context")
	}
	if len(assembled.Sources) != 2 {
		t.Errorf("FormatForModel() sources = %v", assembled.Sources)
	}
}

func TestFormatForModel_EmptyResults(t *testing.T) {
	a := assembly.NewAssembler(assembly.DefaultConfig())

	prompt, assembled := a.FormatForModel(nil)
	if prompt != assembly.NoRelevantInformation {
		t.Errorf("FormatForModel() = %q, want %q", prompt, assembly.NoRelevantInformation)
	}
	if len(assembled.Sources) != 0 {
		t.Errorf("FormatForModel() sources = %v, want empty", assembled.Sources)
	}
}

func TestFormatForModel_CapsSourcesInsteadOfTruncatingURLs(t *testing.T) {
	// Six long URLs push the source block past its reserved budget; the list
	// is capped to three whole URLs rather than cutting any URL short.
	urls := make([]string, 6)
	results := make([]retrieval.Result, 6)
	for i := range urls {
		urls[i] = "https://groww.in/mutual-funds/" + strings.Repeat("a", 50) + string(rune('0'+i))
		results[i] = result("S", "Info", urls[i], "fact")
	}

	a := assembly.NewAssembler(assembly.Config{MaxResults: 10})
	prompt, _ := a.FormatForModel(results)

	if got := strings.Count(prompt, "- https://"); got != 3 {
		t.Errorf("FormatForModel() listed %d sources, want 3", got)
	}
	for _, url := range urls[:3] {
		if !strings.Contains(prompt, url) {
			t.Errorf("FormatForModel() missing full URL %q", url)
		}
	}
	for _, url := range urls[3:] {
		if strings.Contains(prompt, url) {
			t.Errorf("FormatForModel() should not list capped URL %q", url)
		}
	}
}
