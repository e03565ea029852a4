package assembly

import (
	"fmt"
	"strings"

	"fundfacts-ai/internal/retrieval"
	"fundfacts-ai/internal/tokens"
)

// NoRelevantInformation is the context text used when retrieval found nothing.
const NoRelevantInformation = "No relevant information found."

// Default budgets for assembled context.
const (
	DefaultMaxResults       = 3
	DefaultMaxDocTokens     = 500
	DefaultMaxContextTokens = 2000
)

const (
	// minEntryTokens is the smallest remaining budget worth squeezing a
	// truncated entry into.
	minEntryTokens = 50

	// sourceBlockTokens is the budget reserved for the appended sources
	// block before the source list is capped.
	sourceBlockTokens = 100

	// maxListedSources caps the sources block when it runs over budget.
	// URLs are never truncated mid-string.
	maxListedSources = 3
)

// Config bounds context assembly. Zero values fall back to the defaults.
type Config struct {
	MaxResults       int
	MaxDocTokens     int
	MaxContextTokens int
}

// DefaultConfig returns the standard assembly budgets.
func DefaultConfig() Config {
	return Config{
		MaxResults:       DefaultMaxResults,
		MaxDocTokens:     DefaultMaxDocTokens,
		MaxContextTokens: DefaultMaxContextTokens,
	}
}

// Metadata describes what went into an assembled context.
type Metadata struct {
	TotalResults int      `json:"total_results"`
	UsedResults  int      `json:"used_results"`
	Schemes      []string `json:"schemes"`
}

// Context is an assembled, budgeted context string with its source list.
// Sources are unique URLs in order of first appearance.
type Context struct {
	Text     string   `json:"context"`
	Sources  []string `json:"sources"`
	Metadata Metadata `json:"metadata"`
}

// Assembler renders ranked retrieval results into a budgeted context string.
type Assembler struct {
	cfg Config
}

// NewAssembler creates an assembler with the given budgets.
func NewAssembler(cfg Config) *Assembler {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = DefaultMaxResults
	}
	if cfg.MaxDocTokens <= 0 {
		cfg.MaxDocTokens = DefaultMaxDocTokens
	}
	if cfg.MaxContextTokens <= 0 {
		cfg.MaxContextTokens = DefaultMaxContextTokens
	}
	return &Assembler{cfg: cfg}
}

// Assemble renders the top-ranked results into a context string under the
// configured token budgets. Results are consumed in rank order; when the
// running total would exceed the context budget, a truncated entry is fitted
// into the remaining budget if enough of it is left, and accumulation stops
// there. Lower-ranked results are always the ones dropped.
func (a *Assembler) Assemble(results []retrieval.Result) Context {
	if len(results) == 0 {
		return Context{
			Text:    NoRelevantInformation,
			Sources: []string{},
		}
	}

	limited := results
	if len(limited) > a.cfg.MaxResults {
		limited = limited[:a.cfg.MaxResults]
	}

	sources := make([]string, 0, len(limited))
	seenURLs := make(map[string]bool)
	schemes := make([]string, 0, len(limited))
	seenSchemes := make(map[string]bool)
	for _, result := range limited {
		if url := metaString(result.Metadata, "source_url", ""); url != "" && !seenURLs[url] {
			seenURLs[url] = true
			sources = append(sources, url)
		}
		if scheme := metaString(result.Metadata, "scheme_name", ""); !seenSchemes[scheme] {
			seenSchemes[scheme] = true
			schemes = append(schemes, scheme)
		}
	}

	entries := make([]string, 0, len(limited))
	total := 0
	for _, result := range limited {
		schemeName := metaString(result.Metadata, "scheme_name", "Unknown")
		fieldLabel := metaString(result.Metadata, "field_label", "Information")

		doc, _ := tokens.TruncateToLimit(result.Document, a.cfg.MaxDocTokens, tokens.Ellipsis)
		entry := fmt.Sprintf("%s - %s: %s", schemeName, fieldLabel, doc)
		entryTokens := tokens.Estimate(entry)

		if total+entryTokens > a.cfg.MaxContextTokens {
			remaining := a.cfg.MaxContextTokens - total
			if remaining <= minEntryTokens {
				break
			}
			entry, entryTokens = tokens.TruncateToLimit(entry, remaining, tokens.Ellipsis)
			entries = append(entries, entry)
			total += entryTokens
			break
		}

		entries = append(entries, entry)
		total += entryTokens
	}

	return Context{
		Text:    strings.Join(entries, "\n\n"),
		Sources: sources,
		Metadata: Metadata{
			TotalResults: len(results),
			UsedResults:  len(entries),
			Schemes:      schemes,
		},
	}
}

// FormatForModel assembles the results and appends a sources block for the
// prompt. It returns the prompt-ready string along with the assembled
// context. When the rendered source block runs over its reserved budget the
// source list is capped rather than truncating any URL.
func (a *Assembler) FormatForModel(results []retrieval.Result) (string, Context) {
	assembled := a.Assemble(results)
	if len(assembled.Sources) == 0 {
		return assembled.Text, assembled
	}

	block := renderSourceBlock(assembled.Sources)
	if tokens.Estimate(block) > sourceBlockTokens && len(assembled.Sources) > maxListedSources {
		block = renderSourceBlock(assembled.Sources[:maxListedSources])
	}

	return assembled.Text + block, assembled
}

// renderSourceBlock renders the trailing sources list.
func renderSourceBlock(urls []string) string {
	var sb strings.Builder
	sb.WriteString("\n\nSources:\n")
	for i, url := range urls {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("- ")
		sb.WriteString(url)
	}
	return sb.String()
}

// metaString reads a string metadata value, falling back when the key is
// absent or not a string.
func metaString(meta map[string]any, key, fallback string) string {
	if v, ok := meta[key].(string); ok {
		return v
	}
	return fallback
}
