package query

import (
	"fmt"
	"regexp"
	"strings"
)

// Field keys for the five fact categories a question can target.
const (
	FieldExpenseRatio   = "expense_ratio"
	FieldMinimumSIP     = "minimum_sip"
	FieldExitLoad       = "exit_load"
	FieldNAV            = "nav"
	FieldTaxImplication = "tax_implication"
)

// Classification is the analyzed form of a user question. EnhancedQuery is
// what gets embedded for retrieval; the user never sees it.
type Classification struct {
	OriginalQuery  string `json:"original_query"`
	EnhancedQuery  string `json:"enhanced_query"`
	DetectedScheme string `json:"detected_scheme,omitempty"`
	DetectedField  string `json:"detected_field,omitempty"`
	Intent         string `json:"intent"`
	IsFactual      bool   `json:"is_factual"`
}

type schemePattern struct {
	pattern *regexp.Regexp
	scheme  string
}

// schemePatterns maps query aliases to canonical scheme names. Order matters:
// the first matching pattern wins.
var schemePatterns = []schemePattern{
	{regexp.MustCompile(`hdfc\s+equity`), "HDFC Equity Fund"},
	{regexp.MustCompile(`hdfc\s+large\s+cap`), "HDFC Large Cap Fund"},
	{regexp.MustCompile(`hdfc\s+mid\s+cap`), "HDFC Mid Cap Fund"},
	{regexp.MustCompile(`hdfc\s+small\s+cap`), "HDFC Small Cap Fund"},
	{regexp.MustCompile(`hdfc\s+multi\s+cap`), "HDFC Multi Cap Fund"},
	{regexp.MustCompile(`hdfc\s+elss`), "HDFC ELSS Tax Saver Fund"},
	{regexp.MustCompile(`hdfc\s+tax\s+saver`), "HDFC ELSS Tax Saver Fund"},
}

type fieldKeywordSet struct {
	field    string
	label    string
	keywords []string
}

// fieldKeywordSets is checked in declaration order; the first category with
// any keyword hit wins.
var fieldKeywordSets = []fieldKeywordSet{
	{FieldExpenseRatio, "Expense Ratio", []string{"expense ratio", "expense", "charges", "fee"}},
	{FieldMinimumSIP, "Minimum SIP", []string{"minimum sip", "min sip", "sip amount", "minimum investment", "sip"}},
	{FieldExitLoad, "Exit Load", []string{"exit load", "exit charge", "redemption charge", "withdrawal fee"}},
	{FieldNAV, "NAV", []string{"nav", "net asset value", "current nav", "price", "value"}},
	{FieldTaxImplication, "Tax Implication", []string{"tax", "taxation", "tax implication", "capital gains", "tax on redemption"}},
}

// opinionKeywords force a refusal and take priority over everything else.
var opinionKeywords = []string{
	"should i", "is it good", "is it worth", "recommend", "advice",
	"opinion", "what do you think", "portfolio", "which is better",
	"best", "worst", "top", "bottom",
}

var factualKeywords = []string{
	"what is", "what are", "tell me", "expense", "sip", "nav",
	"exit load", "tax", "minimum", "maximum", "current", "latest",
}

var generalInquiryKeywords = []string{"what", "tell me", "explain", "information"}

var comparisonKeywords = []string{"compare", "difference", "vs", "versus"}

// IsFactual reports whether a query asks for factual information. Opinion
// and advice keywords reject immediately; unmatched queries default to
// factual, since only explicit opinion language forces a refusal.
func IsFactual(q string) bool {
	lower := strings.ToLower(q)

	for _, keyword := range opinionKeywords {
		if strings.Contains(lower, keyword) {
			return false
		}
	}

	for _, keyword := range factualKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}

	return true
}

// DetectScheme returns the canonical scheme name mentioned in the query, or
// "" when none matches.
func DetectScheme(q string) string {
	lower := strings.ToLower(q)
	for _, sp := range schemePatterns {
		if sp.pattern.MatchString(lower) {
			return sp.scheme
		}
	}
	return ""
}

// DetectField returns the fact category the query targets, or "" when none
// matches.
func DetectField(q string) string {
	lower := strings.ToLower(q)
	for _, set := range fieldKeywordSets {
		for _, keyword := range set.keywords {
			if strings.Contains(lower, keyword) {
				return set.field
			}
		}
	}
	return ""
}

// FieldLabel returns the human-readable label for a field key, or "" for an
// unknown key.
func FieldLabel(field string) string {
	for _, set := range fieldKeywordSets {
		if set.field == field {
			return set.label
		}
	}
	return ""
}

// Enhance appends detected scheme and field context to the query to improve
// embedding similarity. The original text is never rewritten, only appended to.
func Enhance(q, scheme, field string) string {
	parts := []string{q}

	if scheme != "" {
		parts = append(parts, fmt.Sprintf("about %s", scheme))
	}

	if field != "" {
		if label := FieldLabel(field); label != "" {
			parts = append(parts, fmt.Sprintf("regarding %s", strings.ToLower(label)))
		}
	}

	return strings.Join(parts, " ")
}

func determineIntent(lower, field string) string {
	if field != "" {
		return "query_" + field
	}

	for _, word := range generalInquiryKeywords {
		if strings.Contains(lower, word) {
			return "general_inquiry"
		}
	}

	for _, word := range comparisonKeywords {
		if strings.Contains(lower, word) {
			return "comparison"
		}
	}

	return "general_inquiry"
}

// Classify analyzes a user question in one pass: scheme and field detection,
// query enhancement, intent, and the factual-vs-opinion decision.
func Classify(q string) Classification {
	original := strings.TrimSpace(q)
	lower := strings.ToLower(original)

	scheme := DetectScheme(lower)
	field := DetectField(lower)

	return Classification{
		OriginalQuery:  original,
		EnhancedQuery:  Enhance(original, scheme, field),
		DetectedScheme: scheme,
		DetectedField:  field,
		Intent:         determineIntent(lower, field),
		IsFactual:      IsFactual(lower),
	}
}
