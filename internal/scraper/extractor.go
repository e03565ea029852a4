package scraper

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"fundfacts-ai/internal/storage"

	"golang.org/x/net/html"
)

// Plausibility ranges for extracted numbers. Values outside them are treated
// as regex false positives and discarded.
const (
	minSIPAmount = 50
	maxSIPAmount = 100000
	minNAV       = 1
	maxNAV       = 100000
	minTaxLen    = 20
	maxTaxLen    = 500
)

// blockTags delimit text segments during parsing so one element's text does
// not bleed into the next. Inline tags (span, a, b) stay within a segment.
var blockTags = map[string]bool{
	"title": true, "h1": true, "h2": true, "h3": true, "h4": true,
	"h5": true, "h6": true, "p": true, "div": true, "section": true,
	"article": true, "table": true, "tr": true, "td": true, "th": true,
	"ul": true, "ol": true, "li": true, "br": true,
}

// skipTags hold no page text.
var skipTags = map[string]bool{
	"script": true, "style": true, "noscript": true,
}

var expenseRatioPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)expense\s+ratio[:\s]*([0-9.]+%?)`),
	regexp.MustCompile(`(?i)([0-9.]+%?)\s*expense\s+ratio`),
}

// The rupee sign and "Rs"/"Rs." prefixes are interchangeable on Groww pages.
var minimumSIPPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)minimum\s+sip[:\s]*(?:₹|Rs?\.?)\s*([0-9,]+)`),
	regexp.MustCompile(`(?i)min\s+sip[:\s]*(?:₹|Rs?\.?)\s*([0-9,]+)`),
	regexp.MustCompile(`(?i)sip\s+minimum[:\s]*(?:₹|Rs?\.?)\s*([0-9,]+)`),
	regexp.MustCompile(`(?i)minimum\s+investment[:\s]*(?:₹|Rs?\.?)\s*([0-9,]+)`),
	regexp.MustCompile(`(?is)(?:₹|Rs?\.?)\s*([0-9,]+).*?minimum\s+sip`),
}

var navPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)nav[:\s]*(?:₹|Rs?\.?)\s*([0-9,.]+)`),
	regexp.MustCompile(`(?i)net\s+asset\s+value[:\s]*(?:₹|Rs?\.?)\s*([0-9,.]+)`),
	regexp.MustCompile(`(?i)current\s+nav[:\s]*(?:₹|Rs?\.?)\s*([0-9,.]+)`),
}

var (
	exitLoadMarkerRe   = regexp.MustCompile(`(?i)exit\s+load`)
	exitLoadSpecificRe = regexp.MustCompile(`(?i)exit\s+load\s+of\s+([0-9.%]+)\s+if\s+redeemed\s+within\s+([0-9]+\s+years?)`)
	exitLoadGenericRe  = regexp.MustCompile(`(?is)exit\s+load[:\s]*(.*?)(?:\.|$)`)
	exitLoadSignalRe   = regexp.MustCompile(`(?i)%|year|month|day`)
	yearsSuffixRe      = regexp.MustCompile(`(?i)years+$`)
	whitespaceRe       = regexp.MustCompile(`\s+`)
)

// taxKeywords are tried in order; the first one with a usable hit wins.
var taxKeywords = []*regexp.Regexp{
	regexp.MustCompile(`(?i)tax\s+implication`),
	regexp.MustCompile(`(?i)tax\s+on\s+redemption`),
	regexp.MustCompile(`(?i)taxation`),
	regexp.MustCompile(`(?i)capital\s+gains\s+tax`),
	regexp.MustCompile(`(?i)tax\s+liability`),
}

var (
	sentenceSplitRe = regexp.MustCompile(`[.!?]\s+`)
	taxPrefixRe     = regexp.MustCompile(`(?i)^tax\s+implication[:\s]*`)
)

// page is the text view of a parsed HTML document.
type page struct {
	text   string   // all text joined with spaces
	blocks []string // per-element text segments in document order
}

// parsePage tokenizes HTML into text segments, dropping script and style
// content.
func parsePage(source string) page {
	tokenizer := html.NewTokenizer(strings.NewReader(source))

	var blocks []string
	var current []string
	skipDepth := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		blocks = append(blocks, strings.Join(current, " "))
		current = nil
	}

	for {
		tokenType := tokenizer.Next()
		if tokenType == html.ErrorToken {
			break
		}

		switch tokenType {
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			name, _ := tokenizer.TagName()
			tag := string(name)
			if skipTags[tag] {
				if tokenType == html.StartTagToken {
					skipDepth++
				} else if tokenType == html.EndTagToken && skipDepth > 0 {
					skipDepth--
				}
				continue
			}
			if blockTags[tag] {
				flush()
			}
		case html.TextToken:
			if skipDepth > 0 {
				continue
			}
			if text := strings.TrimSpace(string(tokenizer.Text())); text != "" {
				current = append(current, text)
			}
		}
	}
	flush()

	return page{
		text:   strings.Join(blocks, " "),
		blocks: blocks,
	}
}

// Extract parses a scheme page and pulls the five fact fields. Fields the
// page does not surface come back nil; extraction itself never fails.
func Extract(source, pageURL, schemeName, category string) *storage.SchemeRecord {
	parsed := parsePage(source)

	return &storage.SchemeRecord{
		SchemeName:     schemeName,
		Category:       category,
		SourceURL:      pageURL,
		ExpenseRatio:   optional(extractExpenseRatio(parsed.text)),
		MinimumSIP:     optional(extractMinimumSIP(parsed.text)),
		ExitLoad:       optional(extractExitLoad(parsed.blocks)),
		NAV:            optional(extractNAV(parsed.text)),
		TaxImplication: optional(extractTaxImplication(parsed.blocks)),
		ExtractedAt:    time.Now().UTC(),
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func extractExpenseRatio(text string) string {
	for _, pattern := range expenseRatioPatterns {
		m := pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		ratio := strings.TrimSpace(m[1])
		if !strings.Contains(ratio, "%") && strings.Contains(ratio, ".") {
			ratio += "%"
		}
		return ratio
	}
	return ""
}

func extractMinimumSIP(text string) string {
	for _, pattern := range minimumSIPPatterns {
		m := pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		amount := strings.ReplaceAll(m[1], ",", "")
		n, err := strconv.Atoi(amount)
		if err != nil || n < minSIPAmount || n > maxSIPAmount {
			continue
		}
		return "Rs " + amount
	}
	return ""
}

func extractNAV(text string) string {
	for _, pattern := range navPatterns {
		m := pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		value := strings.ReplaceAll(m[1], ",", "")
		v, err := strconv.ParseFloat(value, 64)
		if err != nil || v < minNAV || v > maxNAV {
			continue
		}
		return "Rs " + value
	}
	return ""
}

// extractExitLoad prefers the canonical "Exit load of X% if redeemed within
// N year" phrasing and falls back to whatever clause follows "exit load" in
// the same element.
func extractExitLoad(blocks []string) string {
	for _, block := range blocks {
		if !exitLoadMarkerRe.MatchString(block) {
			continue
		}

		if m := exitLoadSpecificRe.FindStringSubmatch(block); m != nil {
			period := whitespaceRe.ReplaceAllString(m[2], " ")
			period = yearsSuffixRe.ReplaceAllString(period, "year")
			return "Exit load of " + m[1] + " if redeemed within " + period
		}

		if m := exitLoadGenericRe.FindStringSubmatch(block); m != nil {
			info := whitespaceRe.ReplaceAllString(strings.TrimSpace(m[1]), " ")
			info = yearsSuffixRe.ReplaceAllString(info, "year")
			if info != "" && len(info) < 200 && (exitLoadSignalRe.MatchString(info) || len(info) > 10) {
				return info
			}
		}
	}
	return ""
}

// extractTaxImplication looks for a sentence that names a tax topic and
// carries an amount or period, preferring sentence-level hits over whole
// elements.
func extractTaxImplication(blocks []string) string {
	for _, keyword := range taxKeywords {
		for _, block := range blocks {
			if !keyword.MatchString(block) {
				continue
			}

			for _, sentence := range sentenceSplitRe.Split(block, -1) {
				if !keyword.MatchString(sentence) || !taxSentenceSignal(sentence) {
					continue
				}
				cleaned := whitespaceRe.ReplaceAllString(strings.TrimSpace(sentence), " ")
				cleaned = taxPrefixRe.ReplaceAllString(cleaned, "")
				if len(cleaned) > minTaxLen && len(cleaned) < maxTaxLen {
					return cleaned
				}
			}

			cleaned := whitespaceRe.ReplaceAllString(strings.TrimSpace(block), " ")
			if len(cleaned) > minTaxLen && len(cleaned) < maxTaxLen && taxBlockSignal(cleaned) {
				return cleaned
			}
		}
	}
	return ""
}

func taxSentenceSignal(s string) bool {
	lower := strings.ToLower(s)
	return strings.Contains(s, "%") || strings.Contains(s, "Rs") ||
		strings.Contains(s, "₹") || strings.Contains(lower, "lakh") ||
		strings.Contains(lower, "year") || strings.Contains(lower, "redeem")
}

func taxBlockSignal(s string) bool {
	return strings.Contains(s, "%") || strings.Contains(s, "Rs") ||
		strings.Contains(s, "₹") || strings.Contains(strings.ToLower(s), "lakh")
}
