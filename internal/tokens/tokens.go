package tokens

import (
	"strings"
	"unicode/utf8"
)

const (
	// CharsPerToken approximates how many characters a token spans once
	// whitespace has been accounted for separately.
	CharsPerToken = 3.5
	// Ellipsis marks head- or tail-truncated text.
	Ellipsis = "..."
	// shrinkStep is how many trailing characters each truncation retry removes.
	shrinkStep = 10
)

// Estimate approximates the token count of text from character and
// whitespace statistics. It is deterministic, returns 0 for empty input,
// and is non-decreasing as characters are appended.
func Estimate(text string) int {
	if text == "" {
		return 0
	}
	charCount := utf8.RuneCountInString(text)
	whitespaceCount := strings.Count(text, " ") + strings.Count(text, "\n") + strings.Count(text, "\t")
	return (charCount + 2*whitespaceCount) / 4
}

// TruncateToLimit shortens text so its estimated token count fits maxTokens,
// cutting from the end and appending suffix. Text already within the limit is
// returned unchanged together with its estimate. If suffix alone exhausts the
// budget the result is empty.
func TruncateToLimit(text string, maxTokens int, suffix string) (string, int) {
	if text == "" {
		return "", 0
	}

	current := Estimate(text)
	if current <= maxTokens {
		return text, current
	}

	suffixTokens := Estimate(suffix)
	if suffixTokens >= maxTokens {
		return "", 0
	}

	runes := []rune(text)
	budget := int(float64(maxTokens-suffixTokens) * CharsPerToken)
	if budget > len(runes) {
		budget = len(runes)
	}

	truncated := string(runes[:budget]) + suffix
	actual := Estimate(truncated)

	suffixLen := utf8.RuneCountInString(suffix)
	for actual > maxTokens && utf8.RuneCountInString(truncated) > suffixLen {
		kept := []rune(truncated)
		if len(kept) <= shrinkStep {
			truncated = suffix
		} else {
			truncated = string(kept[:len(kept)-shrinkStep]) + suffix
		}
		actual = Estimate(truncated)
	}

	return truncated, actual
}

// TruncateSmart truncates text to maxTokens keeping either the head or the
// tail. With preserveEnd the last maxTokens worth of characters are kept
// behind an ellipsis marker; the tail branch does not re-check the estimate,
// which is accepted as a loose bound.
func TruncateSmart(text string, maxTokens int, preserveEnd bool) (string, int) {
	if text == "" {
		return "", 0
	}

	current := Estimate(text)
	if current <= maxTokens {
		return text, current
	}

	if preserveEnd {
		runes := []rune(text)
		keep := int(float64(maxTokens) * CharsPerToken)
		if keep > len(runes) {
			keep = len(runes)
		}
		truncated := Ellipsis + string(runes[len(runes)-keep:])
		return truncated, Estimate(truncated)
	}

	return TruncateToLimit(text, maxTokens, Ellipsis)
}
