package scraper

import (
	"testing"
	"time"
)

const largeCapPage = `<!DOCTYPE html>
<html>
<head>
<title>HDFC Large Cap Fund - Groww</title>
<script>window.__DATA__ = {"expenseRatio": 99.9, "nav": 999999};</script>
<style>.fund-nav { color: #333; }</style>
</head>
<body>
<h1>HDFC Large Cap Fund</h1>
<div>NAV: ₹ 1,142.50</div>
<table>
<tr><td>Expense ratio: 0.77%</td></tr>
<tr><td>Minimum SIP: ₹100</td></tr>
</table>
<p>Exit load of 1% if redeemed within 1 year</p>
<p>Tax implication: If you redeem within one year, returns are taxed at 20%. Gains above Rs 1.25 lakh in a financial year are taxed at 12.5%.</p>
</body>
</html>`

func TestExtract(t *testing.T) {
	record := Extract(largeCapPage, "https://groww.in/mutual-funds/hdfc-large-cap-fund", "HDFC Large Cap Fund", "Large Cap")

	if record.SchemeName != "HDFC Large Cap Fund" {
		t.Errorf("Extract() scheme_name = %q, want HDFC Large Cap Fund", record.SchemeName)
	}
	if record.Category != "Large Cap" {
		t.Errorf("Extract() category = %q, want Large Cap", record.Category)
	}
	if record.SourceURL != "https://groww.in/mutual-funds/hdfc-large-cap-fund" {
		t.Errorf("Extract() source_url = %q", record.SourceURL)
	}

	checks := []struct {
		name string
		got  *string
		want string
	}{
		{"expense_ratio", record.ExpenseRatio, "0.77%"},
		{"minimum_sip", record.MinimumSIP, "Rs 100"},
		{"exit_load", record.ExitLoad, "Exit load of 1% if redeemed within 1 year"},
		{"nav", record.NAV, "Rs 1142.50"},
		{"tax_implication", record.TaxImplication, "If you redeem within one year, returns are taxed at 20%"},
	}
	for _, c := range checks {
		if c.got == nil {
			t.Errorf("Extract() %s = nil, want %q", c.name, c.want)
			continue
		}
		if *c.got != c.want {
			t.Errorf("Extract() %s = %q, want %q", c.name, *c.got, c.want)
		}
	}

	if record.ExtractedAt.IsZero() {
		t.Error("Extract() extracted_at is zero")
	}
	if time.Since(record.ExtractedAt) > time.Minute {
		t.Errorf("Extract() extracted_at = %v, want recent", record.ExtractedAt)
	}
}

func TestExtract_SparsePage(t *testing.T) {
	// SIP below the plausible floor and NAV below 1 are regex false
	// positives and must be discarded.
	source := `<html><body>
<h1>HDFC Flexi Cap Fund</h1>
<div>Minimum SIP: ₹25</div>
<div>NAV: ₹0.42</div>
</body></html>`

	record := Extract(source, "https://groww.in/mutual-funds/hdfc-flexi-cap-fund", "HDFC Flexi Cap Fund", "Flexi Cap")

	fields := map[string]*string{
		"expense_ratio":   record.ExpenseRatio,
		"minimum_sip":     record.MinimumSIP,
		"exit_load":       record.ExitLoad,
		"nav":             record.NAV,
		"tax_implication": record.TaxImplication,
	}
	for name, got := range fields {
		if got != nil {
			t.Errorf("Extract() %s = %q, want nil", name, *got)
		}
	}
}

func TestParsePage(t *testing.T) {
	source := `<html><head><title>T</title><script>bad()</script><style>.x{}</style></head>` +
		`<body><p>one</p><div>two <span>three</span></div></body></html>`

	parsed := parsePage(source)

	wantBlocks := []string{"T", "one", "two three"}
	if len(parsed.blocks) != len(wantBlocks) {
		t.Fatalf("parsePage() blocks = %v, want %v", parsed.blocks, wantBlocks)
	}
	for i, want := range wantBlocks {
		if parsed.blocks[i] != want {
			t.Errorf("parsePage() block[%d] = %q, want %q", i, parsed.blocks[i], want)
		}
	}
	if parsed.text != "T one two three" {
		t.Errorf("parsePage() text = %q, want %q", parsed.text, "T one two three")
	}
}

func TestExtractExpenseRatio(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"with percent sign", "Expense ratio: 0.77%", "0.77%"},
		{"percent sign appended", "Expense ratio: 0.95", "0.95%"},
		{"no separator", "Expense Ratio 1.2%", "1.2%"},
		{"value before label", "The 0.68% expense ratio is low", "0.68%"},
		{"absent", "no fees mentioned here", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractExpenseRatio(tt.text); got != tt.want {
				t.Errorf("extractExpenseRatio(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestExtractMinimumSIP(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"rupee sign", "Minimum SIP: ₹500", "Rs 500"},
		{"rs with comma", "Min SIP: Rs. 1,000", "Rs 1000"},
		{"minimum investment", "Minimum investment: ₹5000", "Rs 5000"},
		{"below plausible floor", "Minimum SIP: ₹30", ""},
		{"above plausible ceiling", "Minimum SIP: ₹200000", ""},
		{"absent", "SIP details unavailable", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractMinimumSIP(tt.text); got != tt.want {
				t.Errorf("extractMinimumSIP(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestExtractNAV(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"rupee sign with comma", "NAV: ₹ 1,142.50", "Rs 1142.50"},
		{"spelled out", "Net Asset Value: Rs 89.12", "Rs 89.12"},
		{"below plausible floor", "NAV: ₹0.5", ""},
		{"absent", "NAV data unavailable", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractNAV(tt.text); got != tt.want {
				t.Errorf("extractNAV(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestExtractExitLoad(t *testing.T) {
	tests := []struct {
		name   string
		blocks []string
		want   string
	}{
		{
			name:   "canonical phrasing",
			blocks: []string{"Exit load of 1% if redeemed within 1 year"},
			want:   "Exit load of 1% if redeemed within 1 year",
		},
		{
			name:   "plural period normalized",
			blocks: []string{"Exit load of 0.5% if redeemed within 2 years"},
			want:   "Exit load of 0.5% if redeemed within 2 year",
		},
		{
			name:   "free-form clause",
			blocks: []string{"Exit load: Nil for redemptions after 30 days"},
			want:   "Nil for redemptions after 30 days",
		},
		{
			name:   "marker in later block",
			blocks: []string{"Fund overview", "Exit load of 1% if redeemed within 1 year"},
			want:   "Exit load of 1% if redeemed within 1 year",
		},
		{
			name:   "absent",
			blocks: []string{"No charges apply"},
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractExitLoad(tt.blocks); got != tt.want {
				t.Errorf("extractExitLoad(%v) = %q, want %q", tt.blocks, got, tt.want)
			}
		})
	}
}

func TestExtractTaxImplication(t *testing.T) {
	tests := []struct {
		name   string
		blocks []string
		want   string
	}{
		{
			name:   "labelled sentence with prefix stripped",
			blocks: []string{"Tax implication: Gains are taxed at 12.5% beyond Rs 1.25 lakh"},
			want:   "Gains are taxed at 12.5% beyond Rs 1.25 lakh",
		},
		{
			name:   "taxation keyword",
			blocks: []string{"Taxation Short term capital gains are taxed at 20% if redeemed within one year"},
			want:   "Taxation Short term capital gains are taxed at 20% if redeemed within one year",
		},
		{
			name:   "no amount or period signal",
			blocks: []string{"Tax implication: short note"},
			want:   "",
		},
		{
			name:   "absent",
			blocks: []string{"Fund facts and figures"},
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractTaxImplication(tt.blocks); got != tt.want {
				t.Errorf("extractTaxImplication(%v) = %q, want %q", tt.blocks, got, tt.want)
			}
		})
	}
}
