package storage

import "time"

// SchemeRecord represents a mutual fund scheme row in the database.
// The five fact fields are nil when extraction found nothing for them.
type SchemeRecord struct {
	ID             string // UUID
	SchemeName     string // Unique scheme name, e.g. "HDFC Mid-Cap Opportunities Fund"
	Category       string // Scheme category, e.g. "Mid Cap"
	SourceURL      string // Groww page the facts were extracted from
	ExpenseRatio   *string
	MinimumSIP     *string
	ExitLoad       *string
	NAV            *string
	TaxImplication *string
	ExtractedAt    time.Time
}
