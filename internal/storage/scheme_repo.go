package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_scheme_store.go -package=mocks fundfacts-ai/internal/storage SchemeStore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

// SchemeStore defines the interface for scheme storage operations.
type SchemeStore interface {
	// GetByName gets a scheme by its name.
	// Returns nil and ErrNotFound if not found.
	GetByName(ctx context.Context, schemeName string) (*SchemeRecord, error)
	// Upsert inserts a new scheme or updates an existing one.
	Upsert(ctx context.Context, scheme *SchemeRecord) error
	// ListAll returns all stored schemes ordered by scheme name.
	ListAll(ctx context.Context) ([]*SchemeRecord, error)
	// Count returns the number of stored schemes.
	Count(ctx context.Context) (int, error)
	// LatestExtractedAt returns the most recent extraction timestamp across
	// all schemes. Returns ErrNotFound when no schemes are stored.
	LatestExtractedAt(ctx context.Context) (time.Time, error)
}

// SchemeRepo provides methods for scheme operations.
// It implements the SchemeStore interface.
type SchemeRepo struct {
	db *sql.DB
}

// NewSchemeRepo creates a new SchemeRepo.
func NewSchemeRepo(db *sql.DB) *SchemeRepo {
	return &SchemeRepo{db: db}
}

const schemeColumns = "id, scheme_name, category, source_url, expense_ratio, minimum_sip, exit_load, nav, tax_implication, extracted_at"

// GetByName gets a scheme by its name.
// Returns nil and ErrNotFound if not found.
func (r *SchemeRepo) GetByName(ctx context.Context, schemeName string) (*SchemeRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+schemeColumns+" FROM schemes WHERE scheme_name = ?",
		schemeName,
	)

	scheme, err := scanScheme(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query scheme: %w", err)
	}

	return scheme, nil
}

// Upsert inserts a new scheme or updates an existing one.
// If the scheme doesn't exist (by scheme_name), generates a new UUID.
// If it exists, updates all fact fields while preserving the ID.
func (r *SchemeRepo) Upsert(ctx context.Context, scheme *SchemeRecord) error {
	// Check if scheme exists to determine if we need to generate UUID
	existing, err := r.GetByName(ctx, scheme.SchemeName)
	if err != nil && err != ErrNotFound {
		return fmt.Errorf("failed to check existing scheme: %w", err)
	}

	// Generate UUID for new schemes only
	if existing == nil && scheme.ID == "" {
		scheme.ID = uuid.New().String()
	} else if existing != nil {
		// Preserve existing ID
		scheme.ID = existing.ID
	}

	if scheme.ExtractedAt.IsZero() {
		scheme.ExtractedAt = time.Now().UTC()
	}

	// Use SQLite INSERT ... ON CONFLICT syntax for upsert
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO schemes (`+schemeColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (scheme_name) DO UPDATE SET
		 category = excluded.category, source_url = excluded.source_url,
		 expense_ratio = excluded.expense_ratio, minimum_sip = excluded.minimum_sip,
		 exit_load = excluded.exit_load, nav = excluded.nav,
		 tax_implication = excluded.tax_implication, extracted_at = excluded.extracted_at`,
		scheme.ID, scheme.SchemeName, scheme.Category, scheme.SourceURL,
		scheme.ExpenseRatio, scheme.MinimumSIP, scheme.ExitLoad, scheme.NAV,
		scheme.TaxImplication, scheme.ExtractedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert scheme: %w", err)
	}

	return nil
}

// ListAll returns all stored schemes ordered by scheme name.
// Returns an empty slice if no schemes exist (not an error).
func (r *SchemeRepo) ListAll(ctx context.Context) ([]*SchemeRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+schemeColumns+" FROM schemes ORDER BY scheme_name",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query schemes: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var schemes []*SchemeRecord
	for rows.Next() {
		scheme, err := scanScheme(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scheme: %w", err)
		}
		schemes = append(schemes, scheme)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return schemes, nil
}

// Count returns the number of stored schemes.
func (r *SchemeRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schemes").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count schemes: %w", err)
	}
	return count, nil
}

// LatestExtractedAt returns the most recent extraction timestamp across all
// schemes. Returns ErrNotFound when no schemes are stored.
func (r *SchemeRepo) LatestExtractedAt(ctx context.Context) (time.Time, error) {
	var raw sql.NullString
	err := r.db.QueryRowContext(ctx, "SELECT MAX(extracted_at) FROM schemes").Scan(&raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to query latest extraction time: %w", err)
	}

	// MAX over an empty table yields a single NULL row
	if !raw.Valid || raw.String == "" {
		return time.Time{}, ErrNotFound
	}

	ts, err := parseTimestamp(raw.String)
	if err != nil {
		return time.Time{}, err
	}

	return ts, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanScheme(row rowScanner) (*SchemeRecord, error) {
	var scheme SchemeRecord
	var expenseRatio, minimumSIP, exitLoad, nav, taxImplication sql.NullString
	var extractedAtStr string

	err := row.Scan(&scheme.ID, &scheme.SchemeName, &scheme.Category, &scheme.SourceURL,
		&expenseRatio, &minimumSIP, &exitLoad, &nav, &taxImplication, &extractedAtStr)
	if err != nil {
		return nil, err
	}

	scheme.ExpenseRatio = nullableString(expenseRatio)
	scheme.MinimumSIP = nullableString(minimumSIP)
	scheme.ExitLoad = nullableString(exitLoad)
	scheme.NAV = nullableString(nav)
	scheme.TaxImplication = nullableString(taxImplication)

	scheme.ExtractedAt, err = parseTimestamp(extractedAtStr)
	if err != nil {
		return nil, err
	}

	return &scheme, nil
}

func parseTimestamp(s string) (time.Time, error) {
	// Parse extracted_at DATETIME string
	ts, err := time.Parse("2006-01-02 15:04:05", s)
	if err != nil {
		// Try alternative format (SQLite might use different format)
		ts, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to parse extracted_at timestamp: %w", err)
		}
	}
	return ts, nil
}

func nullableString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}
