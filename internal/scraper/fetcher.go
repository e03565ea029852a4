package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fundfacts-ai/internal/contextutil"

	"golang.org/x/time/rate"
)

// Defaults for the fetcher. Groww throttles aggressive crawlers, so requests
// are spaced out even in batch runs.
const (
	DefaultDelay   = 2 * time.Second
	DefaultTimeout = 30 * time.Second
)

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// ErrInvalidURL indicates a URL that is not a Groww mutual fund scheme page.
var ErrInvalidURL = errors.New("invalid scheme page URL")

// Fetcher downloads scheme pages with request pacing and a browser
// User-Agent. Safe for concurrent use.
type Fetcher struct {
	client   *http.Client
	limiter  *rate.Limiter
	validate func(string) error
}

// NewFetcher creates a fetcher that spaces requests at least delay apart.
// Non-positive delay or timeout fall back to the defaults.
func NewFetcher(delay, timeout time.Duration) *Fetcher {
	if delay <= 0 {
		delay = DefaultDelay
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Fetcher{
		client:   &http.Client{Timeout: timeout},
		limiter:  rate.NewLimiter(rate.Every(delay), 1),
		validate: ValidateURL,
	}
}

// ValidateURL checks that a URL points at a Groww mutual fund scheme page.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("%w: empty URL", ErrInvalidURL)
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if parsed.Scheme != "https" {
		return fmt.Errorf("%w: scheme must be https, got %q", ErrInvalidURL, parsed.Scheme)
	}
	if !strings.Contains(parsed.Host, "groww.in") {
		return fmt.Errorf("%w: host must be groww.in, got %q", ErrInvalidURL, parsed.Host)
	}
	if !strings.Contains(parsed.Path, "/mutual-funds/") {
		return fmt.Errorf("%w: path must contain /mutual-funds/, got %q", ErrInvalidURL, parsed.Path)
	}
	return nil
}

// Fetch downloads the HTML for one scheme page. It blocks on the rate
// limiter before issuing the request, so batch callers are paced
// automatically.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if err := f.validate(pageURL); err != nil {
		return "", err
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("failed to wait for request slot: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	logger.InfoContext(ctx, "fetching scheme page", "url", pageURL)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch %s: unexpected status %d", pageURL, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	return string(body), nil
}
