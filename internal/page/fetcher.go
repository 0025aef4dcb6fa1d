package page

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

// Fetcher retrieves the watched page's HTML and parses it into a Document.
// Fetches are rate limited so the watch loop cannot hammer the storefront.
type Fetcher struct {
	client  *resty.Client
	limiter *rate.Limiter
}

// NewFetcher creates a fetcher with the given request timeout and a minimum
// interval between fetches.
func NewFetcher(timeout, minInterval time.Duration) *Fetcher {
	return &Fetcher{
		client: resty.New().
			SetTimeout(timeout).
			SetHeader("User-Agent", "ReviewGuard/1.0"),
		limiter: rate.NewLimiter(rate.Every(minInterval), 1),
	}
}

// Fetch downloads and parses the page at url.
func (f *Fetcher) Fetch(ctx context.Context, url string) (Document, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("fetch rate limit: %w", err)
	}

	resp, err := f.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode())
	}

	// resty follows redirects; report the address we actually landed on so
	// identity derivation sees the final URL.
	finalURL := url
	if resp.RawResponse != nil && resp.RawResponse.Request != nil && resp.RawResponse.Request.URL != nil {
		finalURL = resp.RawResponse.Request.URL.String()
	}

	return ParseHTML(string(resp.Body()), finalURL)
}
