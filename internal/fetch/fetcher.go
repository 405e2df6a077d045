// Package fetch retrieves remote documents over HTTP.
//
// The Fetcher returns raw bytes; callers decide how to decode them. An
// optional rate limiter spaces out requests to external services.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// userAgent identifies the explorer to remote hosts.
const userAgent = "postexplorer/1.0"

// DefaultMaxBytes caps a single response body.
const DefaultMaxBytes = 64 << 20

// StatusError is a non-2xx response.
type StatusError struct {
	URL    string
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: HTTP %s", e.URL, e.Status)
}

// Response is a fetched body and the headers that came with it.
type Response struct {
	Body        []byte
	ContentType string
}

// Fetcher performs GET requests with a shared client.
type Fetcher struct {
	client   *http.Client
	limiter  *rate.Limiter
	maxBytes int64
}

// NewFetcher creates a Fetcher with the given HTTP client timeout.
func NewFetcher(timeout time.Duration) *Fetcher {
	return &Fetcher{
		client:   &http.Client{Timeout: timeout},
		maxBytes: DefaultMaxBytes,
	}
}

// WithClient swaps the HTTP client. Used with httptest servers.
func (f *Fetcher) WithClient(c *http.Client) *Fetcher {
	f.client = c
	return f
}

// WithRateLimit allows one request per interval.
func (f *Fetcher) WithRateLimit(every time.Duration) *Fetcher {
	f.limiter = rate.NewLimiter(rate.Every(every), 1)
	return f
}

// WithMaxBytes caps the accepted body size.
func (f *Fetcher) WithMaxBytes(n int64) *Fetcher {
	f.maxBytes = n
	return f
}

// Get fetches url. Non-2xx responses return *StatusError.
func (f *Fetcher) Get(ctx context.Context, url string) (*Response, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: url, Code: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, fmt.Errorf("read %s: body exceeds %d bytes", url, f.maxBytes)
	}

	return &Response{Body: body, ContentType: resp.Header.Get("Content-Type")}, nil
}
