package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const userAgent = "FilmScanner/1.0"

// Client wraps http.Client with a shared limiter so the scraped sources are
// not hammered during a run. All pipeline requests go through one instance.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient builds a client with a bounded per-request timeout and at most
// burst requests per interval. A zero interval disables throttling.
func NewClient(timeout, interval time.Duration, burst int) *Client {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	if burst <= 0 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if interval > 0 {
		limiter = rate.NewLimiter(rate.Every(interval), burst)
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		limiter: limiter,
	}
}

// HTTPClient exposes the underlying client for collaborators that perform
// their own decoding.
func (c *Client) HTTPClient() *http.Client {
	return c.http
}

// Get waits for the limiter, performs the request, and returns the response
// body. The caller owns the returned reader.
func (c *Client) Get(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", rawURL, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %s for %s", resp.Status, rawURL)
	}
	return resp.Body, nil
}
