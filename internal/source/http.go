package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"
)

const (
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

	defaultHTTPTimeout = 20 * time.Second
	maxBodySize        = 8 << 20
)

// HTTPOptions configures an adapter-owned HTTP client.
type HTTPOptions struct {
	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond float64
	Transport         http.RoundTripper
}

// HTTPClient performs throttled GET requests for a single adapter.
type HTTPClient struct {
	client    *http.Client
	userAgent string
	limiter   *rate.Limiter
}

func NewHTTPClient(opts HTTPOptions) *HTTPClient {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultHTTPTimeout
	}

	return &HTTPClient{
		client:    &http.Client{Timeout: opts.Timeout, Transport: opts.Transport},
		userAgent: opts.UserAgent,
		limiter:   NewLimiter(opts.RequestsPerSecond),
	}
}

// NewLimiter returns a burst-1 limiter. A non-positive rate disables throttling.
func NewLimiter(requestsPerSecond float64) *rate.Limiter {
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	return rate.NewLimiter(limit, 1)
}

// Close releases idle connections held by the client.
func (c *HTTPClient) Close() {
	c.client.CloseIdleConnections()
}

// Get fetches url and returns the body of a 2xx response.
func (c *HTTPClient) Get(ctx context.Context, url string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/json;q=0.9,*/*;q=0.8")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("bad status: %s", resp.Status)
	}

	return body, nil
}

// Document fetches url and parses it as HTML.
func (c *HTTPClient) Document(ctx context.Context, url string) (*goquery.Document, error) {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return nil, err
	}

	return ParseDocument(string(resp))
}

// ParseDocument parses an HTML page.
func ParseDocument(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}
