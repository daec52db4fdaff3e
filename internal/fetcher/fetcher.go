// Package fetcher provides the rate-limited HTTP layer for the crawl
// phase, including robots.txt compliance checking with per-host caching.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/jonesrussell/seocrawl/internal/logger"
)

// maxResponseBodyBytes limits the size of fetched page responses.
const maxResponseBodyBytes = 10 * 1024 * 1024 // 10 MB

// Response is one classified fetch result.
type Response struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
}

// OK reports whether the response is usable for parsing. Anything but a
// plain 200 leaves the page visited-but-unparsed.
func (r *Response) OK() bool {
	return r.StatusCode == http.StatusOK
}

// IsHTML reports whether the response declared an HTML content type.
func (r *Response) IsHTML() bool {
	return strings.Contains(strings.ToLower(r.ContentType), "text/html")
}

// Config holds the fetcher settings.
type Config struct {
	UserAgent string
	Timeout   time.Duration
	// Delay is the minimum spacing between any two requests in the crawl
	// phase. Zero disables the limiter.
	Delay time.Duration
}

// Fetcher performs sequential, politeness-limited GET requests with a
// fixed identity string. One Fetcher serves an entire crawl phase; it is
// not used by the audit phase, which has its own transport.
type Fetcher struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
	log       logger.Interface
}

// New creates a Fetcher.
func New(cfg Config, log logger.Interface) *Fetcher {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.Delay > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.Delay), 1)
	}

	return &Fetcher{
		client:    &http.Client{Timeout: cfg.Timeout},
		limiter:   limiter,
		userAgent: cfg.UserAgent,
		log:       log,
	}
}

// Fetch performs one rate-limited GET. Transport failures come back as an
// error; every HTTP status, including errors, comes back as a Response.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Response, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if reqErr != nil {
		return nil, fmt.Errorf("create request: %w", reqErr)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, doErr := f.client.Do(req)
	if doErr != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, doErr)
	}
	defer resp.Body.Close()

	limited := io.LimitReader(resp.Body, maxResponseBodyBytes)

	body, readErr := io.ReadAll(limited)
	if readErr != nil {
		return nil, fmt.Errorf("read response body for %s: %w", rawURL, readErr)
	}

	return &Response{
		URL:         rawURL,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}
