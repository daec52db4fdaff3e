package fetcher

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

// Default cache TTL for robots.txt entries.
const defaultRobotsCacheTTL = 24 * time.Hour

// robotsTxtPath is the well-known path for robots.txt files.
const robotsTxtPath = "/robots.txt"

// RobotsFetcher fetches URLs for the robots checker. The crawl Fetcher
// satisfies it, so robots.txt requests ride the same rate limiter as
// every other crawl-phase request.
type RobotsFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*Response, error)
}

// RobotsChecker checks and caches robots.txt rules per host. Subdomains
// of the crawled site get their own entries.
type RobotsChecker struct {
	fetch     RobotsFetcher
	userAgent string
	cache     map[string]*robotsCacheEntry // keyed by host
	mu        sync.RWMutex
	cacheTTL  time.Duration
}

// robotsCacheEntry stores the parsed robots.txt data and metadata for a host.
type robotsCacheEntry struct {
	data      *robotstxt.RobotsData
	fetchedAt time.Time
	allowAll  bool // true if robots.txt was missing/404 or errored (allow all)
}

// NewRobotsChecker creates a new RobotsChecker.
func NewRobotsChecker(fetch RobotsFetcher, userAgent string, cacheTTL time.Duration) *RobotsChecker {
	if cacheTTL == 0 {
		cacheTTL = defaultRobotsCacheTTL
	}

	return &RobotsChecker{
		fetch:     fetch,
		userAgent: userAgent,
		cache:     make(map[string]*robotsCacheEntry),
		cacheTTL:  cacheTTL,
	}
}

// IsAllowed checks if the given URL is allowed by the host's robots.txt.
// It fetches and caches robots.txt if not cached or stale. Missing or
// errored robots.txt results in allow all (standard practice).
func (r *RobotsChecker) IsAllowed(ctx context.Context, rawURL string) (bool, error) {
	parsed, parseErr := url.Parse(rawURL)
	if parseErr != nil {
		return false, fmt.Errorf("robots: parse url: %w", parseErr)
	}

	host := strings.ToLower(parsed.Host)
	if host == "" {
		return false, fmt.Errorf("robots: empty host in url %q", rawURL)
	}

	entry := r.getOrFetchEntry(ctx, host, parsed.Scheme)
	if entry.allowAll {
		return true, nil
	}

	return entry.data.TestAgent(parsed.Path, r.userAgent), nil
}

// getOrFetchEntry returns a cached entry if fresh, otherwise fetches robots.txt.
func (r *RobotsChecker) getOrFetchEntry(ctx context.Context, host, scheme string) *robotsCacheEntry {
	if entry, ok := r.getCachedEntry(host); ok {
		return entry
	}

	return r.fetchAndCache(ctx, host, scheme)
}

// getCachedEntry returns a cached entry if it exists and is not stale.
func (r *RobotsChecker) getCachedEntry(host string) (*robotsCacheEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.cache[host]
	if !ok {
		return nil, false
	}

	if time.Since(entry.fetchedAt) > r.cacheTTL {
		return nil, false
	}

	return entry, true
}

// fetchAndCache fetches robots.txt for the host and caches the result.
// Fetch failures degrade to an allow-all entry.
func (r *RobotsChecker) fetchAndCache(ctx context.Context, host, scheme string) *robotsCacheEntry {
	if scheme == "" {
		scheme = "https"
	}

	robotsURL := scheme + "://" + host + robotsTxtPath

	resp, fetchErr := r.fetch.Fetch(ctx, robotsURL)
	if fetchErr != nil {
		return r.cacheEntry(host, &robotsCacheEntry{
			fetchedAt: time.Now(),
			allowAll:  true,
		})
	}

	return r.cacheEntry(host, r.parseAndBuildEntry(resp.Body, resp.StatusCode))
}

// parseAndBuildEntry parses a robots.txt response body with status code.
// Only 2xx responses are parsed; all others are treated as allow-all
// for graceful degradation (standard crawling practice).
func (r *RobotsChecker) parseAndBuildEntry(body []byte, statusCode int) *robotsCacheEntry {
	if !isSuccessStatus(statusCode) {
		return &robotsCacheEntry{
			fetchedAt: time.Now(),
			allowAll:  true,
		}
	}

	robots, parseErr := robotstxt.FromBytes(body)
	if parseErr != nil {
		return &robotsCacheEntry{
			fetchedAt: time.Now(),
			allowAll:  true,
		}
	}

	return &robotsCacheEntry{
		data:      robots,
		fetchedAt: time.Now(),
	}
}

// statusSuccessLow is the lower bound (inclusive) for HTTP success status codes.
const statusSuccessLow = 200

// statusSuccessHigh is the upper bound (exclusive) for HTTP success status codes.
const statusSuccessHigh = 300

// isSuccessStatus returns true if the HTTP status code is in the 2xx range.
func isSuccessStatus(statusCode int) bool {
	return statusCode >= statusSuccessLow && statusCode < statusSuccessHigh
}

// cacheEntry stores an entry for the host and returns it.
func (r *RobotsChecker) cacheEntry(host string, entry *robotsCacheEntry) *robotsCacheEntry {
	r.mu.Lock()
	r.cache[host] = entry
	r.mu.Unlock()

	return entry
}
