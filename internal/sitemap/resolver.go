package sitemap

import (
	"context"
	"net/url"

	"github.com/jonesrussell/seocrawl/internal/fetcher"
	"github.com/jonesrussell/seocrawl/internal/logger"
)

// sitemapPath is the well-known path for sitemap files.
const sitemapPath = "/sitemap.xml"

// Fetcher fetches URLs for the resolver. The crawl fetcher satisfies it,
// so sitemap requests ride the crawl-phase rate limiter.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*fetcher.Response, error)
}

// Resolver produces a site's seed URLs from its sitemap.
type Resolver struct {
	fetch Fetcher
	log   logger.Interface
}

// NewResolver creates a Resolver.
func NewResolver(fetch Fetcher, log logger.Interface) *Resolver {
	return &Resolver{fetch: fetch, log: log}
}

// Seeds resolves the seed set for baseURL. It fetches /sitemap.xml,
// collecting every <loc>; a sitemap index recurses one level into its
// child sitemaps. Any failure, or an empty result, falls back to
// {baseURL}: a missing sitemap never blocks a crawl.
func (r *Resolver) Seeds(ctx context.Context, baseURL string) []string {
	fallback := []string{baseURL}

	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Host == "" {
		return fallback
	}

	sitemapURL := parsed.Scheme + "://" + parsed.Host + sitemapPath

	body, ok := r.fetchBody(ctx, sitemapURL)
	if !ok {
		return fallback
	}

	if urls, parseErr := ParseSitemap(body); parseErr == nil && len(urls) > 0 {
		r.log.Info("Seeded crawl from sitemap", "sitemap", sitemapURL, "urls", len(urls))
		return urls
	}

	// Not a urlset; try a sitemap index with one level of children.
	children, indexErr := ParseSitemapIndex(body)
	if indexErr != nil || len(children) == 0 {
		r.log.Warn("Sitemap yielded no URLs, falling back to base URL", "sitemap", sitemapURL)
		return fallback
	}

	var urls []string
	for _, child := range children {
		childBody, childOK := r.fetchBody(ctx, child)
		if !childOK {
			continue
		}
		childURLs, childErr := ParseSitemap(childBody)
		if childErr != nil {
			r.log.Warn("Skipping unparsable child sitemap", "sitemap", child, "error", childErr)
			continue
		}
		urls = append(urls, childURLs...)
	}

	if len(urls) == 0 {
		r.log.Warn("Sitemap index yielded no URLs, falling back to base URL", "sitemap", sitemapURL)
		return fallback
	}

	r.log.Info("Seeded crawl from sitemap index",
		"sitemap", sitemapURL, "children", len(children), "urls", len(urls))
	return urls
}

// fetchBody fetches one sitemap document, reporting ok=false on any
// transport failure or non-2xx status.
func (r *Resolver) fetchBody(ctx context.Context, rawURL string) ([]byte, bool) {
	resp, err := r.fetch.Fetch(ctx, rawURL)
	if err != nil {
		r.log.Warn("Sitemap fetch failed", "url", rawURL, "error", err)
		return nil, false
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		r.log.Warn("Sitemap fetch returned non-success status", "url", rawURL, "status", resp.StatusCode)
		return nil, false
	}
	return resp.Body, true
}
