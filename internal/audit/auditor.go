// Package audit implements the bulk liveness pass that runs after a
// crawl: every distinct discovered link and image URL is probed once
// with a HEAD request, concurrently, and classified by status. The
// politeness delay of the crawl phase does not apply here; parallelism
// is bounded instead.
package audit

import (
	"context"
	"sort"
	"sync"
	"time"

	colly "github.com/gocolly/colly/v2"

	"github.com/jonesrussell/seocrawl/internal/domain"
	"github.com/jonesrussell/seocrawl/internal/logger"
)

// defaultTimeout bounds each probe request.
const defaultTimeout = 10 * time.Second

// probeURLKey is the request context key carrying the original probe
// URL, so redirected responses still join back to the URL the crawl
// recorded.
const probeURLKey = "probe_url"

// Config holds the auditor settings.
type Config struct {
	UserAgent string
	// Parallelism caps concurrent probes.
	Parallelism int
	// Timeout bounds each request; zero means the default.
	Timeout time.Duration
}

// Auditor probes URLs for liveness.
type Auditor struct {
	cfg Config
	log logger.Interface
}

// New creates an Auditor.
func New(cfg Config, log logger.Interface) *Auditor {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Parallelism < 1 {
		cfg.Parallelism = 1
	}
	return &Auditor{cfg: cfg, log: log}
}

// Probe issues one HEAD request per distinct URL and blocks until every
// probe has returned. Redirects are followed; any HTTP status counts as
// a result, transport failures count as unreachable. Probe never
// returns an error: a URL that cannot even be requested is recorded as
// unreachable like any other dead target.
func (a *Auditor) Probe(ctx context.Context, urls []string) map[string]domain.AuditResult {
	results := make(map[string]domain.AuditResult, len(urls))
	if len(urls) == 0 {
		return results
	}

	var mu sync.Mutex
	record := func(url string, result domain.AuditResult) {
		mu.Lock()
		defer mu.Unlock()
		// First outcome wins; OnError can fire after a response on the
		// same request when the body transfer dies.
		if _, seen := results[url]; !seen {
			results[url] = result
		}
	}

	collector := colly.NewCollector(
		colly.StdlibContext(ctx),
		colly.Async(true),
		colly.ParseHTTPErrorResponse(),
		colly.IgnoreRobotsTxt(),
		colly.UserAgent(a.cfg.UserAgent),
	)
	collector.SetRequestTimeout(a.cfg.Timeout)

	if err := collector.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: a.cfg.Parallelism,
	}); err != nil {
		a.log.Warn("Failed to set audit parallelism limit", "error", err)
	}

	collector.OnResponse(func(r *colly.Response) {
		url := probeURL(r)
		record(url, domain.AuditResult{URL: url, Status: r.StatusCode})
	})

	collector.OnError(func(r *colly.Response, probeErr error) {
		url := probeURL(r)
		if r != nil && r.StatusCode > 0 {
			record(url, domain.AuditResult{URL: url, Status: r.StatusCode})
			return
		}
		record(url, domain.AuditResult{URL: url, Unreachable: true})
	})

	for _, url := range dedupe(urls) {
		reqCtx := colly.NewContext()
		reqCtx.Put(probeURLKey, url)
		if err := collector.Request("HEAD", url, nil, reqCtx, nil); err != nil {
			// Request-building failures (malformed URL) never reach
			// OnError; they are dead targets all the same.
			record(url, domain.AuditResult{URL: url, Unreachable: true})
		}
	}

	collector.Wait()

	a.log.Info("Audit phase complete", "probed", len(results))
	return results
}

// probeURL recovers the original URL a probe was issued for.
func probeURL(r *colly.Response) string {
	if r != nil && r.Request != nil {
		if url := r.Request.Ctx.Get(probeURLKey); url != "" {
			return url
		}
		return r.Request.URL.String()
	}
	return ""
}

// dedupe returns the distinct URLs, sorted for a deterministic request
// order.
func dedupe(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	distinct := make([]string, 0, len(urls))
	for _, url := range urls {
		if url == "" {
			continue
		}
		if _, ok := seen[url]; ok {
			continue
		}
		seen[url] = struct{}{}
		distinct = append(distinct, url)
	}
	sort.Strings(distinct)
	return distinct
}

// Targets collects the probe input of a finished crawl: every distinct
// link target plus every distinct image URL.
func Targets(state *domain.CrawlState) []string {
	urls := state.Graph.DistinctTargets()
	for i := range state.Images {
		urls = append(urls, state.Images[i].ImageURL)
	}
	return dedupe(urls)
}
