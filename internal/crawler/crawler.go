// Package crawler implements the frontier and crawl controller: it owns
// the crawl state, drives the rate-limited fetch/extract loop over an
// explicit stack, then hands the finished state to the audit and
// diagnostics passes and persists the results.
//
// A run has two phases with different execution models. The crawl phase
// is strictly sequential, one fetch at a time, each gated by the
// politeness delay. The audit phase fans out concurrently over every
// discovered link and image and joins at a single barrier before the
// diagnostics consume its results.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/jonesrussell/seocrawl/internal/audit"
	"github.com/jonesrussell/seocrawl/internal/config"
	"github.com/jonesrussell/seocrawl/internal/diagnostics"
	"github.com/jonesrussell/seocrawl/internal/domain"
	"github.com/jonesrussell/seocrawl/internal/extract"
	"github.com/jonesrussell/seocrawl/internal/fetcher"
	"github.com/jonesrussell/seocrawl/internal/history"
	"github.com/jonesrussell/seocrawl/internal/logger"
	"github.com/jonesrussell/seocrawl/internal/metrics"
	"github.com/jonesrussell/seocrawl/internal/sitemap"
	"github.com/jonesrussell/seocrawl/internal/storage"
	"github.com/jonesrussell/seocrawl/internal/urlutil"
)

// Prober runs the audit phase. audit.Auditor is the production
// implementation.
type Prober interface {
	Probe(ctx context.Context, urls []string) map[string]domain.AuditResult
}

// Params holds the controller's dependencies. Prober and Now are
// optional; they default to the colly auditor and time.Now.
type Params struct {
	Config *config.CrawlConfig
	Store  storage.Store
	Logger logger.Interface
	Prober Prober
	Now    func() time.Time
}

// Controller runs one crawl end to end.
type Controller struct {
	cfg     *config.CrawlConfig
	store   storage.Store
	log     logger.Interface
	fetch   *fetcher.Fetcher
	robots  *fetcher.RobotsChecker
	seeds   *sitemap.Resolver
	extract *extract.Extractor
	prober  Prober
	differ  *history.Differ
	metrics *metrics.Metrics
	now     func() time.Time

	// baseURL is the normalized crawl root; baseDomain its registrable
	// domain, used for internal/external classification.
	baseURL    string
	baseDomain string

	state *domain.CrawlState
}

// New creates a Controller. The configuration must already be
// validated.
func New(p Params) (*Controller, error) {
	if p.Config == nil {
		return nil, errors.New("crawler: config is required")
	}
	if p.Store == nil {
		return nil, errors.New("crawler: store is required")
	}
	if p.Logger == nil {
		p.Logger = logger.NewNoOp()
	}
	if p.Now == nil {
		p.Now = time.Now
	}

	baseURL, err := urlutil.Normalize(p.Config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("crawler: invalid base url: %w", err)
	}

	fetch := fetcher.New(fetcher.Config{
		UserAgent: p.Config.UserAgent,
		Timeout:   p.Config.Timeout,
		Delay:     p.Config.Delay,
	}, p.Logger)

	prober := p.Prober
	if prober == nil {
		prober = audit.New(audit.Config{
			UserAgent:   p.Config.UserAgent,
			Parallelism: p.Config.AuditParallelism,
			Timeout:     p.Config.Timeout,
		}, p.Logger)
	}

	return &Controller{
		cfg:        p.Config,
		store:      p.Store,
		log:        p.Logger,
		fetch:      fetch,
		robots:     fetcher.NewRobotsChecker(fetch, p.Config.UserAgent, 0),
		seeds:      sitemap.NewResolver(fetch, p.Logger),
		extract:    extract.New(),
		prober:     prober,
		differ:     history.NewDiffer(p.Store, p.Logger),
		metrics:    metrics.NewMetrics(),
		now:        p.Now,
		baseURL:    baseURL,
		baseDomain: urlutil.RegisteredDomain(baseURL),
	}, nil
}

// Metrics returns the run counters.
func (c *Controller) Metrics() *metrics.Metrics {
	return c.metrics
}

// Run executes the full pipeline: resolve seeds, crawl, audit, derive
// diagnostics, persist the snapshot and report, and diff against the
// previous run. Per-page and per-probe failures never abort the run;
// only context cancellation and state-store write failures surface as
// errors.
func (c *Controller) Run(ctx context.Context) (*domain.Report, error) {
	c.initState(ctx)

	seeds := c.seeds.Seeds(ctx, c.baseURL)
	c.log.Info("Starting crawl",
		"base_url", c.baseURL,
		"seeds", len(seeds),
		"max_depth", c.cfg.MaxDepth,
		"max_pages", c.cfg.MaxPages,
	)

	c.crawl(ctx, seeds)

	if err := c.saveState(ctx); err != nil {
		return nil, fmt.Errorf("save crawl state: %w", err)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		c.log.Warn("Crawl interrupted, state checkpointed", "pages", c.state.PageCount())
		return nil, ctxErr
	}

	c.log.Info("Crawl phase complete",
		"pages", c.state.PageCount(),
		"visited", len(c.state.Visited),
		"elapsed", c.metrics.Elapsed(),
	)

	results := c.prober.Probe(ctx, audit.Targets(c.state))
	for _, result := range results {
		c.metrics.RecordProbe(result.Broken())
	}
	diagnostics.AnnotateImages(c.state.Images, results)

	report := c.buildReport(results)
	c.persistRun(ctx, report)

	return report, nil
}

// initState prepares the in-memory state: resumed from storage when
// requested and loadable, fresh otherwise. Corrupt stored state
// degrades to a fresh run with a warning.
func (c *Controller) initState(ctx context.Context) {
	siteKey := c.cfg.SiteKey

	if !c.cfg.Resume {
		if err := c.store.ClearState(ctx, siteKey); err != nil {
			c.log.Warn("Failed to clear previous crawl state", "error", err)
		}
		c.state = domain.NewCrawlState(c.baseURL, siteKey)
		return
	}

	loaded, err := c.store.LoadState(ctx, siteKey)
	switch {
	case err == nil:
		c.log.Info("Resuming from saved state",
			"visited", len(loaded.Visited), "pages", len(loaded.Pages))
		c.state = loaded
	case errors.Is(err, storage.ErrNoState):
		c.state = domain.NewCrawlState(c.baseURL, siteKey)
	default:
		c.log.Warn("Saved state unreadable, starting fresh", "error", err)
		c.state = domain.NewCrawlState(c.baseURL, siteKey)
	}
}

func (c *Controller) saveState(ctx context.Context) error {
	c.state.UpdatedAt = c.now()
	return c.store.SaveState(ctx, c.cfg.SiteKey, c.state)
}

// buildReport assembles every derived table of the finished run.
func (c *Controller) buildReport(results map[string]domain.AuditResult) *domain.Report {
	now := c.now()
	return &domain.Report{
		SiteKey:     c.cfg.SiteKey,
		BaseURL:     c.baseURL,
		RunID:       uuid.NewString(),
		RunDate:     now.Format(domain.SnapshotDateLayout),
		GeneratedAt: now,
		Pages:       c.state.Pages,
		Quality:     diagnostics.Quality(c.state),
		Duplicates:  diagnostics.DuplicateClusters(c.state),
		Canonicals:  diagnostics.CanonicalIssues(c.state),
		Orphans:     diagnostics.Orphans(c.state),
		BrokenLinks: diagnostics.BrokenLinks(c.state, results, c.classifyScope),
		Images:      c.state.Images,
	}
}

// persistRun writes the dated snapshot, diffs against the previous one,
// and stores the report. Persistence failures here are logged, not
// fatal: the report is already built and returned to the caller.
func (c *Controller) persistRun(ctx context.Context, report *domain.Report) {
	snapshot := &domain.Snapshot{
		SiteKey:   report.SiteKey,
		RunID:     report.RunID,
		RunDate:   report.RunDate,
		Pages:     report.Pages,
		CreatedAt: report.GeneratedAt,
	}
	if err := c.store.SaveSnapshot(ctx, report.SiteKey, snapshot); err != nil {
		c.log.Error("Failed to save snapshot", "date", report.RunDate, "error", err)
	} else {
		changes, diffErr := c.differ.ChangesSince(ctx, report.SiteKey, report.RunDate)
		if diffErr != nil {
			c.log.Warn("Failed to diff against previous snapshot", "error", diffErr)
		} else {
			report.Changes = changes
		}
	}

	if err := c.store.SaveReport(ctx, report.SiteKey, report); err != nil {
		c.log.Error("Failed to save report", "error", err)
	}
}

// classifyScope tags a link target internal or external relative to the
// crawl's registrable domain. An empty registrable domain counts as
// internal, matching the admission policy for malformed targets.
func (c *Controller) classifyScope(target string) string {
	if urlutil.SameSite(c.baseDomain, target) {
		return domain.LinkScopeInternal
	}
	return domain.LinkScopeExternal
}

// pathOf returns the path component of an already-normalized URL.
func pathOf(normalized string) string {
	parsed, err := url.Parse(normalized)
	if err != nil {
		return ""
	}
	return parsed.Path
}
