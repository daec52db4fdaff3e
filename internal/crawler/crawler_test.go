package crawler_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/seocrawl/internal/config"
	"github.com/jonesrussell/seocrawl/internal/crawler"
	"github.com/jonesrussell/seocrawl/internal/domain"
	"github.com/jonesrussell/seocrawl/internal/logger"
	"github.com/jonesrussell/seocrawl/internal/storage"
)

// stubProber replaces the audit phase: it answers 200 for everything
// except the URLs it is told are broken.
type stubProber struct {
	mu     sync.Mutex
	broken map[string]int // URL -> status (0 means unreachable)
	probed []string
}

func (s *stubProber) Probe(_ context.Context, urls []string) map[string]domain.AuditResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.probed = append(s.probed, urls...)

	results := make(map[string]domain.AuditResult, len(urls))
	for _, url := range urls {
		if status, isBroken := s.broken[url]; isBroken {
			results[url] = domain.AuditResult{URL: url, Status: status, Unreachable: status == 0}
			continue
		}
		results[url] = domain.AuditResult{URL: url, Status: http.StatusOK}
	}
	return results
}

// testSite is a small site: the root links to /b, /c, /gone and /pdf
// and embeds an image; /b links to /c; /c declares a dangling
// canonical. The root and /b share a title+description fingerprint.
type testSite struct {
	server *httptest.Server
	// rootTitle is swappable so history diffs have something to see.
	mu        sync.Mutex
	rootTitle string
}

func newTestSite() *testSite {
	site := &testSite{rootTitle: "Home"}
	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		site.mu.Lock()
		title := site.rootTitle
		site.mu.Unlock()
		fmt.Fprintf(w, `<html><head><title>%s</title>
			<meta name="description" content="Welcome">
			</head><body>
			<a href="/b">B</a>
			<a href="/c#section">C</a>
			<a href="/gone">Gone</a>
			<a href="/pdf">PDF</a>
			<a href="mailto:team@example.com">Mail</a>
			<img src="/logo.png" alt="logo" width="120" height="40">
			</body></html>`, title)
	})
	mux.HandleFunc("/b", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><head><title>Home</title>
			<meta name="description" content="Welcome">
			</head><body><a href="/c">C</a></body></html>`)
	})
	mux.HandleFunc("/c", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><head><title>C</title>
			<link rel="canonical" href="/never-linked">
			</head><body>no links</body></html>`)
	})
	mux.HandleFunc("/pdf", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		fmt.Fprint(w, "%PDF-1.4")
	})

	site.server = httptest.NewServer(mux)
	return site
}

func (s *testSite) setRootTitle(title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rootTitle = title
}

func (s *testSite) url(path string) string {
	if path == "/" {
		return s.server.URL + "/"
	}
	return s.server.URL + path
}

func newTestConfig(t *testing.T, baseURL string) *config.CrawlConfig {
	t.Helper()
	cfg := config.NewCrawlConfig()
	cfg.BaseURL = baseURL
	cfg.Delay = 0
	cfg.MaxDepth = 3
	cfg.MaxPages = 0
	require.NoError(t, cfg.Validate())
	return cfg
}

func newController(
	t *testing.T, cfg *config.CrawlConfig, store storage.Store, prober crawler.Prober, now time.Time,
) *crawler.Controller {
	t.Helper()
	ctrl, err := crawler.New(crawler.Params{
		Config: cfg,
		Store:  store,
		Logger: logger.NewNoOp(),
		Prober: prober,
		Now:    func() time.Time { return now },
	})
	require.NoError(t, err)
	return ctrl
}

func TestRun(t *testing.T) {
	t.Parallel()

	site := newTestSite()
	defer site.server.Close()

	store, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)

	cfg := newTestConfig(t, site.server.URL)
	prober := &stubProber{broken: map[string]int{site.url("/gone"): http.StatusNotFound}}
	ctrl := newController(t, cfg, store, prober, time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC))

	report, err := ctrl.Run(context.Background())
	require.NoError(t, err)

	// Three HTML pages parse; /gone and /pdf are visited but unparsed.
	require.Len(t, report.Pages, 3)
	pageURLs := make(map[string]int)
	for _, page := range report.Pages {
		pageURLs[page.URL]++
	}
	assert.Equal(t, 1, pageURLs[site.url("/")])
	assert.Equal(t, 1, pageURLs[site.url("/b")])
	assert.Equal(t, 1, pageURLs[site.url("/c")])

	// Visited covers every page plus the failed fetches.
	state, err := store.LoadState(context.Background(), cfg.SiteKey)
	require.NoError(t, err)
	for url := range pageURLs {
		assert.True(t, state.IsVisited(url), "page %s must be in the visited set", url)
	}
	assert.True(t, state.IsVisited(site.url("/gone")))
	assert.True(t, state.IsVisited(site.url("/pdf")))

	// The root is the only page nothing links to.
	require.Len(t, report.Orphans, 1)
	assert.Equal(t, site.url("/"), report.Orphans[0].URL)

	// Root and /b share title+description.
	require.Len(t, report.Duplicates, 1)
	assert.ElementsMatch(t, []string{site.url("/"), site.url("/b")}, report.Duplicates[0].URLs)

	// /c's canonical points at a URL nothing links to.
	require.Len(t, report.Canonicals, 1)
	assert.Equal(t, domain.CanonicalDanglingTarget, report.Canonicals[0].Kind)
	assert.Equal(t, site.url("/c"), report.Canonicals[0].SourceURL)

	// One broken-link record for the single edge naming /gone.
	require.Len(t, report.BrokenLinks, 1)
	assert.Equal(t, site.url("/"), report.BrokenLinks[0].SourceURL)
	assert.Equal(t, site.url("/gone"), report.BrokenLinks[0].Target)
	assert.Equal(t, http.StatusNotFound, report.BrokenLinks[0].Status)
	assert.Equal(t, domain.LinkScopeInternal, report.BrokenLinks[0].Scope)

	// Images carry their probed status; the logo URL was probed once.
	require.Len(t, report.Images, 1)
	assert.Equal(t, site.url("/logo.png"), report.Images[0].ImageURL)
	assert.Equal(t, "logo", report.Images[0].Alt)
	assert.Equal(t, http.StatusOK, report.Images[0].Status)

	// mailto: never reaches the graph or the audit set.
	for _, probed := range prober.probed {
		assert.NotContains(t, probed, "mailto")
	}

	// No prior snapshot, so no changes, and that is not an error.
	assert.Empty(t, report.Changes)

	// The report is persisted for the report command and the API.
	stored, err := store.LoadReport(context.Background(), cfg.SiteKey)
	require.NoError(t, err)
	assert.Equal(t, report.RunID, stored.RunID)
}

func TestRunDepthZeroAdmitsOnlySeeds(t *testing.T) {
	t.Parallel()

	site := newTestSite()
	defer site.server.Close()

	store, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)

	cfg := newTestConfig(t, site.server.URL)
	cfg.MaxDepth = 0
	ctrl := newController(t, cfg, store, &stubProber{}, time.Now())

	report, err := ctrl.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Pages, 1)
	assert.Equal(t, site.url("/"), report.Pages[0].URL)

	// Every outbound link of the seed was refused for depth.
	snap := ctrl.Metrics().Snapshot()
	assert.Equal(t, int64(4), snap.SkippedDepth)
}

func TestRunPageBudget(t *testing.T) {
	t.Parallel()

	site := newTestSite()
	defer site.server.Close()

	store, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)

	cfg := newTestConfig(t, site.server.URL)
	cfg.MaxPages = 2
	ctrl := newController(t, cfg, store, &stubProber{}, time.Now())

	report, err := ctrl.Run(context.Background())
	require.NoError(t, err)

	assert.Len(t, report.Pages, 2)
	snap := ctrl.Metrics().Snapshot()
	assert.Positive(t, snap.SkippedBudget)
}

func TestRunPathPatterns(t *testing.T) {
	t.Parallel()

	site := newTestSite()
	defer site.server.Close()

	store, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)

	cfg := newTestConfig(t, site.server.URL)
	cfg.Exclude = `^/b$`
	require.NoError(t, cfg.Validate())
	ctrl := newController(t, cfg, store, &stubProber{}, time.Now())

	report, err := ctrl.Run(context.Background())
	require.NoError(t, err)

	for _, page := range report.Pages {
		assert.NotEqual(t, site.url("/b"), page.URL)
	}
	snap := ctrl.Metrics().Snapshot()
	assert.Equal(t, int64(1), snap.SkippedPattern)
}

func TestRunRobotsDisallow(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "User-agent: *\nDisallow: /private\n")
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `<html><head><title>Root</title></head><body>
			<a href="/private/secret">secret</a></body></html>`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	store, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)

	ctrl := newController(t, newTestConfig(t, server.URL), store, &stubProber{}, time.Now())

	report, err := ctrl.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Pages, 1)
	snap := ctrl.Metrics().Snapshot()
	assert.Equal(t, int64(1), snap.SkippedRobots)
}

func TestRunSitemapSeeds(t *testing.T) {
	t.Parallel()

	var server *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		fmt.Fprintf(w, `<?xml version="1.0"?>
			<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
			<url><loc>%s/only-in-sitemap</loc></url>
			</urlset>`, server.URL)
	})
	mux.HandleFunc("/only-in-sitemap", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><head><title>Hidden</title></head><body></body></html>`)
	})
	server = httptest.NewServer(mux)
	defer server.Close()

	store, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)

	ctrl := newController(t, newTestConfig(t, server.URL), store, &stubProber{}, time.Now())

	report, err := ctrl.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Pages, 1)
	assert.Equal(t, server.URL+"/only-in-sitemap", report.Pages[0].URL)
}

func TestRunResumeSkipsVisited(t *testing.T) {
	t.Parallel()

	site := newTestSite()
	defer site.server.Close()

	store, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)

	cfg := newTestConfig(t, site.server.URL)
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	first := newController(t, cfg, store, &stubProber{}, now)
	firstReport, err := first.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, firstReport.Pages, 3)

	resumeCfg := newTestConfig(t, site.server.URL)
	resumeCfg.Resume = true
	second := newController(t, resumeCfg, store, &stubProber{}, now)
	secondReport, err := second.Run(context.Background())
	require.NoError(t, err)

	// Everything was already visited: the records carry over unchanged
	// and no URL gains a second record.
	require.Len(t, secondReport.Pages, 3)
	assert.Equal(t, firstReport.Pages, secondReport.Pages)
	snap := second.Metrics().Snapshot()
	assert.Zero(t, snap.PagesParsed)
	assert.Positive(t, snap.SkippedVisited)
}

func TestRunHistoryDiff(t *testing.T) {
	t.Parallel()

	site := newTestSite()
	defer site.server.Close()

	store, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)

	day1 := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	first := newController(t, newTestConfig(t, site.server.URL), store, &stubProber{}, day1)
	_, err = first.Run(context.Background())
	require.NoError(t, err)

	site.setRootTitle("Home v2")

	second := newController(t, newTestConfig(t, site.server.URL), store, &stubProber{}, day2)
	report, err := second.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Changes, 1)
	assert.Equal(t, domain.ChangeEdited, report.Changes[0].Kind)
	assert.Equal(t, site.url("/"), report.Changes[0].URL)
	assert.Equal(t, "Home", report.Changes[0].OldTitle)
	assert.Equal(t, "Home v2", report.Changes[0].NewTitle)
}

func TestNewRejectsInvalidBaseURL(t *testing.T) {
	t.Parallel()

	store, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)

	cfg := config.NewCrawlConfig()
	cfg.BaseURL = "not a url"

	_, err = crawler.New(crawler.Params{Config: cfg, Store: store, Logger: logger.NewNoOp()})
	require.Error(t, err)
}
