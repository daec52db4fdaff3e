package diagnostics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/seocrawl/internal/diagnostics"
	"github.com/jonesrussell/seocrawl/internal/domain"
)

func newStateWithPages(pages ...domain.PageRecord) *domain.CrawlState {
	state := domain.NewCrawlState("https://example.com", "example.com")
	for _, page := range pages {
		state.MarkVisited(page.URL)
		state.AddPage(page)
	}
	return state
}

func TestDuplicateClusters(t *testing.T) {
	t.Parallel()

	t.Run("identical title and empty description cluster together", func(t *testing.T) {
		t.Parallel()
		state := newStateWithPages(
			domain.PageRecord{URL: "https://example.com/a", Title: "Home"},
			domain.PageRecord{URL: "https://example.com/b", Title: "Home"},
			domain.PageRecord{URL: "https://example.com/c", Title: "About"},
		)

		clusters := diagnostics.DuplicateClusters(state)
		require.Len(t, clusters, 1)
		assert.Equal(t, []string{"https://example.com/a", "https://example.com/b"}, clusters[0].URLs)
	})

	t.Run("no cluster has fewer than two members", func(t *testing.T) {
		t.Parallel()
		state := newStateWithPages(
			domain.PageRecord{URL: "https://example.com/a", Title: "One"},
			domain.PageRecord{URL: "https://example.com/b", Title: "Two"},
		)

		assert.Empty(t, diagnostics.DuplicateClusters(state))
	})

	t.Run("key normalizes case and whitespace", func(t *testing.T) {
		t.Parallel()
		state := newStateWithPages(
			domain.PageRecord{URL: "https://example.com/a", Title: "  Home ", Description: "Desc"},
			domain.PageRecord{URL: "https://example.com/b", Title: "home", Description: "desc "},
		)

		clusters := diagnostics.DuplicateClusters(state)
		require.Len(t, clusters, 1)
		assert.Len(t, clusters[0].URLs, 2)
	})
}

func TestCanonicalIssues(t *testing.T) {
	t.Parallel()

	t.Run("mutual canonicals report a loop for both pages", func(t *testing.T) {
		t.Parallel()
		state := newStateWithPages(
			domain.PageRecord{URL: "https://example.com/a", Canonical: "https://example.com/b"},
			domain.PageRecord{URL: "https://example.com/b", Canonical: "https://example.com/a"},
		)
		state.Graph.AddEdge("https://example.com/a", "https://example.com/b")
		state.Graph.AddEdge("https://example.com/b", "https://example.com/a")

		issues := diagnostics.CanonicalIssues(state)
		require.Len(t, issues, 2)
		for _, issue := range issues {
			assert.Equal(t, domain.CanonicalLoop, issue.Kind)
			assert.NotEmpty(t, issue.Target)
			assert.NotEqual(t, issue.SourceURL, issue.Target)
		}
	})

	t.Run("canonical to a never-crawled target dangles", func(t *testing.T) {
		t.Parallel()
		state := newStateWithPages(
			domain.PageRecord{URL: "https://example.com/a", Canonical: "https://example.com/ghost"},
		)

		issues := diagnostics.CanonicalIssues(state)
		require.Len(t, issues, 1)
		assert.Equal(t, domain.CanonicalDanglingTarget, issues[0].Kind)
		assert.Equal(t, "https://example.com/ghost", issues[0].Target)
	})

	t.Run("self-canonical is not an issue", func(t *testing.T) {
		t.Parallel()
		state := newStateWithPages(
			domain.PageRecord{URL: "https://example.com/a", Canonical: "https://example.com/a"},
		)

		assert.Empty(t, diagnostics.CanonicalIssues(state))
	})

	t.Run("canonical target with inbound links is fine", func(t *testing.T) {
		t.Parallel()
		state := newStateWithPages(
			domain.PageRecord{URL: "https://example.com/a", Canonical: "https://example.com/b"},
			domain.PageRecord{URL: "https://example.com/b"},
		)
		state.Graph.AddEdge("https://example.com/a", "https://example.com/b")

		assert.Empty(t, diagnostics.CanonicalIssues(state))
	})
}

func TestOrphans(t *testing.T) {
	t.Parallel()

	// A links to B and C, B links to C, C links nowhere.
	state := newStateWithPages(
		domain.PageRecord{URL: "https://example.com/a", Title: "A"},
		domain.PageRecord{URL: "https://example.com/b", Title: "B"},
		domain.PageRecord{URL: "https://example.com/c", Title: "C"},
	)
	state.Graph.AddEdge("https://example.com/a", "https://example.com/b")
	state.Graph.AddEdge("https://example.com/a", "https://example.com/c")
	state.Graph.AddEdge("https://example.com/b", "https://example.com/c")

	assert.Equal(t, 0, state.Graph.InDegree("https://example.com/a"))
	assert.Equal(t, 1, state.Graph.InDegree("https://example.com/b"))
	assert.Equal(t, 2, state.Graph.InDegree("https://example.com/c"))

	orphans := diagnostics.Orphans(state)
	require.Len(t, orphans, 1)
	assert.Equal(t, "https://example.com/a", orphans[0].URL)

	for _, orphan := range orphans {
		assert.Equal(t, 0, state.Graph.InDegree(orphan.URL))
	}
}

func TestQuality(t *testing.T) {
	t.Parallel()

	longTitle := make([]byte, domain.TitleLengthLimit+1)
	for i := range longTitle {
		longTitle[i] = 'x'
	}

	state := newStateWithPages(
		domain.PageRecord{URL: "https://example.com/a", Title: "Dup", Description: "ok"},
		domain.PageRecord{URL: "https://example.com/b", Title: "Dup", RobotsMeta: "NOINDEX, nofollow"},
		domain.PageRecord{URL: "https://example.com/c", Title: string(longTitle), Canonical: "https://example.com/a"},
		domain.PageRecord{URL: "https://example.com/d"},
	)

	quality := diagnostics.Quality(state)
	require.Len(t, quality, 4)

	assert.True(t, quality[0].TitleDuplicated)
	assert.False(t, quality[0].DescMissing)
	assert.Equal(t, domain.IndexabilityIndexable, quality[0].Indexability)

	// noindex wins even when a canonical target is also declared
	assert.Equal(t, domain.IndexabilityNoindex, quality[1].Indexability)

	assert.True(t, quality[2].TitleTooLong)
	assert.Equal(t, domain.IndexabilityCanonicalized, quality[2].Indexability)

	assert.True(t, quality[3].TitleMissing)
	assert.True(t, quality[3].DescMissing)
	assert.False(t, quality[3].TitleDuplicated, "empty titles must not count as duplicated")
}

func TestBrokenLinks(t *testing.T) {
	t.Parallel()

	state := newStateWithPages(
		domain.PageRecord{URL: "https://example.com/a"},
		domain.PageRecord{URL: "https://example.com/b"},
	)
	state.Graph.AddEdge("https://example.com/a", "https://example.com/missing")
	state.Graph.AddEdge("https://example.com/b", "https://example.com/missing")
	state.Graph.AddEdge("https://example.com/a", "https://other.org/down")
	state.Graph.AddEdge("https://example.com/a", "https://example.com/b")

	results := map[string]domain.AuditResult{
		"https://example.com/missing": {URL: "https://example.com/missing", Status: 404},
		"https://other.org/down":      {URL: "https://other.org/down", Unreachable: true},
		"https://example.com/b":       {URL: "https://example.com/b", Status: 200},
	}

	classify := func(target string) string {
		if target == "https://other.org/down" {
			return domain.LinkScopeExternal
		}
		return domain.LinkScopeInternal
	}

	broken := diagnostics.BrokenLinks(state, results, classify)
	require.Len(t, broken, 3, "one record per referencing edge")

	var missingEdges, externalEdges int
	for _, record := range broken {
		switch record.Target {
		case "https://example.com/missing":
			missingEdges++
			assert.Equal(t, 404, record.Status)
			assert.Equal(t, domain.LinkScopeInternal, record.Scope)
		case "https://other.org/down":
			externalEdges++
			assert.True(t, record.Unreachable)
			assert.Equal(t, domain.LinkScopeExternal, record.Scope)
		default:
			t.Fatalf("unexpected broken target %s", record.Target)
		}
	}
	assert.Equal(t, 2, missingEdges)
	assert.Equal(t, 1, externalEdges)
}

func TestAnnotateImages(t *testing.T) {
	t.Parallel()

	images := []domain.ImageRef{
		{PageURL: "https://example.com/a", ImageURL: "https://example.com/ok.png"},
		{PageURL: "https://example.com/a", ImageURL: "https://example.com/gone.png"},
		{PageURL: "https://example.com/b", ImageURL: "https://example.com/unprobed.png"},
	}
	results := map[string]domain.AuditResult{
		"https://example.com/ok.png":   {Status: 200},
		"https://example.com/gone.png": {Status: 404},
	}

	diagnostics.AnnotateImages(images, results)

	assert.Equal(t, 200, images[0].Status)
	assert.False(t, images[0].Broken())
	assert.Equal(t, 404, images[1].Status)
	assert.True(t, images[1].Broken())
	assert.Zero(t, images[2].Status)
}
