package sitemap_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/seocrawl/internal/fetcher"
	"github.com/jonesrussell/seocrawl/internal/logger"
	"github.com/jonesrussell/seocrawl/internal/sitemap"
)

func TestParseSitemap(t *testing.T) {
	t.Parallel()

	body := []byte(`<?xml version="1.0" encoding="UTF-8"?>
		<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
		<url><loc>https://example.com/</loc><lastmod>2026-08-01</lastmod></url>
		<url><loc>https://example.com/about</loc></url>
		<url><loc></loc></url>
		</urlset>`)

	urls, err := sitemap.ParseSitemap(body)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com/", "https://example.com/about"}, urls)
}

func TestParseSitemapIndex(t *testing.T) {
	t.Parallel()

	body := []byte(`<?xml version="1.0" encoding="UTF-8"?>
		<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
		<sitemap><loc>https://example.com/sitemap-a.xml</loc></sitemap>
		<sitemap><loc>https://example.com/sitemap-b.xml</loc></sitemap>
		</sitemapindex>`)

	children, err := sitemap.ParseSitemapIndex(body)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://example.com/sitemap-a.xml",
		"https://example.com/sitemap-b.xml",
	}, children)
}

func TestParseSitemapNotXML(t *testing.T) {
	t.Parallel()

	_, err := sitemap.ParseSitemap([]byte("this is not xml"))
	assert.Error(t, err)
}

func newResolver() *sitemap.Resolver {
	f := fetcher.New(fetcher.Config{
		UserAgent: "seocrawl-test",
		Timeout:   5 * time.Second,
	}, logger.NewNoOp())
	return sitemap.NewResolver(f, logger.NewNoOp())
}

func TestSeedsFromSitemap(t *testing.T) {
	t.Parallel()

	var server *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		fmt.Fprintf(w, `<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
			<url><loc>%[1]s/a</loc></url>
			<url><loc>%[1]s/b</loc></url>
			</urlset>`, server.URL)
	})
	server = httptest.NewServer(mux)
	defer server.Close()

	seeds := newResolver().Seeds(context.Background(), server.URL)
	assert.Equal(t, []string{server.URL + "/a", server.URL + "/b"}, seeds)
}

func TestSeedsFromSitemapIndex(t *testing.T) {
	t.Parallel()

	var server *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
			<sitemap><loc>%[1]s/sitemap-pages.xml</loc></sitemap>
			<sitemap><loc>%[1]s/sitemap-missing.xml</loc></sitemap>
			</sitemapindex>`, server.URL)
	})
	mux.HandleFunc("/sitemap-pages.xml", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
			<url><loc>%s/page</loc></url>
			</urlset>`, server.URL)
	})
	server = httptest.NewServer(mux)
	defer server.Close()

	// The missing child 404s and is skipped; the readable child seeds.
	seeds := newResolver().Seeds(context.Background(), server.URL)
	assert.Equal(t, []string{server.URL + "/page"}, seeds)
}

func TestSeedsFallsBackToBaseURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.Handler
	}{
		{"missing sitemap", http.NotFoundHandler()},
		{"unparsable sitemap", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, "not xml")
		})},
		{"empty urlset", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9"></urlset>`)
		})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			seeds := newResolver().Seeds(context.Background(), server.URL)
			assert.Equal(t, []string{server.URL}, seeds)
		})
	}
}
