package helpers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
)

// MockCrawlTarget creates a mock website for crawling tests. The map
// key is the URL path and the value the page served there; unknown
// paths return 404.
func MockCrawlTarget(pages map[string]PageContent) *httptest.Server {
	if len(pages) == 0 {
		pages = map[string]PageContent{
			"/": {Title: "Home", Description: "Welcome to the test site"},
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		page, ok := pages[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = fmt.Fprint(w, "<html><body>404 Not Found</body></html>")
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = fmt.Fprint(w, HTMLPage(page))
	})

	return httptest.NewServer(mux)
}
