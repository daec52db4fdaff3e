package domain

import "time"

// CrawlState is the single aggregate the crawl controller owns for one
// run: everything discovered so far, in one value, serializable as one
// atomic unit. During the crawl phase only the controller mutates it;
// afterwards the diagnostics and audit passes read it without locking.
type CrawlState struct {
	BaseURL    string              `json:"base_url"`
	SiteKey    string              `json:"site_key"`
	Visited    map[string]bool     `json:"visited"`
	Pages      []PageRecord        `json:"pages"`
	Graph      *LinkGraph          `json:"graph"`
	Images     []ImageRef          `json:"images"`
	Duplicates map[string][]string `json:"duplicates"`
	Canonicals map[string]string   `json:"canonicals"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

// NewCrawlState returns an empty state for the given site.
func NewCrawlState(baseURL, siteKey string) *CrawlState {
	return &CrawlState{
		BaseURL:    baseURL,
		SiteKey:    siteKey,
		Visited:    make(map[string]bool),
		Graph:      NewLinkGraph(),
		Duplicates: make(map[string][]string),
		Canonicals: make(map[string]string),
	}
}

// MarkVisited admits url to the visited set. Returns false when the URL
// was already visited, so admission stays idempotent.
func (s *CrawlState) MarkVisited(url string) bool {
	if s.Visited[url] {
		return false
	}
	s.Visited[url] = true
	return true
}

// IsVisited reports whether url was already admitted this run.
func (s *CrawlState) IsVisited(url string) bool {
	return s.Visited[url]
}

// AddPage appends the record and folds it into the duplicate and
// canonical indexes.
func (s *CrawlState) AddPage(rec PageRecord) {
	s.Pages = append(s.Pages, rec)
	key := rec.DuplicateKey()
	s.Duplicates[key] = append(s.Duplicates[key], rec.URL)
	if rec.Canonical != "" {
		s.Canonicals[rec.URL] = rec.Canonical
	}
}

// PageCount returns the number of parsed pages so far.
func (s *CrawlState) PageCount() int {
	return len(s.Pages)
}

// PageByURL returns the record for url, or nil when the URL was never
// parsed.
func (s *CrawlState) PageByURL(url string) *PageRecord {
	for i := range s.Pages {
		if s.Pages[i].URL == url {
			return &s.Pages[i]
		}
	}
	return nil
}

// Normalize re-establishes the invariants a state loaded from storage may
// have lost to JSON round-tripping: nil maps become empty, the graph is
// never nil.
func (s *CrawlState) Normalize() {
	if s.Visited == nil {
		s.Visited = make(map[string]bool)
	}
	if s.Graph == nil {
		s.Graph = NewLinkGraph()
	}
	if s.Graph.Out == nil {
		s.Graph.Out = make(map[string][]string)
	}
	if s.Graph.In == nil {
		s.Graph.In = make(map[string]int)
	}
	if s.Duplicates == nil {
		s.Duplicates = make(map[string][]string)
	}
	if s.Canonicals == nil {
		s.Canonicals = make(map[string]string)
	}
}
