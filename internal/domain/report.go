package domain

import "time"

// Report bundles every derived table of one completed run. This is the
// value handed to renderers, the HTTP API, and export sinks; the core
// never formats it for any particular medium.
type Report struct {
	SiteKey     string             `json:"site_key"`
	BaseURL     string             `json:"base_url"`
	RunID       string             `json:"run_id"`
	RunDate     string             `json:"run_date"`
	GeneratedAt time.Time          `json:"generated_at"`
	Pages       []PageRecord       `json:"pages"`
	Quality     []PageQuality      `json:"quality"`
	Duplicates  []DuplicateCluster `json:"duplicates"`
	Canonicals  []CanonicalIssue   `json:"canonical_issues"`
	Orphans     []OrphanRecord     `json:"orphans"`
	BrokenLinks []BrokenLinkRecord `json:"broken_links"`
	Images      []ImageRef         `json:"images"`
	Changes     []PageChange       `json:"changes"`
}
