package domain

// Link scope relative to the crawl's base host.
const (
	LinkScopeInternal = "internal"
	LinkScopeExternal = "external"
)

// CanonicalIssue kinds.
const (
	// CanonicalLoop marks a pair of pages whose canonicals point at each
	// other.
	CanonicalLoop = "loop"
	// CanonicalDanglingTarget marks a canonical pointing at a URL with no
	// inbound edges in the crawled graph.
	CanonicalDanglingTarget = "dangling_target"
)

// DuplicateCluster groups pages sharing one title+description key.
// Clusters are only reported with two or more members.
type DuplicateCluster struct {
	Key  string   `json:"key"`
	URLs []string `json:"urls"`
}

// CanonicalIssue is a problematic canonical declaration: SourceURL
// declares Target as canonical and the relationship is a loop or the
// target dangles. Self-canonical pages never produce an issue.
type CanonicalIssue struct {
	SourceURL string `json:"source_url"`
	Target    string `json:"target"`
	Kind      string `json:"kind"`
}

// OrphanRecord is a crawled page no other crawled page links to.
type OrphanRecord struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// AuditResult is the probed status of one distinct URL. Status is the
// final HTTP status after redirects; Unreachable marks transport
// failures, in which case Status is zero.
type AuditResult struct {
	URL         string `json:"url"`
	Status      int    `json:"status"`
	Unreachable bool   `json:"unreachable"`
}

// Broken reports whether the probe outcome counts as broken.
func (a AuditResult) Broken() bool {
	return a.Unreachable || a.Status >= 400
}

// BrokenLinkRecord is one (source, target) edge whose target probed
// broken. One record exists per referencing edge, not per target.
type BrokenLinkRecord struct {
	SourceURL   string `json:"source_url"`
	Target      string `json:"target"`
	Status      int    `json:"status"`
	Unreachable bool   `json:"unreachable"`
	Scope       string `json:"scope"`
}
