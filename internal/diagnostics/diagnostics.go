// Package diagnostics derives the quality tables of a finished crawl:
// duplicate clusters, canonical issues, orphan pages, and per-page
// quality flags. Everything here is a pure function of the final
// CrawlState; nothing mutates its input.
package diagnostics

import (
	"sort"
	"strings"

	"github.com/jonesrussell/seocrawl/internal/domain"
)

// minClusterSize is the member threshold below which a duplicate
// cluster is not reported.
const minClusterSize = 2

// DuplicateClusters returns every title+description cluster with two or
// more members, ordered by cluster key. Member order inside a cluster is
// the order the pages were parsed.
func DuplicateClusters(state *domain.CrawlState) []domain.DuplicateCluster {
	keys := make([]string, 0, len(state.Duplicates))
	for key, urls := range state.Duplicates {
		if len(urls) >= minClusterSize {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	clusters := make([]domain.DuplicateCluster, 0, len(keys))
	for _, key := range keys {
		clusters = append(clusters, domain.DuplicateCluster{
			Key:  key,
			URLs: state.Duplicates[key],
		})
	}
	return clusters
}

// CanonicalIssues classifies every problematic canonical declaration.
// A page declaring canonical target T != itself yields a Loop when T's
// own canonical points back at the page, otherwise a DanglingTarget when
// T has no inbound edges in the link graph. Self-canonical pages are
// fine and produce nothing.
func CanonicalIssues(state *domain.CrawlState) []domain.CanonicalIssue {
	var issues []domain.CanonicalIssue
	for i := range state.Pages {
		page := &state.Pages[i]
		target := page.Canonical
		if target == "" || target == page.URL {
			continue
		}

		if state.Canonicals[target] == page.URL {
			issues = append(issues, domain.CanonicalIssue{
				SourceURL: page.URL,
				Target:    target,
				Kind:      domain.CanonicalLoop,
			})
			continue
		}

		if state.Graph.InDegree(target) == 0 {
			issues = append(issues, domain.CanonicalIssue{
				SourceURL: page.URL,
				Target:    target,
				Kind:      domain.CanonicalDanglingTarget,
			})
		}
	}
	return issues
}

// Orphans returns every crawled page with no inbound link, in parse
// order.
func Orphans(state *domain.CrawlState) []domain.OrphanRecord {
	var orphans []domain.OrphanRecord
	for i := range state.Pages {
		page := &state.Pages[i]
		if state.Graph.InDegree(page.URL) == 0 {
			orphans = append(orphans, domain.OrphanRecord{
				URL:   page.URL,
				Title: page.Title,
			})
		}
	}
	return orphans
}

// Quality computes the per-page quality flags and indexability
// classification, in parse order.
func Quality(state *domain.CrawlState) []domain.PageQuality {
	titleCounts := make(map[string]int, len(state.Pages))
	for i := range state.Pages {
		if title := state.Pages[i].Title; title != "" {
			titleCounts[title]++
		}
	}

	quality := make([]domain.PageQuality, 0, len(state.Pages))
	for i := range state.Pages {
		page := &state.Pages[i]
		quality = append(quality, domain.PageQuality{
			URL:             page.URL,
			TitleMissing:    page.Title == "",
			TitleTooLong:    len(page.Title) > domain.TitleLengthLimit,
			TitleDuplicated: titleCounts[page.Title] >= minClusterSize,
			DescMissing:     page.Description == "",
			DescTooLong:     len(page.Description) > domain.DescriptionLengthLimit,
			Indexability:    indexability(page),
		})
	}
	return quality
}

// indexability classifies one page: noindex wins over everything, a
// canonical pointing elsewhere makes the page canonicalized, anything
// else is indexable.
func indexability(page *domain.PageRecord) string {
	if strings.Contains(strings.ToLower(page.RobotsMeta), "noindex") {
		return domain.IndexabilityNoindex
	}
	if page.Canonical != "" && page.Canonical != page.URL {
		return domain.IndexabilityCanonicalized
	}
	return domain.IndexabilityIndexable
}

// BrokenLinks joins the audit results back onto the link graph: every
// (source, target) edge whose target probed broken yields one record,
// classified internal or external against the crawl's registered base
// domain by classify.
func BrokenLinks(
	state *domain.CrawlState,
	results map[string]domain.AuditResult,
	classify func(target string) string,
) []domain.BrokenLinkRecord {
	var broken []domain.BrokenLinkRecord
	for _, edge := range state.Graph.Edges() {
		result, probed := results[edge.Target]
		if !probed || !result.Broken() {
			continue
		}
		broken = append(broken, domain.BrokenLinkRecord{
			SourceURL:   edge.Source,
			Target:      edge.Target,
			Status:      result.Status,
			Unreachable: result.Unreachable,
			Scope:       classify(edge.Target),
		})
	}
	return broken
}

// AnnotateImages writes each image's probed status onto the image list.
// Images never produce broken-link records; the status column is the
// whole surfacing.
func AnnotateImages(images []domain.ImageRef, results map[string]domain.AuditResult) {
	for i := range images {
		if result, probed := results[images[i].ImageURL]; probed {
			images[i].Status = result.Status
			images[i].Unreachable = result.Unreachable
		}
	}
}
