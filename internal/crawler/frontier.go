package crawler

import (
	"context"

	"github.com/jonesrussell/seocrawl/internal/metrics"
	"github.com/jonesrussell/seocrawl/internal/urlutil"
)

// frontierItem is one pending URL with the depth it was discovered at.
// Seeds are depth zero.
type frontierItem struct {
	url   string
	depth int
}

// crawl drives the sequential fetch/extract loop over an explicit LIFO
// stack. Language-level recursion would mirror the traversal but blows
// the stack on deep or cyclic sites; the visited set is the sole cycle
// breaker either way.
func (c *Controller) crawl(ctx context.Context, seeds []string) {
	stack := make([]frontierItem, 0, len(seeds))
	for i := len(seeds) - 1; i >= 0; i-- {
		stack = append(stack, frontierItem{url: seeds[i], depth: 0})
	}

	sinceCheckpoint := 0
	for len(stack) > 0 {
		if ctx.Err() != nil {
			return
		}

		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		normalized, admitted := c.admit(ctx, item)
		if !admitted {
			continue
		}

		links, parsed := c.visit(ctx, normalized)
		if !parsed {
			continue
		}

		// Push in reverse so links pop in appearance order.
		for i := len(links) - 1; i >= 0; i-- {
			stack = append(stack, frontierItem{url: links[i], depth: item.depth + 1})
		}

		sinceCheckpoint++
		if sinceCheckpoint >= c.cfg.CheckpointEvery {
			sinceCheckpoint = 0
			if err := c.saveState(ctx); err != nil {
				c.log.Warn("Checkpoint save failed", "error", err)
			} else {
				c.metrics.IncrementCheckpoints()
				c.log.Debug("State checkpointed", "pages", c.state.PageCount())
			}
		}
	}
}

// admit decides whether a frontier item may be fetched. The checks, in
// order: page budget, URL well-formedness, visited set, depth, robots,
// include/exclude path patterns. The URL is marked visited on
// admission, before the fetch, so a failed fetch is never retried
// within the run.
func (c *Controller) admit(ctx context.Context, item frontierItem) (string, bool) {
	if c.cfg.MaxPages > 0 && c.state.PageCount() >= c.cfg.MaxPages {
		c.metrics.IncrementSkipped(metrics.SkipBudget)
		return "", false
	}

	normalized, err := urlutil.Normalize(item.url)
	if err != nil {
		c.log.Debug("Dropping unnormalizable URL", "url", item.url, "error", err)
		return "", false
	}

	if c.state.IsVisited(normalized) {
		c.metrics.IncrementSkipped(metrics.SkipVisited)
		return "", false
	}
	if item.depth > c.cfg.MaxDepth {
		c.metrics.IncrementSkipped(metrics.SkipDepth)
		return "", false
	}

	allowed, robotsErr := c.robots.IsAllowed(ctx, normalized)
	if robotsErr != nil {
		// Only malformed URLs error here; the normalized URL parses, so
		// degrade permissively like a missing robots.txt.
		allowed = true
	}
	if !allowed {
		c.metrics.IncrementSkipped(metrics.SkipRobots)
		c.log.Debug("Robots disallowed", "url", normalized)
		return "", false
	}

	if !c.cfg.PathAllowed(pathOf(normalized)) {
		c.metrics.IncrementSkipped(metrics.SkipPattern)
		return "", false
	}

	c.state.MarkVisited(normalized)
	return normalized, true
}

// visit fetches and parses one admitted URL, folds the results into the
// state, and returns the internal links to descend into. Fetch
// failures, non-200 statuses, and non-HTML bodies leave the URL visited
// but unparsed.
func (c *Controller) visit(ctx context.Context, pageURL string) ([]string, bool) {
	resp, err := c.fetch.Fetch(ctx, pageURL)
	if err != nil {
		c.metrics.IncrementFailed()
		c.log.Warn("Fetch failed", "url", pageURL, "error", err)
		return nil, false
	}
	if !resp.OK() {
		c.metrics.IncrementFailed()
		c.log.Debug("Skipping non-200 response", "url", pageURL, "status", resp.StatusCode)
		return nil, false
	}
	if !resp.IsHTML() {
		c.metrics.IncrementFailed()
		c.log.Debug("Skipping non-HTML response", "url", pageURL, "content_type", resp.ContentType)
		return nil, false
	}

	result := c.extract.Extract(pageURL, resp.Body)
	result.Record.FetchedAt = c.now()

	c.state.AddPage(result.Record)
	c.state.Images = append(c.state.Images, result.Images...)
	c.metrics.IncrementParsed()
	c.metrics.AddLinks(len(result.Links))
	c.metrics.AddImages(len(result.Images))

	var internal []string
	for _, link := range result.Links {
		target := link
		if normalized, normErr := urlutil.Normalize(link); normErr == nil {
			target = normalized
		}
		c.state.Graph.AddEdge(pageURL, target)
		if urlutil.SameSite(c.baseDomain, target) {
			internal = append(internal, target)
		}
	}
	return internal, true
}
