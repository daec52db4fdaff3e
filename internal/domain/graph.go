package domain

import "sort"

// LinkEdge is one directed link from the page at Source to Target.
type LinkEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// LinkGraph accumulates the directed link structure discovered during a
// crawl. Out holds each source's targets in appearance order with
// duplicates collapsed; In counts distinct sources per target. Both grow
// monotonically and are only ever written by the crawl controller.
type LinkGraph struct {
	Out map[string][]string `json:"out"`
	In  map[string]int      `json:"in_degree"`
}

// NewLinkGraph returns an empty graph.
func NewLinkGraph() *LinkGraph {
	return &LinkGraph{
		Out: make(map[string][]string),
		In:  make(map[string]int),
	}
}

// AddEdge records source → target. A repeated (source, target) pair is a
// no-op so In stays a distinct-source count.
func (g *LinkGraph) AddEdge(source, target string) {
	for _, t := range g.Out[source] {
		if t == target {
			return
		}
	}
	g.Out[source] = append(g.Out[source], target)
	g.In[target]++
}

// InDegree returns the number of distinct sources linking to url.
func (g *LinkGraph) InDegree(url string) int {
	return g.In[url]
}

// Targets returns the recorded outbound targets of source in appearance
// order. The returned slice is the graph's own; callers must not mutate it.
func (g *LinkGraph) Targets(source string) []string {
	return g.Out[source]
}

// Edges returns every recorded edge, ordered by source URL and then by
// target appearance order, for deterministic iteration.
func (g *LinkGraph) Edges() []LinkEdge {
	sources := make([]string, 0, len(g.Out))
	for source := range g.Out {
		sources = append(sources, source)
	}
	sort.Strings(sources)

	var edges []LinkEdge
	for _, source := range sources {
		for _, target := range g.Out[source] {
			edges = append(edges, LinkEdge{Source: source, Target: target})
		}
	}
	return edges
}

// DistinctTargets returns every URL that appears as a link target, sorted.
func (g *LinkGraph) DistinctTargets() []string {
	targets := make([]string, 0, len(g.In))
	for target := range g.In {
		targets = append(targets, target)
	}
	sort.Strings(targets)
	return targets
}
