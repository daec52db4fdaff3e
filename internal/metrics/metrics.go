// Package metrics provides run counters for the crawl and audit phases.
package metrics

import (
	"sync"
	"time"
)

// SkipReason identifies why a URL was refused admission.
type SkipReason int

// Skip reasons tracked by IncrementSkipped.
const (
	SkipVisited SkipReason = iota
	SkipDepth
	SkipRobots
	SkipPattern
	SkipBudget
)

// Metrics holds the counters of one run. All methods are safe for
// concurrent use; the audit phase increments probe counters from many
// goroutines.
type Metrics struct {
	// PagesParsed is the number of pages fetched and parsed into records.
	PagesParsed int64
	// PagesFailed is the number of admitted URLs that fetched badly
	// (transport error, non-200, non-HTML).
	PagesFailed int64
	// SkippedVisited counts admission refusals for already-visited URLs.
	SkippedVisited int64
	// SkippedDepth counts admission refusals for depth overflow.
	SkippedDepth int64
	// SkippedRobots counts robots.txt disallows.
	SkippedRobots int64
	// SkippedPattern counts include/exclude pattern mismatches.
	SkippedPattern int64
	// SkippedBudget counts refusals after the page budget was reached.
	SkippedBudget int64
	// LinksDiscovered is the total outbound links recorded.
	LinksDiscovered int64
	// ImagesDiscovered is the total image references recorded.
	ImagesDiscovered int64
	// Checkpoints is the number of state saves during the crawl phase.
	Checkpoints int64
	// ProbesCompleted is the number of audit probes that returned.
	ProbesCompleted int64
	// ProbesBroken is the number of probes with status >= 400 or
	// unreachable.
	ProbesBroken int64
	// StartTime is when the run began.
	StartTime time.Time

	mu sync.Mutex
}

// NewMetrics creates a Metrics instance with the start time set.
func NewMetrics() *Metrics {
	return &Metrics{StartTime: time.Now()}
}

// IncrementParsed records one parsed page.
func (m *Metrics) IncrementParsed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PagesParsed++
}

// IncrementFailed records one failed page.
func (m *Metrics) IncrementFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PagesFailed++
}

// IncrementSkipped records one admission refusal.
func (m *Metrics) IncrementSkipped(reason SkipReason) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch reason {
	case SkipVisited:
		m.SkippedVisited++
	case SkipDepth:
		m.SkippedDepth++
	case SkipRobots:
		m.SkippedRobots++
	case SkipPattern:
		m.SkippedPattern++
	case SkipBudget:
		m.SkippedBudget++
	}
}

// AddLinks records discovered outbound links.
func (m *Metrics) AddLinks(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LinksDiscovered += int64(n)
}

// AddImages records discovered image references.
func (m *Metrics) AddImages(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ImagesDiscovered += int64(n)
}

// IncrementCheckpoints records one state save.
func (m *Metrics) IncrementCheckpoints() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Checkpoints++
}

// RecordProbe records one finished audit probe.
func (m *Metrics) RecordProbe(broken bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ProbesCompleted++
	if broken {
		m.ProbesBroken++
	}
}

// Snapshot returns a copy of the counters for reporting.
func (m *Metrics) Snapshot() Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Metrics{
		PagesParsed:      m.PagesParsed,
		PagesFailed:      m.PagesFailed,
		SkippedVisited:   m.SkippedVisited,
		SkippedDepth:     m.SkippedDepth,
		SkippedRobots:    m.SkippedRobots,
		SkippedPattern:   m.SkippedPattern,
		SkippedBudget:    m.SkippedBudget,
		LinksDiscovered:  m.LinksDiscovered,
		ImagesDiscovered: m.ImagesDiscovered,
		Checkpoints:      m.Checkpoints,
		ProbesCompleted:  m.ProbesCompleted,
		ProbesBroken:     m.ProbesBroken,
		StartTime:        m.StartTime,
	}
}

// Elapsed returns the time since the run started.
func (m *Metrics) Elapsed() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return time.Since(m.StartTime)
}
