// Package storage persists crawl state, dated snapshots, and the latest
// run report, behind one Store interface with a file backend and a
// Postgres backend.
package storage

import (
	"context"
	"errors"

	"github.com/jonesrussell/seocrawl/internal/domain"
)

// Sentinel errors for absent persisted data. Callers distinguish "no
// prior state" from a real storage failure with errors.Is.
var (
	// ErrNoState indicates no crawl state is stored for the site key.
	ErrNoState = errors.New("no crawl state stored")
	// ErrNoSnapshot indicates the requested snapshot does not exist.
	ErrNoSnapshot = errors.New("snapshot not found")
	// ErrNoReport indicates no report is stored for the site key.
	ErrNoReport = errors.New("no report stored")
)

//go:generate mockgen -source=storage.go -destination=../../testutils/mocks/storage/store.go -package=storage

// Store persists everything a crawl accumulates. State is one mutable
// record per site key, overwritten on every checkpoint; snapshots are
// immutable once written, one per run date; the report is the latest
// run's derived tables.
type Store interface {
	// SaveState writes the crawl state as one atomic unit.
	SaveState(ctx context.Context, siteKey string, state *domain.CrawlState) error
	// LoadState returns the stored state, or ErrNoState.
	LoadState(ctx context.Context, siteKey string) (*domain.CrawlState, error)
	// ClearState discards any stored state for the site key. Clearing
	// absent state is not an error.
	ClearState(ctx context.Context, siteKey string) error

	// SaveSnapshot writes one dated snapshot, replacing a same-date
	// snapshot from an earlier run the same day.
	SaveSnapshot(ctx context.Context, siteKey string, snapshot *domain.Snapshot) error
	// ListSnapshots returns the stored snapshots in ascending date order.
	ListSnapshots(ctx context.Context, siteKey string) ([]domain.SnapshotInfo, error)
	// LoadSnapshot returns the snapshot for the given date, or
	// ErrNoSnapshot.
	LoadSnapshot(ctx context.Context, siteKey, date string) (*domain.Snapshot, error)

	// SaveReport writes the latest run's report, replacing any previous
	// one.
	SaveReport(ctx context.Context, siteKey string, report *domain.Report) error
	// LoadReport returns the latest stored report, or ErrNoReport.
	LoadReport(ctx context.Context, siteKey string) (*domain.Report, error)

	// Close releases backend resources.
	Close() error
}
