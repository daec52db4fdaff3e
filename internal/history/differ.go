// Package history compares a finished crawl's snapshot against the
// immediately preceding one and reports which pages appeared,
// disappeared, or changed their title or description.
package history

import (
	"context"
	"fmt"
	"sort"

	"github.com/jonesrussell/seocrawl/internal/domain"
	"github.com/jonesrussell/seocrawl/internal/logger"
	"github.com/jonesrussell/seocrawl/internal/storage"
)

// Differ loads snapshots from the store and diffs them.
type Differ struct {
	store storage.Store
	log   logger.Interface
}

// NewDiffer creates a Differ.
func NewDiffer(store storage.Store, log logger.Interface) *Differ {
	return &Differ{store: store, log: log}
}

// ChangesSince diffs the snapshot for currentDate against the stored
// snapshot immediately preceding it by date order. No preceding snapshot
// is a valid outcome and yields an empty list.
func (d *Differ) ChangesSince(ctx context.Context, siteKey, currentDate string) ([]domain.PageChange, error) {
	current, err := d.store.LoadSnapshot(ctx, siteKey, currentDate)
	if err != nil {
		return nil, fmt.Errorf("load current snapshot: %w", err)
	}

	previous, err := d.previousSnapshot(ctx, siteKey, currentDate)
	if err != nil {
		return nil, err
	}
	if previous == nil {
		d.log.Info("No earlier snapshot to diff against", "site", siteKey, "date", currentDate)
		return nil, nil
	}

	return Diff(previous, current), nil
}

// previousSnapshot returns the newest stored snapshot dated strictly
// before currentDate, or nil when none exists.
func (d *Differ) previousSnapshot(ctx context.Context, siteKey, currentDate string) (*domain.Snapshot, error) {
	infos, err := d.store.ListSnapshots(ctx, siteKey)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	var previousDate string
	for _, info := range infos {
		if info.RunDate < currentDate {
			previousDate = info.RunDate
		}
	}
	if previousDate == "" {
		return nil, nil
	}

	previous, err := d.store.LoadSnapshot(ctx, siteKey, previousDate)
	if err != nil {
		return nil, fmt.Errorf("load previous snapshot: %w", err)
	}
	return previous, nil
}

// Diff performs a full outer join of two snapshots on URL. A row is
// reported when its URL is present in only one snapshot, or when title
// or description differ between the two. Output is ordered by URL.
func Diff(previous, current *domain.Snapshot) []domain.PageChange {
	oldPages := pagesByURL(previous)
	newPages := pagesByURL(current)

	urls := make(map[string]struct{}, len(oldPages)+len(newPages))
	for url := range oldPages {
		urls[url] = struct{}{}
	}
	for url := range newPages {
		urls[url] = struct{}{}
	}

	sorted := make([]string, 0, len(urls))
	for url := range urls {
		sorted = append(sorted, url)
	}
	sort.Strings(sorted)

	var changes []domain.PageChange
	for _, url := range sorted {
		oldPage, inOld := oldPages[url]
		newPage, inNew := newPages[url]

		switch {
		case inOld && !inNew:
			changes = append(changes, domain.PageChange{
				URL:            url,
				Kind:           domain.ChangeRemoved,
				OldTitle:       oldPage.Title,
				OldDescription: oldPage.Description,
			})
		case !inOld && inNew:
			changes = append(changes, domain.PageChange{
				URL:            url,
				Kind:           domain.ChangeAdded,
				NewTitle:       newPage.Title,
				NewDescription: newPage.Description,
			})
		case oldPage.Title != newPage.Title || oldPage.Description != newPage.Description:
			changes = append(changes, domain.PageChange{
				URL:            url,
				Kind:           domain.ChangeEdited,
				OldTitle:       oldPage.Title,
				NewTitle:       newPage.Title,
				OldDescription: oldPage.Description,
				NewDescription: newPage.Description,
			})
		}
	}
	return changes
}

// pagesByURL indexes a snapshot's pages, keeping the first record per
// URL.
func pagesByURL(snapshot *domain.Snapshot) map[string]domain.PageRecord {
	pages := make(map[string]domain.PageRecord, len(snapshot.Pages))
	for _, page := range snapshot.Pages {
		if _, ok := pages[page.URL]; !ok {
			pages[page.URL] = page
		}
	}
	return pages
}
