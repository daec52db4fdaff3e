package domain

import "time"

// SnapshotDateLayout is the date key format for stored snapshots.
const SnapshotDateLayout = "2006-01-02"

// Snapshot is the full PageRecord table of one completed run, keyed by
// run date. Snapshots are immutable once written; a re-run on the same
// date replaces that date's snapshot wholesale.
type Snapshot struct {
	SiteKey   string       `json:"site_key"`
	RunID     string       `json:"run_id"`
	RunDate   string       `json:"run_date"`
	Pages     []PageRecord `json:"pages"`
	CreatedAt time.Time    `json:"created_at"`
}

// SnapshotInfo describes one stored snapshot without its page payload.
type SnapshotInfo struct {
	SiteKey   string    `json:"site_key"`
	RunID     string    `json:"run_id"`
	RunDate   string    `json:"run_date"`
	PageCount int       `json:"page_count"`
	CreatedAt time.Time `json:"created_at"`
}

// Page change kinds reported by the snapshot differ.
const (
	ChangeAdded   = "added"
	ChangeRemoved = "removed"
	ChangeEdited  = "changed"
)

// PageChange is one differ output row: a URL present in only one of two
// snapshots, or present in both with a differing title or description.
type PageChange struct {
	URL            string `json:"url"`
	Kind           string `json:"kind"`
	OldTitle       string `json:"old_title"`
	NewTitle       string `json:"new_title"`
	OldDescription string `json:"old_description"`
	NewDescription string `json:"new_description"`
}
