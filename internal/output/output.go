// Package output renders crawl reports and snapshot listings as
// formatted terminal tables.
package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/jonesrussell/seocrawl/internal/domain"
)

// Column width limits for the report tables.
const (
	urlColumnWidth   = 60
	titleColumnWidth = 40
	keyColumnWidth   = 50
)

// Renderer writes report tables to a single destination, usually stdout.
type Renderer struct {
	w io.Writer
}

// NewRenderer creates a Renderer writing to w.
func NewRenderer(w io.Writer) *Renderer {
	return &Renderer{w: w}
}

func (r *Renderer) newTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(r.w)
	t.SetStyle(table.StyleRounded)
	return t
}

func (r *Renderer) heading(title string) {
	fmt.Fprintf(r.w, "\n%s:\n", title)
}

// Summary prints the per-run counts for a report.
func (r *Renderer) Summary(report *domain.Report) {
	r.heading("Crawl Summary")

	t := r.newTable()
	t.AppendRow(table.Row{"Site", report.SiteKey})
	t.AppendRow(table.Row{"Base URL", report.BaseURL})
	t.AppendRow(table.Row{"Run", report.RunID})
	t.AppendRow(table.Row{"Date", report.RunDate})
	t.AppendRow(table.Row{"Pages", len(report.Pages)})
	t.AppendRow(table.Row{"Duplicate clusters", len(report.Duplicates)})
	t.AppendRow(table.Row{"Canonical issues", len(report.Canonicals)})
	t.AppendRow(table.Row{"Orphans", len(report.Orphans)})
	t.AppendRow(table.Row{"Broken links", len(report.BrokenLinks)})
	t.AppendRow(table.Row{"Broken images", countBrokenImages(report.Images)})
	t.AppendRow(table.Row{"Changes since last run", len(report.Changes)})
	t.Render()
}

// Pages prints one row per crawled page with its quality flags.
func (r *Renderer) Pages(report *domain.Report) {
	if len(report.Pages) == 0 {
		fmt.Fprintln(r.w, "No pages crawled.")
		return
	}

	quality := make(map[string]domain.PageQuality, len(report.Quality))
	for _, q := range report.Quality {
		quality[q.URL] = q
	}

	r.heading("Pages")

	t := r.newTable()
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: urlColumnWidth},
		{Number: 3, WidthMax: titleColumnWidth},
	})
	t.AppendHeader(table.Row{"#", "URL", "Title", "Indexability", "Flags"})

	for i, page := range report.Pages {
		q := quality[page.URL]
		t.AppendRow(table.Row{
			i + 1,
			page.URL,
			truncate(page.Title, titleColumnWidth),
			q.Indexability,
			qualityFlags(q),
		})
	}

	t.AppendFooter(table.Row{"Total", len(report.Pages), "", "", ""})
	t.Render()
}

// Duplicates prints the duplicate title/description clusters.
func (r *Renderer) Duplicates(clusters []domain.DuplicateCluster) {
	if len(clusters) == 0 {
		fmt.Fprintln(r.w, "No duplicate clusters found.")
		return
	}

	r.heading("Duplicate Clusters")

	t := r.newTable()
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMax: keyColumnWidth},
		{Number: 2, WidthMax: urlColumnWidth},
	})
	t.AppendHeader(table.Row{"Title | Description", "URLs"})

	for _, cluster := range clusters {
		t.AppendRow(table.Row{
			truncate(cluster.Key, keyColumnWidth),
			strings.Join(cluster.URLs, "\n"),
		})
	}

	t.Render()
}

// CanonicalIssues prints canonical loops and dangling targets.
func (r *Renderer) CanonicalIssues(issues []domain.CanonicalIssue) {
	if len(issues) == 0 {
		fmt.Fprintln(r.w, "No canonical issues found.")
		return
	}

	r.heading("Canonical Issues")

	t := r.newTable()
	t.AppendHeader(table.Row{"Page", "Canonical Target", "Issue"})
	for _, issue := range issues {
		t.AppendRow(table.Row{issue.SourceURL, issue.Target, issue.Kind})
	}
	t.Render()
}

// Orphans prints crawled pages with no inbound internal links.
func (r *Renderer) Orphans(orphans []domain.OrphanRecord) {
	if len(orphans) == 0 {
		fmt.Fprintln(r.w, "No orphan pages found.")
		return
	}

	r.heading("Orphan Pages")

	t := r.newTable()
	t.AppendHeader(table.Row{"URL", "Title"})
	for _, orphan := range orphans {
		t.AppendRow(table.Row{orphan.URL, truncate(orphan.Title, titleColumnWidth)})
	}
	t.Render()
}

// BrokenLinks prints each edge whose target probed broken.
func (r *Renderer) BrokenLinks(records []domain.BrokenLinkRecord) {
	if len(records) == 0 {
		fmt.Fprintln(r.w, "No broken links found.")
		return
	}

	r.heading("Broken Links")

	t := r.newTable()
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMax: urlColumnWidth},
		{Number: 2, WidthMax: urlColumnWidth},
	})
	t.AppendHeader(table.Row{"Source Page", "Target", "Status", "Scope"})
	for _, record := range records {
		t.AppendRow(table.Row{
			record.SourceURL,
			record.Target,
			statusLabel(record.Status, record.Unreachable),
			record.Scope,
		})
	}
	t.AppendFooter(table.Row{"Total", len(records), "", ""})
	t.Render()
}

// BrokenImages prints the images whose audited status marks them broken.
func (r *Renderer) BrokenImages(images []domain.ImageRef) {
	var broken []domain.ImageRef
	for i := range images {
		if images[i].Broken() {
			broken = append(broken, images[i])
		}
	}
	if len(broken) == 0 {
		fmt.Fprintln(r.w, "No broken images found.")
		return
	}

	r.heading("Broken Images")

	t := r.newTable()
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMax: urlColumnWidth},
		{Number: 2, WidthMax: urlColumnWidth},
	})
	t.AppendHeader(table.Row{"Page", "Image", "Alt", "Status"})
	for _, img := range broken {
		alt := img.Alt
		if alt == "" {
			alt = "(missing)"
		}
		t.AppendRow(table.Row{
			img.PageURL,
			img.ImageURL,
			truncate(alt, titleColumnWidth),
			statusLabel(img.Status, img.Unreachable),
		})
	}
	t.Render()
}

// Changes prints the differences against the previous snapshot.
func (r *Renderer) Changes(changes []domain.PageChange) {
	if len(changes) == 0 {
		fmt.Fprintln(r.w, "No changes since the previous crawl.")
		return
	}

	r.heading("Changes Since Previous Crawl")

	t := r.newTable()
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMax: urlColumnWidth},
	})
	t.AppendHeader(table.Row{"URL", "Change", "Detail"})
	for _, change := range changes {
		t.AppendRow(table.Row{change.URL, change.Kind, changeDetail(change)})
	}
	t.Render()
}

// Snapshots prints the stored snapshot listing for a site.
func (r *Renderer) Snapshots(infos []domain.SnapshotInfo) {
	if len(infos) == 0 {
		fmt.Fprintln(r.w, "No snapshots stored.")
		return
	}

	r.heading("Snapshots")

	t := r.newTable()
	t.AppendHeader(table.Row{"Date", "Run", "Pages"})
	for _, info := range infos {
		t.AppendRow(table.Row{info.RunDate, info.RunID, strconv.Itoa(info.PageCount)})
	}
	t.Render()
}

// Report prints every table of a report in order.
func (r *Renderer) Report(report *domain.Report) {
	r.Summary(report)
	r.Pages(report)
	r.Duplicates(report.Duplicates)
	r.CanonicalIssues(report.Canonicals)
	r.Orphans(report.Orphans)
	r.BrokenLinks(report.BrokenLinks)
	r.BrokenImages(report.Images)
	r.Changes(report.Changes)
}

func qualityFlags(q domain.PageQuality) string {
	var flags []string
	if q.TitleMissing {
		flags = append(flags, "title missing")
	}
	if q.TitleTooLong {
		flags = append(flags, "title too long")
	}
	if q.TitleDuplicated {
		flags = append(flags, "title duplicated")
	}
	if q.DescMissing {
		flags = append(flags, "description missing")
	}
	if q.DescTooLong {
		flags = append(flags, "description too long")
	}
	if len(flags) == 0 {
		return "ok"
	}
	return strings.Join(flags, ", ")
}

func changeDetail(change domain.PageChange) string {
	switch change.Kind {
	case domain.ChangeEdited:
		var parts []string
		if change.OldTitle != change.NewTitle {
			parts = append(parts, fmt.Sprintf("title %q -> %q", change.OldTitle, change.NewTitle))
		}
		if change.OldDescription != change.NewDescription {
			parts = append(parts, fmt.Sprintf("description %q -> %q", change.OldDescription, change.NewDescription))
		}
		return strings.Join(parts, "; ")
	case domain.ChangeAdded:
		return fmt.Sprintf("title %q", change.NewTitle)
	case domain.ChangeRemoved:
		return fmt.Sprintf("title %q", change.OldTitle)
	default:
		return ""
	}
}

func statusLabel(status int, unreachable bool) string {
	if unreachable {
		return "unreachable"
	}
	return strconv.Itoa(status)
}

func countBrokenImages(images []domain.ImageRef) int {
	count := 0
	for i := range images {
		if images[i].Broken() {
			count++
		}
	}
	return count
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}
