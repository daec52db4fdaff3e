// Package report implements the report command for viewing a site's
// stored crawl report.
package report

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	cmdcommon "github.com/jonesrussell/seocrawl/cmd/common"
	"github.com/jonesrussell/seocrawl/internal/domain"
	"github.com/jonesrussell/seocrawl/internal/output"
	"github.com/jonesrussell/seocrawl/internal/storage"
)

// Section names accepted by the --section flag.
const (
	sectionSummary    = "summary"
	sectionPages      = "pages"
	sectionDuplicates = "duplicates"
	sectionCanonicals = "canonicals"
	sectionOrphans    = "orphans"
	sectionBroken     = "broken"
	sectionImages     = "images"
	sectionChanges    = "changes"
)

// Command returns the report command for use in the root command.
func Command() *cobra.Command {
	var section string

	cmd := &cobra.Command{
		Use:   "report [site]",
		Short: "Show the stored report for a site",
		Long: `Show the most recent crawl report stored for a site. The site may be
given as a URL or as a site key, e.g. "https://example.com" or
"example.com".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := cmdcommon.NewCommandDeps()
			if err != nil {
				return fmt.Errorf("failed to initialize dependencies: %w", err)
			}

			store, err := cmdcommon.CreateStore(cmd.Context(), deps.Config, deps.Logger)
			if err != nil {
				return fmt.Errorf("failed to create store: %w", err)
			}
			defer func() {
				if closeErr := store.Close(); closeErr != nil {
					deps.Logger.Error("Failed to close store", "error", closeErr)
				}
			}()

			siteKey := cmdcommon.ResolveSiteKey(args[0])
			stored, err := store.LoadReport(cmd.Context(), siteKey)
			if errors.Is(err, storage.ErrNoReport) {
				return fmt.Errorf("no report stored for %q; run a crawl first", siteKey)
			}
			if err != nil {
				return fmt.Errorf("failed to load report: %w", err)
			}

			return render(stored, section)
		},
	}

	cmd.Flags().StringVar(&section, "section", "",
		"render a single section: summary, pages, duplicates, canonicals, orphans, broken, images, or changes")

	return cmd
}

func render(report *domain.Report, section string) error {
	r := output.NewRenderer(os.Stdout)
	switch section {
	case "":
		r.Report(report)
	case sectionSummary:
		r.Summary(report)
	case sectionPages:
		r.Pages(report)
	case sectionDuplicates:
		r.Duplicates(report.Duplicates)
	case sectionCanonicals:
		r.CanonicalIssues(report.Canonicals)
	case sectionOrphans:
		r.Orphans(report.Orphans)
	case sectionBroken:
		r.BrokenLinks(report.BrokenLinks)
	case sectionImages:
		r.BrokenImages(report.Images)
	case sectionChanges:
		r.Changes(report.Changes)
	default:
		return fmt.Errorf("unknown section %q", section)
	}
	return nil
}
