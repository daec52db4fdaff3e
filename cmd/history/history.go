// Package history implements the history command for listing stored
// snapshots and diffing crawl runs.
package history

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	cmdcommon "github.com/jonesrussell/seocrawl/cmd/common"
	"github.com/jonesrussell/seocrawl/internal/domain"
	"github.com/jonesrussell/seocrawl/internal/history"
	"github.com/jonesrussell/seocrawl/internal/logger"
	"github.com/jonesrussell/seocrawl/internal/output"
	"github.com/jonesrussell/seocrawl/internal/storage"
)

// Command returns the history command for use in the root command.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect stored crawl snapshots",
		Long: `The history command lists the snapshots stored for a site and diffs
two runs against each other.`,
	}

	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newDiffCmd())

	return cmd
}

// withStore loads dependencies, opens the store, and runs fn with both.
func withStore(cmd *cobra.Command, fn func(store storage.Store, log logger.Interface) error) error {
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

	return fn(store, deps.Logger)
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [site]",
		Short: "List the snapshots stored for a site",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(store storage.Store, log logger.Interface) error {
				siteKey := cmdcommon.ResolveSiteKey(args[0])
				infos, err := store.ListSnapshots(cmd.Context(), siteKey)
				if err != nil {
					return fmt.Errorf("failed to list snapshots: %w", err)
				}
				output.NewRenderer(os.Stdout).Snapshots(infos)
				return nil
			})
		},
	}
}

func newDiffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diff [site] [date] [date]",
		Short: "Diff two stored snapshots",
		Long: `Diff two stored snapshots of a site by their run dates (YYYY-MM-DD).
The first date is the older run; added, removed, and changed pages are
reported relative to it. With no dates the latest two snapshots are
compared.`,
		Args: cobra.RangeArgs(1, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(store storage.Store, log logger.Interface) error {
				siteKey := cmdcommon.ResolveSiteKey(args[0])

				dates := args[1:]
				if len(dates) == 0 {
					latest, err := latestDates(cmd, store, siteKey)
					if err != nil {
						return err
					}
					dates = latest
				}
				if len(dates) != 2 {
					return errors.New("diff needs two run dates, or none to compare the latest two")
				}

				previous, err := loadSnapshot(cmd, store, siteKey, dates[0])
				if err != nil {
					return err
				}
				current, err := loadSnapshot(cmd, store, siteKey, dates[1])
				if err != nil {
					return err
				}

				output.NewRenderer(os.Stdout).Changes(history.Diff(previous, current))
				return nil
			})
		},
	}
}

// latestDates returns the run dates of the two most recent snapshots,
// oldest first.
func latestDates(cmd *cobra.Command, store storage.Store, siteKey string) ([]string, error) {
	infos, err := store.ListSnapshots(cmd.Context(), siteKey)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	if len(infos) < 2 {
		return nil, fmt.Errorf("need at least two snapshots for %q to diff, have %d", siteKey, len(infos))
	}
	return []string{infos[len(infos)-2].RunDate, infos[len(infos)-1].RunDate}, nil
}

func loadSnapshot(cmd *cobra.Command, store storage.Store, siteKey, date string) (*domain.Snapshot, error) {
	snapshot, err := store.LoadSnapshot(cmd.Context(), siteKey, date)
	if errors.Is(err, storage.ErrNoSnapshot) {
		return nil, fmt.Errorf("no snapshot stored for %q on %s", siteKey, date)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot %s: %w", date, err)
	}
	return snapshot, nil
}
