// Package schedule implements the schedule command: recurring crawls
// driven by a cron expression.
package schedule

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	cmdcommon "github.com/jonesrussell/seocrawl/cmd/common"
	crawlcmd "github.com/jonesrussell/seocrawl/cmd/crawl"
)

// DefaultSchedule runs a crawl every day at 03:00.
const DefaultSchedule = "0 3 * * *"

// Command returns the schedule command for use in the root command.
func Command() *cobra.Command {
	var schedule string

	cmd := &cobra.Command{
		Use:   "schedule [url]",
		Short: "Crawl a site on a recurring schedule",
		Long: `Run a full crawl of the given site on a recurring schedule. The
schedule is a standard 5-field cron expression (minute hour day month
weekday). The command runs until interrupted with Ctrl+C; a run that
is still in progress when the next trigger fires is skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := cmdcommon.NewCommandDeps()
			if err != nil {
				return fmt.Errorf("failed to initialize dependencies: %w", err)
			}
			deps.Config.Crawl.BaseURL = args[0]
			if err := deps.Config.Crawl.Validate(); err != nil {
				return fmt.Errorf("invalid crawl configuration: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			// Standard 5-field cron parser (minute hour day month weekday).
			parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
			if _, parseErr := parser.Parse(schedule); parseErr != nil {
				return fmt.Errorf("invalid cron expression %q: %w", schedule, parseErr)
			}

			scheduler := cron.New(
				cron.WithParser(parser),
				cron.WithChain(
					cron.SkipIfStillRunning(cron.DiscardLogger),
					cron.Recover(cron.DefaultLogger),
				),
			)

			_, err = scheduler.AddFunc(schedule, func() {
				deps.Logger.Info("Scheduled crawl starting", "url", deps.Config.Crawl.BaseURL)
				if runErr := crawlcmd.Run(ctx, deps.Config, deps.Logger); runErr != nil {
					deps.Logger.Error("Scheduled crawl failed", "error", runErr)
					return
				}
				deps.Logger.Info("Scheduled crawl finished", "url", deps.Config.Crawl.BaseURL)
			})
			if err != nil {
				return fmt.Errorf("failed to schedule crawl: %w", err)
			}

			deps.Logger.Info("Scheduler started",
				"schedule", schedule,
				"url", deps.Config.Crawl.BaseURL,
			)
			scheduler.Start()

			<-ctx.Done()

			deps.Logger.Info("Shutdown signal received")
			stopCtx := scheduler.Stop()
			<-stopCtx.Done()

			return nil
		},
	}

	cmd.Flags().StringVar(&schedule, "cron", DefaultSchedule, "cron expression for recurring crawls")

	return cmd
}
