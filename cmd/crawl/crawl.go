// Package crawl implements the crawl command: one full crawl, audit,
// and report cycle against a site.
package crawl

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	cmdcommon "github.com/jonesrussell/seocrawl/cmd/common"
	"github.com/jonesrussell/seocrawl/internal/config"
	"github.com/jonesrussell/seocrawl/internal/crawler"
	"github.com/jonesrussell/seocrawl/internal/domain"
	"github.com/jonesrussell/seocrawl/internal/export"
	"github.com/jonesrussell/seocrawl/internal/logger"
	"github.com/jonesrussell/seocrawl/internal/output"
)

// Options holds the crawl command's flag values. A zero value means
// the flag was not set and the configured value applies.
type Options struct {
	MaxDepth         int
	MaxPages         int
	Delay            time.Duration
	Include          string
	Exclude          string
	Resume           bool
	UserAgent        string
	AuditParallelism int
}

// Command returns the crawl command for use in the root command.
func Command() *cobra.Command {
	var opts Options

	cmd := &cobra.Command{
		Use:   "crawl [url]",
		Short: "Crawl a site and build its SEO report",
		Long: `Crawl a site starting from the given URL, extract SEO signals from
every parsed page, audit the discovered links and images, and store
the resulting report and snapshot.

Flags override the corresponding settings from the config file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := cmdcommon.NewCommandDeps()
			if err != nil {
				return fmt.Errorf("failed to initialize dependencies: %w", err)
			}
			applyOptions(&deps.Config.Crawl, cmd, &opts)
			deps.Config.Crawl.BaseURL = args[0]

			if err := deps.Config.Crawl.Validate(); err != nil {
				return fmt.Errorf("invalid crawl configuration: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return Run(ctx, deps.Config, deps.Logger)
		},
	}

	cmd.Flags().IntVar(&opts.MaxDepth, "max-depth", -1, "maximum traversal depth (seeds are depth 0)")
	cmd.Flags().IntVar(&opts.MaxPages, "max-pages", -1, "maximum pages to parse (0 means unlimited)")
	cmd.Flags().DurationVar(&opts.Delay, "delay", 0, "politeness delay between crawl requests")
	cmd.Flags().StringVar(&opts.Include, "include", "", "only admit URL paths matching this pattern")
	cmd.Flags().StringVar(&opts.Exclude, "exclude", "", "reject URL paths matching this pattern")
	cmd.Flags().BoolVar(&opts.Resume, "resume", false, "continue from persisted crawl state")
	cmd.Flags().StringVar(&opts.UserAgent, "user-agent", "", "user agent sent with every request")
	cmd.Flags().IntVar(&opts.AuditParallelism, "audit-parallelism", 0, "concurrent audit probe workers")

	return cmd
}

// applyOptions copies set flags onto the crawl configuration.
func applyOptions(cfg *config.CrawlConfig, cmd *cobra.Command, opts *Options) {
	if cmd.Flags().Changed("max-depth") {
		cfg.MaxDepth = opts.MaxDepth
	}
	if cmd.Flags().Changed("max-pages") {
		cfg.MaxPages = opts.MaxPages
	}
	if cmd.Flags().Changed("delay") {
		cfg.Delay = opts.Delay
	}
	if cmd.Flags().Changed("include") {
		cfg.Include = opts.Include
	}
	if cmd.Flags().Changed("exclude") {
		cfg.Exclude = opts.Exclude
	}
	if cmd.Flags().Changed("resume") {
		cfg.Resume = opts.Resume
	}
	if cmd.Flags().Changed("user-agent") {
		cfg.UserAgent = opts.UserAgent
	}
	if cmd.Flags().Changed("audit-parallelism") {
		cfg.AuditParallelism = opts.AuditParallelism
	}
}

// Run executes one crawl cycle with an already validated
// configuration: crawl, audit, report, persist, export, render.
func Run(ctx context.Context, cfg *config.Config, log logger.Interface) error {
	store, err := cmdcommon.CreateStore(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create store: %w", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			log.Error("Failed to close store", "error", closeErr)
		}
	}()

	controller, err := crawler.New(crawler.Params{
		Config: &cfg.Crawl,
		Store:  store,
		Logger: log,
	})
	if err != nil {
		return fmt.Errorf("failed to create crawler: %w", err)
	}

	report, err := controller.Run(ctx)
	if err != nil {
		return fmt.Errorf("crawl failed: %w", err)
	}

	counters := controller.Metrics().Snapshot()
	log.Info("Crawl finished",
		"site", report.SiteKey,
		"pages", counters.PagesParsed,
		"failed", counters.PagesFailed,
		"links", counters.LinksDiscovered,
		"images", counters.ImagesDiscovered,
		"probes", counters.ProbesCompleted,
		"broken", counters.ProbesBroken,
		"elapsed", controller.Metrics().Elapsed().Round(time.Millisecond),
	)

	if cfg.Export.Elasticsearch.Enabled {
		if exportErr := exportReport(ctx, cfg, log, report); exportErr != nil {
			// The report is stored; a sink failure should not fail the run.
			log.Error("Elasticsearch export failed", "error", exportErr)
		}
	}

	output.NewRenderer(os.Stdout).Report(report)
	return nil
}

func exportReport(ctx context.Context, cfg *config.Config, log logger.Interface, report *domain.Report) error {
	sink, err := export.NewElasticsearchSink(cfg.Export.Elasticsearch, log)
	if err != nil {
		return err
	}
	return sink.Export(ctx, report)
}
