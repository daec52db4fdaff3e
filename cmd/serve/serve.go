// Package serve implements the serve command: an HTTP API exposing the
// stored reports and snapshots.
package serve

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	cmdcommon "github.com/jonesrussell/seocrawl/cmd/common"
	"github.com/jonesrussell/seocrawl/internal/api"
)

// Command returns the serve command for use in the root command.
func Command() *cobra.Command {
	var address string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve stored reports over HTTP",
		Long: `Start an HTTP server exposing the stored reports, snapshots, and
change listings. The server runs until interrupted with Ctrl+C.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := cmdcommon.NewCommandDeps()
			if err != nil {
				return fmt.Errorf("failed to initialize dependencies: %w", err)
			}
			if cmd.Flags().Changed("address") {
				deps.Config.Server.Address = address
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store, err := cmdcommon.CreateStore(ctx, deps.Config, deps.Logger)
			if err != nil {
				return fmt.Errorf("failed to create store: %w", err)
			}
			defer func() {
				if closeErr := store.Close(); closeErr != nil {
					deps.Logger.Error("Failed to close store", "error", closeErr)
				}
			}()

			server := api.NewServer(api.Config{
				Address:      deps.Config.Server.Address,
				ReadTimeout:  deps.Config.Server.ReadTimeout,
				WriteTimeout: deps.Config.Server.WriteTimeout,
			}, store, deps.Logger)

			deps.Logger.Info("Starting report server", "address", deps.Config.Server.Address)
			return server.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&address, "address", "", "listen address, e.g. :8060")

	return cmd
}
