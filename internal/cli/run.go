package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/MKhiriev/envelope-sync/internal/client"
)

func newRunCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the sync engine until interrupted",
		Long: `Run starts the sync orchestrator, the health watchdog and, when
--debug-address is set, the debug HTTP API. A first sync is scheduled once
the budget key is ready. SIGINT or SIGTERM stops the engine gracefully.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return opts.withApp(ctx, func(app *client.App) error {
				if err := app.Run(ctx); err != nil {
					return failure("run", err)
				}
				return nil
			})
		},
	}
}

func newWatchCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Run the sync engine behind an interactive dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return opts.withApp(ctx, func(app *client.App) error {
				if err := app.Watch(ctx); err != nil {
					return failure("watch", err)
				}
				return nil
			})
		},
	}
}
