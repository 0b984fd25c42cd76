package cli

import (
	"context"
	"errors"
	"io"

	"github.com/spf13/cobra"

	"github.com/MKhiriev/envelope-sync/internal/client"
	"github.com/MKhiriev/envelope-sync/models"
)

var (
	errSyncFailed     = errors.New("sync failed")
	errInvalidData    = errors.New("validation found issues")
	errRemoteRejected = errors.New("remote operation did not complete")
)

func newSyncCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run one sync cycle now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return opts.withApp(ctx, func(app *client.App) error {
				if err := app.WaitForKey(ctx); err != nil {
					return failure("sync", err)
				}
				if err := app.Start(ctx); err != nil {
					return failure("sync", err)
				}
				defer app.Stop()

				res := app.Services.Orchestrator.ForceSync(ctx)
				if err := opts.printer(cmd).print(res, func(w io.Writer) { renderSyncResult(w, res) }); err != nil {
					return err
				}
				if !res.Success {
					return failure(res.Error, errSyncFailed)
				}
				return nil
			})
		},
	}
}

func newStatusCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show sync state, health and local record counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return opts.withApp(ctx, func(app *client.App) error {
				status := app.Services.Diagnostics.QuickStatus(ctx)
				return opts.printer(cmd).print(status, func(w io.Writer) { renderStatus(w, status) })
			})
		},
	}
}

func newValidateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check local data, count cache, remote copy and backups",
		Long: `Validate runs every diagnostic check and reports the issues it finds.
It exits with status 1 when any issue was found.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return opts.withApp(ctx, func(app *client.App) error {
				if err := app.WaitForKey(ctx); err != nil {
					return failure("validate", err)
				}

				report, err := app.Services.Diagnostics.RunValidation(ctx)
				if err != nil {
					return failure("validate", err)
				}
				if err = opts.printer(cmd).print(report, func(w io.Writer) { renderValidation(w, report) }); err != nil {
					return err
				}
				if !report.Valid {
					return failure("validate", errInvalidData)
				}
				return nil
			})
		},
	}
}

func newResetCommand(opts *RootOptions) *cobra.Command {
	return newRemoteActionCommand(opts, "reset", "Replace the remote copy with the local data",
		func(ctx context.Context, app *client.App) models.ResetResult {
			return app.Services.Diagnostics.ForceReset(ctx)
		})
}

func newClearRemoteCommand(opts *RootOptions) *cobra.Command {
	return newRemoteActionCommand(opts, "clear-remote", "Delete every remote document of the budget",
		func(ctx context.Context, app *client.App) models.ResetResult {
			return app.Services.Diagnostics.ClearRemote(ctx)
		})
}

// newRemoteActionCommand builds the guarded destructive commands. Both need
// --yes and both refuse to run against an empty local store.
func newRemoteActionCommand(opts *RootOptions, use, short string, action func(context.Context, *client.App) models.ResetResult) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Long: short + `.

A local backup is taken first. The command is refused when the local store
holds no records, so an empty device can never wipe the shared copy.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return commandError(use+" is destructive; pass --yes to confirm", nil)
			}

			ctx := cmd.Context()
			return opts.withApp(ctx, func(app *client.App) error {
				if err := app.WaitForKey(ctx); err != nil {
					return failure(use, err)
				}

				res := action(ctx, app)
				if err := opts.printer(cmd).print(res, func(w io.Writer) { renderReset(w, use, res) }); err != nil {
					return err
				}
				if !res.Success {
					return failure(use, errRemoteRejected)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm the destructive operation")
	return cmd
}
