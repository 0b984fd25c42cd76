package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/MKhiriev/envelope-sync/internal/client"
)

func newBackupCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Manage local backups",
	}

	cmd.AddCommand(
		newBackupCreateCommand(opts),
		newBackupListCommand(opts),
		newBackupRestoreCommand(opts),
	)
	return cmd
}

func newBackupCreateCommand(opts *RootOptions) *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Snapshot the local data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return opts.withApp(ctx, func(app *client.App) error {
				id, err := app.Services.Backups.CreateSnapshot(ctx, reason)
				if err != nil {
					return failure("create backup", err)
				}
				return opts.printer(cmd).print(map[string]string{"id": id}, func(w io.Writer) {
					fmt.Fprintln(w, id)
				})
			})
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "manual", "Reason recorded with the backup")
	return cmd
}

func newBackupListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List backups, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return opts.withApp(ctx, func(app *client.App) error {
				infos, err := app.Services.Backups.List(ctx)
				if err != nil {
					return failure("list backups", err)
				}
				return opts.printer(cmd).print(infos, func(w io.Writer) { renderBackups(w, infos) })
			})
		},
	}
}

func newBackupRestoreCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <backup-id>",
		Short: "Replace the local data with a backup",
		Long: `Restore replaces every local collection and the metadata with the
content of the backup. The remote copy is not touched; the next sync decides
the direction as usual.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return opts.withApp(ctx, func(app *client.App) error {
				if err := app.Services.Backups.Restore(ctx, args[0]); err != nil {
					return failure("restore backup", err)
				}
				return opts.printer(cmd).print(map[string]string{"restored": args[0]}, func(w io.Writer) {
					fmt.Fprintf(w, "restored %s\n", args[0])
				})
			})
		},
	}
}
