package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MKhiriev/envelope-sync/internal/client"
	"github.com/MKhiriev/envelope-sync/internal/config"
	"github.com/MKhiriev/envelope-sync/internal/logger"
	"github.com/MKhiriev/envelope-sync/models"
)

// RootOptions holds the global flags of budget-sync.
type RootOptions struct {
	Format string

	flags *config.StructuredConfig
	build models.AppBuildInfo

	// logger overrides the rotating file logger; tests use it.
	logger *logger.Logger
}

// NewRootCommand creates the budget-sync command tree.
func NewRootCommand(build models.AppBuildInfo) *cobra.Command {
	return newRootCommand(&RootOptions{build: build})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budget-sync",
		Short: "Offline-first sync engine for an envelope budget",
		Long: `budget-sync keeps a local envelope budget in sync with an encrypted remote copy.

The local sqlite store is always authoritative for reads. Changes are pushed,
pulled or merged with the remote document store on debounced and periodic
cycles, and every destructive step is preceded by a local backup.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return commandError(fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, validFormats), nil)
			}
			return nil
		},
	}

	opts.flags = config.BindClientFlags(cmd.PersistentFlags())
	cmd.PersistentFlags().StringVar(&opts.Format, "format", formatText, "Output format (text|json)")

	cmd.AddCommand(
		newRunCommand(opts),
		newWatchCommand(opts),
		newSyncCommand(opts),
		newStatusCommand(opts),
		newValidateCommand(opts),
		newResetCommand(opts),
		newClearRemoteCommand(opts),
		newBackupCommand(opts),
		newImportCommand(opts),
		newExportCommand(opts),
		newVersionCommand(opts.build),
	)

	return cmd
}

func (o *RootOptions) printer(cmd *cobra.Command) printer {
	return printer{format: o.Format, w: cmd.OutOrStdout()}
}

// openApp loads the client configuration and wires a client App. The
// caller owns the returned App and must Close it.
func (o *RootOptions) openApp(ctx context.Context) (*client.App, error) {
	cfg, err := config.GetClientConfig(o.flags)
	if err != nil {
		return nil, commandError("invalid configuration", err)
	}

	log := o.logger
	if log == nil {
		log = logger.NewClientLogger("budget-sync", logger.FileOptions{
			Path:       cfg.Log.File,
			MaxSizeMB:  cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAgeDays: cfg.Log.MaxAgeDays,
		})
		if err = logger.SetLevel(cfg.Log.Level); err != nil {
			return nil, commandError("invalid log level", err)
		}
	}
	if cfg.App.Version == "" {
		cfg.App.Version = o.build.BuildVersion()
	}

	app, err := client.NewApp(ctx, cfg, o.build, log)
	if err != nil {
		return nil, commandError("start budget-sync", err)
	}
	return app, nil
}

// withApp runs fn against a freshly wired App and closes it afterwards.
func (o *RootOptions) withApp(ctx context.Context, fn func(app *client.App) error) error {
	app, err := o.openApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	return fn(app)
}

func newVersionCommand(build models.AppBuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprint(cmd.OutOrStdout(), build.String())
			return err
		},
	}
}
