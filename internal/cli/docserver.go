package cli

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/MKhiriev/envelope-sync/internal/config"
	"github.com/MKhiriev/envelope-sync/internal/handler"
	"github.com/MKhiriev/envelope-sync/internal/logger"
	"github.com/MKhiriev/envelope-sync/internal/remote"
	"github.com/MKhiriev/envelope-sync/internal/server"
	"github.com/MKhiriev/envelope-sync/internal/service"
	"github.com/MKhiriev/envelope-sync/internal/store"
	"github.com/MKhiriev/envelope-sync/models"
)

// DocserverOptions holds the global flags of the docserver binary.
type DocserverOptions struct {
	Format string

	flags *config.StructuredConfig
	build models.AppBuildInfo

	logger *logger.Logger
}

// NewDocserverCommand creates the docserver command tree.
func NewDocserverCommand(build models.AppBuildInfo) *cobra.Command {
	return newDocserverCommand(&DocserverOptions{build: build})
}

func newDocserverCommand(opts *DocserverOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docserver",
		Short: "Remote document server for budget-sync",
		Long: `docserver stores the encrypted documents of budget-sync clients.

Documents are opaque blobs addressed by budget id and path. Access to a budget
is granted by a signed token issued with "docserver token".`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return commandError(fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, validFormats), nil)
			}
			return nil
		},
	}

	opts.flags = config.BindServerFlags(cmd.PersistentFlags())
	cmd.PersistentFlags().StringVar(&opts.Format, "format", formatText, "Output format (text|json)")

	cmd.AddCommand(
		newServeCommand(opts),
		newTokenCommand(opts),
		newVersionCommand(opts.build),
	)
	return cmd
}

func (o *DocserverOptions) config() (*config.ServerConfig, *logger.Logger, error) {
	cfg, err := config.GetServerConfig(o.flags)
	if err != nil {
		return nil, nil, commandError("invalid configuration", err)
	}

	log := o.logger
	if log == nil {
		log = logger.NewLogger("docserver")
		if err = logger.SetLevel(cfg.Log.Level); err != nil {
			return nil, nil, commandError("invalid log level", err)
		}
	}
	return cfg, log, nil
}

func newServeCommand(opts *DocserverOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the document API and the gRPC health service",
		Long: `Serve listens on --address for the HTTP document API and, when
--grpc-address is set, on the gRPC health service. Documents are kept in
postgres when --db is set and in memory otherwise.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.config()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
			defer stop()

			documents, closeStore, err := openDocumentStore(ctx, cfg.Storage, log)
			if err != nil {
				return failure("open document store", err)
			}
			defer closeStore()

			services, err := service.NewServerServices(documents, opts.build, *cfg, log)
			if err != nil {
				return failure("create services", err)
			}
			handlers, err := handler.NewHandlers(services, cfg.Server, log)
			if err != nil {
				return failure("create handlers", err)
			}
			srv, err := server.NewServer(handlers, cfg.Server, log)
			if err != nil {
				return failure("create server", err)
			}

			if err = srv.Run(ctx); err != nil {
				return failure("serve", err)
			}
			return nil
		},
	}
}

// openDocumentStore connects and migrates postgres, or falls back to the
// memory store when no DSN is configured.
func openDocumentStore(ctx context.Context, cfg config.ServerStorage, log *logger.Logger) (remote.DocumentStore, func(), error) {
	if cfg.DSN == "" {
		log.Warn().Str("func", "openDocumentStore").Msg("no database configured; documents are kept in memory")
		return remote.NewMemoryStore(), func() {}, nil
	}

	db, err := store.NewConnectPostgres(ctx, cfg.DSN, log)
	if err != nil {
		return nil, nil, err
	}
	if err = db.Migrate(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("postgres: migration failed: %w", err)
	}
	return remote.NewPostgresStore(db), func() { db.Close() }, nil
}

type tokenOutput struct {
	BudgetID  string    `json:"budgetId"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func newTokenCommand(opts *DocserverOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "token <budget-id>",
		Short: "Issue a document API token for one budget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.config()
			if err != nil {
				return err
			}

			token, err := service.NewTokenService(cfg.App, log).CreateToken(cmd.Context(), args[0])
			if err != nil {
				return failure("issue token", err)
			}

			out := tokenOutput{BudgetID: token.BudgetID, Token: token.SignedString}
			if exp, err := token.Claims.GetExpirationTime(); err == nil && exp != nil {
				out.ExpiresAt = exp.Time
			}

			p := printer{format: opts.Format, w: cmd.OutOrStdout()}
			return p.print(out, func(w io.Writer) { fmt.Fprintln(w, out.Token) })
		},
	}
}
