package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/MKhiriev/envelope-sync/internal/clock"
	"github.com/MKhiriev/envelope-sync/internal/config"
	"github.com/MKhiriev/envelope-sync/internal/crypto"
	myHTTP "github.com/MKhiriev/envelope-sync/internal/handler/http"
	"github.com/MKhiriev/envelope-sync/internal/logger"
	"github.com/MKhiriev/envelope-sync/internal/remote"
	"github.com/MKhiriev/envelope-sync/internal/server"
	"github.com/MKhiriev/envelope-sync/internal/service"
	"github.com/MKhiriev/envelope-sync/internal/store"
	"github.com/MKhiriev/envelope-sync/internal/transport"
	"github.com/MKhiriev/envelope-sync/internal/tui"
	"github.com/MKhiriev/envelope-sync/internal/workers"
	"github.com/MKhiriev/envelope-sync/models"
)

// App owns every component of the sync client: stores, remote backend,
// transport, services and background workers. Components are explicit
// instances; nothing is global.
type App struct {
	cfg   *config.ClientConfig
	build models.AppBuildInfo

	local     store.LocalStore
	backups   store.BackupStore
	documents remote.DocumentStore
	probe     *remote.GRPCHealthProbe
	keys      crypto.KeyProvider
	transport *transport.ChunkedTransport
	registry  *prometheus.Registry

	Services *service.ClientServices
	workers  *workers.Workers
	debug    *server.DebugServer

	logger *logger.Logger
}

// NewApp opens the local stores, builds the remote backend selected by the
// configuration and wires the services. Key derivation starts in the
// background; see [App.WaitForKey].
func NewApp(ctx context.Context, cfg *config.ClientConfig, build models.AppBuildInfo, log *logger.Logger) (*App, error) {
	log = log.WithBudget(cfg.App.BudgetID)
	app := &App{cfg: cfg, build: build, logger: log}
	if err := app.open(ctx); err != nil {
		if closeErr := app.Close(); closeErr != nil {
			log.Err(closeErr).Str("func", "NewApp").Msg("release partially opened app")
		}
		return nil, err
	}
	return app, nil
}

// open builds the components in dependency order. On error the fields set
// so far are exactly the resources Close has to release.
func (a *App) open(ctx context.Context) error {
	cfg, log := a.cfg, a.logger
	clk := clock.Real()

	local, err := store.OpenLocalStore(ctx, cfg.Storage.DSN, clk, log)
	if err != nil {
		return fmt.Errorf("open local store: %w", err)
	}
	a.local = local

	backups, err := store.OpenBackupStore(cfg.Storage.BackupDir)
	if err != nil {
		return fmt.Errorf("open backup store: %w", err)
	}
	a.backups = backups

	documents, err := remote.NewDocumentStore(ctx, cfg.Remote, log)
	if err != nil {
		return fmt.Errorf("create remote store: %w", err)
	}
	a.documents = documents

	var prober remote.Prober
	if cfg.Remote.GRPCAddress != "" {
		probe, err := remote.NewGRPCHealthProbe(cfg.Remote.GRPCAddress)
		if err != nil {
			return err
		}
		a.probe = probe
		prober = probe
	}

	if a.keys, err = newKeyProvider(cfg.App); err != nil {
		return err
	}

	reporter := &failureReporter{}
	a.transport = transport.NewChunkedTransport(a.documents, crypto.NewAESGCM(), reporter, clk, cfg.Remote.ChunkSizeBytes, log)
	if err = a.transport.Initialize(cfg.App.BudgetID, a.keys); err != nil && !errors.Is(err, transport.ErrNotInitialized) {
		return fmt.Errorf("initialize transport: %w", err)
	}

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	a.Services = service.NewClientServices(service.ClientDeps{
		Local:      a.local,
		Backups:    a.backups,
		Transport:  a.transport,
		Prober:     prober,
		Registerer: a.registry,
		Clock:      clk,
	}, *cfg, log)
	reporter.target = a.Services.Health

	background := []workers.Worker{
		service.NewCountCacheInvalidator(a.Services.Events, a.local, log),
		a.Services.Orchestrator,
		a.Services.Watchdog,
	}
	if cfg.Debug.HTTPAddress != "" {
		a.debug = server.NewDebugServer(myHTTP.NewDebugHandler(a.Services, a.registry, log), cfg.Debug.HTTPAddress, log)
		background = append(background, a.debug)
	}
	a.workers = workers.NewWorkers(background...)

	return nil
}

// WaitForKey blocks until the budget key is available and binds the
// transport to it. One-shot commands call it before touching the remote.
func (a *App) WaitForKey(ctx context.Context) error {
	if derived, ok := a.keys.(*crypto.DerivedKey); ok {
		if _, err := derived.Wait(ctx); err != nil {
			return fmt.Errorf("derive budget key: %w", err)
		}
	}
	if a.transport.BudgetID() != "" {
		return nil
	}
	if err := a.transport.Initialize(a.cfg.App.BudgetID, a.keys); err != nil {
		return fmt.Errorf("initialize transport: %w", err)
	}
	return nil
}

// Start launches the background workers.
func (a *App) Start(ctx context.Context) error {
	if err := a.workers.Start(ctx); err != nil {
		return fmt.Errorf("start workers: %w", err)
	}
	if a.debug != nil {
		a.logger.Info().Str("addr", a.debug.Addr()).Msg("debug API listening")
	}
	return nil
}

// Stop stops the background workers in reverse start order.
func (a *App) Stop() {
	a.workers.Stop()
}

// Run starts the workers, runs an initial sync and blocks until ctx is done.
func (a *App) Run(ctx context.Context) error {
	if err := a.Start(ctx); err != nil {
		return err
	}
	defer a.Stop()

	go a.startupSync(ctx)

	<-ctx.Done()
	a.logger.Info().Msg("budget-sync shutting down")
	return nil
}

// Watch runs the workers behind the interactive dashboard.
func (a *App) Watch(ctx context.Context) error {
	if err := a.Start(ctx); err != nil {
		return err
	}
	defer a.Stop()

	go a.startupSync(ctx)
	return tui.New(a.Services, a.build, a.logger).Watch(ctx)
}

// startupSync schedules the first cycle once the transport is bound. Cycles
// requested before the key is derived fail fast.
func (a *App) startupSync(ctx context.Context) {
	if err := a.WaitForKey(ctx); err != nil {
		a.logger.Err(err).Str("func", "*App.startupSync").Msg("transport is not ready")
		return
	}
	a.Services.Orchestrator.ScheduleSync(models.Trigger{Kind: models.TriggerManual, Critical: true, Reason: "startup"})
}

// Close releases stores, connections and the event bus. It is safe on a
// partially built or nil App.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	var errs []error

	if a.Services != nil && a.Services.Events != nil {
		errs = append(errs, a.Services.Events.Close())
	}
	if a.probe != nil {
		errs = append(errs, a.probe.Close())
	}
	if closer, ok := a.documents.(interface{ Close() error }); ok {
		errs = append(errs, closer.Close())
	}
	if a.backups != nil {
		errs = append(errs, a.backups.Close())
	}
	if a.local != nil {
		errs = append(errs, a.local.Close())
	}

	return errors.Join(errs...)
}

func newKeyProvider(cfg config.ClientApp) (crypto.KeyProvider, error) {
	if cfg.Passphrase != "" {
		return crypto.NewDerivedKey(cfg.Passphrase, []byte(cfg.KeySalt)), nil
	}

	// only the memory backend runs without a passphrase; its documents
	// never outlive the process
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generate budget key: %w", err)
	}
	return key, nil
}

// failureReporter forwards swallowed transport failures to the health
// monitor, which is built after the transport.
type failureReporter struct {
	target transport.FailureReporter
}

func (r *failureReporter) ReportError(err error) {
	if r.target != nil {
		r.target.ReportError(err)
	}
}
