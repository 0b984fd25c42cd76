package service

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/MKhiriev/envelope-sync/internal/clock"
	"github.com/MKhiriev/envelope-sync/internal/config"
	"github.com/MKhiriev/envelope-sync/internal/logger"
	"github.com/MKhiriev/envelope-sync/internal/remote"
	"github.com/MKhiriev/envelope-sync/internal/store"
	"github.com/MKhiriev/envelope-sync/internal/validators"
	"github.com/MKhiriev/envelope-sync/models"
)

// ClientServices are the services of the budget-sync client.
type ClientServices struct {
	Events       EventBus
	Health       HealthMonitor
	Backups      BackupService
	Orchestrator SyncOrchestrator
	Guard        CorruptionGuard
	Diagnostics  Diagnostics
	Data         DataService
	Watchdog     *Watchdog
}

// ClientDeps are the infrastructure pieces the client services run on.
type ClientDeps struct {
	Local      store.LocalStore
	Backups    store.BackupStore
	Transport  CloudTransport
	Prober     remote.Prober
	Registerer prometheus.Registerer
	Clock      clock.Clock
}

func NewClientServices(deps ClientDeps, cfg config.ClientConfig, log *logger.Logger) *ClientServices {
	clk := deps.Clock
	if clk == nil {
		clk = clock.Real()
	}
	validator := validators.NewCollectionValidator(clk)
	actor := cfg.App.DeviceName

	events := NewEventBus(log)
	health := NewHealthMonitor(clk, cfg.Sync.HistorySize, deps.Registerer, log)
	backups := NewBackupService(deps.Local, deps.Backups, validator, clk, cfg.Sync.BackupRetention, cfg.App.Version, log)

	orchestrator := NewSyncOrchestrator(SyncDeps{
		Local:     deps.Local,
		Transport: deps.Transport,
		Backups:   backups,
		Health:    health,
		Validator: validator,
		Events:    events,
	}, SyncSettings{
		CriticalDelay:     cfg.Sync.CriticalDelay,
		RoutineDelay:      cfg.Sync.RoutineDelay,
		PeriodicInterval:  cfg.Sync.PeriodicInterval,
		SharedParticipant: cfg.App.SharedBudget,
		Actor:             actor,
	}, clk, log)

	guard := NewCorruptionGuard(deps.Local, deps.Transport, backups, validator, clk, actor, log)

	prober := deps.Prober
	if prober == nil {
		prober = deps.Transport
	}

	return &ClientServices{
		Events:       events,
		Health:       health,
		Backups:      backups,
		Orchestrator: orchestrator,
		Guard:        guard,
		Diagnostics: NewDiagnostics(DiagnosticsDeps{
			Local:        deps.Local,
			Transport:    deps.Transport,
			Backups:      backups,
			Health:       health,
			Orchestrator: orchestrator,
			Guard:        guard,
			Validator:    validator,
		}, cfg.App.SharedBudget, clk, log),
		Data:     NewDataService(deps.Local, validator, events, clk, log),
		Watchdog: NewWatchdog(health, prober, clk, cfg.Sync.HealthCheckInterval, deps.Registerer, log),
	}
}

// ServerServices are the services of the docserver.
type ServerServices struct {
	Tokens    TokenService
	Documents DocumentService
	AppInfo   AppInfoService
}

func NewServerServices(documents remote.DocumentStore, build models.AppBuildInfo, cfg config.ServerConfig, log *logger.Logger) (*ServerServices, error) {
	appInfo, err := NewAppInfoService(build, log)
	if err != nil {
		return nil, fmt.Errorf("app info service: %w", err)
	}

	return &ServerServices{
		Tokens:    NewTokenService(cfg.App, log),
		Documents: NewDocumentService(documents, log),
		AppInfo:   appInfo,
	}, nil
}
