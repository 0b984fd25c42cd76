package config

import (
	"fmt"
	"time"
)

// ClientApp holds the budget identity and key material of the client.
type ClientApp struct {
	BudgetID     string `validate:"required"`
	SharedBudget bool
	Passphrase   string `validate:"required_with=KeySalt"`
	KeySalt      string `validate:"required_with=Passphrase"`
	DeviceName   string `validate:"required"`
	Version      string
}

// ClientRemote holds the remote document store settings.
type ClientRemote struct {
	Backend        string        `validate:"oneof=memory http s3"`
	HTTPAddress    string        `validate:"required_if=Backend http"`
	Token          string        `validate:"required_if=Backend http"`
	RequestTimeout time.Duration `validate:"gt=0"`
	GRPCAddress    string        `validate:"omitempty,hostname_port"`
	ChunkSizeBytes int           `validate:"gte=1024"`
	S3             S3
}

// ClientStorage holds local persistence settings.
type ClientStorage struct {
	DSN       string `validate:"required"`
	BackupDir string
}

// ClientSync holds scheduler, monitor and retention tuning.
type ClientSync struct {
	CriticalDelay       time.Duration `validate:"gt=0"`
	RoutineDelay        time.Duration `validate:"gt=0"`
	PeriodicInterval    time.Duration `validate:"gt=0"`
	HealthCheckInterval time.Duration `validate:"gt=0"`
	HistorySize         int           `validate:"gte=1"`
	BackupRetention     int           `validate:"gte=1"`
}

// ClientDebug holds the debug API address; empty disables it.
type ClientDebug struct {
	HTTPAddress string `validate:"omitempty,hostname_port"`
}

// ClientLog holds logging settings.
type ClientLog struct {
	Level      string `validate:"omitempty,oneof=trace debug info warn error"`
	File       string
	MaxSizeMB  int `validate:"gte=0"`
	MaxBackups int `validate:"gte=0"`
	MaxAgeDays int `validate:"gte=0"`
}

// ClientConfig is the budget-sync configuration view of [StructuredConfig].
type ClientConfig struct {
	App     ClientApp
	Remote  ClientRemote
	Storage ClientStorage
	Sync    ClientSync
	Debug   ClientDebug
	Log     ClientLog
}

// GetClientConfig builds and validates the client view of the merged
// configuration. flags may be nil.
func GetClientConfig(flags *StructuredConfig) (*ClientConfig, error) {
	cfg, err := GetStructuredConfig(flags)
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	clientCfg := NewClientConfig(cfg)
	if err = clientCfg.validate(); err != nil {
		return nil, err
	}
	return clientCfg, nil
}

// NewClientConfig maps the fields relevant to the client runtime.
func NewClientConfig(cfg *StructuredConfig) *ClientConfig {
	dsn := cfg.Storage.DB.DSN
	if dsn == "" {
		dsn = DefaultLocalDSN
	}

	return &ClientConfig{
		App: ClientApp{
			BudgetID:     cfg.App.BudgetID,
			SharedBudget: cfg.App.SharedBudget,
			Passphrase:   cfg.App.Passphrase,
			KeySalt:      cfg.App.KeySalt,
			DeviceName:   cfg.App.DeviceName,
			Version:      cfg.App.Version,
		},
		Remote: ClientRemote{
			Backend:        cfg.Remote.Backend,
			HTTPAddress:    cfg.Remote.HTTPAddress,
			Token:          cfg.Remote.Token,
			RequestTimeout: cfg.Remote.RequestTimeout,
			GRPCAddress:    cfg.Remote.GRPCAddress,
			ChunkSizeBytes: cfg.Remote.ChunkSizeBytes,
			S3:             cfg.Remote.S3,
		},
		Storage: ClientStorage{
			DSN:       dsn,
			BackupDir: cfg.Storage.BackupDir,
		},
		Sync: ClientSync{
			CriticalDelay:       cfg.Sync.CriticalDelay,
			RoutineDelay:        cfg.Sync.RoutineDelay,
			PeriodicInterval:    cfg.Sync.PeriodicInterval,
			HealthCheckInterval: cfg.Sync.HealthCheckInterval,
			HistorySize:         cfg.Sync.HistorySize,
			BackupRetention:     cfg.Sync.BackupRetention,
		},
		Debug: ClientDebug{HTTPAddress: cfg.Debug.HTTPAddress},
		Log: ClientLog{
			Level:      cfg.Log.Level,
			File:       cfg.Log.File,
			MaxSizeMB:  cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAgeDays: cfg.Log.MaxAgeDays,
		},
	}
}
