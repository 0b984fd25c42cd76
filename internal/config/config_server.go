package config

import (
	"fmt"
	"time"
)

// ServerApp holds token settings of the document server.
type ServerApp struct {
	TokenSignKey  string        `validate:"required,min=16"`
	TokenIssuer   string        `validate:"required"`
	TokenDuration time.Duration `validate:"gt=0"`
}

// ServerListen holds listen addresses and request limits.
type ServerListen struct {
	HTTPAddress    string        `validate:"required,hostname_port"`
	GRPCAddress    string        `validate:"omitempty,hostname_port"`
	RequestTimeout time.Duration `validate:"gt=0"`
}

// ServerStorage holds the postgres DSN; empty serves documents from memory.
type ServerStorage struct {
	DSN string
}

// ServerConfig is the docserver configuration view of [StructuredConfig].
type ServerConfig struct {
	App     ServerApp
	Server  ServerListen
	Storage ServerStorage
	Log     ClientLog
}

// GetServerConfig builds and validates the document server view of the
// merged configuration. flags may be nil.
func GetServerConfig(flags *StructuredConfig) (*ServerConfig, error) {
	cfg, err := GetStructuredConfig(flags)
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	serverCfg := &ServerConfig{
		App: ServerApp{
			TokenSignKey:  cfg.App.TokenSignKey,
			TokenIssuer:   cfg.App.TokenIssuer,
			TokenDuration: cfg.App.TokenDuration,
		},
		Server: ServerListen{
			HTTPAddress:    cfg.Server.HTTPAddress,
			GRPCAddress:    cfg.Server.GRPCAddress,
			RequestTimeout: cfg.Server.RequestTimeout,
		},
		Storage: ServerStorage{DSN: cfg.Storage.DB.DSN},
		Log: ClientLog{
			Level:      cfg.Log.Level,
			File:       cfg.Log.File,
			MaxSizeMB:  cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAgeDays: cfg.Log.MaxAgeDays,
		},
	}

	if err = serverCfg.validate(); err != nil {
		return nil, err
	}
	return serverCfg, nil
}
