// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"time"
)

// StructuredConfig is the top-level configuration container shared by the
// budget-sync client and the document server. It is populated by merging
// defaults, an optional JSON file, environment variables and command-line
// flags, then narrowed into [ClientConfig] or [ServerConfig].
//
// Struct tags:
//   - envPrefix: prefix applied to all nested env tag lookups (caarlos0/env).
//   - env      : direct environment variable name for scalar fields.
type StructuredConfig struct {
	// App holds budget identity, key material and token settings.
	App App `envPrefix:"APP_"`

	// Storage holds the local sqlite DSN (client) or the postgres DSN
	// (document server) and the backup directory.
	Storage Storage `envPrefix:"STORAGE_"`

	// Remote selects and configures the remote document store the client
	// syncs against.
	Remote Remote `envPrefix:"REMOTE_"`

	// Sync holds scheduler, health and retention tuning.
	Sync Sync `envPrefix:"SYNC_"`

	// Server holds the listen addresses of the document server.
	Server Server `envPrefix:"SERVER_"`

	// Debug holds the listen address of the client debug API.
	Debug Debug `envPrefix:"DEBUG_"`

	// Log holds log level and file rotation settings.
	Log Log `envPrefix:"LOG_"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// Populated via the CONFIG environment variable or the -c / --config flag.
	JSONFilePath string `env:"CONFIG"`
}

// App holds application-level configuration.
type App struct {
	// BudgetID identifies the shared budget document set.
	// Env: APP_BUDGET_ID
	BudgetID string `env:"BUDGET_ID"`

	// SharedBudget marks this device as a participant of a budget owned by
	// someone else; it changes how empty and smaller datasets are arbitrated.
	// Env: APP_SHARED_BUDGET
	SharedBudget bool `env:"SHARED_BUDGET"`

	// Passphrase and KeySalt derive the budget encryption key (Argon2id).
	// Env: APP_PASSPHRASE, APP_KEY_SALT
	Passphrase string `env:"PASSPHRASE"`
	KeySalt    string `env:"KEY_SALT"`

	// DeviceName is recorded as the actor of every remote write.
	// Env: APP_DEVICE_NAME
	DeviceName string `env:"DEVICE_NAME"`

	// TokenSignKey signs and verifies document server JWTs.
	// Env: APP_TOKEN_SIGN_KEY
	TokenSignKey string `env:"TOKEN_SIGN_KEY"`

	// TokenIssuer is the "iss" claim of issued tokens.
	// Env: APP_TOKEN_ISSUER
	TokenIssuer string `env:"TOKEN_ISSUER"`

	// TokenDuration is the lifetime of issued tokens.
	// Env: APP_TOKEN_DURATION
	TokenDuration time.Duration `env:"TOKEN_DURATION"`

	// Version overrides the build version stamped into the remote manifest.
	// Env: APP_VERSION
	Version string `env:"VERSION"`
}

// Storage groups persistence settings.
type Storage struct {
	DB DB `envPrefix:"DB_"`

	// BackupDir is the badger directory for pre-sync snapshots. Empty keeps
	// backups in memory.
	// Env: STORAGE_BACKUP_DIR
	BackupDir string `env:"BACKUP_DIR"`
}

// DB holds a database connection string.
type DB struct {
	// DSN is a sqlite file path on the client and a postgres URL on the
	// document server.
	// Env: STORAGE_DB_DATABASE_URI
	DSN string `env:"DATABASE_URI"`
}

// Remote configures the client side of the remote document store.
type Remote struct {
	// Backend is one of "memory", "http" or "s3".
	// Env: REMOTE_BACKEND
	Backend string `env:"BACKEND"`

	// HTTPAddress is the document server base URL.
	// Env: REMOTE_ADDRESS
	HTTPAddress string `env:"ADDRESS"`

	// Token is the bearer token presented to the document server.
	// Env: REMOTE_TOKEN
	Token string `env:"TOKEN"`

	// RequestTimeout bounds every remote call.
	// Env: REMOTE_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`

	// GRPCAddress is the document server gRPC health endpoint used by the
	// connectivity probe. Empty disables the probe.
	// Env: REMOTE_GRPC_ADDRESS
	GRPCAddress string `env:"GRPC_ADDRESS"`

	// ChunkSizeBytes caps the encoded size of one remote chunk document.
	// Env: REMOTE_CHUNK_SIZE_BYTES
	ChunkSizeBytes int `env:"CHUNK_SIZE_BYTES"`

	S3 S3 `envPrefix:"S3_"`
}

// S3 holds object storage settings for the "s3" backend.
type S3 struct {
	Bucket          string `env:"BUCKET"`
	Region          string `env:"REGION"`
	Endpoint        string `env:"ENDPOINT"`
	Prefix          string `env:"PREFIX"`
	AccessKeyID     string `env:"ACCESS_KEY_ID"`
	SecretAccessKey string `env:"SECRET_ACCESS_KEY"`
	UsePathStyle    bool   `env:"USE_PATH_STYLE"`
}

// Sync holds scheduler and monitor tuning.
type Sync struct {
	CriticalDelay       time.Duration `env:"CRITICAL_DELAY"`
	RoutineDelay        time.Duration `env:"ROUTINE_DELAY"`
	PeriodicInterval    time.Duration `env:"PERIODIC_INTERVAL"`
	HealthCheckInterval time.Duration `env:"HEALTH_CHECK_INTERVAL"`
	HistorySize         int           `env:"HISTORY_SIZE"`
	BackupRetention     int           `env:"BACKUP_RETENTION"`
}

// Server holds network and timeout settings of the document server.
type Server struct {
	// HTTPAddress is the TCP address of the document API, "host:port".
	// Env: SERVER_ADDRESS
	HTTPAddress string `env:"ADDRESS"`

	// GRPCAddress is the TCP address of the gRPC health service.
	// Env: SERVER_GRPC_ADDRESS
	GRPCAddress string `env:"GRPC_ADDRESS"`

	// RequestTimeout is the maximum duration of a single inbound request.
	// Env: SERVER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
}

// Debug holds the client debug API settings.
type Debug struct {
	// HTTPAddress of the debug API; empty disables it.
	// Env: DEBUG_ADDRESS
	HTTPAddress string `env:"ADDRESS"`
}

// Log holds logging settings.
type Log struct {
	Level      string `env:"LEVEL"`
	File       string `env:"FILE"`
	MaxSizeMB  int    `env:"MAX_SIZE_MB"`
	MaxBackups int    `env:"MAX_BACKUPS"`
	MaxAgeDays int    `env:"MAX_AGE_DAYS"`
}

// GetStructuredConfig loads and merges the configuration from all sources in
// the following priority order (later sources override non-zero fields):
//  1. Built-in defaults
//  2. JSON file (path resolved from env or flags)
//  3. Environment variables
//  4. Command-line flags (already parsed into flags; may be nil)
func GetStructuredConfig(flags *StructuredConfig) (*StructuredConfig, error) {
	return newConfigBuilder().
		withDefaults().
		withEnv().
		withFlags(flags).
		withJSON().
		build()
}
