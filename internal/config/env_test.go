// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnv_AllFields(t *testing.T) {
	// Arrange
	envVars := map[string]string{
		"CONFIG": "/path/to/config.json",

		"APP_BUDGET_ID":      "budget-1",
		"APP_SHARED_BUDGET":  "true",
		"APP_PASSPHRASE":     "pass",
		"APP_KEY_SALT":       "salt",
		"APP_DEVICE_NAME":    "laptop",
		"APP_TOKEN_SIGN_KEY": "jwt_secret",
		"APP_TOKEN_DURATION": "1h",

		"REMOTE_BACKEND":           "http",
		"REMOTE_ADDRESS":           "http://localhost:8080",
		"REMOTE_TOKEN":             "tok",
		"REMOTE_REQUEST_TIMEOUT":   "20s",
		"REMOTE_CHUNK_SIZE_BYTES":  "4096",
		"REMOTE_S3_BUCKET":         "bucket",
		"REMOTE_S3_USE_PATH_STYLE": "true",

		"SYNC_CRITICAL_DELAY":    "1s",
		"SYNC_ROUTINE_DELAY":     "5s",
		"SYNC_PERIODIC_INTERVAL": "1m",
		"SYNC_BACKUP_RETENTION":  "7",

		"SERVER_ADDRESS":         "localhost:8080",
		"SERVER_GRPC_ADDRESS":    "localhost:9090",
		"SERVER_REQUEST_TIMEOUT": "30s",

		"STORAGE_DB_DATABASE_URI": "/tmp/budget.db",
		"STORAGE_BACKUP_DIR":      "/tmp/backups",

		"LOG_LEVEL": "debug",
	}
	setEnvVars(t, envVars)

	// Act
	cfg := &StructuredConfig{}
	err := parseEnv(cfg)

	// Assert
	require.NoError(t, err)

	assert.Equal(t, "/path/to/config.json", cfg.JSONFilePath)

	assert.Equal(t, "budget-1", cfg.App.BudgetID)
	assert.True(t, cfg.App.SharedBudget)
	assert.Equal(t, "pass", cfg.App.Passphrase)
	assert.Equal(t, "salt", cfg.App.KeySalt)
	assert.Equal(t, "laptop", cfg.App.DeviceName)
	assert.Equal(t, "jwt_secret", cfg.App.TokenSignKey)
	assert.Equal(t, time.Hour, cfg.App.TokenDuration)

	assert.Equal(t, "http", cfg.Remote.Backend)
	assert.Equal(t, "http://localhost:8080", cfg.Remote.HTTPAddress)
	assert.Equal(t, "tok", cfg.Remote.Token)
	assert.Equal(t, 20*time.Second, cfg.Remote.RequestTimeout)
	assert.Equal(t, 4096, cfg.Remote.ChunkSizeBytes)
	assert.Equal(t, "bucket", cfg.Remote.S3.Bucket)
	assert.True(t, cfg.Remote.S3.UsePathStyle)

	assert.Equal(t, time.Second, cfg.Sync.CriticalDelay)
	assert.Equal(t, 5*time.Second, cfg.Sync.RoutineDelay)
	assert.Equal(t, time.Minute, cfg.Sync.PeriodicInterval)
	assert.Equal(t, 7, cfg.Sync.BackupRetention)

	assert.Equal(t, "localhost:8080", cfg.Server.HTTPAddress)
	assert.Equal(t, "localhost:9090", cfg.Server.GRPCAddress)
	assert.Equal(t, 30*time.Second, cfg.Server.RequestTimeout)

	assert.Equal(t, "/tmp/budget.db", cfg.Storage.DB.DSN)
	assert.Equal(t, "/tmp/backups", cfg.Storage.BackupDir)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestParseEnv_PartialFields(t *testing.T) {
	setEnvVars(t, map[string]string{
		"APP_BUDGET_ID":  "budget-1",
		"SERVER_ADDRESS": "localhost:8080",
	})

	cfg := &StructuredConfig{}
	err := parseEnv(cfg)

	require.NoError(t, err)
	assert.Equal(t, "budget-1", cfg.App.BudgetID)
	assert.Empty(t, cfg.App.Passphrase)
	assert.Zero(t, cfg.Sync.CriticalDelay)
	assert.Equal(t, "localhost:8080", cfg.Server.HTTPAddress)
	assert.Empty(t, cfg.Remote.Backend)
}

func TestParseEnv_InvalidDuration(t *testing.T) {
	setEnvVars(t, map[string]string{
		"SYNC_ROUTINE_DELAY": "not-a-duration",
	})

	err := parseEnv(&StructuredConfig{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "error getting env configs")
}

func TestParseEnv_PrefixedWins(t *testing.T) {
	setEnvVars(t, map[string]string{
		"APP_BUDGET_ID":                 "generic",
		"LOG_LEVEL":                     "info",
		EnvPrefix + "APP_BUDGET_ID":     "household",
		EnvPrefix + "SYNC_HISTORY_SIZE": "20",
	})

	cfg := &StructuredConfig{}
	require.NoError(t, parseEnv(cfg))

	assert.Equal(t, "household", cfg.App.BudgetID)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 20, cfg.Sync.HistorySize)
}

func TestParseEnv_PrefixedInvalid(t *testing.T) {
	setEnvVars(t, map[string]string{
		EnvPrefix + "SYNC_CRITICAL_DELAY": "soon",
	})

	err := parseEnv(&StructuredConfig{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvPrefix)
}

func prefixed(keys []string) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = EnvPrefix + k
	}
	return out
}

func setEnvVars(t *testing.T, vars map[string]string) {
	t.Helper()
	clearEnvVars(t)
	for k, v := range vars {
		t.Setenv(k, v)
	}
}

func clearEnvVars(t *testing.T) {
	t.Helper()
	keys := []string{
		"CONFIG",
		"APP_BUDGET_ID", "APP_SHARED_BUDGET", "APP_PASSPHRASE", "APP_KEY_SALT", "APP_DEVICE_NAME",
		"APP_TOKEN_SIGN_KEY", "APP_TOKEN_ISSUER", "APP_TOKEN_DURATION", "APP_VERSION",
		"REMOTE_BACKEND", "REMOTE_ADDRESS", "REMOTE_TOKEN", "REMOTE_REQUEST_TIMEOUT",
		"REMOTE_GRPC_ADDRESS", "REMOTE_CHUNK_SIZE_BYTES",
		"REMOTE_S3_BUCKET", "REMOTE_S3_REGION", "REMOTE_S3_ENDPOINT", "REMOTE_S3_PREFIX",
		"REMOTE_S3_ACCESS_KEY_ID", "REMOTE_S3_SECRET_ACCESS_KEY", "REMOTE_S3_USE_PATH_STYLE",
		"SYNC_CRITICAL_DELAY", "SYNC_ROUTINE_DELAY", "SYNC_PERIODIC_INTERVAL",
		"SYNC_HEALTH_CHECK_INTERVAL", "SYNC_HISTORY_SIZE", "SYNC_BACKUP_RETENTION",
		"SERVER_ADDRESS", "SERVER_GRPC_ADDRESS", "SERVER_REQUEST_TIMEOUT",
		"STORAGE_DB_DATABASE_URI", "STORAGE_BACKUP_DIR",
		"DEBUG_ADDRESS",
		"LOG_LEVEL", "LOG_FILE", "LOG_MAX_SIZE_MB", "LOG_MAX_BACKUPS", "LOG_MAX_AGE_DAYS",
	}
	for _, k := range append(keys, prefixed(keys)...) {
		if old, ok := os.LookupEnv(k); ok {
			require.NoError(t, os.Unsetenv(k))
			t.Cleanup(func() { _ = os.Setenv(k, old) })
		}
	}
}
