package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSON_Success(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	p := filepath.Join(dir, "config.json")

	jsonBody := `{
		"app": {
			"budget_id": "budget-1",
			"shared_budget": true,
			"passphrase": "pass",
			"key_salt": "salt",
			"token_duration": "1h"
		},
		"remote": {
			"backend": "s3",
			"request_timeout": "20s",
			"chunk_size_bytes": 2048,
			"s3": { "bucket": "b", "region": "eu-west-1", "use_path_style": true }
		},
		"sync": {
			"critical_delay": "1s",
			"routine_delay": "3s",
			"history_size": 20
		},
		"server": {
			"http_address": "localhost:8080",
			"grpc_address": "localhost:9090",
			"request_timeout": "30s"
		},
		"storage": {
			"db": { "dsn": "/tmp/budget.db" },
			"backup_dir": "/tmp/backups"
		}
	}`

	require.NoError(t, os.WriteFile(p, []byte(jsonBody), 0o600))

	// Act
	cfg, err := parseJSON(p)

	// Assert
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "budget-1", cfg.App.BudgetID)
	assert.True(t, cfg.App.SharedBudget)
	assert.Equal(t, time.Hour, cfg.App.TokenDuration)

	assert.Equal(t, "s3", cfg.Remote.Backend)
	assert.Equal(t, 20*time.Second, cfg.Remote.RequestTimeout)
	assert.Equal(t, 2048, cfg.Remote.ChunkSizeBytes)
	assert.Equal(t, S3{Bucket: "b", Region: "eu-west-1", UsePathStyle: true}, cfg.Remote.S3)

	assert.Equal(t, time.Second, cfg.Sync.CriticalDelay)
	assert.Equal(t, 3*time.Second, cfg.Sync.RoutineDelay)
	assert.Equal(t, 20, cfg.Sync.HistorySize)

	assert.Equal(t, "localhost:8080", cfg.Server.HTTPAddress)
	assert.Equal(t, 30*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "/tmp/budget.db", cfg.Storage.DB.DSN)
	assert.Equal(t, "/tmp/backups", cfg.Storage.BackupDir)
	assert.Empty(t, cfg.JSONFilePath)
}

func TestParseJSON_FileNotFound(t *testing.T) {
	cfg, err := parseJSON(filepath.Join(t.TempDir(), "missing.json"))

	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "error reading a json file")
}

func TestParseJSON_InvalidJSON(t *testing.T) {
	p := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(p, []byte(`{"app": {`), 0o600))

	cfg, err := parseJSON(p)

	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "error decoding json configs")
}

func TestDuration_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Duration
		wantErr bool
	}{
		{name: "string", input: `"90s"`, want: 90 * time.Second},
		{name: "number of nanoseconds", input: `1000000000`, want: time.Second},
		{name: "bad string", input: `"soon"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Duration
			err := d.UnmarshalJSON([]byte(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, time.Duration(d))
		})
	}
}

func TestDuration_MarshalJSON(t *testing.T) {
	b, err := Duration(5 * time.Minute).MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"5m0s"`, string(b))
}
