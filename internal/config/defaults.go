package config

import (
	"os"
	"time"
)

// Remote backends understood by the client.
const (
	BackendMemory = "memory"
	BackendHTTP   = "http"
	BackendS3     = "s3"
)

const (
	DefaultChunkSizeBytes   = 900 * 1024
	DefaultCriticalDelay    = 2 * time.Second
	DefaultRoutineDelay     = 10 * time.Second
	DefaultPeriodicInterval = 5 * time.Minute
	DefaultHistorySize      = 50
	DefaultBackupRetention  = 5
	DefaultRequestTimeout   = 15 * time.Second

	// DefaultLocalDSN is the client sqlite file. The document server has no
	// default DSN: without one it serves documents from memory.
	DefaultLocalDSN = "envelope-sync.db"
)

func defaultConfig() *StructuredConfig {
	device, err := os.Hostname()
	if err != nil || device == "" {
		device = "local-device"
	}

	return &StructuredConfig{
		App: App{
			DeviceName:    device,
			TokenIssuer:   "envelope-sync",
			TokenDuration: 24 * time.Hour,
		},
		Remote: Remote{
			Backend:        BackendMemory,
			RequestTimeout: DefaultRequestTimeout,
			ChunkSizeBytes: DefaultChunkSizeBytes,
			S3:             S3{Region: "us-east-1"},
		},
		Sync: Sync{
			CriticalDelay:       DefaultCriticalDelay,
			RoutineDelay:        DefaultRoutineDelay,
			PeriodicInterval:    DefaultPeriodicInterval,
			HealthCheckInterval: 30 * time.Second,
			HistorySize:         DefaultHistorySize,
			BackupRetention:     DefaultBackupRetention,
		},
		Server: Server{
			HTTPAddress:    "localhost:8080",
			GRPCAddress:    "localhost:9090",
			RequestTimeout: 30 * time.Second,
		},
		Log: Log{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}
