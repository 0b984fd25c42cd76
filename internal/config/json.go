package config

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-json"
)

// StructuredJSONConfig mirrors [StructuredConfig] for the JSON file format,
// with durations written as strings ("10s", "5m").
type StructuredJSONConfig struct {
	App struct {
		BudgetID      string   `json:"budget_id"`
		SharedBudget  bool     `json:"shared_budget"`
		Passphrase    string   `json:"passphrase"`
		KeySalt       string   `json:"key_salt"`
		DeviceName    string   `json:"device_name"`
		TokenSignKey  string   `json:"token_sign_key"`
		TokenIssuer   string   `json:"token_issuer"`
		TokenDuration Duration `json:"token_duration"`
		Version       string   `json:"version"`
	} `json:"app,omitempty"`

	Storage struct {
		DB struct {
			DSN string `json:"dsn"`
		} `json:"db,omitempty"`
		BackupDir string `json:"backup_dir"`
	} `json:"storage,omitempty"`

	Remote struct {
		Backend        string   `json:"backend"`
		HTTPAddress    string   `json:"http_address"`
		Token          string   `json:"token"`
		RequestTimeout Duration `json:"request_timeout"`
		GRPCAddress    string   `json:"grpc_address"`
		ChunkSizeBytes int      `json:"chunk_size_bytes"`
		S3             S3JSON   `json:"s3,omitempty"`
	} `json:"remote,omitempty"`

	Sync struct {
		CriticalDelay       Duration `json:"critical_delay"`
		RoutineDelay        Duration `json:"routine_delay"`
		PeriodicInterval    Duration `json:"periodic_interval"`
		HealthCheckInterval Duration `json:"health_check_interval"`
		HistorySize         int      `json:"history_size"`
		BackupRetention     int      `json:"backup_retention"`
	} `json:"sync,omitempty"`

	Server struct {
		HTTPAddress    string   `json:"http_address"`
		GRPCAddress    string   `json:"grpc_address"`
		RequestTimeout Duration `json:"request_timeout"`
	} `json:"server,omitempty"`

	Debug struct {
		HTTPAddress string `json:"http_address"`
	} `json:"debug,omitempty"`

	Log struct {
		Level      string `json:"level"`
		File       string `json:"file"`
		MaxSizeMB  int    `json:"max_size_mb"`
		MaxBackups int    `json:"max_backups"`
		MaxAgeDays int    `json:"max_age_days"`
	} `json:"log,omitempty"`
}

// S3JSON is the JSON form of [S3].
type S3JSON struct {
	Bucket          string `json:"bucket"`
	Region          string `json:"region"`
	Endpoint        string `json:"endpoint"`
	Prefix          string `json:"prefix"`
	AccessKeyID     string `json:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key"`
	UsePathStyle    bool   `json:"use_path_style"`
}

func parseJSON(jsonFilePath string) (*StructuredConfig, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var j StructuredJSONConfig
	if err := json.NewDecoder(jsonFile).Decode(&j); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	cfg := &StructuredConfig{
		App: App{
			BudgetID:      j.App.BudgetID,
			SharedBudget:  j.App.SharedBudget,
			Passphrase:    j.App.Passphrase,
			KeySalt:       j.App.KeySalt,
			DeviceName:    j.App.DeviceName,
			TokenSignKey:  j.App.TokenSignKey,
			TokenIssuer:   j.App.TokenIssuer,
			TokenDuration: time.Duration(j.App.TokenDuration),
			Version:       j.App.Version,
		},
		Storage: Storage{
			DB:        DB{DSN: j.Storage.DB.DSN},
			BackupDir: j.Storage.BackupDir,
		},
		Remote: Remote{
			Backend:        j.Remote.Backend,
			HTTPAddress:    j.Remote.HTTPAddress,
			Token:          j.Remote.Token,
			RequestTimeout: time.Duration(j.Remote.RequestTimeout),
			GRPCAddress:    j.Remote.GRPCAddress,
			ChunkSizeBytes: j.Remote.ChunkSizeBytes,
			S3:             S3(j.Remote.S3),
		},
		Sync: Sync{
			CriticalDelay:       time.Duration(j.Sync.CriticalDelay),
			RoutineDelay:        time.Duration(j.Sync.RoutineDelay),
			PeriodicInterval:    time.Duration(j.Sync.PeriodicInterval),
			HealthCheckInterval: time.Duration(j.Sync.HealthCheckInterval),
			HistorySize:         j.Sync.HistorySize,
			BackupRetention:     j.Sync.BackupRetention,
		},
		Server: Server{
			HTTPAddress:    j.Server.HTTPAddress,
			GRPCAddress:    j.Server.GRPCAddress,
			RequestTimeout: time.Duration(j.Server.RequestTimeout),
		},
		Debug: Debug{HTTPAddress: j.Debug.HTTPAddress},
		Log: Log{
			Level:      j.Log.Level,
			File:       j.Log.File,
			MaxSizeMB:  j.Log.MaxSizeMB,
			MaxBackups: j.Log.MaxBackups,
			MaxAgeDays: j.Log.MaxAgeDays,
		},
	}

	return cfg, nil
}

// Duration is a wrapper around time.Duration that supports JSON unmarshaling from strings like "1h", "30s"
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return json.Unmarshal(b, (*time.Duration)(d))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
