package config

import (
	"errors"
	"net"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
)

// NetAddress holds structured network address data for host and port.
type NetAddress struct {
	Host string
	Port int
}

// BindClientFlags registers the budget-sync flags on fs. The returned config
// is filled in when fs is parsed and is meant to be passed to
// [GetClientConfig].
//
// Flags:
//
//	-c/--config json file path with configs
//	-b/--budget-id budget identifier
//	--shared this device participates in someone else's budget
//	--passphrase, --key-salt key derivation inputs
//	--device actor name recorded on remote writes
//	-d/--db local sqlite path
//	--backup-dir badger directory for snapshots
//	--remote remote backend (memory, http, s3)
//	-a/--remote-address document server URL
//	--remote-token bearer token
//	--grpc-address document server gRPC health address
//	--request-timeout remote request timeout
//	--chunk-size max encoded chunk size in bytes
//	--s3-* object storage settings
//	--critical-delay, --routine-delay, --periodic-interval scheduler tuning
//	--debug-address debug API listen address
//	--log-level, --log-file logging
func BindClientFlags(fs *pflag.FlagSet) *StructuredConfig {
	cfg := &StructuredConfig{}

	fs.StringVarP(&cfg.JSONFilePath, "config", "c", "", "JSON config file path")
	fs.StringVarP(&cfg.App.BudgetID, "budget-id", "b", "", "Budget identifier")
	fs.BoolVar(&cfg.App.SharedBudget, "shared", false, "This device participates in a budget owned by someone else")
	fs.StringVar(&cfg.App.Passphrase, "passphrase", "", "Budget passphrase used to derive the encryption key")
	fs.StringVar(&cfg.App.KeySalt, "key-salt", "", "Key derivation salt shared by all devices of the budget")
	fs.StringVar(&cfg.App.DeviceName, "device", "", "Device name recorded on remote writes")
	fs.StringVarP(&cfg.Storage.DB.DSN, "db", "d", "", "Local sqlite database path")
	fs.StringVar(&cfg.Storage.BackupDir, "backup-dir", "", "Backup directory (empty keeps backups in memory)")
	fs.StringVar(&cfg.Remote.Backend, "remote", "", "Remote backend: memory, http or s3")
	fs.StringVarP(&cfg.Remote.HTTPAddress, "remote-address", "a", "", "Document server URL")
	fs.StringVar(&cfg.Remote.Token, "remote-token", "", "Document server bearer token")
	fs.Var(&addressValue{dst: &cfg.Remote.GRPCAddress}, "grpc-address", "Document server gRPC address host:port")
	fs.DurationVar(&cfg.Remote.RequestTimeout, "request-timeout", 0, "Remote request timeout (e.g., 15s)")
	fs.IntVar(&cfg.Remote.ChunkSizeBytes, "chunk-size", 0, "Maximum encoded chunk size in bytes")
	fs.StringVar(&cfg.Remote.S3.Bucket, "s3-bucket", "", "S3 bucket")
	fs.StringVar(&cfg.Remote.S3.Region, "s3-region", "", "S3 region")
	fs.StringVar(&cfg.Remote.S3.Endpoint, "s3-endpoint", "", "S3 endpoint override")
	fs.StringVar(&cfg.Remote.S3.Prefix, "s3-prefix", "", "S3 key prefix")
	fs.BoolVar(&cfg.Remote.S3.UsePathStyle, "s3-path-style", false, "Use path-style S3 addressing")
	fs.DurationVar(&cfg.Sync.CriticalDelay, "critical-delay", 0, "Debounce delay for critical changes")
	fs.DurationVar(&cfg.Sync.RoutineDelay, "routine-delay", 0, "Debounce delay for routine changes")
	fs.DurationVar(&cfg.Sync.PeriodicInterval, "periodic-interval", 0, "Interval of periodic syncs")
	fs.Var(&addressValue{dst: &cfg.Debug.HTTPAddress}, "debug-address", "Debug API address host:port")
	fs.StringVar(&cfg.Log.Level, "log-level", "", "Log level")
	fs.StringVar(&cfg.Log.File, "log-file", "", "Log file (rotated)")

	return cfg
}

// BindServerFlags registers the docserver flags on fs.
//
// Flags:
//
//	-a/--address server address in format [host]:[port]
//	--grpc-address grpc health server address in format [host]:[port]
//	-d/--db postgres DSN (empty serves from memory)
//	-c/--config json file path with configs
//	--token-sign-key, --token-issuer, --token-duration token settings
//	--request-timeout request timeout (e.g., "30s", "1m")
func BindServerFlags(fs *pflag.FlagSet) *StructuredConfig {
	cfg := &StructuredConfig{}

	fs.VarP(&addressValue{dst: &cfg.Server.HTTPAddress}, "address", "a", "Net address host:port")
	fs.Var(&addressValue{dst: &cfg.Server.GRPCAddress}, "grpc-address", "Net grpc server address host:port")
	fs.StringVarP(&cfg.Storage.DB.DSN, "db", "d", "", "Postgres DSN")
	fs.StringVarP(&cfg.JSONFilePath, "config", "c", "", "JSON config file path")
	fs.StringVar(&cfg.App.TokenSignKey, "token-sign-key", "", "Token signing key")
	fs.StringVar(&cfg.App.TokenIssuer, "token-issuer", "", "Token issuer")
	fs.DurationVar(&cfg.App.TokenDuration, "token-duration", 0, "Token duration (e.g., 1h, 30m)")
	fs.DurationVar(&cfg.Server.RequestTimeout, "request-timeout", 0, "Request timeout (e.g., 30s, 1m)")
	fs.StringVar(&cfg.Log.Level, "log-level", "", "Log level")

	return cfg
}

// addressValue is a pflag.Value that validates host:port input and stores
// the canonical form in dst.
type addressValue struct {
	dst *string
}

func (v *addressValue) String() string {
	if v.dst == nil {
		return ""
	}
	return *v.dst
}

func (v *addressValue) Set(s string) error {
	var a NetAddress
	if err := a.Set(s); err != nil {
		return err
	}
	*v.dst = a.String()
	return nil
}

func (v *addressValue) Type() string { return "host:port" }

// String returns a canonical host:port string for a NetAddress.
func (a *NetAddress) String() string {
	if a.Host == "" && a.Port == 0 {
		return ""
	}

	return a.Host + ":" + strconv.Itoa(a.Port)
}

// Set parses the input string of form host:port and populates the NetAddress.
// It validates the port range, checks IP correctness unless host is "localhost"
// or empty, and returns an error if the format or values are invalid.
func (a *NetAddress) Set(s string) error {
	hostAndPort := strings.Split(s, ":")
	if len(hostAndPort) != 2 {
		return errors.New("need address in a form `host:port`")
	}

	host := hostAndPort[0]
	port, err := strconv.Atoi(hostAndPort[1])
	if err != nil {
		return err
	}

	if port < 1 || port > 65535 {
		return errors.New("port number must be in range 1-65535")
	}

	if host != "localhost" && host != "" {
		ip := net.ParseIP(host)
		if ip == nil {
			return errors.New("incorrect IP-address provided")
		}
	}

	a.Host = host
	a.Port = port
	return nil
}
