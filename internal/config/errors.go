package config

import "errors"

// Validation errors returned when required configuration groups are
// incomplete or invalid. Failures of the validator are wrapped in the error
// of the group the offending field belongs to.
var (
	// ErrInvalidRemoteConfigs indicates invalid remote store settings
	// (for example, http backend without an address).
	ErrInvalidRemoteConfigs = errors.New("invalid remote configuration")
	// ErrInvalidStorageConfigs indicates invalid storage settings
	// (for example, empty DSN).
	ErrInvalidStorageConfigs = errors.New("invalid storage configuration")
	// ErrInvalidAppConfigs indicates invalid application-level settings
	// (for example, missing budget id or token sign key).
	ErrInvalidAppConfigs = errors.New("invalid app configuration")
	// ErrInvalidSyncConfigs indicates invalid scheduler settings
	// (for example, zero debounce delay).
	ErrInvalidSyncConfigs = errors.New("invalid sync configuration")
	// ErrInvalidServerConfigs indicates invalid document server settings.
	ErrInvalidServerConfigs = errors.New("invalid server configuration")
	// ErrInvalidLogConfigs indicates invalid logging settings.
	ErrInvalidLogConfigs = errors.New("invalid log configuration")
)
