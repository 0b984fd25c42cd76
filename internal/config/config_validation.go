// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// validate checks the merged [StructuredConfig] before it is narrowed into a
// view. Only cross-cutting rules live here; the views carry field rules.
func (cfg *StructuredConfig) validate() error {
	if cfg.Remote.ChunkSizeBytes < 0 {
		return fmt.Errorf("%w: negative chunk size", ErrInvalidRemoteConfigs)
	}
	return nil
}

func (cfg *ClientConfig) validate() error {
	if err := mapValidationErrors(validate.Struct(cfg)); err != nil {
		return err
	}

	if cfg.Remote.Backend == BackendS3 && cfg.Remote.S3.Bucket == "" {
		return fmt.Errorf("%w: s3 backend requires a bucket", ErrInvalidRemoteConfigs)
	}

	if cfg.Remote.Backend != BackendMemory && cfg.App.Passphrase == "" {
		return fmt.Errorf("%w: passphrase is required for the %s backend", ErrInvalidAppConfigs, cfg.Remote.Backend)
	}

	return nil
}

func (cfg *ServerConfig) validate() error {
	return mapValidationErrors(validate.Struct(cfg))
}

// groupErrors maps the top-level field of a view to its sentinel error.
var groupErrors = map[string]error{
	"App":     ErrInvalidAppConfigs,
	"Remote":  ErrInvalidRemoteConfigs,
	"Storage": ErrInvalidStorageConfigs,
	"Sync":    ErrInvalidSyncConfigs,
	"Debug":   ErrInvalidServerConfigs,
	"Server":  ErrInvalidServerConfigs,
	"Log":     ErrInvalidLogConfigs,
}

func mapValidationErrors(err error) error {
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	var joined error
	for _, fe := range verrs {
		// StructNamespace is "ClientConfig.Remote.HTTPAddress"
		parts := strings.SplitN(fe.StructNamespace(), ".", 3)
		sentinel := ErrInvalidAppConfigs
		if len(parts) > 1 {
			if e, ok := groupErrors[parts[1]]; ok {
				sentinel = e
			}
		}
		joined = errors.Join(joined, fmt.Errorf("%w: %s failed on %q", sentinel, fe.StructNamespace(), fe.Tag()))
	}
	return joined
}
