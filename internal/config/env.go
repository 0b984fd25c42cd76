// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"fmt"

	"dario.cat/mergo"
	"github.com/caarlos0/env/v11"
)

// EnvPrefix namespaces variables so they cannot collide with generic names
// like LOG_LEVEL. ENVELOPE_SYNC_APP_BUDGET_ID wins over APP_BUDGET_ID.
const EnvPrefix = "ENVELOPE_SYNC_"

// parseEnv fills cfg from the unprefixed variables named by the `env` and
// `envPrefix` tags, then lays the [EnvPrefix] variables over them.
func parseEnv(cfg *StructuredConfig) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("error getting env configs: %w", err)
	}

	prefixed := &StructuredConfig{}
	if err := env.ParseWithOptions(prefixed, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("error getting env configs (%s): %w", EnvPrefix, err)
	}

	if err := mergo.Merge(cfg, prefixed, mergo.WithOverride); err != nil {
		return fmt.Errorf("error merging prefixed env configs: %w", err)
	}
	return nil
}
