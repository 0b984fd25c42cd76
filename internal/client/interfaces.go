// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package client

import "context"

// Client defines the lifecycle contract of the long-running sync client.
type Client interface {
	// Run starts the client and blocks until ctx is done.
	Run(ctx context.Context) error

	// Close releases every resource held by the client.
	Close() error
}

var _ Client = (*App)(nil)
