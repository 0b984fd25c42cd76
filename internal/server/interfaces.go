package server

import "context"

// Server defines the common lifecycle contract for transport servers managed
// by this package.
type Server interface {
	// Run starts serving and blocks until ctx is done or a listener fails.
	// Servers are shut down gracefully before Run returns.
	Run(ctx context.Context) error
}
