package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/MKhiriev/envelope-sync/internal/logger"
	"github.com/MKhiriev/envelope-sync/internal/store"
)

// CountCacheInvalidator drops the local count cache whenever a data.changed
// event is published, so writers that bypass the store API (imports, pulls,
// restores) never leave stale counts behind.
type CountCacheInvalidator struct {
	events EventBus
	local  store.LocalStore
	logger *logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
}

func NewCountCacheInvalidator(events EventBus, local store.LocalStore, log *logger.Logger) *CountCacheInvalidator {
	return &CountCacheInvalidator{events: events, local: local, logger: log}
}

func (c *CountCacheInvalidator) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		return ErrAlreadyStarted
	}

	subCtx, cancel := context.WithCancel(ctx)
	err := c.events.SubscribeDataChanged(subCtx, func(reason string) {
		c.local.InvalidateCache()
		c.logger.Debug().Str("func", "CountCacheInvalidator").Str("reason", reason).Msg("count cache invalidated")
	})
	if err != nil {
		cancel()
		return fmt.Errorf("start count cache invalidator: %w", err)
	}

	c.cancel = cancel
	return nil
}

func (c *CountCacheInvalidator) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}
