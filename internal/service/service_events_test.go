package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/envelope-sync/internal/logger"
	"github.com/MKhiriev/envelope-sync/models"
)

func TestEventBus_FanOut(t *testing.T) {
	bus := NewEventBus(logger.Nop())
	t.Cleanup(func() { bus.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	first := make(chan string, 2)
	second := make(chan string, 2)
	require.NoError(t, bus.SubscribeDataChanged(ctx, func(reason string) { first <- reason }))
	require.NoError(t, bus.SubscribeDataChanged(ctx, func(reason string) { second <- reason }))

	require.NoError(t, bus.PublishDataChanged(ctx, "merge"))

	for _, ch := range []chan string{first, second} {
		select {
		case reason := <-ch:
			assert.Equal(t, "merge", reason)
		case <-time.After(2 * time.Second):
			t.Fatal("subscriber did not receive data.changed")
		}
	}
}

func TestEventBus_TopicsAreSeparate(t *testing.T) {
	bus := NewEventBus(logger.Nop())
	t.Cleanup(func() { bus.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	mutations := make(chan models.Trigger, 1)
	require.NoError(t, bus.SubscribeMutations(ctx, func(tr models.Trigger) { mutations <- tr }))

	require.NoError(t, bus.PublishDataChanged(ctx, "pull"))
	require.NoError(t, bus.PublishMutation(ctx, models.Trigger{Kind: models.TriggerPaycheck, Reason: "paycheck"}))

	select {
	case tr := <-mutations:
		assert.Equal(t, models.TriggerPaycheck, tr.Kind)
		assert.Equal(t, "paycheck", tr.Reason)
	case <-time.After(2 * time.Second):
		t.Fatal("mutation not delivered")
	}
	assert.Empty(t, mutations)
}
