package service

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/MKhiriev/envelope-sync/internal/logger"
	"github.com/MKhiriev/envelope-sync/models"
)

// Event topics.
const (
	// TopicDataMutated carries a models.Trigger for every local write that
	// should lead to a sync.
	TopicDataMutated = "data.mutated"

	// TopicDataChanged announces that a sync replaced local data, so cached
	// derived values must be dropped.
	TopicDataChanged = "data.changed"
)

type dataChangedEvent struct {
	Reason string `json:"reason"`
}

// eventBus is an in-process watermill pub/sub.
type eventBus struct {
	pubsub *gochannel.GoChannel
	logger *logger.Logger
}

// NewEventBus builds the in-process event bus.
func NewEventBus(log *logger.Logger) EventBus {
	return &eventBus{
		pubsub: gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 16}, newWatermillLogger(log)),
		logger: log,
	}
}

func (b *eventBus) PublishMutation(ctx context.Context, trigger models.Trigger) error {
	return b.publish(ctx, TopicDataMutated, trigger)
}

func (b *eventBus) PublishDataChanged(ctx context.Context, reason string) error {
	return b.publish(ctx, TopicDataChanged, dataChangedEvent{Reason: reason})
}

func (b *eventBus) publish(ctx context.Context, topic string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", topic, err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	if err = b.pubsub.Publish(topic, msg); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}
	return nil
}

// SubscribeMutations calls fn for every mutation trigger until ctx is done.
func (b *eventBus) SubscribeMutations(ctx context.Context, fn func(models.Trigger)) error {
	return b.subscribe(ctx, TopicDataMutated, func(payload []byte) error {
		var trigger models.Trigger
		if err := json.Unmarshal(payload, &trigger); err != nil {
			return err
		}
		fn(trigger)
		return nil
	})
}

// SubscribeDataChanged calls fn with the reason of every data-changed event
// until ctx is done.
func (b *eventBus) SubscribeDataChanged(ctx context.Context, fn func(reason string)) error {
	return b.subscribe(ctx, TopicDataChanged, func(payload []byte) error {
		var event dataChangedEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			return err
		}
		fn(event.Reason)
		return nil
	})
}

func (b *eventBus) subscribe(ctx context.Context, topic string, handle func([]byte) error) error {
	messages, err := b.pubsub.Subscribe(ctx, topic)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}

	go func() {
		for msg := range messages {
			if err := handle(msg.Payload); err != nil {
				b.logger.Err(err).Str("func", "eventBus.subscribe").Str("topic", topic).Msg("dropping malformed event")
			}
			msg.Ack()
		}
	}()
	return nil
}

func (b *eventBus) Close() error {
	return b.pubsub.Close()
}

// watermillLogger adapts the zerolog logger to watermill.
type watermillLogger struct {
	log zerolog.Logger
}

func newWatermillLogger(log *logger.Logger) watermill.LoggerAdapter {
	if log == nil {
		log = logger.Nop()
	}
	return watermillLogger{log: log.With().Str("component", "watermill").Logger()}
}

func (l watermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	l.log.Error().Err(err).Fields(map[string]any(fields)).Msg(msg)
}

func (l watermillLogger) Info(msg string, fields watermill.LogFields) {
	l.log.Info().Fields(map[string]any(fields)).Msg(msg)
}

func (l watermillLogger) Debug(msg string, fields watermill.LogFields) {
	l.log.Debug().Fields(map[string]any(fields)).Msg(msg)
}

func (l watermillLogger) Trace(msg string, fields watermill.LogFields) {
	l.log.Trace().Fields(map[string]any(fields)).Msg(msg)
}

func (l watermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return watermillLogger{log: l.log.With().Fields(map[string]any(fields)).Logger()}
}
