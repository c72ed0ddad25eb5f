package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/internal/domain/shared"
	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/pkg/retry"
)

// RedisClient is the pub/sub surface RedisEventBus needs.
type RedisClient interface {
	Publish(ctx context.Context, channel string, message []byte) error
	Subscribe(ctx context.Context, channels ...string) (<-chan RedisMessage, error)
	Close() error
}

// RedisMessage is one pub/sub delivery. Err is set on transport errors.
type RedisMessage struct {
	Channel string
	Payload string
	Err     error
}

type RedisEventBusConfig struct {
	Client RedisClient

	// ChannelName defaults to "hifz:events".
	ChannelName string

	// InstanceID tags outgoing envelopes so an instance can drop its own
	// events when they come back from Redis. Defaults to a random UUID.
	InstanceID string

	LocalBusConfig InMemoryEventBusConfig
	Logger         *slog.Logger
}

// RedisEventBus delivers to local handlers first and then fans the event
// out over one Redis channel to every other instance.
type RedisEventBus struct {
	local      *InMemoryEventBus
	client     RedisClient
	channel    string
	instanceID string
	retrier    *retry.Retrier
	logger     *slog.Logger

	stop    context.CancelFunc
	ctx     context.Context
	reader  sync.WaitGroup
	closeMu sync.Once
}

func NewRedisEventBus(cfg RedisEventBusConfig) (*RedisEventBus, error) {
	if cfg.Client == nil {
		return nil, errors.New("redis client is required")
	}
	if cfg.ChannelName == "" {
		cfg.ChannelName = "hifz:events"
	}
	if cfg.InstanceID == "" {
		cfg.InstanceID = uuid.NewString()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.LocalBusConfig.Logger == nil {
		cfg.LocalBusConfig.Logger = cfg.Logger
	}

	ctx, stop := context.WithCancel(context.Background())
	b := &RedisEventBus{
		local:      NewInMemoryEventBus(cfg.LocalBusConfig),
		client:     cfg.Client,
		channel:    cfg.ChannelName,
		instanceID: cfg.InstanceID,
		retrier:    retry.PublishRetrier(func(error) bool { return true }),
		logger:     cfg.Logger.With("instance_id", cfg.InstanceID),
		ctx:        ctx,
		stop:       stop,
	}

	inbox, err := b.client.Subscribe(ctx, b.channel)
	if err != nil {
		stop()
		return nil, fmt.Errorf("subscribe %s: %w", b.channel, err)
	}
	b.reader.Add(1)
	go b.read(inbox)

	return b, nil
}

func (b *RedisEventBus) Subscribe(eventType shared.EventType, handler shared.EventHandler) error {
	return b.local.Subscribe(eventType, handler)
}

func (b *RedisEventBus) SubscribeAll(handler shared.EventHandler) error {
	return b.local.SubscribeAll(handler)
}

// Publish delivers locally, then to Redis with retries. The Redis error wins
// over a local handler error because it means other instances missed it.
func (b *RedisEventBus) Publish(event shared.Event) error {
	if event == nil {
		return errNilEvent
	}
	if b.ctx.Err() != nil {
		return ErrEventBusClosed
	}

	data, err := encodeEvent(b.instanceID, event)
	if err != nil {
		return err
	}

	localErr := b.local.Publish(event)

	err = b.retrier.Do(b.ctx, func(ctx context.Context) error {
		return b.client.Publish(ctx, b.channel, data)
	})
	if err != nil {
		b.logger.Error("redis publish failed",
			"event_type", event.EventType(),
			"learner_id", event.AggregateID(),
			"error", err,
		)
		return fmt.Errorf("publish to redis: %w", err)
	}
	return localErr
}

func (b *RedisEventBus) read(inbox <-chan RedisMessage) {
	defer b.reader.Done()
	for {
		select {
		case <-b.ctx.Done():
			return
		case msg, ok := <-inbox:
			if !ok {
				return
			}
			if msg.Err != nil {
				b.logger.Error("redis subscription error", "error", msg.Err)
				continue
			}
			b.deliverRemote(msg.Payload)
		}
	}
}

func (b *RedisEventBus) deliverRemote(payload string) {
	var wire wireEvent
	if err := json.Unmarshal([]byte(payload), &wire); err != nil {
		b.logger.Warn("dropping malformed event", "error", err)
		return
	}
	if wire.InstanceID == b.instanceID {
		return
	}
	if err := b.local.Publish(wire.event()); err != nil {
		b.logger.Error("remote event handler failed", "event_type", wire.Type, "error", err)
	}
}

// Close stops the reader, drains the local bus and closes the subscription.
func (b *RedisEventBus) Close() error {
	b.closeMu.Do(func() {
		b.stop()
		b.reader.Wait()
		_ = b.local.Close()
		if err := b.client.Close(); err != nil {
			b.logger.Warn("closing redis subscription", "error", err)
		}
	})
	return nil
}

func (b *RedisEventBus) Metrics() *EventBusMetrics {
	return b.local.Metrics()
}

// wireEvent is the JSON published on the bus channel.
type wireEvent struct {
	InstanceID string `json:"instance_id"`
	shared.EventEnvelope
}

func encodeEvent(instanceID string, event shared.Event) ([]byte, error) {
	payload, err := json.Marshal(event.Payload())
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", event.EventType(), err)
	}

	env := shared.EventEnvelope{
		ID:          uuid.NewString(),
		Type:        event.EventType(),
		AggregateID: event.AggregateID(),
		Timestamp:   event.OccurredAt(),
		Version:     1,
		Payload:     payload,
	}
	if c, ok := event.(interface{ Correlation() string }); ok {
		env.CorrelationID = c.Correlation()
	}

	return json.Marshal(wireEvent{InstanceID: instanceID, EventEnvelope: env})
}

func (w wireEvent) event() shared.Event {
	var payload map[string]interface{}
	_ = json.Unmarshal(w.Payload, &payload)
	return &RemoteEvent{
		BaseEvent: shared.BaseEvent{
			Type:          w.Type,
			Timestamp:     w.Timestamp,
			AggregateId:   w.AggregateID,
			Version:       w.Version,
			CorrelationID: w.CorrelationID,
		},
		payload: payload,
	}
}

// RemoteEvent arrived from another instance. Numbers in its payload decode
// as float64.
type RemoteEvent struct {
	shared.BaseEvent
	payload map[string]interface{}
}

func (e *RemoteEvent) Payload() map[string]interface{} {
	return e.payload
}
