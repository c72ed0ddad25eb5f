package messaging

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/internal/infrastructure/persistence/redis"
)

// CacheClient adapts the shared Redis cache connection to RedisClient.
type CacheClient struct {
	cache *redis.Cache
	subs  []*goredis.PubSub
}

// NewCacheClient wraps a Redis cache for use by RedisEventBus.
func NewCacheClient(cache *redis.Cache) *CacheClient {
	return &CacheClient{cache: cache}
}

// BusChannel returns the channel all hifz events are published on.
func BusChannel(cache *redis.Cache) string {
	return cache.EventChannel("all")
}

// Publish implements RedisClient.
func (c *CacheClient) Publish(ctx context.Context, channel string, message []byte) error {
	return c.cache.Publish(ctx, channel, message)
}

// Subscribe implements RedisClient. The returned channel is closed when ctx
// is cancelled or the subscription is closed.
func (c *CacheClient) Subscribe(ctx context.Context, channels ...string) (<-chan RedisMessage, error) {
	pubsub := c.cache.Subscribe(ctx, channels...)

	// Wait for the subscription confirmation so errors surface here.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe %v: %w", channels, err)
	}
	c.subs = append(c.subs, pubsub)

	out := make(chan RedisMessage)
	go func() {
		defer close(out)
		in := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-in:
				if !ok {
					return
				}
				select {
				case out <- RedisMessage{Channel: msg.Channel, Payload: msg.Payload}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// Close closes the subscriptions. The underlying cache connection is owned
// by the caller.
func (c *CacheClient) Close() error {
	var firstErr error
	for _, sub := range c.subs {
		if err := sub.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	c.subs = nil
	return firstErr
}
