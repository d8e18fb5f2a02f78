package broker

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBroker implements Broker over Redis lists: LPUSH/EXPIRE on push,
// RPOP on pop.
type RedisBroker struct {
	client redis.Cmdable
}

// NewRedisBroker wraps an existing Redis client.
func NewRedisBroker(client redis.Cmdable) *RedisBroker {
	return &RedisBroker{client: client}
}

// Push appends the payload to the left of the list and refreshes its expiry
// in one round trip.
func (b *RedisBroker) Push(ctx context.Context, queue string, payload []byte, ttl time.Duration) error {
	pipe := b.client.Pipeline()
	pipe.LPush(ctx, queue, payload)
	pipe.Expire(ctx, queue, ttl)
	_, err := pipe.Exec(ctx)
	return err
}

// Pop removes the rightmost (oldest) payload, reporting false when the list
// is empty or missing.
func (b *RedisBroker) Pop(ctx context.Context, queue string) ([]byte, bool, error) {
	payload, err := b.client.RPop(ctx, queue).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return payload, true, nil
}
