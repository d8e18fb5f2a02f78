package broker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/coder/quartz"
)

const (
	// DefaultTTL is how long an untouched queue survives. Every push
	// refreshes it, so only abandoned queues expire.
	DefaultTTL = 300 * time.Second

	// pollInterval is the cooperative poll spacing while waiting for a
	// message.
	pollInterval = 10 * time.Millisecond
)

// MessageQueue is a named JSON FIFO over a Broker.
type MessageQueue struct {
	name   string
	broker Broker
	clock  quartz.Clock
	ttl    time.Duration
}

// QueueOption configures a MessageQueue.
type QueueOption func(*MessageQueue)

// WithClock sets the clock used for pop deadlines and poll pacing.
func WithClock(clock quartz.Clock) QueueOption {
	return func(q *MessageQueue) {
		q.clock = clock
	}
}

// WithTTL overrides the queue expiry refreshed on each push.
func WithTTL(ttl time.Duration) QueueOption {
	return func(q *MessageQueue) {
		q.ttl = ttl
	}
}

// NewMessageQueue creates a queue with the given name.
func NewMessageQueue(b Broker, name string, opts ...QueueOption) *MessageQueue {
	q := &MessageQueue{
		name:   name,
		broker: b,
		clock:  quartz.NewReal(),
		ttl:    DefaultTTL,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Name returns the queue name.
func (q *MessageQueue) Name() string { return q.name }

// Push serializes msg as JSON and appends it to the queue, refreshing the
// queue's expiry.
func (q *MessageQueue) Push(ctx context.Context, msg any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return &FormatError{Queue: q.name, Err: err}
	}
	if err := q.broker.Push(ctx, q.name, payload, q.ttl); err != nil {
		return &BrokerError{Op: "push", Queue: q.name, Err: err}
	}
	return nil
}

// Pop removes the oldest message, polling until one arrives or the deadline
// passes. A zero deadline waits indefinitely. The payload must be valid
// JSON; anything else is a FormatError.
func (q *MessageQueue) Pop(ctx context.Context, deadline time.Time) (json.RawMessage, error) {
	for deadline.IsZero() || q.clock.Now().Before(deadline) {
		payload, ok, err := q.broker.Pop(ctx, q.name)
		if err != nil {
			return nil, &BrokerError{Op: "pop", Queue: q.name, Err: err}
		}
		if ok {
			if !json.Valid(payload) {
				return nil, &FormatError{Queue: q.name, Err: errInvalidJSON}
			}
			return json.RawMessage(payload), nil
		}
		timer := q.clock.NewTimer(pollInterval)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		}
	}
	return nil, ErrTimeout
}

var errInvalidJSON = errors.New("unable to decode the JSON message")
