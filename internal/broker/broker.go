// Package broker provides named FIFO message queues over a pluggable
// transport. The production transport is Redis lists; an in-memory broker
// backs tests.
package broker

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Broker is the queue transport. Push appends a payload to the left of a
// named queue and refreshes its expiry; Pop removes the rightmost payload,
// reporting false when the queue is empty.
type Broker interface {
	Push(ctx context.Context, queue string, payload []byte, ttl time.Duration) error
	Pop(ctx context.Context, queue string) ([]byte, bool, error)
}

// ErrTimeout is returned when a pop deadline passes without a message.
var ErrTimeout = errors.New("timed out waiting for a message")

// FormatError reports a payload that could not be encoded or decoded as JSON.
type FormatError struct {
	Queue string
	Err   error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("malformed message on queue %q: %v", e.Queue, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// BrokerError reports a transport failure.
type BrokerError struct {
	Op    string
	Queue string
	Err   error
}

func (e *BrokerError) Error() string {
	return fmt.Sprintf("broker %s on queue %q: %v", e.Op, e.Queue, e.Err)
}

func (e *BrokerError) Unwrap() error { return e.Err }
