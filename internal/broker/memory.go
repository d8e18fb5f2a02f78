package broker

import (
	"context"
	"sync"
	"time"
)

// MemoryBroker is an in-process Broker for tests: plain slices guarded by a
// mutex, no expiry.
type MemoryBroker struct {
	mu     sync.Mutex
	queues map[string][][]byte
}

// NewMemoryBroker creates an empty in-memory broker.
func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{queues: make(map[string][][]byte)}
}

// Push appends to the left of the queue. The ttl is ignored.
func (b *MemoryBroker) Push(_ context.Context, queue string, payload []byte, _ time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	buf := make([]byte, len(payload))
	copy(buf, payload)
	b.queues[queue] = append([][]byte{buf}, b.queues[queue]...)
	return nil
}

// Pop removes from the right of the queue.
func (b *MemoryBroker) Pop(_ context.Context, queue string) ([]byte, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	items := b.queues[queue]
	if len(items) == 0 {
		return nil, false, nil
	}
	payload := items[len(items)-1]
	b.queues[queue] = items[:len(items)-1]
	return payload, true, nil
}

// Len reports the number of pending messages on a queue.
func (b *MemoryBroker) Len(queue string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queues[queue])
}
