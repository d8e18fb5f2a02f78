package broker

import (
	"context"
	"encoding/json"
	"time"
)

// Channel pairs two queues into a bidirectional session link: messages go
// out on one queue and arrive on the other. Server and client construct
// channels over the same pair with the directions swapped.
type Channel struct {
	in  *MessageQueue
	out *MessageQueue
}

// NewChannel creates a channel reading from inName and writing to outName.
func NewChannel(b Broker, inName, outName string, opts ...QueueOption) *Channel {
	return &Channel{
		in:  NewMessageQueue(b, inName, opts...),
		out: NewMessageQueue(b, outName, opts...),
	}
}

// Send pushes a message on the outbound queue.
func (c *Channel) Send(ctx context.Context, msg any) error {
	return c.out.Push(ctx, msg)
}

// Recv pops the oldest message from the inbound queue, waiting until the
// deadline. A zero deadline waits indefinitely.
func (c *Channel) Recv(ctx context.Context, deadline time.Time) (json.RawMessage, error) {
	return c.in.Pop(ctx, deadline)
}

// InName returns the inbound queue name.
func (c *Channel) InName() string { return c.in.Name() }

// OutName returns the outbound queue name.
func (c *Channel) OutName() string { return c.out.Name() }
