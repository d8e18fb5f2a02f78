package game

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/require"

	"github.com/lox/pokerd/internal/broker"
	"github.com/lox/pokerd/internal/protocol"
)

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

func newTestEndpoint(b *broker.MemoryBroker, id string, chips, loans int) *PlayerEndpoint {
	ch := broker.NewChannel(b, "poker:player-"+id+":I", "poker:player-"+id+":O")
	return NewPlayerEndpoint(NewPlayer(id, "Player "+id, chips, loans), ch, quartz.NewReal(), testLogger())
}

// queueClientMessage simulates the client by pushing onto the endpoint's
// inbound queue.
func queueClientMessage(t *testing.T, b *broker.MemoryBroker, ep *PlayerEndpoint, msg any) {
	t.Helper()
	q := broker.NewMessageQueue(b, ep.Channel().InName())
	require.NoError(t, q.Push(context.Background(), msg))
}

func queueBet(t *testing.T, b *broker.MemoryBroker, ep *PlayerEndpoint, bet int) {
	t.Helper()
	queueClientMessage(t, b, ep, protocol.BetMessage{MessageType: protocol.TypeBet, Bet: &bet})
}

// popClientMessage simulates the client by popping from the endpoint's
// outbound queue.
func popClientMessage(t *testing.T, b *broker.MemoryBroker, ep *PlayerEndpoint) []byte {
	t.Helper()
	q := broker.NewMessageQueue(b, ep.Channel().OutName())
	raw, err := q.Pop(context.Background(), time.Now().Add(100*time.Millisecond))
	require.NoError(t, err)
	return raw
}

func endpointIDs(players []*PlayerEndpoint) []string {
	out := make([]string, len(players))
	for i, p := range players {
		out[i] = p.ID()
	}
	return out
}

// eventRecorder captures published game events in order.
type eventRecorder struct {
	events []Event
}

func (r *eventRecorder) OnGameEvent(event Event) {
	r.events = append(r.events, event)
}

func (r *eventRecorder) names() []string {
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Name
	}
	return out
}

func (r *eventRecorder) byName(name string) []Event {
	var out []Event
	for _, e := range r.events {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}
