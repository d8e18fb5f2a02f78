package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/pokerd/internal/broker"
	"github.com/lox/pokerd/internal/protocol"
)

// ProbeTimeout bounds the ping and readiness probe replies.
const ProbeTimeout = 2 * time.Second

// ErrClientDisconnected is wrapped in a BrokerError when a disconnect
// envelope arrives on recv, so engine code treats peer loss uniformly.
var ErrClientDisconnected = errors.New("client disconnected")

// PlayerEndpoint binds a Player to its session channel. All engine traffic
// to and from the seat goes through here. A rejoin can rebind the channel
// from the room goroutine while the engine is blocked reading it, so the
// channel and connected flag are guarded by a mutex; a receive in flight
// keeps draining the queue it started on.
type PlayerEndpoint struct {
	*Player
	mu        sync.Mutex
	channel   *broker.Channel
	connected bool
	clock     quartz.Clock
	logger    *log.Logger
}

// NewPlayerEndpoint creates a connected endpoint.
func NewPlayerEndpoint(player *Player, channel *broker.Channel, clock quartz.Clock, logger *log.Logger) *PlayerEndpoint {
	return &PlayerEndpoint{
		Player:    player,
		channel:   channel,
		connected: true,
		clock:     clock,
		logger:    logger.WithPrefix("endpoint").With("player", player.ID()),
	}
}

// Connected reports whether the endpoint still has a live channel.
func (e *PlayerEndpoint) Connected() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.connected
}

// Channel returns the bound session channel.
func (e *PlayerEndpoint) Channel() *broker.Channel {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.channel
}

// Send pushes a message onto the player's outbound queue.
func (e *PlayerEndpoint) Send(ctx context.Context, msg any) error {
	return e.Channel().Send(ctx, msg)
}

// TrySend pushes a message, swallowing broker errors. Used for broadcasts
// where one dead endpoint must not abort the hand.
func (e *PlayerEndpoint) TrySend(ctx context.Context, msg any) bool {
	if err := e.Send(ctx, msg); err != nil {
		e.logger.Debug("Dropping undeliverable message", "error", err)
		return false
	}
	return true
}

// Recv pops the next inbound message. A disconnect envelope is converted
// into a BrokerError so callers handle peer loss like a transport failure.
func (e *PlayerEndpoint) Recv(ctx context.Context, deadline time.Time) (json.RawMessage, error) {
	channel := e.Channel()
	raw, err := channel.Recv(ctx, deadline)
	if err != nil {
		return nil, err
	}
	var envelope protocol.Envelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, &broker.FormatError{Queue: channel.InName(), Err: err}
	}
	if envelope.MessageType == protocol.TypeDisconnect {
		return nil, &broker.BrokerError{Op: "recv", Queue: channel.InName(), Err: ErrClientDisconnected}
	}
	return raw, nil
}

// Ping probes the client with a 2 s pong deadline. Any failure marks the
// endpoint disconnected.
func (e *PlayerEndpoint) Ping(ctx context.Context) bool {
	if err := e.probe(ctx, protocol.TypePing, protocol.TypePong, nil); err != nil {
		e.logger.Error("Unable to ping player", "error", err)
		e.Disconnect(ctx)
		return false
	}
	return true
}

// RefreshReady probes the client's readiness with a 2 s deadline. A ready
// reply latches the flag; it is cleared by the engine at hand end.
func (e *PlayerEndpoint) RefreshReady(ctx context.Context) bool {
	var reply protocol.ReadyStateChange
	if err := e.probe(ctx, protocol.TypePingState, protocol.TypeReadyStateChange, &reply); err != nil {
		e.logger.Error("Unable to refresh ready state", "error", err)
		return false
	}
	if reply.Ready {
		e.SetReady(true)
	}
	return true
}

func (e *PlayerEndpoint) probe(ctx context.Context, sendType, wantType string, reply any) error {
	channel := e.Channel()
	if err := channel.Send(ctx, protocol.Envelope{MessageType: sendType}); err != nil {
		return err
	}
	raw, err := channel.Recv(ctx, e.clock.Now().Add(ProbeTimeout))
	if err != nil {
		return err
	}
	var envelope protocol.Envelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return &broker.FormatError{Queue: channel.InName(), Err: err}
	}
	if envelope.MessageType == protocol.TypeDisconnect {
		return &broker.BrokerError{Op: "recv", Queue: channel.InName(), Err: ErrClientDisconnected}
	}
	if envelope.MessageType != wantType {
		return &broker.FormatError{
			Queue: channel.InName(),
			Err:   fmt.Errorf("expected %q message, got %q", wantType, envelope.MessageType),
		}
	}
	if reply != nil {
		if err := json.Unmarshal(raw, reply); err != nil {
			return &broker.FormatError{Queue: channel.InName(), Err: err}
		}
	}
	return nil
}

// Disconnect sends a best-effort disconnect envelope and drops the channel.
// The session queues expire via their TTL.
func (e *PlayerEndpoint) Disconnect(ctx context.Context) {
	e.mu.Lock()
	if !e.connected {
		e.mu.Unlock()
		return
	}
	e.connected = false
	channel := e.channel
	e.mu.Unlock()

	if err := channel.Send(ctx, protocol.Envelope{MessageType: protocol.TypeDisconnect}); err != nil {
		e.logger.Debug("Dropping undeliverable message", "error", err)
	}
}

// UpdateChannel rebinds the endpoint to a rejoining session's channel,
// disconnecting the old one first. Identity and chip state are preserved.
func (e *PlayerEndpoint) UpdateChannel(ctx context.Context, next *PlayerEndpoint) {
	e.Disconnect(ctx)
	channel, connected := next.Channel(), next.Connected()
	e.mu.Lock()
	e.channel = channel
	e.connected = connected
	e.mu.Unlock()
}
