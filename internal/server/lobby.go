package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/pokerd/internal/broker"
	"github.com/lox/pokerd/internal/game"
	"github.com/lox/pokerd/internal/gameid"
	"github.com/lox/pokerd/internal/protocol"
)

// Lobby consumes the well-known connection queue, admits players and routes
// them to rooms. Each admitted session gets its own queue pair named
// poker:player-{id}:session-{sid}:{I|O}.
type Lobby struct {
	serverID  string
	broker    broker.Broker
	queue     *broker.MessageQueue
	repo      game.ProfileRepository
	factories []game.Factory
	roomSize  int
	clock     quartz.Clock
	logger    *log.Logger

	mu      sync.Mutex
	rooms   map[string]*Room
	public  []*Room
	started map[string]bool
}

// NewLobby creates a lobby reading connection requests from queueName.
func NewLobby(serverID, queueName string, b broker.Broker, repo game.ProfileRepository, factories []game.Factory, roomSize int, clock quartz.Clock, logger *log.Logger) *Lobby {
	return &Lobby{
		serverID:  serverID,
		broker:    b,
		queue:     broker.NewMessageQueue(b, queueName, broker.WithClock(clock)),
		repo:      repo,
		factories: factories,
		roomSize:  roomSize,
		clock:     clock,
		logger:    logger.WithPrefix("lobby"),
		rooms:     make(map[string]*Room),
		started:   make(map[string]bool),
	}
}

// Run consumes connection requests until the context ends. Individual bad
// requests are logged and skipped; they never stop the lobby.
func (l *Lobby) Run(ctx context.Context) error {
	l.logger.Info("Lobby started", "server", l.serverID, "queue", l.queue.Name())
	for {
		raw, err := l.queue.Pop(ctx, l.clock.Now().Add(broker.DefaultTTL))
		if err != nil {
			if errors.Is(err, broker.ErrTimeout) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			l.logger.Error("Failed to read connection queue", "error", err)
			continue
		}
		if err := l.handleConnect(ctx, raw); err != nil {
			l.logger.Warn("Rejected connection request", "error", err)
		}
	}
}

func (l *Lobby) handleConnect(ctx context.Context, raw json.RawMessage) error {
	var req protocol.ConnectRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return fmt.Errorf("decoding connection request: %w", err)
	}
	if err := l.validate(req); err != nil {
		return err
	}

	profile, err := l.repo.LoadProfile(ctx, req.Player.ID)
	if err != nil {
		return fmt.Errorf("loading profile for %s: %w", req.Player.ID, err)
	}

	name := profile.DisplayName
	if name == "" {
		name = req.Player.Name
	}
	player := game.NewPlayer(req.Player.ID, name, profile.Chips, profile.Loans)
	channel := l.sessionChannel(req.Player.ID, req.SessionID)
	endpoint := game.NewPlayerEndpoint(player, channel, l.clock, l.logger)

	if err := endpoint.Send(ctx, protocol.ConnectAck{
		MessageType: protocol.TypeConnect,
		ServerID:    l.serverID,
		Player:      player.DTO(),
	}); err != nil {
		return fmt.Errorf("acknowledging %s: %w", req.Player.ID, err)
	}

	room := l.routeRoom(req.RoomID)
	if err := room.Join(ctx, endpoint); err != nil {
		endpoint.TrySend(ctx, protocol.ErrorMessage{MessageType: protocol.TypeError, Error: err.Error()})
		return fmt.Errorf("joining room %s: %w", room.ID(), err)
	}
	l.startRoom(ctx, room)

	l.logger.Info("Player admitted", "player", req.Player.ID, "session", req.SessionID, "room", room.ID())
	return nil
}

func (l *Lobby) validate(req protocol.ConnectRequest) error {
	if req.MessageType != protocol.TypeConnect {
		return fmt.Errorf("expected %q message, got %q", protocol.TypeConnect, req.MessageType)
	}
	if req.TimeoutEpoch == 0 || float64(l.clock.Now().Unix()) > req.TimeoutEpoch {
		return fmt.Errorf("connection request expired")
	}
	if req.SessionID == "" {
		return fmt.Errorf("session_id is missing")
	}
	if req.Player.ID == "" || req.Player.Name == "" {
		return fmt.Errorf("player id and name are required")
	}
	return nil
}

func (l *Lobby) sessionChannel(playerID, sessionID string) *broker.Channel {
	prefix := fmt.Sprintf("poker:player-%s:session-%s:", playerID, sessionID)
	// The server reads the client's writes and vice versa.
	return broker.NewChannel(l.broker, prefix+"I", prefix+"O", broker.WithClock(l.clock))
}

// routeRoom resolves the destination: a private room by id, or the first
// public room with a free seat, creating rooms as needed.
func (l *Lobby) routeRoom(roomID string) *Room {
	l.mu.Lock()
	defer l.mu.Unlock()

	if roomID != "" {
		room, ok := l.rooms[roomID]
		if !ok {
			room = l.newRoom(roomID)
			l.rooms[roomID] = room
		}
		return room
	}

	for _, room := range l.public {
		if !room.Full() {
			return room
		}
	}
	room := l.newRoom(gameid.NewRoom())
	l.rooms[room.ID()] = room
	l.public = append(l.public, room)
	return room
}

func (l *Lobby) newRoom(id string) *Room {
	l.logger.Info("Created room", "room", id)
	return NewRoom(id, l.roomSize, l.factories, l.logger, l.clock)
}

// startRoom activates the room loop exactly once.
func (l *Lobby) startRoom(ctx context.Context, room *Room) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.started[room.ID()] {
		return
	}
	l.started[room.ID()] = true
	go func() {
		if err := room.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			l.logger.Error("Room loop stopped", "room", room.ID(), "error", err)
		}
		l.mu.Lock()
		delete(l.started, room.ID())
		l.mu.Unlock()
	}()
}
