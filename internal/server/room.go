package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"github.com/lox/pokerd/internal/game"
	"github.com/lox/pokerd/internal/protocol"
)

// idlePoll is how often an idle room re-checks readiness.
const idlePoll = time.Second

// Room owns a seat table and runs one hand at a time. It subscribes to each
// hand's event bus and re-broadcasts events to the seats, keeping a tail of
// the current hand's events so late joiners can catch up.
type Room struct {
	id        string
	mu        sync.Mutex
	seats     *SeatTable
	factory   game.Factory
	factories map[string]game.Factory
	clock     quartz.Clock
	logger    *log.Logger

	eventLog       []game.Event
	handInProgress bool
	active         bool
	dealerIdx      int
}

// NewRoom creates a room with the given seats and game modes. The first
// factory is the starting mode.
func NewRoom(id string, size int, factories []game.Factory, logger *log.Logger, clock quartz.Clock) *Room {
	modes := make(map[string]game.Factory, len(factories))
	for _, f := range factories {
		modes[f.Mode()] = f
	}
	return &Room{
		id:        id,
		seats:     NewSeatTable(size),
		factory:   factories[0],
		factories: modes,
		clock:     clock,
		logger:    logger.WithPrefix("room").With("room", id),
	}
}

// ID returns the room id.
func (r *Room) ID() string { return r.id }

// Active reports whether the room loop is (or may be) running.
func (r *Room) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Full reports whether every seat is taken.
func (r *Room) Full() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seats.Count() == r.seats.Size()
}

// Modes returns the available game mode names, sorted.
func (r *Room) Modes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	modes := make([]string, 0, len(r.factories))
	for mode := range r.factories {
		modes = append(modes, mode)
	}
	sort.Strings(modes)
	return modes
}

// Join seats a new player, or rebinds the channel when the id is already
// seated (a rejoin after disconnect). Either way the current hand's event
// tail is replayed to the new channel so the client sees a consistent view.
func (r *Room) Join(ctx context.Context, endpoint *game.PlayerEndpoint) error {
	r.mu.Lock()
	if existing, ok := r.seats.Get(endpoint.ID()); ok {
		tail := append([]game.Event(nil), r.eventLog...)
		r.mu.Unlock()

		r.logger.Info("Player rejoined", "player", endpoint.ID())
		existing.UpdateChannel(ctx, endpoint)
		r.broadcastRoomUpdate(ctx, protocol.EventPlayerRejoined, endpoint.ID())
		r.replay(ctx, existing, tail)
		return nil
	}

	prevOwner := r.seats.Owner()
	if _, err := r.seats.Add(endpoint); err != nil {
		r.mu.Unlock()
		return err
	}
	ownerChanged := r.seats.Owner() != prevOwner
	tail := append([]game.Event(nil), r.eventLog...)
	r.mu.Unlock()

	r.logger.Info("Player joined", "player", endpoint.ID())
	r.broadcastRoomUpdate(ctx, protocol.EventPlayerAdded, endpoint.ID())
	if ownerChanged {
		r.announceOwner(ctx)
	}
	r.replay(ctx, endpoint, tail)
	return nil
}

// Leave frees the player's seat, disconnects the endpoint and announces the
// departure. Ownership transfers to the next occupied seat.
func (r *Room) Leave(ctx context.Context, playerID string) error {
	r.mu.Lock()
	endpoint, ok := r.seats.Get(playerID)
	if !ok {
		r.mu.Unlock()
		return ErrUnknownPlayer
	}
	ownerChanged, err := r.seats.Remove(playerID)
	r.mu.Unlock()
	if err != nil {
		return err
	}

	r.logger.Info("Player left", "player", playerID)
	endpoint.Disconnect(ctx)
	r.broadcastRoomUpdate(ctx, protocol.EventPlayerRemoved, playerID)
	if ownerChanged && r.Owner() != "" {
		r.announceOwner(ctx)
	}
	return nil
}

// Owner returns the current owner id.
func (r *Room) Owner() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seats.Owner()
}

// SwitchMode swaps the game mode for the next hand. Only the owner may
// switch, and never while a hand is being played.
func (r *Room) SwitchMode(ctx context.Context, requesterID, mode string) error {
	r.mu.Lock()
	switch {
	case requesterID != r.seats.Owner():
		r.mu.Unlock()
		return fmt.Errorf("only the room owner can switch the game mode")
	case r.handInProgress:
		r.mu.Unlock()
		return fmt.Errorf("cannot switch the game mode while a hand is being played")
	}
	factory, ok := r.factories[mode]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("unknown game mode %q", mode)
	}
	r.factory = factory
	r.mu.Unlock()

	r.logger.Info("Game mode switched", "mode", mode, "by", requesterID)
	r.announceOwner(ctx)
	return nil
}

// OnGameEvent receives a hand's events: append to the replay tail, free the
// seat of a dropped player, clear the tail on game-over, and fan the event
// out to every seat honoring its target.
func (r *Room) OnGameEvent(event game.Event) {
	ctx := context.Background()

	r.mu.Lock()
	if event.Name == protocol.EventGameOver {
		r.eventLog = nil
	} else {
		r.eventLog = append(r.eventLog, event)
	}
	recipients := r.seats.Players()
	r.mu.Unlock()

	for _, endpoint := range recipients {
		if event.Target != "" && event.Target != endpoint.ID() {
			continue
		}
		endpoint.TrySend(ctx, event.Message)
	}

	if event.Name == protocol.EventDeadPlayer {
		var dead protocol.DeadPlayer
		if err := json.Unmarshal(event.Message, &dead); err != nil {
			r.logger.Error("Undecodable dead-player event", "error", err)
			return
		}
		if err := r.Leave(ctx, dead.Player.ID); err != nil {
			r.logger.Error("Failed to evict dead player", "player", dead.Player.ID, "error", err)
		}
	}
}

// Run drives the room: sweep liveness and readiness, then play one hand at
// a time until the context ends or a GameError deactivates the room.
func (r *Room) Run(ctx context.Context) error {
	r.mu.Lock()
	r.active = true
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.active = false
		r.mu.Unlock()
	}()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		r.sweepLiveness(ctx)
		if !r.sweepReadiness(ctx) {
			if err := r.idle(ctx); err != nil {
				return err
			}
			continue
		}

		if err := r.playOneHand(ctx); err != nil {
			var gameErr *game.GameError
			if errors.As(err, &gameErr) {
				r.logger.Error("Hand aborted, deactivating room", "error", err)
				return err
			}
			return err
		}
	}
}

func (r *Room) playOneHand(ctx context.Context) error {
	r.mu.Lock()
	players := r.seats.Players()
	if len(players) < 2 {
		r.mu.Unlock()
		return nil
	}
	r.dealerIdx = (r.dealerIdx + 1) % len(players)
	dealerID := players[r.dealerIdx].ID()
	factory := r.factory
	r.handInProgress = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.handInProgress = false
		r.mu.Unlock()
	}()

	engine := factory.CreateHand(players)
	engine.EventBus().Subscribe(r)
	defer engine.EventBus().Unsubscribe(r)

	r.logger.Info("Starting hand", "game", engine.ID(), "dealer", dealerID, "players", len(players))
	err := engine.PlayHand(ctx, dealerID)
	engine.SavePlayerData(ctx)
	return err
}

// sweepLiveness pings every seat concurrently and evicts the unresponsive.
func (r *Room) sweepLiveness(ctx context.Context) {
	players := r.players()

	var mu sync.Mutex
	var failed []string
	var eg errgroup.Group
	for _, endpoint := range players {
		eg.Go(func() error {
			if !endpoint.Ping(ctx) {
				mu.Lock()
				failed = append(failed, endpoint.ID())
				mu.Unlock()
			}
			return nil
		})
	}
	_ = eg.Wait()

	for _, id := range failed {
		if err := r.Leave(ctx, id); err != nil {
			r.logger.Error("Failed to evict unresponsive player", "player", id, "error", err)
		}
	}
}

// sweepReadiness refreshes every seat's ready flag concurrently and reports
// whether a hand can start.
func (r *Room) sweepReadiness(ctx context.Context) bool {
	players := r.players()
	if len(players) < 2 {
		return false
	}

	var eg errgroup.Group
	for _, endpoint := range players {
		eg.Go(func() error {
			endpoint.RefreshReady(ctx)
			return nil
		})
	}
	_ = eg.Wait()

	for _, endpoint := range players {
		if !endpoint.Ready() {
			return false
		}
	}
	return true
}

func (r *Room) players() []*game.PlayerEndpoint {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seats.Players()
}

func (r *Room) idle(ctx context.Context) error {
	timer := r.clock.NewTimer(idlePoll)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// replay resends the current hand's event tail to one endpoint, skipping
// events targeted at other players.
func (r *Room) replay(ctx context.Context, endpoint *game.PlayerEndpoint, tail []game.Event) {
	for _, event := range tail {
		if event.Target != "" && event.Target != endpoint.ID() {
			continue
		}
		endpoint.TrySend(ctx, event.Message)
	}
}

func (r *Room) broadcastRoomUpdate(ctx context.Context, event, playerID string) {
	players, seatIDs := r.roomState()
	update := protocol.RoomUpdate{
		MessageType: protocol.TypeRoomUpdate,
		Event:       event,
		RoomID:      r.id,
		Players:     players,
		Seats:       seatIDs,
		PlayerID:    playerID,
	}
	r.broadcast(ctx, update)
}

// announceOwner broadcasts the owner together with the current mode and the
// modes they may switch to.
func (r *Room) announceOwner(ctx context.Context) {
	players, seatIDs := r.roomState()
	r.mu.Lock()
	owner := r.seats.Owner()
	current := r.factory.Mode()
	r.mu.Unlock()

	r.broadcast(ctx, protocol.OwnerAssigned{
		MessageType: protocol.TypeRoomUpdate,
		Event:       protocol.EventRoomOwnerAssigned,
		RoomID:      r.id,
		OwnerID:     owner,
		CurrentMode: current,
		GameModes:   r.Modes(),
		Players:     players,
		Seats:       seatIDs,
	})
}

func (r *Room) roomState() (map[string]protocol.PlayerDTO, []*string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	players := make(map[string]protocol.PlayerDTO)
	for _, endpoint := range r.seats.Players() {
		players[endpoint.ID()] = endpoint.DTO()
	}
	return players, r.seats.SeatIDs()
}

func (r *Room) broadcast(ctx context.Context, msg any) {
	for _, endpoint := range r.players() {
		endpoint.TrySend(ctx, msg)
	}
}
