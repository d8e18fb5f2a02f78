package game

import (
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lox/pokerd/internal/deck"
	"github.com/lox/pokerd/internal/evaluator"
	"github.com/lox/pokerd/internal/protocol"
)

// Event is one game event ready for delivery: the wire message plus the
// routing metadata the room needs. A non-empty Target restricts delivery
// to that player.
type Event struct {
	Name    string
	Target  string
	Message json.RawMessage
}

// EventSubscriber receives game events in publish order.
type EventSubscriber interface {
	OnGameEvent(event Event)
}

// EventBus manages event publishing and subscription.
type EventBus interface {
	Subscribe(subscriber EventSubscriber)
	Unsubscribe(subscriber EventSubscriber)
	Publish(event Event)
}

// SimpleEventBus is a basic in-memory event bus. Publish delivers
// synchronously, preserving event order per subscriber.
type SimpleEventBus struct {
	subscribers []EventSubscriber
}

// NewEventBus creates a new event bus.
func NewEventBus() EventBus {
	return &SimpleEventBus{}
}

// Subscribe adds a subscriber to receive events.
func (bus *SimpleEventBus) Subscribe(subscriber EventSubscriber) {
	bus.subscribers = append(bus.subscribers, subscriber)
}

// Unsubscribe removes a subscriber from receiving events.
func (bus *SimpleEventBus) Unsubscribe(subscriber EventSubscriber) {
	for i, sub := range bus.subscribers {
		if sub == subscriber {
			bus.subscribers = append(bus.subscribers[:i], bus.subscribers[i+1:]...)
			break
		}
	}
}

// Publish sends an event to all subscribers.
func (bus *SimpleEventBus) Publish(event Event) {
	for _, subscriber := range bus.subscribers {
		subscriber.OnGameEvent(event)
	}
}

// Dispatcher builds the wire message for each game event and publishes it
// on the bus.
type Dispatcher struct {
	gameID string
	bus    EventBus
	logger *log.Logger
}

// NewDispatcher creates a dispatcher for one hand.
func NewDispatcher(gameID string, bus EventBus, logger *log.Logger) *Dispatcher {
	return &Dispatcher{
		gameID: gameID,
		bus:    bus,
		logger: logger.WithPrefix("dispatcher").With("game", gameID),
	}
}

func (d *Dispatcher) header(event string) protocol.EventHeader {
	return protocol.EventHeader{
		MessageType: protocol.TypeGameUpdate,
		Event:       event,
		GameID:      d.gameID,
	}
}

func (d *Dispatcher) publish(name, target string, msg any) {
	payload, err := json.Marshal(msg)
	if err != nil {
		d.logger.Error("Failed to encode event", "event", name, "error", err)
		return
	}
	d.logger.Debug("Publishing event", "event", name, "target", target)
	d.bus.Publish(Event{Name: name, Target: target, Message: payload})
}

// NewGame announces a new hand to the room.
func (d *Dispatcher) NewGame(gameType string, players []*PlayerEndpoint, dealerID string, smallBlind, bigBlind int) {
	dtos := make([]protocol.PlayerDTO, len(players))
	for i, p := range players {
		dtos[i] = p.DTO()
	}
	d.publish(protocol.EventNewGame, "", protocol.NewGame{
		EventHeader: d.header(protocol.EventNewGame),
		GameType:    gameType,
		Players:     dtos,
		DealerID:    dealerID,
		SmallBlind:  smallBlind,
		BigBlind:    bigBlind,
	})
}

// CardsAssignment privately delivers a player's hole cards and current
// score.
func (d *Dispatcher) CardsAssignment(player *PlayerEndpoint, cards []deck.Card, score evaluator.Score) {
	d.publish(protocol.EventCardsAssignment, player.ID(), protocol.CardsAssignment{
		EventHeader: d.header(protocol.EventCardsAssignment),
		Target:      player.ID(),
		Cards:       cards,
		Score:       scoreDTO(score),
	})
}

// PlayerAction prompts a player to bet.
func (d *Dispatcher) PlayerAction(player *PlayerEndpoint, minBet, maxBet int, bets BetsLedger, timeout time.Duration, timeoutAt time.Time) {
	d.publish(protocol.EventPlayerAction, "", protocol.PlayerAction{
		EventHeader: d.header(protocol.EventPlayerAction),
		Action:      "bet",
		Player:      player.DTO(),
		MinBet:      minBet,
		MaxBet:      maxBet,
		Bets:        bets,
		Timeout:     int(timeout.Seconds()),
		TimeoutDate: timeoutAt.UTC().Format("2006-01-02 15:04:05+0000"),
	})
}

// Bet broadcasts a completed bet.
func (d *Dispatcher) Bet(player *PlayerEndpoint, bet int, betType string, bets BetsLedger) {
	d.publish(protocol.EventBet, "", protocol.Bet{
		EventHeader: d.header(protocol.EventBet),
		Player:      player.DTO(),
		Bet:         bet,
		BetType:     betType,
		Bets:        bets,
	})
}

// Fold broadcasts a fold.
func (d *Dispatcher) Fold(player *PlayerEndpoint) {
	d.publish(protocol.EventFold, "", protocol.Fold{
		EventHeader: d.header(protocol.EventFold),
		Player:      player.DTO(),
	})
}

// DeadPlayer broadcasts a player dropped from the hand. The room reacts by
// freeing their seat.
func (d *Dispatcher) DeadPlayer(player *PlayerEndpoint) {
	d.publish(protocol.EventDeadPlayer, "", protocol.DeadPlayer{
		EventHeader: d.header(protocol.EventDeadPlayer),
		Player:      player.DTO(),
	})
}

// PotsUpdate broadcasts the pots after a street.
func (d *Dispatcher) PotsUpdate(players []*PlayerEndpoint, pots []Pot) {
	d.publish(protocol.EventPotsUpdate, "", protocol.PotsUpdate{
		EventHeader: d.header(protocol.EventPotsUpdate),
		Pots:        potsDTO(pots),
		Players:     playersDTO(players),
	})
}

// SharedCards broadcasts newly dealt community cards.
func (d *Dispatcher) SharedCards(cards []deck.Card) {
	d.publish(protocol.EventSharedCards, "", protocol.SharedCards{
		EventHeader: d.header(protocol.EventSharedCards),
		Cards:       cards,
	})
}

// Showdown broadcasts the revealed hands of the active players.
func (d *Dispatcher) Showdown(players []*PlayerEndpoint, scores *Scores) {
	hands := make(map[string]protocol.ShowdownHand, len(players))
	for _, p := range players {
		hands[p.ID()] = protocol.ShowdownHand{
			Cards: scores.PlayerCards(p.ID()),
			Score: scoreDTO(scores.PlayerScore(p.ID())),
		}
	}
	d.publish(protocol.EventShowdown, "", protocol.Showdown{
		EventHeader: d.header(protocol.EventShowdown),
		Players:     hands,
	})
}

// WinnerDesignation broadcasts the resolution of one pot, with the pots
// still to be resolved.
func (d *Dispatcher) WinnerDesignation(players []*PlayerEndpoint, pot Pot, winners []*PlayerEndpoint, moneySplit int, upcoming []Pot) {
	winnerIDs := make([]string, len(winners))
	for i, w := range winners {
		winnerIDs[i] = w.ID()
	}
	d.publish(protocol.EventWinnerDesignation, "", protocol.WinnerDesignation{
		EventHeader: d.header(protocol.EventWinnerDesignation),
		Pot: protocol.WonPotDTO{
			Money:      pot.Amount,
			PlayerIDs:  playerIDs(pot.Eligible),
			WinnerIDs:  winnerIDs,
			MoneySplit: moneySplit,
		},
		Pots:    potsDTO(upcoming),
		Players: playersDTO(players),
	})
}

// GameOver ends the hand. The room clears its event log on this event.
func (d *Dispatcher) GameOver() {
	d.publish(protocol.EventGameOver, "", protocol.GameOver{
		EventHeader: d.header(protocol.EventGameOver),
	})
}

// UpdateRanking broadcasts the refreshed ranking.
func (d *Dispatcher) UpdateRanking(entries []protocol.RankingEntry) {
	d.publish(protocol.EventUpdateRanking, "", protocol.UpdateRanking{
		EventHeader: d.header(protocol.EventUpdateRanking),
		RankingList: entries,
	})
}

func scoreDTO(score evaluator.Score) protocol.ScoreDTO {
	return protocol.ScoreDTO{Category: int(score.Category), Cards: score.Cards}
}

func playersDTO(players []*PlayerEndpoint) map[string]protocol.PlayerDTO {
	out := make(map[string]protocol.PlayerDTO, len(players))
	for _, p := range players {
		out[p.ID()] = p.DTO()
	}
	return out
}

func playerIDs(players []*PlayerEndpoint) []string {
	out := make([]string, len(players))
	for i, p := range players {
		out[i] = p.ID()
	}
	return out
}

func potsDTO(pots []Pot) []protocol.PotDTO {
	out := make([]protocol.PotDTO, len(pots))
	for i, pot := range pots {
		out[i] = protocol.PotDTO{Money: pot.Amount, PlayerIDs: playerIDs(pot.Eligible)}
	}
	return out
}
