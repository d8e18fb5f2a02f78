package game

import (
	rand "math/rand/v2"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/pokerd/internal/deck"
	"github.com/lox/pokerd/internal/evaluator"
	"github.com/lox/pokerd/internal/gameid"
)

// Factory builds hand engines for one game mode. The room calls CreateHand
// once per hand with a snapshot of the occupied seats.
type Factory interface {
	Mode() string
	CreateHand(players []*PlayerEndpoint) *HandEngine
}

// HoldemFactory builds Texas Hold'em hands. The zero value is not usable;
// construct with NewHoldemFactory.
type HoldemFactory struct {
	SmallBlind int
	BigBlind   int
	LowestRank deck.Rank
	BetTimeout time.Duration
	Pacing     time.Duration
	Clock      quartz.Clock
	Repository ProfileRepository
	Logger     *log.Logger
	Rand       *rand.Rand
}

// NewHoldemFactory fills in the defaults: full deck, 300 s bet timeout,
// 1 s pacing, real clock.
func NewHoldemFactory(smallBlind, bigBlind int, repo ProfileRepository, logger *log.Logger) *HoldemFactory {
	return &HoldemFactory{
		SmallBlind: smallBlind,
		BigBlind:   bigBlind,
		LowestRank: deck.Two,
		BetTimeout: DefaultBetTimeout,
		Pacing:     DefaultPacing,
		Clock:      quartz.NewReal(),
		Repository: repo,
		Logger:     logger,
	}
}

// Mode returns the wire identifier for this game mode.
func (f *HoldemFactory) Mode() string { return "texas-holdem" }

// CreateHand builds an engine for one hand over the given players. Each
// hand gets a fresh id, deck, dispatcher and event bus.
func (f *HoldemFactory) CreateHand(players []*PlayerEndpoint) *HandEngine {
	id := gameid.NewGame()
	bus := NewEventBus()

	deckOpts := []deck.Option{deck.WithLowestRank(f.LowestRank)}
	if f.Rand != nil {
		deckOpts = append(deckOpts, deck.WithRand(f.Rand))
	}

	hand := NewHandPlayers(players)
	return &HandEngine{
		id:         id,
		gameType:   f.Mode(),
		players:    hand,
		rounder:    NewBetRounder(hand),
		dispatcher: NewDispatcher(id, bus, f.Logger),
		bus:        bus,
		deck:       deck.NewDeck(deckOpts...),
		eval:       evaluator.NewWithLowestRank(f.LowestRank),
		repo:       f.Repository,
		smallBlind: f.SmallBlind,
		bigBlind:   f.BigBlind,
		betTimeout: f.BetTimeout,
		pacing:     f.Pacing,
		clock:      f.Clock,
		logger:     f.Logger.WithPrefix("engine").With("game", id),
	}
}
