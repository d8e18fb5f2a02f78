package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/pokerd/internal/deck"
	"github.com/lox/pokerd/internal/evaluator"
	"github.com/lox/pokerd/internal/protocol"
)

const (
	// DefaultBetTimeout bounds how long a player may sit on a bet prompt.
	DefaultBetTimeout = 300 * time.Second

	// DefaultPacing is the inter-step sleep that lets clients animate.
	// Tunable, not a correctness property.
	DefaultPacing = time.Second
)

type playerSnapshot struct {
	chips int
	loans int
}

// HandEngine drives a single hand: blinds, deal, street loop, showdown,
// payout, loans and persistence. One engine per hand; the room subscribes
// to its bus and replays events to seats.
type HandEngine struct {
	id         string
	gameType   string
	players    *HandPlayers
	rounder    *BetRounder
	dispatcher *Dispatcher
	bus        EventBus
	deck       *deck.Deck
	eval       *evaluator.Evaluator
	repo       ProfileRepository
	smallBlind int
	bigBlind   int
	betTimeout time.Duration
	pacing     time.Duration
	clock      quartz.Clock
	logger     *log.Logger
	snapshots  map[string]playerSnapshot
}

// EventBus returns the engine's bus so the room can subscribe before the
// hand starts.
func (e *HandEngine) EventBus() EventBus { return e.bus }

// ID returns the hand's game id.
func (e *HandEngine) ID() string { return e.id }

// PlayHand runs the hand to completion. The returned error is a GameError
// for unrecoverable states; individual player failures never abort the
// hand. A game-over event is always published, even on error.
func (e *HandEngine) PlayHand(ctx context.Context, dealerID string) error {
	e.players.Reset()
	e.snapshots = make(map[string]playerSnapshot, len(e.players.All()))
	for _, p := range e.players.All() {
		e.snapshots[p.ID()] = playerSnapshot{chips: p.Chips(), loans: p.Loans()}
	}
	scores := NewScores(e.eval)
	pots := NewPotBuilder(e.players)

	e.dispatcher.NewGame(e.gameType, e.players.Active(), dealerID, e.smallBlind, e.bigBlind)

	err := e.playStreets(ctx, dealerID, scores, pots)
	if err != nil && !errors.Is(err, errEndGame) {
		e.dispatcher.GameOver()
		return err
	}

	if err := e.payout(ctx, pots, scores); err != nil {
		e.dispatcher.GameOver()
		return err
	}
	for _, p := range e.players.All() {
		p.SetReady(false)
	}
	e.dispatcher.GameOver()
	return nil
}

// playStreets runs pre-flop through river. errEndGame short-circuits to
// payout; any other error is fatal to the hand.
func (e *HandEngine) playStreets(ctx context.Context, dealerID string, scores *Scores, pots *PotBuilder) error {
	bets, err := e.collectBlinds(dealerID)
	if err != nil {
		return err
	}

	if err := e.assignCards(ctx, dealerID, scores); err != nil {
		return err
	}

	betMore := true
	// Pre-flop street: the blinds seed the ledger.
	if err := e.betRound(ctx, dealerID, bets, true, scores, pots, &betMore); err != nil {
		return err
	}

	for _, draw := range []int{3, 1, 1} { // flop, turn, river
		cards, ok := e.deck.Pop(draw)
		if !ok {
			return NewGameError("deck exhausted dealing community cards")
		}
		e.dispatcher.SharedCards(cards)
		scores.AddSharedCards(cards)
		e.sleep(ctx, e.pacing)

		if betMore {
			if err := e.betRound(ctx, dealerID, BetsLedger{}, false, scores, pots, &betMore); err != nil {
				return err
			}
		}
	}

	// River betting happened and more than one player remains: showdown.
	if betMore && e.players.CountActive() > 1 {
		e.showdown(ctx, scores)
	}
	return errEndGame
}

// betRound runs one street and folds its ledger into the pots. When all
// active players but at most one are all-in, betting stops for the rest of
// the hand and the showdown happens immediately.
func (e *HandEngine) betRound(ctx context.Context, dealerID string, bets BetsLedger, blindRound bool, scores *Scores, pots *PotBuilder, betMore *bool) error {
	if _, err := e.rounder.PlayRound(dealerID, bets, blindRound, e.requestBet(ctx), e.onResult(bets)); err != nil {
		return err
	}
	e.sleep(ctx, e.pacing)

	if bets.AnyBet() {
		if err := pots.AddBets(bets); err != nil {
			return NewGameError("building pots: %v", err)
		}
		e.dispatcher.PotsUpdate(e.players.Active(), pots.Pots())
	}

	if e.players.CountActive() < 2 {
		return errEndGame
	}
	*betMore = e.players.CountActiveWithChips() > 1
	if !*betMore {
		e.showdown(ctx, scores)
	}
	return nil
}

// collectBlinds posts the blinds from the two seats past the dealer
// (heads-up: the dealer posts the small blind). A player short of the
// blind is granted a loan first so the blind always fully posts.
func (e *HandEngine) collectBlinds(dealerID string) (BetsLedger, error) {
	if e.players.CountActive() < 2 {
		return nil, NewGameError("at least two players needed to start a new hand")
	}
	ring := e.players.Round(dealerID)
	sb, bb := ring[0], ring[1]
	if len(ring) == 2 {
		sb, bb = ring[1], ring[0]
	}

	bets := BetsLedger{}
	if err := e.postBlind(sb, e.smallBlind, bets); err != nil {
		return nil, err
	}
	if err := e.postBlind(bb, e.bigBlind, bets); err != nil {
		return nil, err
	}
	return bets, nil
}

func (e *HandEngine) postBlind(player *PlayerEndpoint, amount int, bets BetsLedger) error {
	for player.Chips() < amount {
		player.AddLoan()
		e.logger.Info("Granted loan to cover blind", "player", player.ID(), "loans", player.Loans())
	}
	if err := player.Take(amount); err != nil {
		return NewGameError("posting blind: %v", err)
	}
	bets[player.ID()] = amount
	e.dispatcher.Bet(player, amount, protocol.BetTypeBlind, bets)
	return nil
}

// assignCards deals two hole cards to each active player in traversal
// order, each delivered privately with the player's current score.
func (e *HandEngine) assignCards(ctx context.Context, dealerID string, scores *Scores) error {
	for _, player := range e.players.Round(dealerID) {
		cards, ok := e.deck.Pop(2)
		if !ok {
			return NewGameError("deck exhausted dealing hole cards")
		}
		scores.AssignCards(player.ID(), cards)
		e.dispatcher.CardsAssignment(player, scores.PlayerCards(player.ID()), scores.PlayerScore(player.ID()))
	}
	e.sleep(ctx, e.pacing)
	return nil
}

// requestBet prompts the player and validates the reply. Errors are
// reported privately; the rounder then drops the player.
func (e *HandEngine) requestBet(ctx context.Context) RequestBetFunc {
	return func(player *PlayerEndpoint, minBet, maxBet int, bets BetsLedger) (int, error) {
		timeoutAt := e.clock.Now().Add(e.betTimeout)
		e.dispatcher.PlayerAction(player, minBet, maxBet, bets, e.betTimeout, timeoutAt)

		bet, err := e.receiveBet(ctx, player, minBet, maxBet, timeoutAt)
		if err != nil {
			e.logger.Warn("Bet request failed", "player", player.ID(), "error", err)
			player.TrySend(ctx, protocol.ErrorMessage{MessageType: protocol.TypeError, Error: err.Error()})
			return 0, err
		}
		return bet, nil
	}
}

func (e *HandEngine) receiveBet(ctx context.Context, player *PlayerEndpoint, minBet, maxBet int, deadline time.Time) (int, error) {
	raw, err := player.Recv(ctx, deadline)
	if err != nil {
		return 0, err
	}
	var msg protocol.BetMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return 0, fmt.Errorf("decoding bet message: %w", err)
	}
	if msg.MessageType != protocol.TypeBet {
		return 0, fmt.Errorf("expected %q message, got %q", protocol.TypeBet, msg.MessageType)
	}
	if msg.Bet == nil {
		return 0, errors.New("bet attribute is missing")
	}
	bet := *msg.Bet
	if bet != -1 && (bet < minBet || bet > maxBet) {
		return 0, fmt.Errorf("bet out of range. min: %d max: %d, actual: %d", minBet, maxBet, bet)
	}
	return bet, nil
}

// onResult broadcasts each turn's outcome.
func (e *HandEngine) onResult(bets BetsLedger) OnResultFunc {
	return func(r BetResult) {
		switch {
		case r.Dead:
			e.dispatcher.DeadPlayer(r.Player)
		case r.Folded:
			e.dispatcher.Fold(r.Player)
		default:
			e.dispatcher.Bet(r.Player, r.Amount, betType(r), bets)
		}
	}
}

func betType(r BetResult) string {
	switch {
	case r.Amount == 0:
		return protocol.BetTypeCheck
	case r.Player.Chips() == 0:
		return protocol.BetTypeAllIn
	case r.Amount == r.MinBet:
		return protocol.BetTypeCall
	default:
		return protocol.BetTypeRaise
	}
}

func (e *HandEngine) showdown(ctx context.Context, scores *Scores) {
	e.dispatcher.Showdown(e.players.Active(), scores)
	e.sleep(ctx, e.pacing)
}

// payout resolves pots in reverse order, last side pot first. Splits
// truncate; the remainder stays with the pot as dead chips.
func (e *HandEngine) payout(ctx context.Context, pots *PotBuilder, scores *Scores) error {
	all := pots.Pots()
	for i := len(all) - 1; i >= 0; i-- {
		pot := all[i]
		winners := Winners(e.players, pot.Eligible, scores)
		if len(winners) == 0 {
			return NewGameError("no players left to win the pot")
		}
		split := pot.Amount / len(winners)
		if split > 0 {
			for _, w := range winners {
				if err := w.Add(split); err != nil {
					return NewGameError("paying out pot: %v", err)
				}
			}
		}
		e.dispatcher.WinnerDesignation(e.players.Active(), pot, winners, split, all[:i])
		e.sleep(ctx, e.pacing)
	}
	return nil
}

// SavePlayerData settles loans and persists each player's deltas, then
// broadcasts a refreshed ranking. Repository errors are logged, not
// retried.
func (e *HandEngine) SavePlayerData(ctx context.Context) {
	e.grantLoans()
	e.refundLoans()

	deltas := make([]HandDelta, 0, len(e.players.All()))
	for _, p := range e.players.All() {
		before := e.snapshots[p.ID()]
		deltas = append(deltas, HandDelta{
			PlayerID:   p.ID(),
			ChipsDelta: p.Chips() - before.chips,
			LoansDelta: p.Loans() - before.loans,
			HandsDelta: 1,
		})
	}
	if err := e.repo.PersistHand(ctx, deltas); err != nil {
		e.logger.Error("Failed to persist hand results", "error", err)
	}

	ranking, err := e.repo.FetchRanking(ctx)
	if err != nil {
		e.logger.Error("Failed to fetch ranking", "error", err)
		return
	}
	e.dispatcher.UpdateRanking(ranking)
}

// grantLoans tops up players left below the big blind after payout.
func (e *HandEngine) grantLoans() {
	for _, p := range e.players.All() {
		if p.Chips() < e.bigBlind {
			p.AddLoan()
			e.logger.Info("Granted loan after payout", "player", p.ID(), "loans", p.Loans())
		}
	}
}

// refundLoans returns one loan per full LoanAmount a player holds above
// LoanAmount, capped by their loan count.
func (e *HandEngine) refundLoans() {
	for _, p := range e.players.All() {
		if p.Loans() == 0 {
			continue
		}
		refundable := 0
		if p.Chips() > LoanAmount {
			refundable = (p.Chips() - LoanAmount) / LoanAmount
		}
		times := min(refundable, p.Loans())
		if times == 0 {
			continue
		}
		if err := p.RefundLoans(times); err != nil {
			e.logger.Error("Failed to refund loans", "player", p.ID(), "error", err)
			continue
		}
		e.logger.Info("Refunded loans", "player", p.ID(), "times", times, "loans", p.Loans())
	}
}

func (e *HandEngine) sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := e.clock.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
