package game

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/pokerd/internal/broker"
)

// scriptedBets answers bet prompts from per-player queues.
type scriptedBets struct {
	t    *testing.T
	bets map[string][]int
}

func (s *scriptedBets) request(player *PlayerEndpoint, minBet, maxBet int, bets BetsLedger) (int, error) {
	queue := s.bets[player.ID()]
	require.NotEmpty(s.t, queue, "unexpected bet prompt for %s", player.ID())
	bet := queue[0]
	s.bets[player.ID()] = queue[1:]
	return bet, nil
}

func stacks(b *broker.MemoryBroker, chips map[string]int, order ...string) *HandPlayers {
	players := make([]*PlayerEndpoint, len(order))
	for i, id := range order {
		players[i] = newTestEndpoint(b, id, chips[id], 0)
	}
	return NewHandPlayers(players)
}

func TestMaxBet(t *testing.T) {
	hp := stacks(broker.NewMemoryBroker(), map[string]int{"a": 100, "b": 200, "c": 300}, "a", "b", "c")
	r := NewBetRounder(hp)

	a, _ := hp.Get("a")
	c, _ := hp.Get("c")

	// Capped by own chips.
	assert.Equal(t, 100, r.MaxBet(a, BetsLedger{}))
	// Capped by the biggest stake anyone else can match.
	assert.Equal(t, 200, r.MaxBet(c, BetsLedger{}))

	// Ledger entries count toward an opponent's matchable stake.
	assert.Equal(t, 100, r.MaxBet(a, BetsLedger{"b": 50}))
}

func TestMaxBetNoOpponents(t *testing.T) {
	hp := stacks(broker.NewMemoryBroker(), map[string]int{"a": 100, "b": 200}, "a", "b")
	r := NewBetRounder(hp)
	require.NoError(t, hp.Fold("b"))

	a, _ := hp.Get("a")
	assert.Equal(t, 0, r.MaxBet(a, BetsLedger{}))
}

func TestMinBet(t *testing.T) {
	hp := stacks(broker.NewMemoryBroker(), map[string]int{"a": 100, "b": 200}, "a", "b")
	r := NewBetRounder(hp)

	a, _ := hp.Get("a")
	assert.Equal(t, 0, r.MinBet(a, BetsLedger{}))
	assert.Equal(t, 40, r.MinBet(a, BetsLedger{"b": 40}))
	assert.Equal(t, 30, r.MinBet(a, BetsLedger{"a": 10, "b": 40}))
	// A short stack can always call all-in.
	assert.Equal(t, 100, r.MinBet(a, BetsLedger{"b": 150}))
}

func TestPlayRoundCheckAround(t *testing.T) {
	hp := stacks(broker.NewMemoryBroker(), map[string]int{"a": 100, "b": 100, "c": 100}, "a", "b", "c")
	r := NewBetRounder(hp)

	script := &scriptedBets{t: t, bets: map[string][]int{"a": {0}, "b": {0}, "c": {0}}}
	bets := BetsLedger{}

	best, err := r.PlayRound("c", bets, false, script.request, nil)
	require.NoError(t, err)
	// Nobody raised: the first actor holds the action.
	assert.Equal(t, "a", best.ID())
	assert.Equal(t, BetsLedger{"a": 0, "b": 0, "c": 0}, bets)
}

func TestPlayRoundRaiseReopensAction(t *testing.T) {
	hp := stacks(broker.NewMemoryBroker(), map[string]int{"a": 100, "b": 100, "c": 100}, "a", "b", "c")
	r := NewBetRounder(hp)

	// a checks, b bets 20, c raises to 50, a and b call the difference.
	script := &scriptedBets{t: t, bets: map[string][]int{
		"a": {0, 50},
		"b": {20, 30},
		"c": {50},
	}}
	bets := BetsLedger{}

	best, err := r.PlayRound("c", bets, false, script.request, nil)
	require.NoError(t, err)
	assert.Equal(t, "c", best.ID(), "last raiser holds the action")
	assert.Equal(t, BetsLedger{"a": 50, "b": 50, "c": 50}, bets)

	for _, id := range []string{"a", "b", "c"} {
		p, _ := hp.Get(id)
		assert.Equal(t, 50, p.Chips())
	}
}

func TestPlayRoundFold(t *testing.T) {
	hp := stacks(broker.NewMemoryBroker(), map[string]int{"a": 100, "b": 100, "c": 100}, "a", "b", "c")
	r := NewBetRounder(hp)

	script := &scriptedBets{t: t, bets: map[string][]int{
		"a": {20},
		"b": {-1},
		"c": {20},
	}}
	bets := BetsLedger{}
	var results []BetResult

	_, err := r.PlayRound("c", bets, false, script.request, func(res BetResult) {
		results = append(results, res)
	})
	require.NoError(t, err)

	assert.False(t, hp.IsActive("b"))
	assert.Empty(t, hp.Dead(), "folding is not dropping")
	require.Len(t, results, 3)
	assert.True(t, results[1].Folded)
	assert.Equal(t, "b", results[1].Player.ID())
}

func TestPlayRoundErrorDropsPlayer(t *testing.T) {
	hp := stacks(broker.NewMemoryBroker(), map[string]int{"a": 100, "b": 100}, "a", "b")
	r := NewBetRounder(hp)

	request := func(player *PlayerEndpoint, minBet, maxBet int, bets BetsLedger) (int, error) {
		if player.ID() == "a" {
			return 0, errors.New("timed out")
		}
		return 0, nil
	}
	bets := BetsLedger{}
	var results []BetResult

	_, err := r.PlayRound("b", bets, false, request, func(res BetResult) {
		results = append(results, res)
	})
	require.NoError(t, err)

	assert.False(t, hp.IsActive("a"))
	assert.Equal(t, []string{"a"}, endpointIDs(hp.Dead()))
	require.NotEmpty(t, results)
	assert.True(t, results[0].Dead)
}

func TestPlayRoundBlindRoundStartsAfterBigBlind(t *testing.T) {
	hp := stacks(broker.NewMemoryBroker(), map[string]int{"a": 95, "b": 90, "c": 100}, "a", "b", "c")
	r := NewBetRounder(hp)

	// Dealer c: a posted the small blind, b the big blind. Action opens on
	// the dealer.
	var order []string
	script := map[string][]int{"a": {5}, "b": {0}, "c": {10}}
	request := func(player *PlayerEndpoint, minBet, maxBet int, bets BetsLedger) (int, error) {
		order = append(order, player.ID())
		bet := script[player.ID()][0]
		script[player.ID()] = script[player.ID()][1:]
		return bet, nil
	}
	bets := BetsLedger{"a": 5, "b": 10}

	best, err := r.PlayRound("c", bets, true, request, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, order)
	assert.Equal(t, "c", best.ID(), "caller after the blinds is the first valid actor")
	assert.Equal(t, BetsLedger{"a": 10, "b": 10, "c": 10}, bets)
}

func TestPlayRoundBlindRoundHeadsUp(t *testing.T) {
	hp := stacks(broker.NewMemoryBroker(), map[string]int{"a": 95, "b": 90}, "a", "b")
	r := NewBetRounder(hp)

	// Dealer a posted the small blind and acts first pre-flop.
	var order []string
	script := map[string][]int{"a": {5}, "b": {0}}
	request := func(player *PlayerEndpoint, minBet, maxBet int, bets BetsLedger) (int, error) {
		order = append(order, player.ID())
		bet := script[player.ID()][0]
		script[player.ID()] = script[player.ID()][1:]
		return bet, nil
	}
	bets := BetsLedger{"a": 5, "b": 10}

	_, err := r.PlayRound("a", bets, true, request, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, order)
	assert.Equal(t, BetsLedger{"a": 10, "b": 10}, bets)
}

func TestPlayRoundForcedBetWhenAllIn(t *testing.T) {
	hp := stacks(broker.NewMemoryBroker(), map[string]int{"a": 0, "b": 100}, "a", "b")
	r := NewBetRounder(hp)

	// a is already all-in: no prompt, a forced zero bet instead.
	request := func(player *PlayerEndpoint, minBet, maxBet int, bets BetsLedger) (int, error) {
		require.NotEqual(t, "a", player.ID(), "all-in player must not be prompted")
		return 0, nil
	}
	bets := BetsLedger{}

	_, err := r.PlayRound("b", bets, false, request, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, bets["a"])
	assert.True(t, hp.IsActive("a"), "a forced bet is not a fold")
}

func TestPlayRoundRejectsInvalidLedger(t *testing.T) {
	hp := stacks(broker.NewMemoryBroker(), map[string]int{"a": 100, "b": 100}, "a", "b")
	r := NewBetRounder(hp)

	_, err := r.PlayRound("b", BetsLedger{"a": 10, "b": 5}, false, nil, nil)
	var gameErr *GameError
	assert.ErrorAs(t, err, &gameErr)
}
