package game

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/pokerd/internal/broker"
	"github.com/lox/pokerd/internal/deck"
	"github.com/lox/pokerd/internal/evaluator"
	"github.com/lox/pokerd/internal/protocol"
	"github.com/lox/pokerd/internal/randutil"
)

type memRepo struct {
	persisted [][]HandDelta
	ranking   []protocol.RankingEntry
}

func (r *memRepo) LoadProfile(_ context.Context, userID string) (Profile, error) {
	return Profile{ID: userID, DisplayName: "Player " + userID, Chips: 1000}, nil
}

func (r *memRepo) PersistHand(_ context.Context, deltas []HandDelta) error {
	r.persisted = append(r.persisted, deltas)
	return nil
}

func (r *memRepo) FetchRanking(_ context.Context) ([]protocol.RankingEntry, error) {
	return r.ranking, nil
}

func newTestEngine(repo ProfileRepository, seed int64, betTimeout time.Duration, players []*PlayerEndpoint) (*HandEngine, *eventRecorder) {
	f := &HoldemFactory{
		SmallBlind: 5,
		BigBlind:   10,
		LowestRank: deck.Two,
		BetTimeout: betTimeout,
		Pacing:     0,
		Clock:      quartz.NewReal(),
		Repository: repo,
		Logger:     testLogger(),
		Rand:       randutil.New(seed),
	}
	engine := f.CreateHand(players)
	rec := &eventRecorder{}
	engine.EventBus().Subscribe(rec)
	return engine, rec
}

func totalChips(players ...*PlayerEndpoint) int {
	sum := 0
	for _, p := range players {
		sum += p.Chips()
	}
	return sum
}

// replayDeal reproduces the deal for a seed and ring order so tests can
// compute the expected winners independently.
func replayDeal(seed int64, ring []string) (hole map[string][]deck.Card, shared []deck.Card) {
	d := deck.NewDeck(deck.WithRand(randutil.New(seed)))
	hole = make(map[string][]deck.Card, len(ring))
	for _, id := range ring {
		cards, _ := d.Pop(2)
		hole[id] = cards
	}
	flop, _ := d.Pop(3)
	turn, _ := d.Pop(1)
	river, _ := d.Pop(1)
	shared = append(append(flop, turn...), river...)
	return hole, shared
}

func bestOf(ids []string, hole map[string][]deck.Card, shared []deck.Card) []string {
	ev := evaluator.New()
	score := func(id string) evaluator.Score {
		return ev.Score(append(append([]deck.Card{}, hole[id]...), shared...))
	}
	var best []string
	for _, id := range ids {
		if len(best) == 0 {
			best = []string{id}
			continue
		}
		switch score(id).Cmp(score(best[0])) {
		case 0:
			best = append(best, id)
		case 1:
			best = []string{id}
		}
	}
	return best
}

func TestPlayHandHeadsUpFold(t *testing.T) {
	b := broker.NewMemoryBroker()
	a := newTestEndpoint(b, "a", 1000, 0)
	bb := newTestEndpoint(b, "b", 1000, 0)
	engine, rec := newTestEngine(&memRepo{}, 1, time.Second, []*PlayerEndpoint{a, bb})

	// Dealer posts the small blind heads-up and acts first: fold.
	queueBet(t, b, a, -1)
	require.NoError(t, engine.PlayHand(context.Background(), "a"))

	assert.Equal(t, 995, a.Chips())
	assert.Equal(t, 1005, bb.Chips())
	assert.Equal(t, 2000, totalChips(a, bb))

	names := rec.names()
	require.NotEmpty(t, names)
	assert.Equal(t, protocol.EventNewGame, names[0])
	assert.Equal(t, protocol.EventGameOver, names[len(names)-1])
	assert.Len(t, rec.byName(protocol.EventFold), 1)

	// Hole cards go out privately, big blind's seat first.
	assignments := rec.byName(protocol.EventCardsAssignment)
	require.Len(t, assignments, 2)
	assert.Equal(t, "b", assignments[0].Target)
	assert.Equal(t, "a", assignments[1].Target)

	// Both blinds end up with the uncontested winner.
	wins := rec.byName(protocol.EventWinnerDesignation)
	require.Len(t, wins, 1)
	var win protocol.WinnerDesignation
	require.NoError(t, json.Unmarshal(wins[0].Message, &win))
	assert.Equal(t, 15, win.Pot.Money)
	assert.Equal(t, []string{"b"}, win.Pot.WinnerIDs)
	assert.Equal(t, 15, win.Pot.MoneySplit)
}

func TestPlayHandRunsToShowdown(t *testing.T) {
	const seed = 3
	b := broker.NewMemoryBroker()
	a := newTestEndpoint(b, "a", 1000, 0)
	bb := newTestEndpoint(b, "b", 1000, 0)
	engine, rec := newTestEngine(&memRepo{}, seed, time.Second, []*PlayerEndpoint{a, bb})

	// Dealer a completes the small blind pre-flop, then both check down.
	queueBet(t, b, a, 5)
	queueBet(t, b, bb, 0)
	for street := 0; street < 3; street++ {
		queueBet(t, b, bb, 0)
		queueBet(t, b, a, 0)
	}
	require.NoError(t, engine.PlayHand(context.Background(), "a"))

	assert.Len(t, rec.byName(protocol.EventSharedCards), 3)
	assert.Len(t, rec.byName(protocol.EventShowdown), 1)
	assert.Len(t, rec.byName(protocol.EventPotsUpdate), 1, "only the blind street put chips in")

	hole, shared := replayDeal(seed, []string{"b", "a"})
	winners := bestOf([]string{"a", "b"}, hole, shared)

	expected := map[string]int{"a": 990, "b": 990}
	for _, id := range winners {
		expected[id] += 20 / len(winners)
	}
	assert.Equal(t, expected["a"], a.Chips())
	assert.Equal(t, expected["b"], bb.Chips())
	assert.Equal(t, 2000, totalChips(a, bb))
}

func TestPlayHandThreeWayAllIn(t *testing.T) {
	const seed = 7
	b := broker.NewMemoryBroker()
	a := newTestEndpoint(b, "a", 100, 0)
	bb := newTestEndpoint(b, "b", 300, 0)
	c := newTestEndpoint(b, "c", 300, 0)
	engine, rec := newTestEngine(&memRepo{}, seed, time.Second, []*PlayerEndpoint{a, bb, c})

	// Dealer c. Blinds: a 5, b 10. Action: c calls, a shoves short, b
	// shoves over the top, c calls all-in.
	queueBet(t, b, c, 10)
	queueBet(t, b, a, 95)
	queueBet(t, b, bb, 290)
	queueBet(t, b, c, 290)
	require.NoError(t, engine.PlayHand(context.Background(), "c"))

	// Betting is over before the flop, so the showdown happens immediately
	// and the remaining streets are dealt without further prompts.
	assert.Len(t, rec.byName(protocol.EventShowdown), 1)
	assert.Len(t, rec.byName(protocol.EventSharedCards), 3)

	// Short stack caps the main pot; the overage forms a side pot.
	updates := rec.byName(protocol.EventPotsUpdate)
	require.Len(t, updates, 1)
	var pots protocol.PotsUpdate
	require.NoError(t, json.Unmarshal(updates[0].Message, &pots))
	require.Len(t, pots.Pots, 2)
	assert.Equal(t, 300, pots.Pots[0].Money)
	assert.Equal(t, 400, pots.Pots[1].Money)
	assert.ElementsMatch(t, []string{"b", "c"}, pots.Pots[1].PlayerIDs)

	hole, shared := replayDeal(seed, []string{"a", "b", "c"})
	expected := map[string]int{"a": 0, "b": 0, "c": 0}
	sideWinners := bestOf([]string{"b", "c"}, hole, shared)
	for _, id := range sideWinners {
		expected[id] += 400 / len(sideWinners)
	}
	mainWinners := bestOf([]string{"a", "b", "c"}, hole, shared)
	for _, id := range mainWinners {
		expected[id] += 300 / len(mainWinners)
	}

	assert.Equal(t, expected["a"], a.Chips())
	assert.Equal(t, expected["b"], bb.Chips())
	assert.Equal(t, expected["c"], c.Chips())

	wins := rec.byName(protocol.EventWinnerDesignation)
	require.Len(t, wins, 2)
	var first protocol.WinnerDesignation
	require.NoError(t, json.Unmarshal(wins[0].Message, &first))
	assert.Equal(t, 400, first.Pot.Money, "side pot resolves first")
	assert.Len(t, first.Pots, 1, "main pot still pending")
}

func TestPlayHandLoanCoversBlind(t *testing.T) {
	b := broker.NewMemoryBroker()
	a := newTestEndpoint(b, "a", 2, 0)
	bb := newTestEndpoint(b, "b", 1000, 0)
	engine, _ := newTestEngine(&memRepo{}, 1, time.Second, []*PlayerEndpoint{a, bb})

	queueBet(t, b, a, -1)
	require.NoError(t, engine.PlayHand(context.Background(), "a"))

	assert.Equal(t, 1, a.Loans(), "short stack borrowed to post the blind")
	assert.Equal(t, 997, a.Chips())
	assert.Equal(t, 1005, bb.Chips())
}

func TestPlayHandTimeoutDropsPlayer(t *testing.T) {
	b := broker.NewMemoryBroker()
	a := newTestEndpoint(b, "a", 1000, 0)
	bb := newTestEndpoint(b, "b", 1000, 0)
	engine, rec := newTestEngine(&memRepo{}, 1, 50*time.Millisecond, []*PlayerEndpoint{a, bb})

	// No bet queued for a: the prompt times out and a is dropped.
	require.NoError(t, engine.PlayHand(context.Background(), "a"))

	assert.Equal(t, []string{"a"}, endpointIDs(engine.players.Dead()))
	assert.Len(t, rec.byName(protocol.EventDeadPlayer), 1)
	assert.Equal(t, 1005, bb.Chips())

	// The failure was reported to the player directly.
	var sent protocol.ErrorMessage
	require.NoError(t, json.Unmarshal(popClientMessage(t, b, a), &sent))
	assert.Equal(t, protocol.TypeError, sent.MessageType)
	assert.NotEmpty(t, sent.Error)
}

func TestPlayHandRequiresTwoPlayers(t *testing.T) {
	b := broker.NewMemoryBroker()
	a := newTestEndpoint(b, "a", 1000, 0)
	engine, rec := newTestEngine(&memRepo{}, 1, time.Second, []*PlayerEndpoint{a})

	err := engine.PlayHand(context.Background(), "a")
	var gameErr *GameError
	require.ErrorAs(t, err, &gameErr)

	// Game-over still goes out so clients can reset.
	names := rec.names()
	require.NotEmpty(t, names)
	assert.Equal(t, protocol.EventGameOver, names[len(names)-1])
}

func TestPlayHandResetsReadyStates(t *testing.T) {
	b := broker.NewMemoryBroker()
	a := newTestEndpoint(b, "a", 1000, 0)
	bb := newTestEndpoint(b, "b", 1000, 0)
	a.SetReady(true)
	bb.SetReady(true)
	engine, _ := newTestEngine(&memRepo{}, 1, time.Second, []*PlayerEndpoint{a, bb})

	queueBet(t, b, a, -1)
	require.NoError(t, engine.PlayHand(context.Background(), "a"))

	assert.False(t, a.Ready())
	assert.False(t, bb.Ready())
}

func TestSavePlayerDataRefundsLoans(t *testing.T) {
	repo := &memRepo{ranking: []protocol.RankingEntry{{Name: "Player b", Chips: 1005}}}
	b := broker.NewMemoryBroker()
	a := newTestEndpoint(b, "a", 3005, 2)
	bb := newTestEndpoint(b, "b", 1000, 0)
	engine, rec := newTestEngine(repo, 1, time.Second, []*PlayerEndpoint{a, bb})

	queueBet(t, b, a, -1)
	require.NoError(t, engine.PlayHand(context.Background(), "a"))
	engine.SavePlayerData(context.Background())

	// a folded the small blind, then repaid both loans from the surplus.
	assert.Equal(t, 1000, a.Chips())
	assert.Equal(t, 0, a.Loans())
	assert.Equal(t, 1005, bb.Chips())

	require.Len(t, repo.persisted, 1)
	deltas := repo.persisted[0]
	require.Len(t, deltas, 2)
	assert.Equal(t, HandDelta{PlayerID: "a", ChipsDelta: -2005, LoansDelta: -2, HandsDelta: 1}, deltas[0])
	assert.Equal(t, HandDelta{PlayerID: "b", ChipsDelta: 5, LoansDelta: 0, HandsDelta: 1}, deltas[1])

	rankings := rec.byName(protocol.EventUpdateRanking)
	require.Len(t, rankings, 1)
	var update protocol.UpdateRanking
	require.NoError(t, json.Unmarshal(rankings[0].Message, &update))
	require.Len(t, update.RankingList, 1)
	assert.Equal(t, "Player b", update.RankingList[0].Name)
}

func TestSavePlayerDataGrantsLoanWhenBusted(t *testing.T) {
	b := broker.NewMemoryBroker()
	a := newTestEndpoint(b, "a", 100, 0)
	bb := newTestEndpoint(b, "b", 300, 0)
	c := newTestEndpoint(b, "c", 300, 0)
	engine, _ := newTestEngine(&memRepo{}, 7, time.Second, []*PlayerEndpoint{a, bb, c})

	queueBet(t, b, c, 10)
	queueBet(t, b, a, 95)
	queueBet(t, b, bb, 290)
	queueBet(t, b, c, 290)
	require.NoError(t, engine.PlayHand(context.Background(), "c"))
	engine.SavePlayerData(context.Background())

	// Whoever lost everything gets staked back in.
	for _, p := range []*PlayerEndpoint{a, bb, c} {
		assert.GreaterOrEqual(t, p.Chips(), 10, "player %s left unable to post a blind", p.ID())
	}
}
