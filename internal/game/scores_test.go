package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/pokerd/internal/broker"
	"github.com/lox/pokerd/internal/deck"
	"github.com/lox/pokerd/internal/evaluator"
)

func TestScoresAssignCardsBestFirst(t *testing.T) {
	s := NewScores(evaluator.New())
	s.AssignCards("a", deck.MustParseCards("2sAh"))

	cards := s.PlayerCards("a")
	require.Len(t, cards, 2)
	assert.Equal(t, deck.Ace, cards[0].Rank, "hole cards stored in tiebreak order")
}

func TestScoresPlayerScoreUsesSharedCards(t *testing.T) {
	s := NewScores(evaluator.New())
	s.AssignCards("a", deck.MustParseCards("AhAs"))

	assert.Equal(t, evaluator.Pair, s.PlayerScore("a").Category)

	s.AddSharedCards(deck.MustParseCards("Ad7c2h"))
	assert.Equal(t, evaluator.Trips, s.PlayerScore("a").Category)
}

func TestWinnersSingleBest(t *testing.T) {
	b := broker.NewMemoryBroker()
	hp := stacks(b, map[string]int{"a": 100, "b": 100}, "a", "b")

	s := NewScores(evaluator.New())
	s.AssignCards("a", deck.MustParseCards("AhAs"))
	s.AssignCards("b", deck.MustParseCards("KhKs"))
	s.AddSharedCards(deck.MustParseCards("2c7d9h3s5d"))

	eligible := hp.Active()
	winners := Winners(hp, eligible, s)
	assert.Equal(t, []string{"a"}, endpointIDs(winners))
}

func TestWinnersTieSplits(t *testing.T) {
	b := broker.NewMemoryBroker()
	hp := stacks(b, map[string]int{"a": 100, "b": 100}, "a", "b")

	// The board plays for both; suits never break ties.
	s := NewScores(evaluator.New())
	s.AssignCards("a", deck.MustParseCards("2h3h"))
	s.AssignCards("b", deck.MustParseCards("2c3c"))
	s.AddSharedCards(deck.MustParseCards("AsKdQhJcTs"))

	winners := Winners(hp, hp.Active(), s)
	assert.ElementsMatch(t, []string{"a", "b"}, endpointIDs(winners))
}

func TestWinnersSkipsFolded(t *testing.T) {
	b := broker.NewMemoryBroker()
	hp := stacks(b, map[string]int{"a": 100, "b": 100}, "a", "b")

	s := NewScores(evaluator.New())
	s.AssignCards("a", deck.MustParseCards("AhAs"))
	s.AssignCards("b", deck.MustParseCards("KhKs"))
	s.AddSharedCards(deck.MustParseCards("2c7d9h3s5d"))

	// Eligibility was earned before the fold, but a folded player cannot win.
	eligible := hp.Active()
	require.NoError(t, hp.Fold("a"))
	winners := Winners(hp, eligible, s)
	assert.Equal(t, []string{"b"}, endpointIDs(winners))
}
