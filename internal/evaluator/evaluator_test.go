package evaluator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/pokerd/internal/deck"
)

func score(t *testing.T, cards string) Score {
	t.Helper()
	return New().Score(deck.MustParseCards(cards))
}

func TestCategories(t *testing.T) {
	tests := []struct {
		name     string
		cards    string
		category Category
	}{
		{"high card", "As Kd 9c 7h 4s 3d 2c", NoPair},
		{"pair", "As Ad 9c 7h 4s 3d 2c", Pair},
		{"two pair", "As Ad 9c 9h 4s 3d 2c", TwoPair},
		{"trips", "As Ad Ac 9h 4s 3d 2c", Trips},
		{"straight", "9s 8d 7c 6h 5s Kd 2c", Straight},
		{"flush", "As Ks 9s 7s 4s 3d 2c", Flush},
		{"full house", "As Ad Ac 9h 9s 3d 2c", FullHouse},
		{"quads", "As Ad Ac Ah 4s 3d 2c", Quads},
		{"straight flush", "9s 8s 7s 6s 5s Kd 2c", StraightFlush},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := score(t, tt.cards)
			assert.Equal(t, tt.category, s.Category)
		})
	}
}

func TestWheelStraight(t *testing.T) {
	s := score(t, "5s 4d 3c 2h As Kd Qc")
	require.Equal(t, Straight, s.Category)
	// Ace plays low: the five leads, the ace trails.
	assert.Equal(t, deck.Five, s.Cards[0].Rank)
	assert.Equal(t, deck.Ace, s.Cards[4].Rank)

	// A wheel loses to a six-high straight.
	six := score(t, "6s 5d 4c 3h 2s Kd Qc")
	assert.Equal(t, -1, s.Cmp(six))
}

func TestWheelStraightFlush(t *testing.T) {
	s := score(t, "5s 4s 3s 2s As Kd Qc")
	assert.Equal(t, StraightFlush, s.Category)
	assert.Equal(t, deck.Five, s.Cards[0].Rank)
}

func TestKickersDecide(t *testing.T) {
	// Same pair of aces, king kicker beats queen kicker.
	a := score(t, "As Ad Kc 7h 4s 3d 2c")
	b := score(t, "Ah Ac Qd 7s 4d 3c 2h")
	assert.Equal(t, 1, a.Cmp(b))
	assert.Equal(t, -1, b.Cmp(a))
}

func TestSuitsNeverBreakTies(t *testing.T) {
	a := score(t, "As Ad Kc 7h 4s")
	b := score(t, "Ah Ac Kd 7s 4d")
	assert.Equal(t, 0, a.Cmp(b))
	assert.Equal(t, a.Strength(), b.Strength())
}

func TestCategoryOrdering(t *testing.T) {
	// Every category strictly beats the one below, regardless of ranks.
	ordered := []Score{
		score(t, "Ks Qd 9c 7h 4s"),    // no pair
		score(t, "2s 2d 5c 4h 3s"),    // pair
		score(t, "2s 2d 3c 3h 4s"),    // two pair
		score(t, "2s 2d 2c 4h 3s"),    // trips
		score(t, "6s 5d 4c 3h 2s"),    // straight
		score(t, "8s 6s 5s 3s 2s"),    // flush
		score(t, "2s 2d 2c 3h 3s"),    // full house
		score(t, "2s 2d 2c 2h 3s"),    // quads
		score(t, "6s 5s 4s 3s 2s"),    // straight flush
	}
	for i := 1; i < len(ordered); i++ {
		assert.Equal(t, 1, ordered[i].Cmp(ordered[i-1]),
			"%s should beat %s", ordered[i].Category, ordered[i-1].Category)
	}
}

func TestFullHouseFromTwoTrips(t *testing.T) {
	s := score(t, "As Ad Ac 9h 9s 9d 2c")
	require.Equal(t, FullHouse, s.Category)
	assert.Equal(t, deck.Ace, s.Cards[0].Rank)
	assert.Equal(t, deck.Nine, s.Cards[3].Rank)
	assert.Len(t, s.Cards, 5)
}

func TestFlushPicksHighestFive(t *testing.T) {
	s := score(t, "As Ks 9s 7s 4s 2s 3d")
	require.Equal(t, Flush, s.Category)
	ranks := make([]deck.Rank, len(s.Cards))
	for i, c := range s.Cards {
		ranks[i] = c.Rank
	}
	assert.Equal(t, []deck.Rank{deck.Ace, deck.King, deck.Nine, deck.Seven, deck.Four}, ranks)
}

func TestTwoCardHands(t *testing.T) {
	// Hole cards are scored before the flop.
	pair := score(t, "As Ad")
	require.Equal(t, Pair, pair.Category)
	assert.Len(t, pair.Cards, 2)

	high := score(t, "As Kd")
	require.Equal(t, NoPair, high.Category)
	assert.Equal(t, 1, pair.Cmp(high))
}

func TestStrengthPacking(t *testing.T) {
	s := Score{Category: Pair, Cards: deck.MustParseCards("As Ad Kc 7h 4s")}
	want := int(Pair)<<20 | 14<<16 | 14<<12 | 13<<8 | 7<<4 | 4
	assert.Equal(t, want, s.Strength())

	// Short hands pad missing nibbles with zero.
	short := Score{Category: NoPair, Cards: deck.MustParseCards("As Kd")}
	assert.Equal(t, 14<<16|13<<12, short.Strength())
}

func TestShortDeckWheel(t *testing.T) {
	// In a six-low deck the ace plays below the six.
	e := NewWithLowestRank(deck.Six)
	s := e.Score(deck.MustParseCards("9s 8d 7c 6h As"))
	require.Equal(t, Straight, s.Category)
	assert.Equal(t, deck.Nine, s.Cards[0].Rank)
	assert.Equal(t, deck.Ace, s.Cards[4].Rank)
}
