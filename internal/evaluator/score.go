package evaluator

import (
	"github.com/lox/pokerd/internal/deck"
)

// Category is the hand category, ordered weakest to strongest.
type Category int

const (
	NoPair Category = iota
	Pair
	TwoPair
	Trips
	Straight
	Flush
	FullHouse
	Quads
	StraightFlush
)

// String returns the human-readable category name
func (c Category) String() string {
	switch c {
	case NoPair:
		return "highest card"
	case Pair:
		return "pair"
	case TwoPair:
		return "two pair"
	case Trips:
		return "three of a kind"
	case Straight:
		return "straight"
	case Flush:
		return "flush"
	case FullHouse:
		return "full house"
	case Quads:
		return "four of a kind"
	case StraightFlush:
		return "straight flush"
	default:
		return "unknown"
	}
}

// Score is an evaluated hand: the category plus the cards that decide ties,
// best first. At most five cards; fewer when fewer were evaluated (hole-card
// scores are sent before the flop).
type Score struct {
	Category Category    `json:"category"`
	Cards    []deck.Card `json:"cards"`
}

// Strength packs the score into a single comparable integer: the category
// nibble followed by five rank nibbles, missing cards contributing zero.
func (s Score) Strength() int {
	strength := int(s.Category)
	for i := 0; i < 5; i++ {
		strength <<= 4
		if i < len(s.Cards) {
			strength += int(s.Cards[i].Rank)
		}
	}
	return strength
}

// Cmp compares two scores: -1 if s is weaker, 0 on a tie, 1 if stronger.
// Suits never break ties.
func (s Score) Cmp(other Score) int {
	a, b := s.Strength(), other.Strength()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
