package deck

import (
	"encoding/json"
	"fmt"
)

// Suit represents a card suit
type Suit int

const (
	Spades Suit = iota
	Clubs
	Diamonds
	Hearts
)

// String returns the string representation of a suit
func (s Suit) String() string {
	switch s {
	case Spades:
		return "♠"
	case Clubs:
		return "♣"
	case Diamonds:
		return "♦"
	case Hearts:
		return "♥"
	default:
		return "?"
	}
}

// Rank represents a card rank. Aces are high (14) but play low in the
// five-high straight.
type Rank int

const (
	Two Rank = iota + 2
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

// String returns the string representation of a rank
func (r Rank) String() string {
	switch {
	case r >= Two && r <= Nine:
		return fmt.Sprintf("%d", int(r))
	case r == Ten:
		return "T"
	case r == Jack:
		return "J"
	case r == Queen:
		return "Q"
	case r == King:
		return "K"
	case r == Ace:
		return "A"
	default:
		return "?"
	}
}

// Card represents a playing card. Cards order by their packed value, rank
// first with suit breaking ties.
type Card struct {
	Rank Rank
	Suit Suit
}

// NewCard creates a new card, validating rank and suit bounds.
func NewCard(rank Rank, suit Suit) (Card, error) {
	if rank < Two || rank > Ace {
		return Card{}, fmt.Errorf("invalid card rank: %d", int(rank))
	}
	if suit < Spades || suit > Hearts {
		return Card{}, fmt.Errorf("invalid card suit: %d", int(suit))
	}
	return Card{Rank: rank, Suit: suit}, nil
}

// MustCard creates a card and panics on an invalid rank or suit. Intended
// for literals in tests and deck construction.
func MustCard(rank Rank, suit Suit) Card {
	c, err := NewCard(rank, suit)
	if err != nil {
		panic(err)
	}
	return c
}

// Value returns the packed integer encoding (rank<<2)|suit.
func (c Card) Value() int {
	return int(c.Rank)<<2 | int(c.Suit)
}

// FromValue decodes a packed card value.
func FromValue(v int) (Card, error) {
	return NewCard(Rank(v>>2), Suit(v&3))
}

// Less orders cards by packed value.
func (c Card) Less(other Card) bool {
	return c.Value() < other.Value()
}

// String returns the string representation of a card (e.g., "A♠")
func (c Card) String() string {
	return fmt.Sprintf("%s%s", c.Rank, c.Suit)
}

// MarshalJSON encodes the card as the wire pair [rank, suit].
func (c Card) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{int(c.Rank), int(c.Suit)})
}

// UnmarshalJSON decodes the wire pair [rank, suit], rejecting out-of-range
// values.
func (c *Card) UnmarshalJSON(data []byte) error {
	var pair [2]int
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	card, err := NewCard(Rank(pair[0]), Suit(pair[1]))
	if err != nil {
		return err
	}
	*c = card
	return nil
}
