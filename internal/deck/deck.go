package deck

import (
	rand "math/rand/v2"
	"time"

	"github.com/lox/pokerd/internal/randutil"
)

// Deck represents a shuffled deck of playing cards with a discard pile.
// Discarded cards are recycled (reshuffled back in) when a draw exceeds the
// remaining stock, so a deck never refuses a deal while 52 cards are in
// circulation.
type Deck struct {
	cards      []Card
	discards   []Card
	lowestRank Rank
	rng        *rand.Rand
}

// Option configures a deck.
type Option func(*Deck)

// WithRand sets the random source used for shuffling. Tests use this with
// randutil.New for reproducible deals.
func WithRand(rng *rand.Rand) Option {
	return func(d *Deck) {
		d.rng = rng
	}
}

// WithLowestRank builds a stripped deck starting at the given rank, for
// short-deck variants.
func WithLowestRank(rank Rank) Option {
	return func(d *Deck) {
		d.lowestRank = rank
	}
}

// NewDeck creates a shuffled deck.
func NewDeck(opts ...Option) *Deck {
	d := &Deck{lowestRank: Two}
	for _, opt := range opts {
		opt(d)
	}
	if d.rng == nil {
		d.rng = randutil.New(time.Now().UnixNano())
	}
	d.Reset()
	return d
}

// Reset restores the full deck, clears the discard pile and shuffles.
func (d *Deck) Reset() {
	d.cards = d.cards[:0]
	d.discards = d.discards[:0]
	for rank := d.lowestRank; rank <= Ace; rank++ {
		for suit := Spades; suit <= Hearts; suit++ {
			d.cards = append(d.cards, Card{Rank: rank, Suit: suit})
		}
	}
	d.shuffle()
}

func (d *Deck) shuffle() {
	d.rng.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
}

// Pop deals n cards from the top of the deck. When fewer than n remain the
// discard pile is shuffled back into the stock first; asking for more cards
// than stock plus discards returns false.
func (d *Deck) Pop(n int) ([]Card, bool) {
	if n > len(d.cards) {
		if n > len(d.cards)+len(d.discards) {
			return nil, false
		}
		d.cards = append(d.cards, d.discards...)
		d.discards = d.discards[:0]
		d.shuffle()
	}
	cards := make([]Card, n)
	copy(cards, d.cards[:n])
	d.cards = d.cards[n:]
	return cards, true
}

// PopOne deals a single card.
func (d *Deck) PopOne() (Card, bool) {
	cards, ok := d.Pop(1)
	if !ok {
		return Card{}, false
	}
	return cards[0], true
}

// Discard returns dealt cards to the discard pile for later recycling.
func (d *Deck) Discard(cards ...Card) {
	d.discards = append(d.discards, cards...)
}

// Remaining returns the number of cards left in the stock.
func (d *Deck) Remaining() int {
	return len(d.cards)
}

// Discards returns the number of cards in the discard pile.
func (d *Deck) Discards() int {
	return len(d.discards)
}
