// Package evaluator scores poker hands of two to seven cards.
package evaluator

import (
	"sort"

	"github.com/lox/pokerd/internal/deck"
)

// Evaluator detects the best hand category within a set of cards. The lowest
// rank matters for wheel straights: in a stripped deck the ace plays below
// the lowest remaining rank.
type Evaluator struct {
	lowestRank deck.Rank
}

// New creates an evaluator for a full 52-card deck.
func New() *Evaluator {
	return &Evaluator{lowestRank: deck.Two}
}

// NewWithLowestRank creates an evaluator for a stripped deck.
func NewWithLowestRank(rank deck.Rank) *Evaluator {
	return &Evaluator{lowestRank: rank}
}

// Score evaluates the best score in cards. Works on any hand of one or more
// cards; with fewer than five the tiebreak list is short and weaker
// categories dominate.
func (e *Evaluator) Score(cards []deck.Card) Score {
	sorted := make([]deck.Card, len(cards))
	copy(sorted, cards)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[j].Less(sorted[i])
	})

	checks := []struct {
		category Category
		detect   func([]deck.Card) []deck.Card
	}{
		{StraightFlush, e.straightFlush},
		{Quads, e.quads},
		{FullHouse, e.fullHouse},
		{Flush, e.flush},
		{Straight, e.straight},
		{Trips, e.trips},
		{TwoPair, e.twoPair},
		{Pair, e.pair},
	}
	for _, check := range checks {
		if best := check.detect(sorted); best != nil {
			return Score{Category: check.category, Cards: best}
		}
	}
	return Score{Category: NoPair, Cards: truncate(sorted)}
}

// groupsOf returns the rank groups of exactly n cards, strongest rank first.
// Input must be sorted descending, so each group is too.
func groupsOf(sorted []deck.Card, n int) [][]deck.Card {
	var groups [][]deck.Card
	for i := 0; i < len(sorted); {
		j := i
		for j < len(sorted) && sorted[j].Rank == sorted[i].Rank {
			j++
		}
		if j-i == n {
			groups = append(groups, sorted[i:j])
		}
		i = j
	}
	return groups
}

// mergeKickers completes the scoring cards with the strongest remaining
// cards, truncated to five.
func mergeKickers(sorted, scoreCards []deck.Card) []deck.Card {
	merged := make([]deck.Card, 0, 5)
	merged = append(merged, scoreCards...)
	for _, c := range sorted {
		if len(merged) == 5 {
			break
		}
		if !contains(scoreCards, c) {
			merged = append(merged, c)
		}
	}
	return merged
}

func contains(cards []deck.Card, card deck.Card) bool {
	for _, c := range cards {
		if c == card {
			return true
		}
	}
	return false
}

func truncate(sorted []deck.Card) []deck.Card {
	if len(sorted) > 5 {
		sorted = sorted[:5]
	}
	return sorted
}

// straightIn finds the highest five-card run in a descending-sorted slice.
// The ace can complete a wheel below the lowest deck rank.
func (e *Evaluator) straightIn(sorted []deck.Card) []deck.Card {
	if len(sorted) < 5 {
		return nil
	}
	run := []deck.Card{sorted[0]}
	for i := 1; i < len(sorted); i++ {
		switch {
		case sorted[i].Rank == sorted[i-1].Rank-1:
			run = append(run, sorted[i])
			if len(run) == 5 {
				return run
			}
		case sorted[i].Rank != sorted[i-1].Rank:
			run = []deck.Card{sorted[i]}
		}
	}
	if len(run) == 4 && sorted[0].Rank == deck.Ace && run[3].Rank == e.lowestRank {
		return append(run, sorted[0])
	}
	return nil
}

func (e *Evaluator) straight(sorted []deck.Card) []deck.Card {
	return e.straightIn(sorted)
}

func (e *Evaluator) straightFlush(sorted []deck.Card) []deck.Card {
	for _, suited := range bySuit(sorted) {
		if len(suited) >= 5 {
			if run := e.straightIn(suited); run != nil {
				return run
			}
		}
	}
	return nil
}

func (e *Evaluator) flush(sorted []deck.Card) []deck.Card {
	for _, suited := range bySuit(sorted) {
		if len(suited) >= 5 {
			return suited[:5]
		}
	}
	return nil
}

func bySuit(sorted []deck.Card) [][]deck.Card {
	suits := make([][]deck.Card, 4)
	for _, c := range sorted {
		suits[c.Suit] = append(suits[c.Suit], c)
	}
	return suits
}

func (e *Evaluator) quads(sorted []deck.Card) []deck.Card {
	groups := groupsOf(sorted, 4)
	if len(groups) == 0 {
		return nil
	}
	return mergeKickers(sorted, groups[0])
}

func (e *Evaluator) fullHouse(sorted []deck.Card) []deck.Card {
	tripsGroups := groupsOf(sorted, 3)
	if len(tripsGroups) >= 2 {
		// Two sets of trips: the second plays as the pair.
		return append(append([]deck.Card{}, tripsGroups[0]...), tripsGroups[1][:2]...)
	}
	pairGroups := groupsOf(sorted, 2)
	if len(tripsGroups) == 0 || len(pairGroups) == 0 {
		return nil
	}
	return append(append([]deck.Card{}, tripsGroups[0]...), pairGroups[0]...)
}

func (e *Evaluator) trips(sorted []deck.Card) []deck.Card {
	groups := groupsOf(sorted, 3)
	if len(groups) == 0 {
		return nil
	}
	return mergeKickers(sorted, groups[0])
}

func (e *Evaluator) twoPair(sorted []deck.Card) []deck.Card {
	groups := groupsOf(sorted, 2)
	if len(groups) < 2 {
		return nil
	}
	return mergeKickers(sorted, append(append([]deck.Card{}, groups[0]...), groups[1]...))
}

func (e *Evaluator) pair(sorted []deck.Card) []deck.Card {
	groups := groupsOf(sorted, 2)
	if len(groups) == 0 {
		return nil
	}
	return mergeKickers(sorted, groups[0])
}
