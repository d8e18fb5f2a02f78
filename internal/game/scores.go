package game

import (
	"github.com/lox/pokerd/internal/deck"
	"github.com/lox/pokerd/internal/evaluator"
)

// Scores tracks hole cards and community cards during a hand and evaluates
// players on demand.
type Scores struct {
	eval      *evaluator.Evaluator
	holeCards map[string][]deck.Card
	shared    []deck.Card
}

// NewScores creates an empty score tracker.
func NewScores(eval *evaluator.Evaluator) *Scores {
	return &Scores{eval: eval, holeCards: make(map[string][]deck.Card)}
}

// AssignCards records a player's hole cards, stored best-first so the
// cards-assignment payload matches the score's tiebreak order.
func (s *Scores) AssignCards(playerID string, cards []deck.Card) {
	s.holeCards[playerID] = s.eval.Score(cards).Cards
}

// PlayerCards returns the player's hole cards.
func (s *Scores) PlayerCards(playerID string) []deck.Card {
	return s.holeCards[playerID]
}

// PlayerScore evaluates the player's best hand over hole plus community
// cards.
func (s *Scores) PlayerScore(playerID string) evaluator.Score {
	cards := make([]deck.Card, 0, len(s.holeCards[playerID])+len(s.shared))
	cards = append(cards, s.holeCards[playerID]...)
	cards = append(cards, s.shared...)
	return s.eval.Score(cards)
}

// AddSharedCards appends newly dealt community cards.
func (s *Scores) AddSharedCards(cards []deck.Card) {
	s.shared = append(s.shared, cards...)
}

// SharedCards returns the community cards dealt so far.
func (s *Scores) SharedCards() []deck.Card {
	return s.shared
}

// Winners returns the subset of pot-eligible, still-active players whose
// scores tie for best. Suits never break ties, so multiple winners split.
func Winners(players *HandPlayers, eligible []*PlayerEndpoint, scores *Scores) []*PlayerEndpoint {
	var winners []*PlayerEndpoint
	for _, player := range eligible {
		if !players.IsActive(player.ID()) {
			continue
		}
		if len(winners) == 0 {
			winners = append(winners, player)
			continue
		}
		switch scores.PlayerScore(player.ID()).Cmp(scores.PlayerScore(winners[0].ID())) {
		case 0:
			winners = append(winners, player)
		case 1:
			winners = []*PlayerEndpoint{player}
		}
	}
	return winners
}
