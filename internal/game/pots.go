package game

import (
	"sort"
)

// Pot is one pot and the players eligible to win it.
type Pot struct {
	Amount   int
	Eligible []*PlayerEndpoint
}

// PotBuilder folds each street's ledger into a running per-hand commitment
// map and rebuilds the pots, splitting side pots where all-ins capped what
// a player could match.
type PotBuilder struct {
	players     *HandPlayers
	commitments map[string]int
	pots        []Pot
}

// NewPotBuilder creates a builder over the hand's players.
func NewPotBuilder(players *HandPlayers) *PotBuilder {
	commitments := make(map[string]int)
	for _, p := range players.All() {
		commitments[p.ID()] = 0
	}
	return &PotBuilder{players: players, commitments: commitments}
}

// Pots returns the pots from the last build, main pot first.
func (pb *PotBuilder) Pots() []Pot {
	return pb.pots
}

// AddBets merges a street's ledger and rebuilds the pots:
// walk the players in ascending commitment order; a folded player's
// commitment feeds a spare accumulator that seeds the next pot; each
// active player with remaining commitment v opens a pot that every later
// player matches with v, eligibility going to the active ones. Spare left
// at the end means a folded player out-committed every active player,
// which no valid betting sequence produces.
func (pb *PotBuilder) AddBets(bets BetsLedger) error {
	for _, p := range pb.players.All() {
		pb.commitments[p.ID()] += bets[p.ID()]
	}

	remaining := make(map[string]int, len(pb.commitments))
	for id, v := range pb.commitments {
		remaining[id] = v
	}

	players := pb.players.All()
	sort.SliceStable(players, func(i, j int) bool {
		return remaining[players[i].ID()] < remaining[players[j].ID()]
	})

	pb.pots = nil
	spare := 0

	for i, player := range players {
		if !pb.players.IsActive(player.ID()) {
			spare += remaining[player.ID()]
			remaining[player.ID()] = 0
			continue
		}
		v := remaining[player.ID()]
		if v == 0 {
			continue
		}
		pot := Pot{Amount: spare}
		spare = 0
		for j := i; j < len(players); j++ {
			if pb.players.IsActive(players[j].ID()) {
				pot.Eligible = append(pot.Eligible, players[j])
			}
			pot.Amount += v
			remaining[players[j].ID()] -= v
		}
		pb.pots = append(pb.pots, pot)
	}

	if spare != 0 {
		return ErrInvalidBets
	}
	return nil
}
