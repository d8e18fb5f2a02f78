package game

// BetsLedger tracks the chips each player has committed during one street,
// keyed by player id.
type BetsLedger map[string]int

// Copy returns a shallow copy of the ledger.
func (b BetsLedger) Copy() BetsLedger {
	out := make(BetsLedger, len(b))
	for id, v := range b {
		out[id] = v
	}
	return out
}

// AnyBet reports whether anyone committed chips this street.
func (b BetsLedger) AnyBet() bool {
	for _, v := range b {
		if v > 0 {
			return true
		}
	}
	return false
}

// RequestBetFunc prompts a player for a bet. It returns an amount in
// [minBet, maxBet], the fold sentinel -1, or an error for a timeout or
// unrecoverable failure (the player is then dropped from the hand).
type RequestBetFunc func(player *PlayerEndpoint, minBet, maxBet int, bets BetsLedger) (int, error)

// BetResult describes the outcome of one player's turn.
type BetResult struct {
	Player *PlayerEndpoint
	Amount int
	Folded bool
	Dead   bool
	MinBet int
	MaxBet int
}

// OnResultFunc observes each turn's outcome, typically to broadcast it.
type OnResultFunc func(result BetResult)

// BetRounder runs one street of betting over a HandPlayers set.
type BetRounder struct {
	players *HandPlayers
}

// NewBetRounder creates a rounder over the hand's players.
func NewBetRounder(players *HandPlayers) *BetRounder {
	return &BetRounder{players: players}
}

// MaxBet is the most the player may commit: capped by their own chips and
// by the highest amount any other active player could still match.
func (r *BetRounder) MaxBet(player *PlayerEndpoint, bets BetsLedger) int {
	highest, found := 0, false
	for _, other := range r.players.Round(player.ID()) {
		if other == player {
			continue
		}
		stake := other.Chips() + bets[other.ID()]
		if !found || stake > highest {
			highest = stake
			found = true
		}
	}
	if !found {
		return 0
	}
	return min(highest-bets[player.ID()], player.Chips())
}

// MinBet is the amount needed to call: the gap to the highest ledger entry,
// capped by the player's chips. Zero means check; equal to MaxBet means a
// forced all-in call.
func (r *BetRounder) MinBet(player *PlayerEndpoint, bets BetsLedger) int {
	highest := 0
	for _, v := range bets {
		if v > highest {
			highest = v
		}
	}
	return min(highest-bets[player.ID()], player.Chips())
}

// PlayRound performs a complete betting round and returns the last player
// who strictly raised, or the first to act if nobody did. A blind round
// starts action after the big blind; later streets start at the first
// active seat past the dealer.
func (r *BetRounder) PlayRound(dealerID string, bets BetsLedger, blindRound bool, requestBet RequestBetFunc, onResult OnResultFunc) (*PlayerEndpoint, error) {
	ring := r.players.Round(dealerID)
	if len(ring) == 0 {
		return nil, NewGameError("no active players in this hand")
	}

	startIdx := 0
	if blindRound {
		// Blinds sit at ring[0] and ring[1]; heads-up they swap, putting
		// the big blind at ring[0].
		if len(ring) == 2 {
			startIdx = 1
		} else {
			startIdx = 2 % len(ring)
		}
	}

	// The ledger must be sane on entry: non-negative and non-decreasing
	// along the action order (blinds satisfy this naturally).
	prev := 0
	for i := range ring {
		p := ring[(startIdx+i)%len(ring)]
		if _, ok := bets[p.ID()]; !ok {
			bets[p.ID()] = 0
		}
		v := bets[p.ID()]
		if v < 0 || v < prev {
			return nil, NewGameError("invalid bets ledger for player %s", p.ID())
		}
		prev = v
	}

	current := ring[startIdx]
	var best *PlayerEndpoint

	for current != nil && current != best {
		next, err := r.players.Next(current.ID())
		if err != nil {
			return nil, err
		}

		maxBet := r.MaxBet(current, bets)
		minBet := r.MinBet(current, bets)

		var bet int
		var betErr error
		forced := maxBet == 0
		if forced {
			// All-in already, or nobody left who could match a bet.
			bet = 0
		} else {
			bet, betErr = requestBet(current, minBet, maxBet, bets)
		}

		result := BetResult{Player: current, MinBet: minBet, MaxBet: maxBet}
		switch {
		case betErr != nil:
			if err := r.players.Drop(current.ID()); err != nil {
				return nil, err
			}
			result.Dead = true
		case bet == -1:
			if err := r.players.Fold(current.ID()); err != nil {
				return nil, err
			}
			result.Folded = true
		default:
			if !forced && (bet < minBet || bet > maxBet) {
				return nil, NewGameError("bet %d out of range [%d, %d]", bet, minBet, maxBet)
			}
			if err := current.Take(bet); err != nil {
				return nil, NewGameError("taking bet: %v", err)
			}
			bets[current.ID()] += bet
			result.Amount = bet
			if best == nil || bet > minBet {
				best = current
			}
		}

		if onResult != nil {
			onResult(result)
		}
		current = next
	}

	return best, nil
}
