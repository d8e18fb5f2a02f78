package game

// HandPlayers tracks who is still in the hand. Three nested sets over the
// fixed seating order: dead players are out of the game entirely, folded
// players are out of the current hand, and dead implies folded.
type HandPlayers struct {
	players map[string]*PlayerEndpoint
	order   []string
	folded  map[string]bool
	dead    map[string]bool
}

// NewHandPlayers captures the seating order at hand start.
func NewHandPlayers(players []*PlayerEndpoint) *HandPlayers {
	hp := &HandPlayers{
		players: make(map[string]*PlayerEndpoint, len(players)),
		order:   make([]string, 0, len(players)),
		folded:  make(map[string]bool),
		dead:    make(map[string]bool),
	}
	for _, p := range players {
		hp.players[p.ID()] = p
		hp.order = append(hp.order, p.ID())
	}
	return hp
}

// Fold marks a player out of the current hand.
func (hp *HandPlayers) Fold(playerID string) error {
	if _, ok := hp.players[playerID]; !ok {
		return ErrUnknownPlayer
	}
	hp.folded[playerID] = true
	return nil
}

// Drop marks a player dead: folded now and excluded from future hands.
func (hp *HandPlayers) Drop(playerID string) error {
	if err := hp.Fold(playerID); err != nil {
		return err
	}
	hp.dead[playerID] = true
	return nil
}

// Reset clears fold state between hands. Dead players stay folded.
func (hp *HandPlayers) Reset() {
	hp.folded = make(map[string]bool)
	for id := range hp.dead {
		hp.folded[id] = true
	}
}

// Round enumerates the active players starting one seat past the dealer, so
// the small blind comes first and the dealer last.
func (hp *HandPlayers) Round(dealerID string) []*PlayerEndpoint {
	start := hp.indexOf(dealerID) + 1
	var ring []*PlayerEndpoint
	for i := 0; i < len(hp.order); i++ {
		id := hp.order[(start+i)%len(hp.order)]
		if !hp.folded[id] {
			ring = append(ring, hp.players[id])
		}
	}
	return ring
}

// Next returns the first active player after the given one in seat order,
// or nil when nobody else is active.
func (hp *HandPlayers) Next(playerID string) (*PlayerEndpoint, error) {
	if _, ok := hp.players[playerID]; !ok {
		return nil, ErrUnknownPlayer
	}
	if hp.folded[playerID] {
		return nil, ErrInactivePlayer
	}
	start := hp.indexOf(playerID)
	for i := 1; i < len(hp.order); i++ {
		id := hp.order[(start+i)%len(hp.order)]
		if !hp.folded[id] {
			return hp.players[id], nil
		}
	}
	return nil, nil
}

// Get returns a player in the hand by id.
func (hp *HandPlayers) Get(playerID string) (*PlayerEndpoint, error) {
	p, ok := hp.players[playerID]
	if !ok {
		return nil, ErrUnknownPlayer
	}
	return p, nil
}

// IsActive reports whether the player has not folded.
func (hp *HandPlayers) IsActive(playerID string) bool {
	_, ok := hp.players[playerID]
	return ok && !hp.folded[playerID]
}

// CountActive returns the number of players still in the hand.
func (hp *HandPlayers) CountActive() int {
	return len(hp.order) - len(hp.folded)
}

// CountActiveWithChips returns the active players who can still bet.
func (hp *HandPlayers) CountActiveWithChips() int {
	n := 0
	for _, p := range hp.Active() {
		if p.Chips() > 0 {
			n++
		}
	}
	return n
}

// All returns the non-dead players in seat order.
func (hp *HandPlayers) All() []*PlayerEndpoint {
	var out []*PlayerEndpoint
	for _, id := range hp.order {
		if !hp.dead[id] {
			out = append(out, hp.players[id])
		}
	}
	return out
}

// Active returns the non-folded players in seat order.
func (hp *HandPlayers) Active() []*PlayerEndpoint {
	var out []*PlayerEndpoint
	for _, id := range hp.order {
		if !hp.folded[id] {
			out = append(out, hp.players[id])
		}
	}
	return out
}

// Dead returns the players removed from the game.
func (hp *HandPlayers) Dead() []*PlayerEndpoint {
	var out []*PlayerEndpoint
	for _, id := range hp.order {
		if hp.dead[id] {
			out = append(out, hp.players[id])
		}
	}
	return out
}

func (hp *HandPlayers) indexOf(playerID string) int {
	for i, id := range hp.order {
		if id == playerID {
			return i
		}
	}
	return 0
}
