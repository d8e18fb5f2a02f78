package server

import (
	"errors"

	"github.com/lox/pokerd/internal/game"
)

var (
	// ErrRoomFull reports an admission attempt with no empty seat.
	ErrRoomFull = errors.New("room is full")

	// ErrDuplicate reports a player id already seated. Callers convert this
	// into a rejoin by rebinding the existing endpoint's channel.
	ErrDuplicate = errors.New("player already seated")

	// ErrUnknownPlayer reports a player id not seated at the table.
	ErrUnknownPlayer = errors.New("player not seated")
)

// SeatTable is a fixed array of seats. The first admitted player becomes the
// owner; ownership passes to the next occupied seat when the owner leaves.
// Not safe for concurrent use; the room serializes access under its lock.
type SeatTable struct {
	seats []*game.PlayerEndpoint
	owner string
}

// NewSeatTable creates a table with the given number of seats.
func NewSeatTable(size int) *SeatTable {
	return &SeatTable{seats: make([]*game.PlayerEndpoint, size)}
}

// Add seats the endpoint in the lowest-index empty seat.
func (t *SeatTable) Add(endpoint *game.PlayerEndpoint) (int, error) {
	if _, ok := t.Get(endpoint.ID()); ok {
		return 0, ErrDuplicate
	}
	for i, seat := range t.seats {
		if seat == nil {
			t.seats[i] = endpoint
			if t.owner == "" {
				t.owner = endpoint.ID()
			}
			return i, nil
		}
	}
	return 0, ErrRoomFull
}

// Remove frees the player's seat. Ownership transfers to the next occupied
// seat in order; the result reports whether the owner changed.
func (t *SeatTable) Remove(playerID string) (ownerChanged bool, err error) {
	found := false
	for i, seat := range t.seats {
		if seat != nil && seat.ID() == playerID {
			t.seats[i] = nil
			found = true
			break
		}
	}
	if !found {
		return false, ErrUnknownPlayer
	}
	if t.owner != playerID {
		return false, nil
	}
	t.owner = ""
	for _, seat := range t.seats {
		if seat != nil {
			t.owner = seat.ID()
			break
		}
	}
	return true, nil
}

// Get returns the seated endpoint with the given id.
func (t *SeatTable) Get(playerID string) (*game.PlayerEndpoint, bool) {
	for _, seat := range t.seats {
		if seat != nil && seat.ID() == playerID {
			return seat, true
		}
	}
	return nil, false
}

// Owner returns the current owner's id, empty when the table is empty.
func (t *SeatTable) Owner() string { return t.owner }

// Count returns the number of occupied seats.
func (t *SeatTable) Count() int {
	n := 0
	for _, seat := range t.seats {
		if seat != nil {
			n++
		}
	}
	return n
}

// Size returns the total number of seats.
func (t *SeatTable) Size() int { return len(t.seats) }

// Players returns the seated endpoints in seat order.
func (t *SeatTable) Players() []*game.PlayerEndpoint {
	var out []*game.PlayerEndpoint
	for _, seat := range t.seats {
		if seat != nil {
			out = append(out, seat)
		}
	}
	return out
}

// SeatIDs returns the seats in order, nil for empty seats. This is the wire
// form of the seating chart.
func (t *SeatTable) SeatIDs() []*string {
	out := make([]*string, len(t.seats))
	for i, seat := range t.seats {
		if seat != nil {
			id := seat.ID()
			out[i] = &id
		}
	}
	return out
}
