package game

import (
	"errors"
	"fmt"
)

// GameError aborts the current hand and deactivates the room loop.
type GameError struct {
	Desc string
}

func (e *GameError) Error() string { return e.Desc }

// NewGameError creates a GameError with a formatted description.
func NewGameError(format string, args ...any) *GameError {
	return &GameError{Desc: fmt.Sprintf(format, args...)}
}

// errEndGame short-circuits the street loop to payout. Internal to the
// engine: it never escapes PlayHand.
var errEndGame = errors.New("hand ended early")

// ErrInvalidBets reports a commitment ledger that cannot be partitioned
// into pots (a folded player committed more than every active player).
var ErrInvalidBets = errors.New("invalid bets")

// ErrUnknownPlayer reports an id that is not part of the hand.
var ErrUnknownPlayer = errors.New("unknown player id")

// ErrInactivePlayer reports an operation on a player who already folded.
var ErrInactivePlayer = errors.New("inactive player")
