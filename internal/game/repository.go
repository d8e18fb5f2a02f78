package game

import (
	"context"

	"github.com/lox/pokerd/internal/protocol"
)

// Profile is a player's persisted state. Chips and loans always come from
// here, never from the client.
type Profile struct {
	ID          string
	DisplayName string
	Chips       int
	Loans       int
	HandsPlayed int
}

// HandDelta is one player's state change over a hand.
type HandDelta struct {
	PlayerID   string
	ChipsDelta int
	LoansDelta int
	HandsDelta int
}

// ProfileRepository is the persistence boundary. The engine treats it as a
// black box and does not retry its errors beyond logging them.
type ProfileRepository interface {
	LoadProfile(ctx context.Context, userID string) (Profile, error)
	PersistHand(ctx context.Context, deltas []HandDelta) error
	FetchRanking(ctx context.Context) ([]protocol.RankingEntry, error)
}
