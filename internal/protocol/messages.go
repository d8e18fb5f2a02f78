// Package protocol defines the JSON wire messages exchanged with clients.
// Control messages carry a message_type tag; game events additionally carry
// an event name and the id of the hand they belong to.
package protocol

import (
	"github.com/lox/pokerd/internal/deck"
)

const (
	// Client -> Server
	TypeConnect          = "connect"
	TypeBet              = "bet"
	TypePong             = "pong"
	TypeReadyStateChange = "ready-state-change"
	TypeDisconnect       = "disconnect"

	// Server -> Client
	TypePing       = "ping"
	TypePingState  = "ping-state"
	TypeRoomUpdate = "room-update"
	TypeGameUpdate = "game-update"
	TypeError      = "error"
)

// Game event names carried by game-update messages.
const (
	EventNewGame           = "new-game"
	EventCardsAssignment   = "cards-assignment"
	EventPlayerAction      = "player-action"
	EventBet               = "bet"
	EventFold              = "fold"
	EventDeadPlayer        = "dead-player"
	EventPotsUpdate        = "pots-update"
	EventSharedCards       = "shared-cards"
	EventShowdown          = "showdown"
	EventWinnerDesignation = "winner-designation"
	EventGameOver          = "game-over"
	EventUpdateRanking     = "update-ranking-data"
)

// Room event names carried by room-update messages.
const (
	EventPlayerAdded       = "player-added"
	EventPlayerRejoined    = "player-rejoined"
	EventPlayerRemoved     = "player-removed"
	EventRoomOwnerAssigned = "room-owner-assigned"
)

// Bet types broadcast with each completed bet.
const (
	BetTypeBlind = "blind"
	BetTypeCheck = "check"
	BetTypeCall  = "call"
	BetTypeRaise = "raise"
	BetTypeAllIn = "all-in"
)

// Envelope is the minimal decode of any inbound message.
type Envelope struct {
	MessageType string `json:"message_type"`
}

// PlayerDTO is the public view of a player.
type PlayerDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Chips int    `json:"chips"`
	Loans int    `json:"loans"`
}

// ConnectRequest is the lobby admission message.
type ConnectRequest struct {
	MessageType  string        `json:"message_type"`
	TimeoutEpoch float64       `json:"timeout_epoch"`
	SessionID    string        `json:"session_id"`
	Player       ConnectPlayer `json:"player"`
	RoomID       string        `json:"room_id,omitempty"`
}

// ConnectPlayer is the client-supplied identity. Chips always come from the
// profile store, never from the client.
type ConnectPlayer struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ConnectAck acknowledges a successful admission on the session queue.
type ConnectAck struct {
	MessageType string    `json:"message_type"`
	ServerID    string    `json:"server_id"`
	Player      PlayerDTO `json:"player"`
}

// BetMessage is the client's answer to a player-action prompt. A nil Bet
// (missing or null) is treated like a timeout; -1 folds.
type BetMessage struct {
	MessageType string `json:"message_type"`
	Bet         *int   `json:"bet"`
}

// ReadyStateChange is the client's answer to a ping-state probe.
type ReadyStateChange struct {
	MessageType string `json:"message_type"`
	Ready       bool   `json:"ready"`
}

// ErrorMessage reports a failure to the client.
type ErrorMessage struct {
	MessageType string `json:"message_type"`
	Error       string `json:"error"`
}

// EventHeader is embedded at the top of every game event.
type EventHeader struct {
	MessageType string `json:"message_type"`
	Event       string `json:"event"`
	GameID      string `json:"game_id"`
}

// NewGame announces a new hand.
type NewGame struct {
	EventHeader
	GameType   string      `json:"game_type"`
	Players    []PlayerDTO `json:"players"`
	DealerID   string      `json:"dealer_id"`
	SmallBlind int         `json:"small_blind"`
	BigBlind   int         `json:"big_blind"`
}

// ScoreDTO is the wire form of an evaluated hand.
type ScoreDTO struct {
	Category int         `json:"category"`
	Cards    []deck.Card `json:"cards"`
}

// CardsAssignment privately delivers hole cards and their current score.
type CardsAssignment struct {
	EventHeader
	Target string      `json:"target"`
	Cards  []deck.Card `json:"cards"`
	Score  ScoreDTO    `json:"score"`
}

// PlayerAction prompts a player to bet.
type PlayerAction struct {
	EventHeader
	Action      string         `json:"action"`
	Player      PlayerDTO      `json:"player"`
	MinBet      int            `json:"min_bet"`
	MaxBet      int            `json:"max_bet"`
	Bets        map[string]int `json:"bets"`
	Timeout     int            `json:"timeout"`
	TimeoutDate string         `json:"timeout_date"`
}

// Bet broadcasts a completed bet.
type Bet struct {
	EventHeader
	Player  PlayerDTO      `json:"player"`
	Bet     int            `json:"bet"`
	BetType string         `json:"bet_type"`
	Bets    map[string]int `json:"bets"`
}

// Fold broadcasts a fold.
type Fold struct {
	EventHeader
	Player PlayerDTO `json:"player"`
}

// DeadPlayer broadcasts a player dropped from the hand.
type DeadPlayer struct {
	EventHeader
	Player PlayerDTO `json:"player"`
}

// PotDTO is one pot and the players eligible to win it.
type PotDTO struct {
	Money     int      `json:"money"`
	PlayerIDs []string `json:"player_ids"`
}

// PotsUpdate broadcasts the pots after a betting round.
type PotsUpdate struct {
	EventHeader
	Pots    []PotDTO             `json:"pots"`
	Players map[string]PlayerDTO `json:"players"`
}

// SharedCards broadcasts newly dealt community cards.
type SharedCards struct {
	EventHeader
	Cards []deck.Card `json:"cards"`
}

// ShowdownHand is one player's revealed hand.
type ShowdownHand struct {
	Cards []deck.Card `json:"cards"`
	Score ScoreDTO    `json:"score"`
}

// Showdown broadcasts the revealed hands of the remaining players.
type Showdown struct {
	EventHeader
	Players map[string]ShowdownHand `json:"players"`
}

// WonPotDTO is a resolved pot.
type WonPotDTO struct {
	Money      int      `json:"money"`
	PlayerIDs  []string `json:"player_ids"`
	WinnerIDs  []string `json:"winner_ids"`
	MoneySplit int      `json:"money_split"`
}

// WinnerDesignation broadcasts the resolution of one pot.
type WinnerDesignation struct {
	EventHeader
	Pot     WonPotDTO            `json:"pot"`
	Pots    []PotDTO             `json:"pots"`
	Players map[string]PlayerDTO `json:"players"`
}

// GameOver ends the hand.
type GameOver struct {
	EventHeader
}

// RankingEntry is one row of the ranking broadcast.
type RankingEntry struct {
	Name        string  `json:"name"`
	Chips       int     `json:"chips"`
	HandsPlayed int     `json:"hands_played"`
	BBPer100    float64 `json:"bb_per_100"`
}

// UpdateRanking broadcasts the ranking after each hand.
type UpdateRanking struct {
	EventHeader
	RankingList []RankingEntry `json:"ranking_list"`
}

// RoomUpdate broadcasts a seat change. Seats holds the room's seats in
// order, nil for empty.
type RoomUpdate struct {
	MessageType string               `json:"message_type"`
	Event       string               `json:"event"`
	RoomID      string               `json:"room_id"`
	Players     map[string]PlayerDTO `json:"players"`
	Seats       []*string            `json:"player_ids"`
	PlayerID    string               `json:"player_id,omitempty"`
}

// OwnerAssigned broadcasts the room owner and the modes they may switch to.
type OwnerAssigned struct {
	MessageType string               `json:"message_type"`
	Event       string               `json:"event"`
	RoomID      string               `json:"room_id"`
	OwnerID     string               `json:"owner_id"`
	CurrentMode string               `json:"current_game_mode"`
	GameModes   []string             `json:"game_modes"`
	Players     map[string]PlayerDTO `json:"players"`
	Seats       []*string            `json:"player_ids"`
}
