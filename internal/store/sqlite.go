// Package store persists player profiles and hand results in SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/charmbracelet/log"
	_ "github.com/mattn/go-sqlite3"

	"github.com/lox/pokerd/internal/game"
	"github.com/lox/pokerd/internal/protocol"
)

// DefaultChips is the stack a brand-new profile starts with.
const DefaultChips = 1000

const schema = `
CREATE TABLE IF NOT EXISTS players (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL DEFAULT '',
	chips        INTEGER NOT NULL,
	loans        INTEGER NOT NULL DEFAULT 0,
	hands_played INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS hand_results (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	player_id   TEXT NOT NULL REFERENCES players(id),
	chips_delta INTEGER NOT NULL,
	loans_delta INTEGER NOT NULL,
	played_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_hand_results_player ON hand_results(player_id);
`

// SQLiteRepository implements game.ProfileRepository over a SQLite file.
type SQLiteRepository struct {
	db       *sql.DB
	bigBlind int
	logger   *log.Logger
}

var _ game.ProfileRepository = (*SQLiteRepository)(nil)

// Open opens (creating if needed) the database at path and bootstraps the
// schema. The big blind is needed to express ranking winrates in bb/100.
func Open(path string, bigBlind int, logger *log.Logger) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("bootstrapping schema: %w", err)
	}
	return &SQLiteRepository{
		db:       db,
		bigBlind: bigBlind,
		logger:   logger.WithPrefix("store"),
	}, nil
}

// Close closes the database.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// LoadProfile fetches a player's profile, creating a fresh one with the
// default stack on first sight.
func (r *SQLiteRepository) LoadProfile(ctx context.Context, userID string) (game.Profile, error) {
	profile := game.Profile{ID: userID}
	err := r.db.QueryRowContext(ctx,
		`SELECT name, chips, loans, hands_played FROM players WHERE id = ?`, userID,
	).Scan(&profile.DisplayName, &profile.Chips, &profile.Loans, &profile.HandsPlayed)
	if err == sql.ErrNoRows {
		if _, err := r.db.ExecContext(ctx,
			`INSERT INTO players (id, chips) VALUES (?, ?)`, userID, DefaultChips,
		); err != nil {
			return game.Profile{}, fmt.Errorf("creating profile %s: %w", userID, err)
		}
		r.logger.Info("Created profile", "player", userID, "chips", DefaultChips)
		profile.Chips = DefaultChips
		return profile, nil
	}
	if err != nil {
		return game.Profile{}, fmt.Errorf("loading profile %s: %w", userID, err)
	}
	return profile, nil
}

// PersistHand applies each player's deltas and records an audit row, all in
// one transaction.
func (r *SQLiteRepository) PersistHand(ctx context.Context, deltas []game.HandDelta) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	for _, d := range deltas {
		if _, err := tx.ExecContext(ctx,
			`UPDATE players SET chips = chips + ?, loans = loans + ?, hands_played = hands_played + ? WHERE id = ?`,
			d.ChipsDelta, d.LoansDelta, d.HandsDelta, d.PlayerID,
		); err != nil {
			return fmt.Errorf("updating player %s: %w", d.PlayerID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO hand_results (player_id, chips_delta, loans_delta) VALUES (?, ?, ?)`,
			d.PlayerID, d.ChipsDelta, d.LoansDelta,
		); err != nil {
			return fmt.Errorf("recording hand result for %s: %w", d.PlayerID, err)
		}
	}
	return tx.Commit()
}

// FetchRanking returns every player ordered by chips, with their lifetime
// winrate in big blinds per hundred hands.
func (r *SQLiteRepository) FetchRanking(ctx context.Context) ([]protocol.RankingEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT p.id, p.name, p.chips, p.hands_played, COALESCE(SUM(h.chips_delta), 0)
		FROM players p
		LEFT JOIN hand_results h ON h.player_id = p.id
		GROUP BY p.id
		ORDER BY p.chips DESC, p.id ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying ranking: %w", err)
	}
	defer rows.Close()

	var ranking []protocol.RankingEntry
	for rows.Next() {
		var id string
		var entry protocol.RankingEntry
		var totalDelta int
		if err := rows.Scan(&id, &entry.Name, &entry.Chips, &entry.HandsPlayed, &totalDelta); err != nil {
			return nil, fmt.Errorf("scanning ranking row: %w", err)
		}
		if entry.Name == "" {
			entry.Name = id
		}
		if entry.HandsPlayed > 0 {
			entry.BBPer100 = float64(totalDelta) / float64(r.bigBlind) / float64(entry.HandsPlayed) * 100
		}
		ranking = append(ranking, entry)
	}
	return ranking, rows.Err()
}
