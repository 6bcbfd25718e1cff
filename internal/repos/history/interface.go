package history

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Record is one settled outcome, kept for statistics and audit.
type Record struct {
	ID        uuid.UUID
	PlayerID  uint64
	Game      string
	Wager     int64
	Payout    int64
	Detail    map[string]any
	CreatedAt time.Time
}

// GameStats aggregates a player's settled outcomes for one game.
type GameStats struct {
	Game       string `db:"game"`
	Played     int64  `db:"played"`
	Wins       int64  `db:"wins"`
	Wagered    int64  `db:"wagered"`
	Won        int64  `db:"won"`
	BiggestWin int64  `db:"biggest_win"`
}

type Store interface {
	Record(ctx context.Context, tx *sql.Tx, r Record) error
	// StatsByGame returns one row per game the player has settled.
	StatsByGame(ctx context.Context, playerID uint64) ([]GameStats, error)
}
