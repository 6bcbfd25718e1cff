package blackjack

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/fastprodman/wagerengine/internal/outcome"
	"github.com/google/uuid"
)

var (
	ErrSessionNotFound = errors.New("blackjack session not found")
	ErrSessionExists   = errors.New("player already has an active blackjack session")
)

// Session is the persisted state of one player's in-progress hand.
type Session struct {
	ID           uuid.UUID
	PlayerID     uint64
	Status       string
	PlayerHand   []outcome.Card
	DealerHand   []outcome.Card
	Shoe         []outcome.Card
	Wager        int64
	Doubled      bool
	Reservations []uuid.UUID
	StartedAt    time.Time
	UpdatedAt    time.Time
}

type Sessions interface {
	// Insert fails with ErrSessionExists while the player has another session.
	Insert(ctx context.Context, tx *sql.Tx, s Session) error
	// LockByPlayer loads and row-locks the player's session for the rest of tx.
	LockByPlayer(ctx context.Context, tx *sql.Tx, playerID uint64) (Session, error)
	GetByPlayer(ctx context.Context, playerID uint64) (Session, error)
	ExistsForPlayer(ctx context.Context, tx *sql.Tx, playerID uint64) (bool, error)
	Update(ctx context.Context, tx *sql.Tx, s Session) error
	Delete(ctx context.Context, tx *sql.Tx, id uuid.UUID) error
}
