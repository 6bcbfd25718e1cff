package ledger

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrPlayerNotFound      = errors.New("player not found")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrReservationClosed   = errors.New("reservation already settled or voided")
	ErrDuplicateEntry      = errors.New("duplicate ledger entry")
)

type ReservationStatus string

const (
	ReservationHeld    ReservationStatus = "held"
	ReservationSettled ReservationStatus = "settled"
	ReservationVoided  ReservationStatus = "voided"
)

// Reservation is a pending debit held against a player's balance until an
// outcome settles or voids it.
type Reservation struct {
	ID        uuid.UUID
	PlayerID  uint64
	Game      string
	Amount    int64
	Status    ReservationStatus
	CreatedAt time.Time
}

// Ledger is the only path that mutates player balances. Every mutation is
// journaled under a unique reference, so a replayed call is rejected rather
// than applied twice.
type Ledger interface {
	GetBalance(ctx context.Context, playerID uint64) (int64, error)
	LockAndGetBalance(ctx context.Context, tx *sql.Tx, playerID uint64) (int64, error)
	// Reserve debits amount and records a held reservation.
	Reserve(ctx context.Context, tx *sql.Tx, playerID uint64, game string, amount int64) (Reservation, error)
	// Settle closes a held reservation, crediting payout to its owner.
	Settle(ctx context.Context, tx *sql.Tx, reservationID uuid.UUID, payout int64) error
	// Void closes a held reservation and refunds its amount.
	Void(ctx context.Context, tx *sql.Tx, reservationID uuid.UUID) error
	// Credit pays amount outside any reservation, keyed by ref.
	Credit(ctx context.Context, tx *sql.Tx, playerID uint64, amount int64, ref string) error
}
