package coinflip

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/fastprodman/wagerengine/internal/outcome"
	"github.com/google/uuid"
)

var (
	ErrChallengeNotFound = errors.New("challenge not found")
	ErrOpenExists        = errors.New("creator already has an open challenge")
	// ErrStatusChanged reports a conditional transition whose guard no longer
	// holds: another writer moved the challenge first.
	ErrStatusChanged = errors.New("challenge status changed")
)

type Status string

const (
	StatusOpen      Status = "open"
	StatusAccepted  Status = "accepted"
	StatusResolved  Status = "resolved"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
)

type Challenge struct {
	ID                  uuid.UUID
	CreatorID           uint64
	Wager               int64
	Call                outcome.Side
	Status              Status
	AcceptorID          *uint64
	Result              *outcome.Side
	WinnerID            *uint64
	CreatorReservation  uuid.UUID
	AcceptorReservation *uuid.UUID
	CreatedAt           time.Time
	ExpiresAt           time.Time
	ResolvedAt          *time.Time
}

// Resolution is what a settled flip writes back.
type Resolution struct {
	Result              outcome.Side
	WinnerID            uint64
	AcceptorReservation uuid.UUID
	At                  time.Time
}

type Challenges interface {
	// Insert fails with ErrOpenExists if the creator already has an open challenge.
	Insert(ctx context.Context, tx *sql.Tx, c Challenge) error
	Get(ctx context.Context, id uuid.UUID) (Challenge, error)
	// Find reads a challenge inside tx without locking it.
	Find(ctx context.Context, tx *sql.Tx, id uuid.UUID) (Challenge, error)
	LockOpenByCreator(ctx context.Context, tx *sql.Tx, creatorID uint64) (Challenge, error)
	// MarkAccepted moves open -> accepted for a non-creator while unexpired.
	// Exactly one concurrent caller can win; the rest get ErrStatusChanged.
	MarkAccepted(ctx context.Context, tx *sql.Tx, id uuid.UUID, acceptorID uint64, now time.Time) (Challenge, error)
	// Resolve moves accepted -> resolved.
	Resolve(ctx context.Context, tx *sql.Tx, id uuid.UUID, res Resolution) error
	// Transition is a compare-and-swap on status.
	Transition(ctx context.Context, tx *sql.Tx, id uuid.UUID, from, to Status, at time.Time) error
	ListOpen(ctx context.Context, now time.Time, limit int) ([]Challenge, error)
	// LockExpired locks up to limit open challenges past their expiry,
	// skipping rows another sweeper already holds.
	LockExpired(ctx context.Context, tx *sql.Tx, now time.Time, limit int) ([]Challenge, error)
}
