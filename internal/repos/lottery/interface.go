package lottery

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrDrawNotFound   = errors.New("draw not found")
	ErrOpenDrawExists = errors.New("an open draw already exists")
	// ErrDrawResolved reports that the draw left the open status before this
	// writer could complete it.
	ErrDrawResolved = errors.New("draw already resolved")
)

type DrawStatus string

const (
	DrawOpen      DrawStatus = "open"
	DrawCompleted DrawStatus = "completed"
	DrawNoWinner  DrawStatus = "no_winner"
)

type Draw struct {
	ID             uuid.UUID
	Status         DrawStatus
	PrizePool      int64
	WinningNumbers []int
	PaidOut        int64
	RolledOver     int64
	DrawAt         time.Time
	CreatedAt      time.Time
	CompletedAt    *time.Time
}

type Ticket struct {
	ID          uuid.UUID
	DrawID      uuid.UUID
	PlayerID    uint64
	Numbers     []int
	Cost        int64
	Matches     *int
	Payout      int64
	PurchasedAt time.Time
}

// Completion is the outcome written when a draw leaves the open status.
type Completion struct {
	Status         DrawStatus
	WinningNumbers []int
	PaidOut        int64
	RolledOver     int64
	At             time.Time
}

type Draws interface {
	// CreateDraw fails with ErrOpenDrawExists while another draw is open.
	CreateDraw(ctx context.Context, tx *sql.Tx, d Draw) error
	GetDraw(ctx context.Context, id uuid.UUID) (Draw, error)
	GetOpenDraw(ctx context.Context) (Draw, error)
	LockDraw(ctx context.Context, tx *sql.Tx, id uuid.UUID) (Draw, error)
	LockOpenDraw(ctx context.Context, tx *sql.Tx) (Draw, error)
	AddToPool(ctx context.Context, tx *sql.Tx, drawID uuid.UUID, amount int64) error
	// CompleteDraw is a compare-and-swap from open to c.Status.
	CompleteDraw(ctx context.Context, tx *sql.Tx, drawID uuid.UUID, c Completion) error
	// ListDue returns open draws whose draw time is at or before now.
	ListDue(ctx context.Context, now time.Time) ([]Draw, error)

	InsertTicket(ctx context.Context, tx *sql.Tx, t Ticket) error
	TicketsForDraw(ctx context.Context, tx *sql.Tx, drawID uuid.UUID) ([]Ticket, error)
	TicketsForPlayer(ctx context.Context, drawID uuid.UUID, playerID uint64) ([]Ticket, error)
	SetTicketResult(ctx context.Context, tx *sql.Tx, ticketID uuid.UUID, matches int, payout int64) error
}
