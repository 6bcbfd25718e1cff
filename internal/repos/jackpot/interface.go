package jackpot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fastprodman/wagerengine/internal/infra/pgutils"
	"github.com/shopspring/decimal"
)

var (
	ErrPoolNotFound = errors.New("jackpot pool not initialised")
	// ErrVersionConflict means another writer updated the pool since it was
	// read. The enclosing unit of work is retryable.
	ErrVersionConflict = fmt.Errorf("jackpot pool version conflict: %w", pgutils.ErrRetryable)
)

// Pool is the single shared progressive jackpot row. Version increases on
// every write and guards updates against lost concurrent changes.
type Pool struct {
	CurrentPool      int64
	ContributionRate decimal.Decimal
	Seed             int64
	LastWinnerID     *uint64
	LastWinAmount    *int64
	LastWonAt        *time.Time
	Version          int64
	UpdatedAt        time.Time
}

type Pools interface {
	// Ensure creates the pool at seed if missing and refreshes its settings.
	Ensure(ctx context.Context, seed int64, rate decimal.Decimal) error
	// Get reads the pool and holds its row lock until tx ends.
	Get(ctx context.Context, tx *sql.Tx) (Pool, error)
	Snapshot(ctx context.Context) (Pool, error)
	// Update writes p if the stored version still equals p.Version,
	// otherwise it returns ErrVersionConflict.
	Update(ctx context.Context, tx *sql.Tx, p Pool) error
}
