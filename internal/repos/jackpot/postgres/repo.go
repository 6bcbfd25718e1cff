package jackpot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastprodman/wagerengine/internal/repos/jackpot"
	"github.com/shopspring/decimal"
)

var _ jackpot.Pools = (*poolsRepo)(nil)

type poolsRepo struct{ db *sql.DB }

func New(db *sql.DB) *poolsRepo {
	return &poolsRepo{db: db}
}

const poolColumns = `current_pool, contribution_rate, seed, last_winner_id, last_win_amount, last_won_at, version, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPool(row rowScanner) (jackpot.Pool, error) {
	var (
		p         jackpot.Pool
		winnerID  sql.NullInt64
		winAmount sql.NullInt64
		wonAt     sql.NullTime
	)

	err := row.Scan(&p.CurrentPool, &p.ContributionRate, &p.Seed, &winnerID, &winAmount, &wonAt, &p.Version, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return jackpot.Pool{}, jackpot.ErrPoolNotFound
		}

		return jackpot.Pool{}, fmt.Errorf("scan jackpot pool: %w", err)
	}

	if winnerID.Valid {
		id := uint64(winnerID.Int64)
		p.LastWinnerID = &id
	}

	if winAmount.Valid {
		p.LastWinAmount = &winAmount.Int64
	}

	if wonAt.Valid {
		p.LastWonAt = &wonAt.Time
	}

	return p, nil
}

func (r *poolsRepo) Ensure(ctx context.Context, seed int64, rate decimal.Decimal) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO jackpot_pool (id, current_pool, contribution_rate, seed)
		VALUES (1, $1, $2, $1)
		ON CONFLICT (id) DO UPDATE
		SET contribution_rate = EXCLUDED.contribution_rate,
		    seed = EXCLUDED.seed
	`, seed, rate)
	if err != nil {
		return fmt.Errorf("ensure jackpot pool: %w", err)
	}

	return nil
}

// Get locks the pool row for the rest of tx. Concurrent spins queue on the
// lock instead of failing the version check.
func (r *poolsRepo) Get(ctx context.Context, tx *sql.Tx) (jackpot.Pool, error) {
	return scanPool(tx.QueryRowContext(ctx, `SELECT `+poolColumns+` FROM jackpot_pool WHERE id = 1 FOR UPDATE`))
}

func (r *poolsRepo) Snapshot(ctx context.Context) (jackpot.Pool, error) {
	return scanPool(r.db.QueryRowContext(ctx, `SELECT `+poolColumns+` FROM jackpot_pool WHERE id = 1`))
}

func (r *poolsRepo) Update(ctx context.Context, tx *sql.Tx, p jackpot.Pool) error {
	var winnerID sql.NullInt64
	if p.LastWinnerID != nil {
		winnerID = sql.NullInt64{Int64: int64(*p.LastWinnerID), Valid: true}
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE jackpot_pool
		SET current_pool = $2,
		    last_winner_id = $3,
		    last_win_amount = $4,
		    last_won_at = $5,
		    version = version + 1,
		    updated_at = now()
		WHERE id = 1
		  AND version = $1
	`, p.Version, p.CurrentPool, winnerID, p.LastWinAmount, p.LastWonAt)
	if err != nil {
		return fmt.Errorf("update jackpot pool: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		return jackpot.ErrVersionConflict
	}

	return nil
}
