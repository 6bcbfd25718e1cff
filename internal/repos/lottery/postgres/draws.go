package lottery

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fastprodman/wagerengine/internal/infra/pgutils"
	"github.com/fastprodman/wagerengine/internal/repos/lottery"
	"github.com/google/uuid"
)

func (r *drawsRepo) CreateDraw(ctx context.Context, tx *sql.Tx, d lottery.Draw) error {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO lottery_draws (id, status, prize_pool, draw_at, created_at)
		VALUES ($1, 'open', $2, $3, $4)
		ON CONFLICT DO NOTHING
	`, d.ID, d.PrizePool, d.DrawAt, d.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert draw: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		return lottery.ErrOpenDrawExists
	}

	return nil
}

func (r *drawsRepo) GetDraw(ctx context.Context, id uuid.UUID) (lottery.Draw, error) {
	return scanDraw(r.db.QueryContext(ctx, `
		SELECT `+drawColumns+`
		FROM lottery_draws
		WHERE id = $1
	`, id))
}

func (r *drawsRepo) GetOpenDraw(ctx context.Context) (lottery.Draw, error) {
	return scanDraw(r.db.QueryContext(ctx, `
		SELECT `+drawColumns+`
		FROM lottery_draws
		WHERE status = 'open'
	`))
}

func (r *drawsRepo) LockDraw(ctx context.Context, tx *sql.Tx, id uuid.UUID) (lottery.Draw, error) {
	return scanDraw(tx.QueryContext(ctx, `
		SELECT `+drawColumns+`
		FROM lottery_draws
		WHERE id = $1
		FOR UPDATE
	`, id))
}

func (r *drawsRepo) LockOpenDraw(ctx context.Context, tx *sql.Tx) (lottery.Draw, error) {
	return scanDraw(tx.QueryContext(ctx, `
		SELECT `+drawColumns+`
		FROM lottery_draws
		WHERE status = 'open'
		FOR UPDATE
	`))
}

func (r *drawsRepo) AddToPool(ctx context.Context, tx *sql.Tx, drawID uuid.UUID, amount int64) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE lottery_draws
		SET prize_pool = prize_pool + $2
		WHERE id = $1
		  AND status = 'open'
	`, drawID, amount)
	if err != nil {
		return fmt.Errorf("add to pool: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		return lottery.ErrDrawResolved
	}

	return nil
}

func (r *drawsRepo) CompleteDraw(ctx context.Context, tx *sql.Tx, drawID uuid.UUID, c lottery.Completion) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE lottery_draws
		SET status = $2,
		    winning_numbers = $3,
		    paid_out = $4,
		    rolled_over = $5,
		    completed_at = $6
		WHERE id = $1
		  AND status = 'open'
	`, drawID, string(c.Status), pgutils.JSON[[]int]{V: c.WinningNumbers}, c.PaidOut, c.RolledOver, c.At)
	if err != nil {
		return fmt.Errorf("complete draw: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		return lottery.ErrDrawResolved
	}

	return nil
}

func (r *drawsRepo) ListDue(ctx context.Context, now time.Time) ([]lottery.Draw, error) {
	return scanDraws(r.db.QueryContext(ctx, `
		SELECT `+drawColumns+`
		FROM lottery_draws
		WHERE status = 'open'
		  AND draw_at <= $1
		ORDER BY draw_at
	`, now))
}
