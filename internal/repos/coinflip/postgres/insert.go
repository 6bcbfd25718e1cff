package coinflip

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fastprodman/wagerengine/internal/repos/coinflip"
)

func (r *challengesRepo) Insert(ctx context.Context, tx *sql.Tx, c coinflip.Challenge) error {
	// the only unique constraint besides the key is one open challenge per creator
	res, err := tx.ExecContext(ctx, `
		INSERT INTO coinflip_challenges (id, creator_id, wager, call, status, creator_reservation, created_at, expires_at)
		VALUES ($1, $2, $3, $4, 'open', $5, $6, $7)
		ON CONFLICT DO NOTHING
	`, c.ID, c.CreatorID, c.Wager, string(c.Call), c.CreatorReservation, c.CreatedAt, c.ExpiresAt)
	if err != nil {
		return fmt.Errorf("insert challenge: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		return coinflip.ErrOpenExists
	}

	return nil
}
