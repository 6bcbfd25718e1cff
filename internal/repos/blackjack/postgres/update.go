package blackjack

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fastprodman/wagerengine/internal/infra/pgutils"
	"github.com/fastprodman/wagerengine/internal/repos/blackjack"
	"github.com/google/uuid"
)

func (r *sessionsRepo) Update(ctx context.Context, tx *sql.Tx, s blackjack.Session) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE blackjack_sessions
		SET status = $2,
		    player_hand = $3,
		    dealer_hand = $4,
		    shoe = $5,
		    wager = $6,
		    doubled = $7,
		    reservations = $8,
		    updated_at = $9
		WHERE id = $1
	`, s.ID, s.Status,
		pgutils.JSON[any]{V: s.PlayerHand}, pgutils.JSON[any]{V: s.DealerHand}, pgutils.JSON[any]{V: s.Shoe},
		s.Wager, s.Doubled, pgutils.JSON[any]{V: s.Reservations}, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}

	return expectOne(res)
}

func (r *sessionsRepo) Delete(ctx context.Context, tx *sql.Tx, id uuid.UUID) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM blackjack_sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	return expectOne(res)
}

func expectOne(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		return blackjack.ErrSessionNotFound
	}

	return nil
}
