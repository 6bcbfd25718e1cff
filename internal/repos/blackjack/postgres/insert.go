package blackjack

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fastprodman/wagerengine/internal/infra/pgutils"
	"github.com/fastprodman/wagerengine/internal/repos/blackjack"
)

func (r *sessionsRepo) Insert(ctx context.Context, tx *sql.Tx, s blackjack.Session) error {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO blackjack_sessions (`+sessionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT ON CONSTRAINT blackjack_sessions_player_key DO NOTHING
	`, s.ID, s.PlayerID, s.Status,
		pgutils.JSON[any]{V: s.PlayerHand}, pgutils.JSON[any]{V: s.DealerHand}, pgutils.JSON[any]{V: s.Shoe},
		s.Wager, s.Doubled, pgutils.JSON[any]{V: s.Reservations}, s.StartedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		return blackjack.ErrSessionExists
	}

	return nil
}
