package blackjack

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fastprodman/wagerengine/internal/repos/blackjack"
)

func (r *sessionsRepo) LockByPlayer(ctx context.Context, tx *sql.Tx, playerID uint64) (blackjack.Session, error) {
	return scanSession(tx.QueryRowContext(ctx, `
		SELECT `+sessionColumns+`
		FROM blackjack_sessions
		WHERE player_id = $1
		FOR UPDATE
	`, playerID))
}

func (r *sessionsRepo) GetByPlayer(ctx context.Context, playerID uint64) (blackjack.Session, error) {
	return scanSession(r.db.QueryRowContext(ctx, `
		SELECT `+sessionColumns+`
		FROM blackjack_sessions
		WHERE player_id = $1
	`, playerID))
}

func (r *sessionsRepo) ExistsForPlayer(ctx context.Context, tx *sql.Tx, playerID uint64) (bool, error) {
	var exists bool

	err := tx.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM blackjack_sessions WHERE player_id = $1)
	`, playerID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check session: %w", err)
	}

	return exists, nil
}
