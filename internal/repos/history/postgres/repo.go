package history

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fastprodman/wagerengine/internal/infra/pgutils"
	"github.com/fastprodman/wagerengine/internal/repos/history"
	"github.com/jmoiron/sqlx"
)

var _ history.Store = (*historyRepo)(nil)

type historyRepo struct {
	dbx *sqlx.DB
}

func New(db *sql.DB) *historyRepo {
	return &historyRepo{dbx: sqlx.NewDb(db, pgutils.DriverName)}
}

func (r *historyRepo) Record(ctx context.Context, tx *sql.Tx, rec history.Record) error {
	detail := rec.Detail
	if detail == nil {
		detail = map[string]any{}
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO game_history (id, player_id, game, wager, payout, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, rec.ID, rec.PlayerID, rec.Game, rec.Wager, rec.Payout, pgutils.JSON[map[string]any]{V: detail}, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("record history: %w", err)
	}

	return nil
}

func (r *historyRepo) StatsByGame(ctx context.Context, playerID uint64) ([]history.GameStats, error) {
	var stats []history.GameStats

	err := r.dbx.SelectContext(ctx, &stats, `
		SELECT game,
		       COUNT(*)                               AS played,
		       COUNT(*) FILTER (WHERE payout > wager) AS wins,
		       COALESCE(SUM(wager), 0)                AS wagered,
		       COALESCE(SUM(payout), 0)               AS won,
		       COALESCE(MAX(payout - wager) FILTER (WHERE payout > wager), 0) AS biggest_win
		FROM game_history
		WHERE player_id = $1
		GROUP BY game
		ORDER BY game
	`, playerID)
	if err != nil {
		return nil, fmt.Errorf("select stats: %w", err)
	}

	return stats, nil
}
