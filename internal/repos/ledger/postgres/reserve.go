package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fastprodman/wagerengine/internal/repos/ledger"
	"github.com/google/uuid"
)

func (r *ledgerRepo) Reserve(ctx context.Context, tx *sql.Tx, playerID uint64, game string, amount int64) (ledger.Reservation, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE players
		SET balance = balance - $2
		WHERE id = $1
		  AND balance >= $2
	`, playerID, amount)
	if err != nil {
		return ledger.Reservation{}, fmt.Errorf("decrease balance: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return ledger.Reservation{}, fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		err = r.exists(ctx, tx, playerID)
		if err != nil {
			return ledger.Reservation{}, err
		}

		return ledger.Reservation{}, ledger.ErrInsufficientFunds
	}

	rsv := ledger.Reservation{
		ID:       uuid.New(),
		PlayerID: playerID,
		Game:     game,
		Amount:   amount,
		Status:   ledger.ReservationHeld,
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO ledger_reservations (id, player_id, game, amount, status)
		VALUES ($1, $2, $3, $4, 'held')
		RETURNING created_at
	`, rsv.ID, playerID, game, amount).Scan(&rsv.CreatedAt)
	if err != nil {
		return ledger.Reservation{}, fmt.Errorf("insert reservation: %w", err)
	}

	err = r.journal(ctx, tx, playerID, -amount, "reserve:"+game, "reserve:"+rsv.ID.String())
	if err != nil {
		return ledger.Reservation{}, err
	}

	return rsv, nil
}
