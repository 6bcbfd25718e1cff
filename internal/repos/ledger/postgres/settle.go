package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fastprodman/wagerengine/internal/repos/ledger"
	"github.com/google/uuid"
)

func (r *ledgerRepo) Settle(ctx context.Context, tx *sql.Tx, reservationID uuid.UUID, payout int64) error {
	if payout < 0 {
		return fmt.Errorf("settle %s: negative payout %d", reservationID, payout)
	}

	var (
		playerID uint64
		game     string
	)

	err := tx.QueryRowContext(ctx, `
		UPDATE ledger_reservations
		SET status = 'settled', payout = $2, closed_at = now()
		WHERE id = $1
		  AND status = 'held'
		RETURNING player_id, game
	`, reservationID, payout).Scan(&playerID, &game)
	if err != nil {
		if isNoRows(err) {
			return r.closedOrMissing(ctx, tx, reservationID)
		}

		return fmt.Errorf("settle reservation: %w", err)
	}

	if payout == 0 {
		return nil
	}

	err = r.increaseBalance(ctx, tx, playerID, payout)
	if err != nil {
		return err
	}

	return r.journal(ctx, tx, playerID, payout, "payout:"+game, "settle:"+reservationID.String())
}

func (r *ledgerRepo) Void(ctx context.Context, tx *sql.Tx, reservationID uuid.UUID) error {
	var (
		playerID uint64
		game     string
		amount   int64
	)

	err := tx.QueryRowContext(ctx, `
		UPDATE ledger_reservations
		SET status = 'voided', payout = amount, closed_at = now()
		WHERE id = $1
		  AND status = 'held'
		RETURNING player_id, game, amount
	`, reservationID).Scan(&playerID, &game, &amount)
	if err != nil {
		if isNoRows(err) {
			return r.closedOrMissing(ctx, tx, reservationID)
		}

		return fmt.Errorf("void reservation: %w", err)
	}

	err = r.increaseBalance(ctx, tx, playerID, amount)
	if err != nil {
		return err
	}

	return r.journal(ctx, tx, playerID, amount, "refund:"+game, "void:"+reservationID.String())
}

func (r *ledgerRepo) closedOrMissing(ctx context.Context, tx *sql.Tx, reservationID uuid.UUID) error {
	var exists bool

	err := tx.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM ledger_reservations WHERE id = $1)
	`, reservationID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check reservation: %w", err)
	}

	if !exists {
		return ledger.ErrReservationNotFound
	}

	return ledger.ErrReservationClosed
}
