package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastprodman/wagerengine/internal/repos/ledger"
)

var _ ledger.Ledger = (*ledgerRepo)(nil)

type ledgerRepo struct{ db *sql.DB }

func New(db *sql.DB) *ledgerRepo {
	return &ledgerRepo{db: db}
}

func (r *ledgerRepo) journal(ctx context.Context, tx *sql.Tx, playerID uint64, delta int64, reason, ref string) error {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO ledger_entries (player_id, delta, reason, ref)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT ON CONSTRAINT ledger_entries_ref_key DO NOTHING
	`, playerID, delta, reason, ref)
	if err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		return ledger.ErrDuplicateEntry
	}

	return nil
}

func (r *ledgerRepo) increaseBalance(ctx context.Context, tx *sql.Tx, playerID uint64, amount int64) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE players
		SET balance = balance + $2
		WHERE id = $1
	`, playerID, amount)
	if err != nil {
		return fmt.Errorf("increase balance: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		return ledger.ErrPlayerNotFound
	}

	return nil
}

func (r *ledgerRepo) exists(ctx context.Context, tx *sql.Tx, playerID uint64) error {
	var exists bool

	err := tx.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM players WHERE id = $1)
	`, playerID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}

	if !exists {
		return ledger.ErrPlayerNotFound
	}

	return nil
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
