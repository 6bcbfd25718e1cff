package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fastprodman/wagerengine/internal/repos/ledger"
)

func (r *ledgerRepo) GetBalance(ctx context.Context, playerID uint64) (int64, error) {
	var balance int64

	err := r.db.QueryRowContext(ctx, `
		SELECT balance
		FROM players
		WHERE id = $1
	`, playerID).Scan(&balance)
	if err != nil {
		if isNoRows(err) {
			return 0, ledger.ErrPlayerNotFound
		}

		return 0, fmt.Errorf("get balance: %w", err)
	}

	return balance, nil
}

func (r *ledgerRepo) LockAndGetBalance(ctx context.Context, tx *sql.Tx, playerID uint64) (int64, error) {
	var balance int64

	err := tx.QueryRowContext(ctx, `
		SELECT balance
		FROM players
		WHERE id = $1
		FOR UPDATE
	`, playerID).Scan(&balance)
	if err != nil {
		if isNoRows(err) {
			return 0, ledger.ErrPlayerNotFound
		}

		return 0, fmt.Errorf("lock/get balance: %w", err)
	}

	return balance, nil
}
