package ledger

import (
	"context"
	"database/sql"
	"fmt"
)

func (r *ledgerRepo) Credit(ctx context.Context, tx *sql.Tx, playerID uint64, amount int64, ref string) error {
	if amount <= 0 {
		return fmt.Errorf("credit %s: amount must be positive, got %d", ref, amount)
	}

	// journal first: a replayed ref fails before the balance moves
	err := r.journal(ctx, tx, playerID, amount, "credit", ref)
	if err != nil {
		return err
	}

	return r.increaseBalance(ctx, tx, playerID, amount)
}
