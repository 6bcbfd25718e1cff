package coinflip

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fastprodman/wagerengine/internal/repos/coinflip"
	"github.com/google/uuid"
)

func (r *challengesRepo) Get(ctx context.Context, id uuid.UUID) (coinflip.Challenge, error) {
	return scanOne(r.db.QueryContext(ctx, `
		SELECT `+challengeColumns+`
		FROM coinflip_challenges
		WHERE id = $1
	`, id))
}

func (r *challengesRepo) Find(ctx context.Context, tx *sql.Tx, id uuid.UUID) (coinflip.Challenge, error) {
	return scanOne(tx.QueryContext(ctx, `
		SELECT `+challengeColumns+`
		FROM coinflip_challenges
		WHERE id = $1
	`, id))
}

func (r *challengesRepo) LockOpenByCreator(ctx context.Context, tx *sql.Tx, creatorID uint64) (coinflip.Challenge, error) {
	return scanOne(tx.QueryContext(ctx, `
		SELECT `+challengeColumns+`
		FROM coinflip_challenges
		WHERE creator_id = $1
		  AND status = 'open'
		FOR UPDATE
	`, creatorID))
}

func (r *challengesRepo) ListOpen(ctx context.Context, now time.Time, limit int) ([]coinflip.Challenge, error) {
	var raw []challengeRow

	err := r.dbx.SelectContext(ctx, &raw, `
		SELECT `+challengeColumns+`
		FROM coinflip_challenges
		WHERE status = 'open'
		  AND expires_at > $1
		ORDER BY created_at
		LIMIT $2
	`, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list open challenges: %w", err)
	}

	out := make([]coinflip.Challenge, 0, len(raw))
	for _, c := range raw {
		out = append(out, c.toDomain())
	}

	return out, nil
}

func (r *challengesRepo) LockExpired(ctx context.Context, tx *sql.Tx, now time.Time, limit int) ([]coinflip.Challenge, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT `+challengeColumns+`
		FROM coinflip_challenges
		WHERE status = 'open'
		  AND expires_at <= $1
		ORDER BY expires_at
		LIMIT $2
		FOR UPDATE SKIP LOCKED
	`, now, limit)
	if err != nil {
		return nil, fmt.Errorf("lock expired challenges: %w", err)
	}

	return scanAll(rows)
}
