package coinflip

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fastprodman/wagerengine/internal/repos/coinflip"
	"github.com/google/uuid"
)

func (r *challengesRepo) MarkAccepted(ctx context.Context, tx *sql.Tx, id uuid.UUID, acceptorID uint64, now time.Time) (coinflip.Challenge, error) {
	c, err := scanOne(tx.QueryContext(ctx, `
		UPDATE coinflip_challenges
		SET status = 'accepted', acceptor_id = $2
		WHERE id = $1
		  AND status = 'open'
		  AND creator_id <> $2
		  AND expires_at > $3
		RETURNING `+challengeColumns,
		id, acceptorID, now))
	if errors.Is(err, coinflip.ErrChallengeNotFound) {
		return coinflip.Challenge{}, coinflip.ErrStatusChanged
	}

	return c, err
}

func (r *challengesRepo) Resolve(ctx context.Context, tx *sql.Tx, id uuid.UUID, res coinflip.Resolution) error {
	result, err := tx.ExecContext(ctx, `
		UPDATE coinflip_challenges
		SET status = 'resolved',
		    result = $2,
		    winner_id = $3,
		    acceptor_reservation = $4,
		    resolved_at = $5
		WHERE id = $1
		  AND status = 'accepted'
	`, id, string(res.Result), res.WinnerID, res.AcceptorReservation, res.At)
	if err != nil {
		return fmt.Errorf("resolve challenge: %w", err)
	}

	return expectOne(result)
}

func (r *challengesRepo) Transition(ctx context.Context, tx *sql.Tx, id uuid.UUID, from, to coinflip.Status, at time.Time) error {
	result, err := tx.ExecContext(ctx, `
		UPDATE coinflip_challenges
		SET status = $3, resolved_at = $4
		WHERE id = $1
		  AND status = $2
	`, id, string(from), string(to), at)
	if err != nil {
		return fmt.Errorf("transition challenge %s -> %s: %w", from, to, err)
	}

	return expectOne(result)
}

func expectOne(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		return coinflip.ErrStatusChanged
	}

	return nil
}
