package coinflip

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/fastprodman/wagerengine/internal/infra/pgutils"
	"github.com/fastprodman/wagerengine/internal/outcome"
	"github.com/fastprodman/wagerengine/internal/repos/coinflip"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var _ coinflip.Challenges = (*challengesRepo)(nil)

type challengesRepo struct {
	db  *sql.DB
	dbx *sqlx.DB
}

func New(db *sql.DB) *challengesRepo {
	return &challengesRepo{db: db, dbx: sqlx.NewDb(db, pgutils.DriverName)}
}

const challengeColumns = `id, creator_id, wager, call, status, acceptor_id, result, winner_id,
	creator_reservation, acceptor_reservation, created_at, expires_at, resolved_at`

type challengeRow struct {
	ID                  uuid.UUID      `db:"id"`
	CreatorID           uint64         `db:"creator_id"`
	Wager               int64          `db:"wager"`
	Call                string         `db:"call"`
	Status              string         `db:"status"`
	AcceptorID          sql.NullInt64  `db:"acceptor_id"`
	Result              sql.NullString `db:"result"`
	WinnerID            sql.NullInt64  `db:"winner_id"`
	CreatorReservation  uuid.UUID      `db:"creator_reservation"`
	AcceptorReservation uuid.NullUUID  `db:"acceptor_reservation"`
	CreatedAt           time.Time      `db:"created_at"`
	ExpiresAt           time.Time      `db:"expires_at"`
	ResolvedAt          sql.NullTime   `db:"resolved_at"`
}

func (r challengeRow) toDomain() coinflip.Challenge {
	c := coinflip.Challenge{
		ID:                 r.ID,
		CreatorID:          r.CreatorID,
		Wager:              r.Wager,
		Call:               outcome.Side(r.Call),
		Status:             coinflip.Status(r.Status),
		CreatorReservation: r.CreatorReservation,
		CreatedAt:          r.CreatedAt,
		ExpiresAt:          r.ExpiresAt,
	}

	if r.AcceptorID.Valid {
		id := uint64(r.AcceptorID.Int64)
		c.AcceptorID = &id
	}

	if r.Result.Valid {
		side := outcome.Side(r.Result.String)
		c.Result = &side
	}

	if r.WinnerID.Valid {
		id := uint64(r.WinnerID.Int64)
		c.WinnerID = &id
	}

	if r.AcceptorReservation.Valid {
		id := r.AcceptorReservation.UUID
		c.AcceptorReservation = &id
	}

	if r.ResolvedAt.Valid {
		at := r.ResolvedAt.Time
		c.ResolvedAt = &at
	}

	return c
}

// scanAll maps every row onto a challenge and closes rows.
func scanAll(rows *sql.Rows) ([]coinflip.Challenge, error) {
	defer rows.Close()

	var raw []challengeRow

	err := sqlx.StructScan(rows, &raw)
	if err != nil {
		return nil, fmt.Errorf("scan challenges: %w", err)
	}

	out := make([]coinflip.Challenge, 0, len(raw))
	for _, r := range raw {
		out = append(out, r.toDomain())
	}

	return out, nil
}

func scanOne(rows *sql.Rows, err error) (coinflip.Challenge, error) {
	if err != nil {
		return coinflip.Challenge{}, fmt.Errorf("query challenge: %w", err)
	}

	list, err := scanAll(rows)
	if err != nil {
		return coinflip.Challenge{}, err
	}

	if len(list) == 0 {
		return coinflip.Challenge{}, coinflip.ErrChallengeNotFound
	}

	return list[0], nil
}
