package lottery

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/fastprodman/wagerengine/internal/infra/pgutils"
	"github.com/fastprodman/wagerengine/internal/repos/lottery"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var _ lottery.Draws = (*drawsRepo)(nil)

type drawsRepo struct {
	db  *sql.DB
	dbx *sqlx.DB
}

func New(db *sql.DB) *drawsRepo {
	return &drawsRepo{db: db, dbx: sqlx.NewDb(db, pgutils.DriverName)}
}

const (
	drawColumns   = `id, status, prize_pool, winning_numbers, paid_out, rolled_over, draw_at, created_at, completed_at`
	ticketColumns = `id, draw_id, player_id, numbers, cost, matches, payout, purchased_at`
)

type drawRow struct {
	ID             uuid.UUID           `db:"id"`
	Status         string              `db:"status"`
	PrizePool      int64               `db:"prize_pool"`
	WinningNumbers pgutils.JSON[[]int] `db:"winning_numbers"`
	PaidOut        int64               `db:"paid_out"`
	RolledOver     int64               `db:"rolled_over"`
	DrawAt         time.Time           `db:"draw_at"`
	CreatedAt      time.Time           `db:"created_at"`
	CompletedAt    sql.NullTime        `db:"completed_at"`
}

func (r drawRow) toDomain() lottery.Draw {
	d := lottery.Draw{
		ID:             r.ID,
		Status:         lottery.DrawStatus(r.Status),
		PrizePool:      r.PrizePool,
		WinningNumbers: r.WinningNumbers.V,
		PaidOut:        r.PaidOut,
		RolledOver:     r.RolledOver,
		DrawAt:         r.DrawAt,
		CreatedAt:      r.CreatedAt,
	}

	if r.CompletedAt.Valid {
		at := r.CompletedAt.Time
		d.CompletedAt = &at
	}

	return d
}

type ticketRow struct {
	ID          uuid.UUID           `db:"id"`
	DrawID      uuid.UUID           `db:"draw_id"`
	PlayerID    uint64              `db:"player_id"`
	Numbers     pgutils.JSON[[]int] `db:"numbers"`
	Cost        int64               `db:"cost"`
	Matches     sql.NullInt32       `db:"matches"`
	Payout      int64               `db:"payout"`
	PurchasedAt time.Time           `db:"purchased_at"`
}

func (r ticketRow) toDomain() lottery.Ticket {
	t := lottery.Ticket{
		ID:          r.ID,
		DrawID:      r.DrawID,
		PlayerID:    r.PlayerID,
		Numbers:     r.Numbers.V,
		Cost:        r.Cost,
		Payout:      r.Payout,
		PurchasedAt: r.PurchasedAt,
	}

	if r.Matches.Valid {
		m := int(r.Matches.Int32)
		t.Matches = &m
	}

	return t
}

func scanDraws(rows *sql.Rows, err error) ([]lottery.Draw, error) {
	if err != nil {
		return nil, fmt.Errorf("query draws: %w", err)
	}
	defer rows.Close()

	var raw []drawRow

	err = sqlx.StructScan(rows, &raw)
	if err != nil {
		return nil, fmt.Errorf("scan draws: %w", err)
	}

	out := make([]lottery.Draw, 0, len(raw))
	for _, r := range raw {
		out = append(out, r.toDomain())
	}

	return out, nil
}

func scanDraw(rows *sql.Rows, err error) (lottery.Draw, error) {
	list, err := scanDraws(rows, err)
	if err != nil {
		return lottery.Draw{}, err
	}

	if len(list) == 0 {
		return lottery.Draw{}, lottery.ErrDrawNotFound
	}

	return list[0], nil
}

func ticketsFromRows(raw []ticketRow) []lottery.Ticket {
	out := make([]lottery.Ticket, 0, len(raw))
	for _, r := range raw {
		out = append(out, r.toDomain())
	}

	return out
}
