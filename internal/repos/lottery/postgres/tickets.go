package lottery

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fastprodman/wagerengine/internal/infra/pgutils"
	"github.com/fastprodman/wagerengine/internal/repos/lottery"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

func (r *drawsRepo) InsertTicket(ctx context.Context, tx *sql.Tx, t lottery.Ticket) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO lottery_tickets (id, draw_id, player_id, numbers, cost, purchased_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, t.ID, t.DrawID, t.PlayerID, pgutils.JSON[[]int]{V: t.Numbers}, t.Cost, t.PurchasedAt)
	if err != nil {
		return fmt.Errorf("insert ticket: %w", err)
	}

	return nil
}

func (r *drawsRepo) TicketsForDraw(ctx context.Context, tx *sql.Tx, drawID uuid.UUID) ([]lottery.Ticket, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT `+ticketColumns+`
		FROM lottery_tickets
		WHERE draw_id = $1
		ORDER BY purchased_at, id
	`, drawID)
	if err != nil {
		return nil, fmt.Errorf("query tickets: %w", err)
	}
	defer rows.Close()

	var raw []ticketRow

	err = sqlx.StructScan(rows, &raw)
	if err != nil {
		return nil, fmt.Errorf("scan tickets: %w", err)
	}

	return ticketsFromRows(raw), nil
}

func (r *drawsRepo) TicketsForPlayer(ctx context.Context, drawID uuid.UUID, playerID uint64) ([]lottery.Ticket, error) {
	var raw []ticketRow

	err := r.dbx.SelectContext(ctx, &raw, `
		SELECT `+ticketColumns+`
		FROM lottery_tickets
		WHERE draw_id = $1
		  AND player_id = $2
		ORDER BY purchased_at, id
	`, drawID, playerID)
	if err != nil {
		return nil, fmt.Errorf("select player tickets: %w", err)
	}

	return ticketsFromRows(raw), nil
}

func (r *drawsRepo) SetTicketResult(ctx context.Context, tx *sql.Tx, ticketID uuid.UUID, matches int, payout int64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE lottery_tickets
		SET matches = $2, payout = $3
		WHERE id = $1
	`, ticketID, matches, payout)
	if err != nil {
		return fmt.Errorf("set ticket result: %w", err)
	}

	return nil
}
