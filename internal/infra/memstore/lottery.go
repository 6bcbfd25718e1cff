package memstore

import (
	"context"
	"database/sql"
	"slices"
	"time"

	"github.com/fastprodman/wagerengine/internal/repos/lottery"
	"github.com/google/uuid"
)

type drawsView struct{ s *Store }

func (v drawsView) CreateDraw(_ context.Context, _ *sql.Tx, d lottery.Draw) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	if _, err := v.s.data.openDraw(); err == nil {
		return lottery.ErrOpenDrawExists
	}

	d.Status = lottery.DrawOpen
	v.s.data.draws[d.ID] = d

	return nil
}

func (v drawsView) GetDraw(_ context.Context, id uuid.UUID) (lottery.Draw, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	d, ok := v.s.data.draws[id]
	if !ok {
		return lottery.Draw{}, lottery.ErrDrawNotFound
	}

	d.WinningNumbers = slices.Clone(d.WinningNumbers)

	return d, nil
}

func (v drawsView) GetOpenDraw(_ context.Context) (lottery.Draw, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	return v.s.data.openDraw()
}

func (v drawsView) LockDraw(ctx context.Context, _ *sql.Tx, id uuid.UUID) (lottery.Draw, error) {
	return v.GetDraw(ctx, id)
}

func (v drawsView) LockOpenDraw(ctx context.Context, _ *sql.Tx) (lottery.Draw, error) {
	return v.GetOpenDraw(ctx)
}

func (v drawsView) AddToPool(_ context.Context, _ *sql.Tx, drawID uuid.UUID, amount int64) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	if err := v.s.injected("lottery.add_to_pool"); err != nil {
		return err
	}

	d, ok := v.s.data.draws[drawID]
	if !ok || d.Status != lottery.DrawOpen {
		return lottery.ErrDrawResolved
	}

	d.PrizePool += amount
	v.s.data.draws[drawID] = d

	return nil
}

func (v drawsView) CompleteDraw(_ context.Context, _ *sql.Tx, drawID uuid.UUID, c lottery.Completion) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	if err := v.s.injected("lottery.complete"); err != nil {
		return err
	}

	d, ok := v.s.data.draws[drawID]
	if !ok || d.Status != lottery.DrawOpen {
		return lottery.ErrDrawResolved
	}

	at := c.At
	d.Status = c.Status
	d.WinningNumbers = slices.Clone(c.WinningNumbers)
	d.PaidOut = c.PaidOut
	d.RolledOver = c.RolledOver
	d.CompletedAt = &at
	v.s.data.draws[drawID] = d

	return nil
}

func (v drawsView) ListDue(_ context.Context, now time.Time) ([]lottery.Draw, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	var out []lottery.Draw

	for _, d := range v.s.data.draws {
		if d.Status == lottery.DrawOpen && !d.DrawAt.After(now) {
			out = append(out, d)
		}
	}

	slices.SortFunc(out, func(a, b lottery.Draw) int { return a.DrawAt.Compare(b.DrawAt) })

	return out, nil
}

func (v drawsView) InsertTicket(_ context.Context, _ *sql.Tx, t lottery.Ticket) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	if err := v.s.injected("lottery.insert_ticket"); err != nil {
		return err
	}

	t.Numbers = slices.Clone(t.Numbers)
	v.s.data.tickets = append(v.s.data.tickets, t)

	return nil
}

func (v drawsView) TicketsForDraw(_ context.Context, _ *sql.Tx, drawID uuid.UUID) ([]lottery.Ticket, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	return v.s.data.ticketsWhere(func(t lottery.Ticket) bool { return t.DrawID == drawID }), nil
}

func (v drawsView) TicketsForPlayer(_ context.Context, drawID uuid.UUID, playerID uint64) ([]lottery.Ticket, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	return v.s.data.ticketsWhere(func(t lottery.Ticket) bool {
		return t.DrawID == drawID && t.PlayerID == playerID
	}), nil
}

func (v drawsView) SetTicketResult(_ context.Context, _ *sql.Tx, ticketID uuid.UUID, matches int, payout int64) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	if err := v.s.injected("lottery.set_ticket_result"); err != nil {
		return err
	}

	for i, t := range v.s.data.tickets {
		if t.ID == ticketID {
			m := matches
			v.s.data.tickets[i].Matches = &m
			v.s.data.tickets[i].Payout = payout

			return nil
		}
	}

	return nil
}

func (d *state) openDraw() (lottery.Draw, error) {
	for _, draw := range d.draws {
		if draw.Status == lottery.DrawOpen {
			return draw, nil
		}
	}

	return lottery.Draw{}, lottery.ErrDrawNotFound
}

func (d *state) ticketsWhere(keep func(lottery.Ticket) bool) []lottery.Ticket {
	var out []lottery.Ticket

	for _, t := range d.tickets {
		if keep(t) {
			t.Numbers = slices.Clone(t.Numbers)
			out = append(out, t)
		}
	}

	return out
}
