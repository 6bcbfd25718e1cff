// Package lottery sells tickets for the single open draw and resolves draws
// once their draw time has passed. Ticket costs feed the draw's prize pool.
package lottery

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fastprodman/wagerengine/internal/config"
	"github.com/fastprodman/wagerengine/internal/gameerr"
	"github.com/fastprodman/wagerengine/internal/infra/logging"
	"github.com/fastprodman/wagerengine/internal/infra/pgutils"
	"github.com/fastprodman/wagerengine/internal/metrics"
	"github.com/fastprodman/wagerengine/internal/outcome"
	"github.com/fastprodman/wagerengine/internal/repos/history"
	"github.com/fastprodman/wagerengine/internal/repos/lottery"
	"github.com/fastprodman/wagerengine/internal/services/wager"
	"github.com/google/uuid"
)

type DrawView struct {
	ID             uuid.UUID          `json:"id"`
	Status         lottery.DrawStatus `json:"status"`
	PrizePool      int64              `json:"prizePool"`
	WinningNumbers []int              `json:"winningNumbers,omitempty"`
	PaidOut        int64              `json:"paidOut"`
	RolledOver     int64              `json:"rolledOver"`
	DrawAt         time.Time          `json:"drawAt"`
	CompletedAt    *time.Time         `json:"completedAt,omitempty"`
	TicketCost     int64              `json:"ticketCost"`
	Numbers        int                `json:"numbers"`
	MaxNumber      int                `json:"maxNumber"`
}

type TicketView struct {
	ID          uuid.UUID `json:"id"`
	DrawID      uuid.UUID `json:"drawId"`
	Numbers     []int     `json:"numbers"`
	Cost        int64     `json:"cost"`
	Matches     *int      `json:"matches,omitempty"`
	Payout      int64     `json:"payout"`
	PurchasedAt time.Time `json:"purchasedAt"`
}

type Purchase struct {
	Ticket  TicketView `json:"ticket"`
	Pool    int64      `json:"pool"`
	Balance int64      `json:"balance"`
}

type Winner struct {
	TicketID uuid.UUID `json:"ticketId"`
	PlayerID uint64    `json:"playerId"`
	Matches  int       `json:"matches"`
	Payout   int64     `json:"payout"`
}

// DrawResult describes an executed draw. Executed is false when the draw had
// already been resolved and nothing changed.
type DrawResult struct {
	Draw     DrawView  `json:"draw"`
	Executed bool      `json:"executed"`
	Tickets  int       `json:"tickets"`
	Winners  []Winner  `json:"winners"`
	Next     *DrawView `json:"next,omitempty"`
}

type Service struct {
	tx      pgutils.TxRunner
	guard   *wager.Guard
	draws   lottery.Draws
	history history.Store
	src     outcome.Source
	cfg     config.LotteryConfig
	now     func() time.Time
	log     *slog.Logger
}

func New(tx pgutils.TxRunner, guard *wager.Guard, draws lottery.Draws, hist history.Store, src outcome.Source, cfg config.LotteryConfig) (*Service, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	return &Service{
		tx:      tx,
		guard:   guard,
		draws:   draws,
		history: hist,
		src:     src,
		cfg:     cfg,
		now:     time.Now,
		log:     logging.For("lottery"),
	}, nil
}

// OpenDraw opens a draw at drawAt seeded with pool. Only one draw can be open.
func (s *Service) OpenDraw(ctx context.Context, drawAt time.Time, pool int64) (DrawView, error) {
	var view DrawView

	err := s.tx.InTx(ctx, func(tx *sql.Tx) error {
		d, err := s.open(ctx, tx, drawAt, pool)
		view = s.render(d)

		return err
	})
	if err != nil {
		return DrawView{}, wager.Report(s.log, "lottery.open_draw", 0, fmt.Errorf("open draw: %w", err))
	}

	s.log.Info("draw opened", "draw_id", view.ID, "draw_at", view.DrawAt, "pool", view.PrizePool)

	return view, nil
}

// EnsureOpenDraw opens the first draw when none is open.
func (s *Service) EnsureOpenDraw(ctx context.Context) (DrawView, error) {
	d, err := s.draws.GetOpenDraw(ctx)
	if err == nil {
		return s.render(d), nil
	}

	if !errors.Is(err, lottery.ErrDrawNotFound) {
		return DrawView{}, fmt.Errorf("ensure open draw: %w", err)
	}

	view, err := s.OpenDraw(ctx, s.now().Add(s.cfg.DrawInterval), s.cfg.SeedPool)
	if errors.Is(err, gameerr.ErrInvalidState) {
		// opened concurrently by another instance
		return s.Snapshot(ctx)
	}

	return view, err
}

func (s *Service) open(ctx context.Context, tx *sql.Tx, drawAt time.Time, pool int64) (lottery.Draw, error) {
	d := lottery.Draw{
		ID:        uuid.New(),
		Status:    lottery.DrawOpen,
		PrizePool: pool,
		DrawAt:    drawAt,
		CreatedAt: s.now(),
	}

	err := s.draws.CreateDraw(ctx, tx, d)
	if errors.Is(err, lottery.ErrOpenDrawExists) {
		return lottery.Draw{}, fmt.Errorf("%w: a draw is already open", gameerr.ErrInvalidState)
	}

	if err != nil {
		return lottery.Draw{}, err
	}

	return d, nil
}

// BuyTicket debits the ticket cost into the open draw's pool.
func (s *Service) BuyTicket(ctx context.Context, playerID uint64, numbers []int) (Purchase, error) {
	picked, err := outcome.ValidateNumbers(numbers, s.cfg.Numbers, s.cfg.MaxNumber)
	if err != nil {
		return Purchase{}, wager.Report(s.log, "lottery.buy", playerID, fmt.Errorf("%w: %w", gameerr.ErrInvalidNumbers, err))
	}

	err = s.guard.Validate(wager.GameLottery, s.cfg.TicketCost)
	if err != nil {
		return Purchase{}, wager.Report(s.log, "lottery.buy", playerID, err)
	}

	var out Purchase

	err = s.tx.InTx(ctx, func(tx *sql.Tx) error {
		now := s.now()

		d, err := s.draws.LockOpenDraw(ctx, tx)
		if errors.Is(err, lottery.ErrDrawNotFound) {
			return gameerr.ErrDrawClosed
		}

		if err != nil {
			return err
		}

		if !d.DrawAt.After(now) {
			return fmt.Errorf("%w: sales ended at %s", gameerr.ErrDrawClosed, d.DrawAt.Format(time.RFC3339))
		}

		// the stake leaves the player's balance for good; prizes are paid by
		// credit when the draw executes
		rsv, err := s.guard.Reserve(ctx, tx, playerID, wager.GameLottery, s.cfg.TicketCost)
		if err != nil {
			return err
		}

		err = s.guard.Settle(ctx, tx, rsv.ID, 0)
		if err != nil {
			return err
		}

		err = s.draws.AddToPool(ctx, tx, d.ID, s.cfg.TicketCost)
		if err != nil {
			return err
		}

		t := lottery.Ticket{
			ID:          uuid.New(),
			DrawID:      d.ID,
			PlayerID:    playerID,
			Numbers:     picked,
			Cost:        s.cfg.TicketCost,
			PurchasedAt: now,
		}

		err = s.draws.InsertTicket(ctx, tx, t)
		if err != nil {
			return err
		}

		out.Ticket = renderTicket(t)
		out.Pool = d.PrizePool + s.cfg.TicketCost

		out.Balance, err = s.guard.BalanceIn(ctx, tx, playerID)

		return err
	})
	if err != nil {
		return Purchase{}, wager.Report(s.log, "lottery.buy", playerID, fmt.Errorf("buy ticket: %w", err))
	}

	s.log.Info("ticket sold", "player_id", playerID, "ticket_id", out.Ticket.ID, "numbers", picked)

	return out, nil
}

// ExecuteDraw resolves a due draw exactly once. Repeating it on a resolved
// draw reports the stored result with Executed false.
func (s *Service) ExecuteDraw(ctx context.Context, drawID uuid.UUID) (DrawResult, error) {
	// drawn outside the unit of work so a retry resolves the same way
	winning, err := outcome.DrawNumbers(s.src, s.cfg.Numbers, s.cfg.MaxNumber)
	if err != nil {
		return DrawResult{}, fmt.Errorf("draw numbers: %w", err)
	}

	var (
		res  DrawResult
		paid []lottery.Ticket
	)

	err = s.tx.InTx(ctx, func(tx *sql.Tx) error {
		res, paid = DrawResult{}, nil
		now := s.now()

		d, err := s.draws.LockDraw(ctx, tx, drawID)
		if errors.Is(err, lottery.ErrDrawNotFound) {
			return gameerr.ErrNotFound
		}

		if err != nil {
			return err
		}

		if d.Status != lottery.DrawOpen {
			res.Draw = s.render(d)

			return nil
		}

		if d.DrawAt.After(now) {
			return fmt.Errorf("%w: draw at %s", gameerr.ErrDrawNotDue, d.DrawAt.Format(time.RFC3339))
		}

		tickets, err := s.draws.TicketsForDraw(ctx, tx, d.ID)
		if err != nil {
			return err
		}

		split := s.allocate(d.PrizePool, winning, tickets)

		for i, t := range tickets {
			payout := split.payouts[i]

			err = s.draws.SetTicketResult(ctx, tx, t.ID, split.matches[i], payout)
			if err != nil {
				return err
			}

			if payout > 0 {
				err = s.guard.Credit(ctx, tx, t.PlayerID, payout, "lottery:"+t.ID.String())
				if err != nil {
					return err
				}
			}

			if split.won[i] {
				res.Winners = append(res.Winners, Winner{
					TicketID: t.ID,
					PlayerID: t.PlayerID,
					Matches:  split.matches[i],
					Payout:   payout,
				})
			}

			err = s.history.Record(ctx, tx, history.Record{
				ID:       uuid.New(),
				PlayerID: t.PlayerID,
				Game:     wager.GameLottery,
				Wager:    t.Cost,
				Payout:   payout,
				Detail: map[string]any{
					"drawId":   d.ID,
					"ticketId": t.ID,
					"numbers":  t.Numbers,
					"winning":  winning,
					"matches":  split.matches[i],
				},
				CreatedAt: now,
			})
			if err != nil {
				return err
			}

			t.Payout = payout
			paid = append(paid, t)
		}

		status := lottery.DrawCompleted
		if len(res.Winners) == 0 {
			status = lottery.DrawNoWinner
		}

		rolled := int64(0)
		if s.cfg.RollOver {
			rolled = d.PrizePool - split.paidOut
		}

		c := lottery.Completion{
			Status:         status,
			WinningNumbers: winning,
			PaidOut:        split.paidOut,
			RolledOver:     rolled,
			At:             now,
		}

		err = s.draws.CompleteDraw(ctx, tx, d.ID, c)
		if errors.Is(err, lottery.ErrDrawResolved) {
			return gameerr.ErrDrawResolved
		}

		if err != nil {
			return err
		}

		nextAt := d.DrawAt.Add(s.cfg.DrawInterval)
		if !nextAt.After(now) {
			nextAt = now.Add(s.cfg.DrawInterval)
		}

		next, err := s.open(ctx, tx, nextAt, rolled+s.cfg.SeedPool)
		if err != nil {
			return err
		}

		d.Status, d.WinningNumbers, d.PaidOut, d.RolledOver, d.CompletedAt = status, winning, split.paidOut, rolled, &now
		nv := s.render(next)

		res.Draw = s.render(d)
		res.Executed = true
		res.Tickets = len(tickets)
		res.Next = &nv

		return nil
	})
	if err != nil {
		return DrawResult{}, wager.Report(s.log, "lottery.execute", 0, fmt.Errorf("execute draw %s: %w", drawID, err))
	}

	if !res.Executed {
		return res, nil
	}

	for _, t := range paid {
		metrics.RecordBet(wager.GameLottery, t.Cost, t.Payout)
	}

	s.log.Info("draw executed",
		"draw_id", drawID, "status", res.Draw.Status, "winning", res.Draw.WinningNumbers,
		"tickets", res.Tickets, "winners", len(res.Winners), "paid_out", res.Draw.PaidOut,
		"rolled_over", res.Draw.RolledOver)

	return res, nil
}

// ExecuteDue runs every open draw whose draw time has passed. A failing draw
// does not stop the others.
func (s *Service) ExecuteDue(ctx context.Context) ([]DrawResult, error) {
	due, err := s.draws.ListDue(ctx, s.now())
	if err != nil {
		return nil, fmt.Errorf("list due draws: %w", err)
	}

	var (
		out  []DrawResult
		errs []error
	)

	for _, d := range due {
		res, err := s.ExecuteDraw(ctx, d.ID)
		if err != nil {
			errs = append(errs, err)

			continue
		}

		out = append(out, res)
	}

	return out, errors.Join(errs...)
}

// Snapshot returns the open draw.
func (s *Service) Snapshot(ctx context.Context) (DrawView, error) {
	d, err := s.draws.GetOpenDraw(ctx)
	if errors.Is(err, lottery.ErrDrawNotFound) {
		return DrawView{}, gameerr.ErrNotFound
	}

	if err != nil {
		return DrawView{}, fmt.Errorf("open draw: %w", err)
	}

	return s.render(d), nil
}

func (s *Service) GetDraw(ctx context.Context, id uuid.UUID) (DrawView, error) {
	d, err := s.draws.GetDraw(ctx, id)
	if errors.Is(err, lottery.ErrDrawNotFound) {
		return DrawView{}, gameerr.ErrNotFound
	}

	if err != nil {
		return DrawView{}, fmt.Errorf("get draw: %w", err)
	}

	return s.render(d), nil
}

// Tickets lists the player's tickets in the open draw.
func (s *Service) Tickets(ctx context.Context, playerID uint64) ([]TicketView, error) {
	d, err := s.draws.GetOpenDraw(ctx)
	if errors.Is(err, lottery.ErrDrawNotFound) {
		return []TicketView{}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("open draw: %w", err)
	}

	tickets, err := s.draws.TicketsForPlayer(ctx, d.ID, playerID)
	if err != nil {
		return nil, fmt.Errorf("tickets for player: %w", err)
	}

	out := make([]TicketView, len(tickets))
	for i, t := range tickets {
		out[i] = renderTicket(t)
	}

	return out, nil
}

func (s *Service) render(d lottery.Draw) DrawView {
	return DrawView{
		ID:             d.ID,
		Status:         d.Status,
		PrizePool:      d.PrizePool,
		WinningNumbers: d.WinningNumbers,
		PaidOut:        d.PaidOut,
		RolledOver:     d.RolledOver,
		DrawAt:         d.DrawAt,
		CompletedAt:    d.CompletedAt,
		TicketCost:     s.cfg.TicketCost,
		Numbers:        s.cfg.Numbers,
		MaxNumber:      s.cfg.MaxNumber,
	}
}

func renderTicket(t lottery.Ticket) TicketView {
	return TicketView{
		ID:          t.ID,
		DrawID:      t.DrawID,
		Numbers:     t.Numbers,
		Cost:        t.Cost,
		Matches:     t.Matches,
		Payout:      t.Payout,
		PurchasedAt: t.PurchasedAt,
	}
}
