// Package slots is the slot payout evaluator: one request spins the reels,
// settles the wager and updates the progressive jackpot as a single unit of
// work.
package slots

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/fastprodman/wagerengine/internal/infra/logging"
	"github.com/fastprodman/wagerengine/internal/infra/pgutils"
	"github.com/fastprodman/wagerengine/internal/metrics"
	"github.com/fastprodman/wagerengine/internal/outcome"
	"github.com/fastprodman/wagerengine/internal/repos/history"
	"github.com/fastprodman/wagerengine/internal/services/jackpot"
	"github.com/fastprodman/wagerengine/internal/services/wager"
	"github.com/google/uuid"
)

type Result struct {
	Symbols      []string `json:"symbols"`
	Tier         Tier     `json:"tier"`
	Multiplier   int64    `json:"multiplier"`
	Wager        int64    `json:"wager"`
	Payout       int64    `json:"payout"`
	Contribution int64    `json:"contribution"`
	JackpotPool  int64    `json:"jackpotPool"`
	JackpotWon   bool     `json:"jackpotWon"`
	Balance      int64    `json:"balance"`
}

type Service struct {
	tx      pgutils.TxRunner
	guard   *wager.Guard
	jackpot *jackpot.Service
	history history.Store
	src     outcome.Source
	table   Paytable
	reels   outcome.ReelTable
	now     func() time.Time
	log     *slog.Logger
}

func New(tx pgutils.TxRunner, guard *wager.Guard, jp *jackpot.Service, hist history.Store, src outcome.Source, table Paytable) (*Service, error) {
	reels, err := table.reelTable()
	if err != nil {
		return nil, err
	}

	return &Service{
		tx:      tx,
		guard:   guard,
		jackpot: jp,
		history: hist,
		src:     src,
		table:   table,
		reels:   reels,
		now:     time.Now,
		log:     logging.For("slots"),
	}, nil
}

func (s *Service) Paytable() Paytable {
	return s.table
}

// Spin stakes amount on one spin. The reels are drawn before the unit of
// work so a retried transaction settles the same line.
func (s *Service) Spin(ctx context.Context, playerID uint64, amount int64) (Result, error) {
	err := s.guard.Validate(wager.GameSlots, amount)
	if err != nil {
		return Result{}, wager.Report(s.log, "slots.spin", playerID, err)
	}

	line := s.reels.Spin(s.src, s.table.Reels)
	eval := s.table.Evaluate(line)

	res := Result{Symbols: line, Tier: eval.Tier, Multiplier: eval.Multiplier, Wager: amount}

	err = s.tx.InTx(ctx, func(tx *sql.Tx) error {
		now := s.now()

		rsv, err := s.guard.Reserve(ctx, tx, playerID, wager.GameSlots, amount)
		if err != nil {
			return err
		}

		eff, err := s.jackpot.ApplySpin(ctx, tx, playerID, amount, eval.Tier == TierJackpot, now)
		if err != nil {
			return err
		}

		res.Contribution = eff.Contribution
		res.JackpotPool = eff.PoolAfter
		res.JackpotWon = eval.Tier == TierJackpot

		if res.JackpotWon {
			res.Payout = eff.Payout
		} else {
			res.Payout = amount * eval.Multiplier
		}

		err = s.guard.Settle(ctx, tx, rsv.ID, res.Payout)
		if err != nil {
			return err
		}

		err = s.history.Record(ctx, tx, history.Record{
			ID:       uuid.New(),
			PlayerID: playerID,
			Game:     wager.GameSlots,
			Wager:    amount,
			Payout:   res.Payout,
			Detail: map[string]any{
				"symbols":      line,
				"tier":         eval.Tier,
				"contribution": eff.Contribution,
				"jackpotWon":   res.JackpotWon,
			},
			CreatedAt: now,
		})
		if err != nil {
			return err
		}

		res.Balance, err = s.guard.BalanceIn(ctx, tx, playerID)

		return err
	})
	if err != nil {
		return Result{}, wager.Report(s.log, "slots.spin", playerID, fmt.Errorf("spin: %w", err))
	}

	metrics.RecordBet(wager.GameSlots, amount, res.Payout)
	metrics.SetJackpotPool(res.JackpotPool)

	s.log.Info("spin settled", "player_id", playerID, "wager", amount, "tier", res.Tier, "payout", res.Payout)

	return res, nil
}
