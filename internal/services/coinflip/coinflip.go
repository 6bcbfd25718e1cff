// Package coinflip matches two players on a single coin flip. The creator's
// stake sits in escrow until exactly one of accept, cancel or expiry closes
// the challenge.
package coinflip

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fastprodman/wagerengine/internal/gameerr"
	"github.com/fastprodman/wagerengine/internal/infra/logging"
	"github.com/fastprodman/wagerengine/internal/infra/pgutils"
	"github.com/fastprodman/wagerengine/internal/metrics"
	"github.com/fastprodman/wagerengine/internal/outcome"
	"github.com/fastprodman/wagerengine/internal/repos/coinflip"
	"github.com/fastprodman/wagerengine/internal/repos/history"
	"github.com/fastprodman/wagerengine/internal/services/wager"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	sweepBatch   = 100
	defaultLimit = 50
)

// View is the public form of a challenge.
type View struct {
	ID         uuid.UUID       `json:"id"`
	CreatorID  uint64          `json:"creatorId"`
	Wager      int64           `json:"wager"`
	Call       outcome.Side    `json:"call"`
	Status     coinflip.Status `json:"status"`
	AcceptorID *uint64         `json:"acceptorId,omitempty"`
	Result     *outcome.Side   `json:"result,omitempty"`
	WinnerID   *uint64         `json:"winnerId,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
	ExpiresAt  time.Time       `json:"expiresAt"`
	ResolvedAt *time.Time      `json:"resolvedAt,omitempty"`
}

// Settlement is returned to the acceptor once the flip resolves.
type Settlement struct {
	Challenge View         `json:"challenge"`
	Result    outcome.Side `json:"result"`
	WinnerID  uint64       `json:"winnerId"`
	Pot       int64        `json:"pot"`
	Rake      int64        `json:"rake"`
	Prize     int64        `json:"prize"`
	Balance   int64        `json:"balance"`
}

type Service struct {
	tx         pgutils.TxRunner
	guard      *wager.Guard
	challenges coinflip.Challenges
	history    history.Store
	src        outcome.Source
	ttl        time.Duration
	rake       decimal.Decimal
	now        func() time.Time
	log        *slog.Logger
}

func New(tx pgutils.TxRunner, guard *wager.Guard, challenges coinflip.Challenges, hist history.Store, src outcome.Source, ttl time.Duration, rake decimal.Decimal) *Service {
	return &Service{
		tx:         tx,
		guard:      guard,
		challenges: challenges,
		history:    hist,
		src:        src,
		ttl:        ttl,
		rake:       rake,
		now:        time.Now,
		log:        logging.For("coinflip"),
	}
}

// Create escrows amount and opens a challenge. A previous challenge of the
// same creator that outlived its TTL is expired and refunded first.
func (s *Service) Create(ctx context.Context, playerID uint64, amount int64, call outcome.Side) (View, error) {
	if call != outcome.Heads && call != outcome.Tails {
		return View{}, wager.Report(s.log, "coinflip.create", playerID, gameerr.ErrInvalidCall)
	}

	err := s.guard.Validate(wager.GameCoinflip, amount)
	if err != nil {
		return View{}, wager.Report(s.log, "coinflip.create", playerID, err)
	}

	var view View

	err = s.tx.InTx(ctx, func(tx *sql.Tx) error {
		now := s.now()

		stale, err := s.challenges.LockOpenByCreator(ctx, tx, playerID)

		switch {
		case errors.Is(err, coinflip.ErrChallengeNotFound):
		case err != nil:
			return err
		case stale.ExpiresAt.After(now):
			return gameerr.ErrOpenChallengeExists
		default:
			err = s.close(ctx, tx, stale, coinflip.StatusExpired, now)
			if err != nil {
				return err
			}
		}

		rsv, err := s.guard.Reserve(ctx, tx, playerID, wager.GameCoinflip, amount)
		if err != nil {
			return err
		}

		c := coinflip.Challenge{
			ID:                 uuid.New(),
			CreatorID:          playerID,
			Wager:              amount,
			Call:               call,
			Status:             coinflip.StatusOpen,
			CreatorReservation: rsv.ID,
			CreatedAt:          now,
			ExpiresAt:          now.Add(s.ttl),
		}

		err = s.challenges.Insert(ctx, tx, c)
		if errors.Is(err, coinflip.ErrOpenExists) {
			return gameerr.ErrOpenChallengeExists
		}

		if err != nil {
			return err
		}

		view = render(c)

		return nil
	})
	if err != nil {
		return View{}, wager.Report(s.log, "coinflip.create", playerID, fmt.Errorf("create challenge: %w", err))
	}

	s.log.Info("challenge opened", "player_id", playerID, "challenge_id", view.ID, "wager", amount, "call", call)

	return view, nil
}

// Accept claims challenge id for playerID, escrows the matching stake and
// resolves the flip in the same unit of work. Only one acceptor can win the
// open -> accepted transition.
func (s *Service) Accept(ctx context.Context, playerID uint64, id uuid.UUID) (Settlement, error) {
	// flipped outside the unit of work so a retry resolves the same way
	result := outcome.Flip(s.src)

	var (
		out        Settlement
		challenged coinflip.Challenge
	)

	err := s.tx.InTx(ctx, func(tx *sql.Tx) error {
		now := s.now()

		c, err := s.challenges.MarkAccepted(ctx, tx, id, playerID, now)
		if errors.Is(err, coinflip.ErrStatusChanged) {
			return s.whyNotAccepted(ctx, tx, id, playerID, now)
		}

		if err != nil {
			return err
		}

		rsv, err := s.guard.Reserve(ctx, tx, playerID, wager.GameCoinflip, c.Wager)
		if err != nil {
			return err
		}

		pot := 2 * c.Wager
		rake := decimal.NewFromInt(pot).Mul(s.rake).Floor().IntPart()
		prize := pot - rake

		winner, winRsv, loseRsv := c.CreatorID, c.CreatorReservation, rsv.ID
		if result != c.Call {
			winner, winRsv, loseRsv = playerID, rsv.ID, c.CreatorReservation
		}

		err = s.guard.Settle(ctx, tx, winRsv, prize)
		if err != nil {
			return err
		}

		err = s.guard.Settle(ctx, tx, loseRsv, 0)
		if err != nil {
			return err
		}

		err = s.challenges.Resolve(ctx, tx, c.ID, coinflip.Resolution{
			Result:              result,
			WinnerID:            winner,
			AcceptorReservation: rsv.ID,
			At:                  now,
		})
		if err != nil {
			return err
		}

		for _, p := range []uint64{c.CreatorID, playerID} {
			payout := int64(0)
			if p == winner {
				payout = prize
			}

			err = s.history.Record(ctx, tx, history.Record{
				ID:       uuid.New(),
				PlayerID: p,
				Game:     wager.GameCoinflip,
				Wager:    c.Wager,
				Payout:   payout,
				Detail: map[string]any{
					"challengeId": c.ID,
					"call":        c.Call,
					"result":      result,
					"rake":        rake,
				},
				CreatedAt: now,
			})
			if err != nil {
				return err
			}
		}

		c.Status = coinflip.StatusResolved
		c.Result = &result
		c.WinnerID = &winner
		c.ResolvedAt = &now
		challenged = c

		out = Settlement{
			Challenge: render(c),
			Result:    result,
			WinnerID:  winner,
			Pot:       pot,
			Rake:      rake,
			Prize:     prize,
		}

		out.Balance, err = s.guard.BalanceIn(ctx, tx, playerID)

		return err
	})
	if err != nil {
		return Settlement{}, wager.Report(s.log, "coinflip.accept", playerID, fmt.Errorf("accept challenge: %w", err))
	}

	for _, p := range []uint64{challenged.CreatorID, playerID} {
		payout := int64(0)
		if p == out.WinnerID {
			payout = out.Prize
		}

		metrics.RecordBet(wager.GameCoinflip, challenged.Wager, payout)
	}

	s.log.Info("challenge resolved",
		"challenge_id", id, "creator_id", challenged.CreatorID, "acceptor_id", playerID,
		"result", out.Result, "winner_id", out.WinnerID, "prize", out.Prize, "rake", out.Rake)

	return out, nil
}

// whyNotAccepted classifies a lost open -> accepted transition.
func (s *Service) whyNotAccepted(ctx context.Context, tx *sql.Tx, id uuid.UUID, playerID uint64, now time.Time) error {
	c, err := s.challenges.Find(ctx, tx, id)
	if errors.Is(err, coinflip.ErrChallengeNotFound) {
		return gameerr.ErrNotFound
	}

	if err != nil {
		return err
	}

	switch {
	case c.CreatorID == playerID:
		return gameerr.ErrSelfAccept
	case c.Status == coinflip.StatusExpired:
		return gameerr.ErrChallengeExpired
	case c.Status == coinflip.StatusOpen && !c.ExpiresAt.After(now):
		return gameerr.ErrChallengeExpired
	default:
		return gameerr.ErrAlreadyAccepted
	}
}

// Cancel closes the caller's open challenge and refunds the escrow.
func (s *Service) Cancel(ctx context.Context, playerID uint64) (View, error) {
	var view View

	err := s.tx.InTx(ctx, func(tx *sql.Tx) error {
		c, err := s.challenges.LockOpenByCreator(ctx, tx, playerID)
		if errors.Is(err, coinflip.ErrChallengeNotFound) {
			return fmt.Errorf("%w: no open challenge", gameerr.ErrNotFound)
		}

		if err != nil {
			return err
		}

		now := s.now()

		err = s.close(ctx, tx, c, coinflip.StatusCancelled, now)
		if err != nil {
			return err
		}

		c.Status = coinflip.StatusCancelled
		c.ResolvedAt = &now
		view = render(c)

		return nil
	})
	if err != nil {
		return View{}, wager.Report(s.log, "coinflip.cancel", playerID, fmt.Errorf("cancel challenge: %w", err))
	}

	s.log.Info("challenge cancelled", "player_id", playerID, "challenge_id", view.ID)

	return view, nil
}

// SweepExpired expires every open challenge past its TTL, one batch per unit
// of work, and returns how many it refunded. Running it again is a no-op.
func (s *Service) SweepExpired(ctx context.Context) (int, error) {
	total := 0

	for {
		n, more, err := s.sweepBatch(ctx)
		total += n

		if err != nil {
			return total, wager.Report(s.log, "coinflip.sweep", 0, fmt.Errorf("sweep expired: %w", err))
		}

		if !more {
			break
		}
	}

	if total > 0 {
		s.log.Info("expired challenges swept", "count", total)
	}

	return total, nil
}

func (s *Service) sweepBatch(ctx context.Context) (swept int, more bool, err error) {
	err = s.tx.InTx(ctx, func(tx *sql.Tx) error {
		swept = 0
		now := s.now()

		batch, err := s.challenges.LockExpired(ctx, tx, now, sweepBatch)
		if err != nil {
			return err
		}

		more = len(batch) == sweepBatch

		for _, c := range batch {
			err = s.close(ctx, tx, c, coinflip.StatusExpired, now)
			if errors.Is(err, gameerr.ErrInvalidState) {
				continue
			}

			if err != nil {
				return err
			}

			swept++
		}

		return nil
	})
	if err != nil {
		return 0, false, err
	}

	return swept, more, nil
}

// close moves an open challenge to a terminal status and refunds the creator.
func (s *Service) close(ctx context.Context, tx *sql.Tx, c coinflip.Challenge, to coinflip.Status, now time.Time) error {
	err := s.challenges.Transition(ctx, tx, c.ID, coinflip.StatusOpen, to, now)
	if errors.Is(err, coinflip.ErrStatusChanged) {
		return fmt.Errorf("%w: challenge is %s", gameerr.ErrInvalidState, c.Status)
	}

	if err != nil {
		return err
	}

	return s.guard.Void(ctx, tx, c.CreatorReservation)
}

// ListOpen returns unexpired open challenges, oldest first.
func (s *Service) ListOpen(ctx context.Context, limit int) ([]View, error) {
	if limit <= 0 {
		limit = defaultLimit
	}

	list, err := s.challenges.ListOpen(ctx, s.now(), limit)
	if err != nil {
		return nil, fmt.Errorf("list open challenges: %w", err)
	}

	out := make([]View, len(list))
	for i, c := range list {
		out[i] = render(c)
	}

	return out, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (View, error) {
	c, err := s.challenges.Get(ctx, id)
	if errors.Is(err, coinflip.ErrChallengeNotFound) {
		return View{}, gameerr.ErrNotFound
	}

	if err != nil {
		return View{}, fmt.Errorf("get challenge: %w", err)
	}

	return render(c), nil
}

func render(c coinflip.Challenge) View {
	return View{
		ID:         c.ID,
		CreatorID:  c.CreatorID,
		Wager:      c.Wager,
		Call:       c.Call,
		Status:     c.Status,
		AcceptorID: c.AcceptorID,
		Result:     c.Result,
		WinnerID:   c.WinnerID,
		CreatedAt:  c.CreatedAt,
		ExpiresAt:  c.ExpiresAt,
		ResolvedAt: c.ResolvedAt,
	}
}
