// Package blackjack runs the per-player blackjack state machine. The session
// row is the lock: every action loads it FOR UPDATE, applies one transition
// and persists or archives it within the same unit of work.
package blackjack

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
	"github.com/fastprodman/wagerengine/internal/repos/blackjack"
	"github.com/fastprodman/wagerengine/internal/repos/history"
	"github.com/fastprodman/wagerengine/internal/services/wager"
	"github.com/google/uuid"
)

const hiddenCard = "??"

// View is what a player sees of a round. While the player is still acting the
// dealer's hole card is hidden and only the up card is valued.
type View struct {
	State       State    `json:"state"`
	PlayerHand  []string `json:"playerHand"`
	PlayerValue int      `json:"playerValue"`
	Soft        bool     `json:"soft"`
	DealerHand  []string `json:"dealerHand"`
	DealerValue int      `json:"dealerValue"`
	Wager       int64    `json:"wager"`
	Doubled     bool     `json:"doubled"`
	Outcome     Outcome  `json:"outcome,omitempty"`
	Payout      int64    `json:"payout"`
	Balance     int64    `json:"balance"`
}

type Service struct {
	tx       pgutils.TxRunner
	guard    *wager.Guard
	sessions blackjack.Sessions
	history  history.Store
	shuffle  func() []outcome.Card
	rules    Rules
	now      func() time.Time
	log      *slog.Logger
}

// New builds the service and registers the session table with guard so a
// player cannot start a second round while one is in play.
func New(tx pgutils.TxRunner, guard *wager.Guard, sessions blackjack.Sessions, hist history.Store, src outcome.Source, decks int, rules Rules) *Service {
	guard.LockSessions(wager.GameBlackjack, sessionLock{sessions})

	return &Service{
		tx:       tx,
		guard:    guard,
		sessions: sessions,
		history:  hist,
		shuffle:  func() []outcome.Card { return outcome.NewShoe(src, decks).Cards() },
		rules:    rules,
		now:      time.Now,
		log:      logging.For("blackjack"),
	}
}

type sessionLock struct{ sessions blackjack.Sessions }

func (l sessionLock) HasActiveSession(ctx context.Context, tx *sql.Tx, playerID uint64) (bool, error) {
	return l.sessions.ExistsForPlayer(ctx, tx, playerID)
}

// Start reserves amount and deals. A player natural settles immediately.
func (s *Service) Start(ctx context.Context, playerID uint64, amount int64) (View, error) {
	err := s.guard.Validate(wager.GameBlackjack, amount)
	if err != nil {
		return View{}, wager.Report(s.log, "blackjack.start", playerID, err)
	}

	// shuffled outside the unit of work so a retry deals the same cards
	shoe := s.shuffle()

	var view View

	err = s.tx.InTx(ctx, func(tx *sql.Tx) error {
		now := s.now()

		rsv, err := s.guard.Reserve(ctx, tx, playerID, wager.GameBlackjack, amount)
		if err != nil {
			return err
		}

		r := newRound(outcome.RestoreShoe(shoe), amount)

		err = r.deal()
		if err != nil {
			return err
		}

		err = r.open(s.rules)
		if err != nil {
			return err
		}

		sess := blackjack.Session{
			ID:           uuid.New(),
			PlayerID:     playerID,
			Wager:        amount,
			Reservations: []uuid.UUID{rsv.ID},
			StartedAt:    now,
		}

		if r.state == StateSettled {
			view, err = s.settle(ctx, tx, sess, r, now)

			return err
		}

		save(&sess, r, now)

		err = s.sessions.Insert(ctx, tx, sess)
		if errors.Is(err, blackjack.ErrSessionExists) {
			return gameerr.ErrGameLocked
		}

		if err != nil {
			return err
		}

		view, err = s.view(ctx, tx, playerID, r)

		return err
	})
	if err != nil {
		return View{}, wager.Report(s.log, "blackjack.start", playerID, fmt.Errorf("start: %w", err))
	}

	s.observe(playerID, view)

	return view, nil
}

func (s *Service) Hit(ctx context.Context, playerID uint64) (View, error) {
	return s.act(ctx, "hit", playerID, func(_ context.Context, _ *sql.Tx, _ *blackjack.Session, r *round) error {
		return r.hit()
	})
}

func (s *Service) Stand(ctx context.Context, playerID uint64) (View, error) {
	return s.act(ctx, "stand", playerID, func(_ context.Context, _ *sql.Tx, _ *blackjack.Session, r *round) error {
		err := r.stand()
		if err != nil {
			return err
		}

		return r.playDealer(s.rules)
	})
}

// Double reserves a second stake equal to the first, draws one card and hands
// play to the dealer.
func (s *Service) Double(ctx context.Context, playerID uint64) (View, error) {
	return s.act(ctx, "double", playerID, func(ctx context.Context, tx *sql.Tx, sess *blackjack.Session, r *round) error {
		err := r.canDouble()
		if err != nil {
			return err
		}

		rsv, err := s.guard.ReserveAdditional(ctx, tx, playerID, wager.GameBlackjack, r.wager)
		if err != nil {
			return err
		}

		sess.Reservations = append(sess.Reservations, rsv.ID)

		err = r.double()
		if err != nil {
			return err
		}

		return r.playDealer(s.rules)
	})
}

// Current returns the player's round in progress.
func (s *Service) Current(ctx context.Context, playerID uint64) (View, error) {
	sess, err := s.sessions.GetByPlayer(ctx, playerID)
	if errors.Is(err, blackjack.ErrSessionNotFound) {
		return View{}, gameerr.ErrNotFound
	}

	if err != nil {
		return View{}, fmt.Errorf("current session: %w", err)
	}

	v := render(restore(sess))

	v.Balance, err = s.guard.Balance(ctx, playerID)
	if err != nil {
		return View{}, err
	}

	return v, nil
}

type action func(ctx context.Context, tx *sql.Tx, sess *blackjack.Session, r *round) error

func (s *Service) act(ctx context.Context, name string, playerID uint64, fn action) (View, error) {
	op := "blackjack." + name

	var view View

	err := s.tx.InTx(ctx, func(tx *sql.Tx) error {
		now := s.now()

		sess, err := s.sessions.LockByPlayer(ctx, tx, playerID)
		if errors.Is(err, blackjack.ErrSessionNotFound) {
			return fmt.Errorf("%w: no round in progress", gameerr.ErrInvalidState)
		}

		if err != nil {
			return err
		}

		r := restore(sess)

		err = fn(ctx, tx, &sess, r)
		if err != nil {
			return err
		}

		if r.state == StateSettled {
			err = s.sessions.Delete(ctx, tx, sess.ID)
			if err != nil {
				return err
			}

			view, err = s.settle(ctx, tx, sess, r, now)

			return err
		}

		save(&sess, r, now)

		err = s.sessions.Update(ctx, tx, sess)
		if err != nil {
			return err
		}

		view, err = s.view(ctx, tx, playerID, r)

		return err
	})
	if err != nil {
		return View{}, wager.Report(s.log, op, playerID, fmt.Errorf("%s: %w", name, err))
	}

	s.observe(playerID, view)

	return view, nil
}

// settle pays the whole payout against the first reservation and closes the
// rest at zero, then archives the round.
func (s *Service) settle(ctx context.Context, tx *sql.Tx, sess blackjack.Session, r *round, now time.Time) (View, error) {
	for i, id := range sess.Reservations {
		payout := int64(0)
		if i == 0 {
			payout = r.payout
		}

		err := s.guard.Settle(ctx, tx, id, payout)
		if err != nil {
			return View{}, err
		}
	}

	err := s.history.Record(ctx, tx, history.Record{
		ID:       uuid.New(),
		PlayerID: sess.PlayerID,
		Game:     wager.GameBlackjack,
		Wager:    r.wager,
		Payout:   r.payout,
		Detail: map[string]any{
			"playerHand": r.player.Strings(),
			"dealerHand": r.dealer.Strings(),
			"outcome":    r.outcome,
			"doubled":    r.doubled,
		},
		CreatedAt: now,
	})
	if err != nil {
		return View{}, err
	}

	return s.view(ctx, tx, sess.PlayerID, r)
}

func (s *Service) view(ctx context.Context, tx *sql.Tx, playerID uint64, r *round) (View, error) {
	v := render(r)

	balance, err := s.guard.BalanceIn(ctx, tx, playerID)
	if err != nil {
		return View{}, err
	}

	v.Balance = balance

	return v, nil
}

func (s *Service) observe(playerID uint64, v View) {
	if v.State != StateSettled {
		return
	}

	metrics.RecordBet(wager.GameBlackjack, v.Wager, v.Payout)
	s.log.Info("round settled", "player_id", playerID, "wager", v.Wager, "outcome", v.Outcome, "payout", v.Payout)
}

func restore(sess blackjack.Session) *round {
	return &round{
		state:   State(sess.Status),
		player:  Hand(sess.PlayerHand),
		dealer:  Hand(sess.DealerHand),
		shoe:    outcome.RestoreShoe(sess.Shoe),
		wager:   sess.Wager,
		doubled: sess.Doubled,
	}
}

func save(sess *blackjack.Session, r *round, now time.Time) {
	sess.Status = string(r.state)
	sess.PlayerHand = r.player
	sess.DealerHand = r.dealer
	sess.Shoe = r.shoe.Cards()
	sess.Wager = r.wager
	sess.Doubled = r.doubled
	sess.UpdatedAt = now
}

func render(r *round) View {
	v := View{
		State:      r.state,
		PlayerHand: r.player.Strings(),
		Wager:      r.wager,
		Doubled:    r.doubled,
		Outcome:    r.outcome,
		Payout:     r.payout,
	}

	v.PlayerValue, v.Soft = r.player.Value()

	if r.state == StateSettled {
		v.DealerHand = r.dealer.Strings()
		v.DealerValue = r.dealer.Total()

		return v
	}

	v.DealerHand = make([]string, len(r.dealer))
	for i := range r.dealer {
		v.DealerHand[i] = hiddenCard
	}

	if len(r.dealer) > 0 {
		v.DealerHand[0] = r.dealer[0].String()
		v.DealerValue = Hand{r.dealer[0]}.Total()
	}

	return v
}
