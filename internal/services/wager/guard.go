// Package wager is the Wager Guard: the single entry point through which
// games validate stakes and move money on the ledger.
package wager

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastprodman/wagerengine/internal/config"
	"github.com/fastprodman/wagerengine/internal/gameerr"
	"github.com/fastprodman/wagerengine/internal/repos/ledger"
	"github.com/google/uuid"
)

const (
	GameBlackjack = "blackjack"
	GameSlots     = "slots"
	GameCoinflip  = "coinflip"
	GameLottery   = "lottery"
)

// SessionChecker reports whether a player has an in-progress session of a
// game that must finish before another one starts.
type SessionChecker interface {
	HasActiveSession(ctx context.Context, tx *sql.Tx, playerID uint64) (bool, error)
}

type Guard struct {
	ledger   ledger.Ledger
	limits   config.WagerLimits
	checkers map[string]SessionChecker
}

func NewGuard(l ledger.Ledger, limits config.WagerLimits) *Guard {
	return &Guard{ledger: l, limits: limits, checkers: make(map[string]SessionChecker)}
}

// LockSessions makes Reserve reject a game's wagers with GAME_LOCKED while the
// checker reports an active session. Call during wiring, before serving.
func (g *Guard) LockSessions(game string, c SessionChecker) {
	g.checkers[game] = c
}

func (g *Guard) ceiling(game string) int64 {
	switch game {
	case GameBlackjack:
		return g.limits.Blackjack
	case GameSlots:
		return g.limits.Slots
	case GameCoinflip:
		return g.limits.Coinflip
	case GameLottery:
		return g.limits.Lottery
	default:
		return 0
	}
}

// Validate checks an amount against the game's bounds. It has no side effects.
func (g *Guard) Validate(game string, amount int64) error {
	if amount <= 0 || amount < g.limits.Min {
		return fmt.Errorf("%w: %d is below the minimum of %d", gameerr.ErrInvalidAmount, amount, max(g.limits.Min, 1))
	}

	if ceiling := g.ceiling(game); ceiling > 0 && amount > ceiling {
		return fmt.Errorf("%w: %d exceeds the %s ceiling of %d", gameerr.ErrInvalidAmount, amount, game, ceiling)
	}

	return nil
}

// Reserve validates amount, enforces the game's session lock and debits the
// player inside tx.
//
// For session-locked games the player row is locked before the checker runs,
// so a concurrent Reserve for the same player waits until this tx ends and
// then sees the session it created.
func (g *Guard) Reserve(ctx context.Context, tx *sql.Tx, playerID uint64, game string, amount int64) (ledger.Reservation, error) {
	err := g.Validate(game, amount)
	if err != nil {
		return ledger.Reservation{}, err
	}

	if c, ok := g.checkers[game]; ok {
		_, err = g.ledger.LockAndGetBalance(ctx, tx, playerID)
		if err != nil {
			return ledger.Reservation{}, translate(err)
		}

		active, err := c.HasActiveSession(ctx, tx, playerID)
		if err != nil {
			return ledger.Reservation{}, fmt.Errorf("check %s session: %w", game, err)
		}

		if active {
			return ledger.Reservation{}, gameerr.ErrGameLocked
		}
	}

	return g.debit(ctx, tx, playerID, game, amount)
}

// ReserveAdditional debits a further stake for a session already in play,
// such as a blackjack double. The session lock is not consulted.
func (g *Guard) ReserveAdditional(ctx context.Context, tx *sql.Tx, playerID uint64, game string, amount int64) (ledger.Reservation, error) {
	if amount <= 0 {
		return ledger.Reservation{}, gameerr.ErrInvalidAmount
	}

	return g.debit(ctx, tx, playerID, game, amount)
}

func (g *Guard) debit(ctx context.Context, tx *sql.Tx, playerID uint64, game string, amount int64) (ledger.Reservation, error) {
	rsv, err := g.ledger.Reserve(ctx, tx, playerID, game, amount)
	if err != nil {
		return ledger.Reservation{}, translate(err)
	}

	return rsv, nil
}

// Settle closes a reservation, crediting payout (zero for a loss).
func (g *Guard) Settle(ctx context.Context, tx *sql.Tx, reservationID uuid.UUID, payout int64) error {
	err := g.ledger.Settle(ctx, tx, reservationID, payout)
	if err != nil {
		return fmt.Errorf("settle reservation %s: %w", reservationID, err)
	}

	return nil
}

// Void refunds a reservation in full.
func (g *Guard) Void(ctx context.Context, tx *sql.Tx, reservationID uuid.UUID) error {
	err := g.ledger.Void(ctx, tx, reservationID)
	if err != nil {
		return fmt.Errorf("void reservation %s: %w", reservationID, err)
	}

	return nil
}

// Credit pays a prize that is not tied to one reservation. ref must be
// unique per payment.
func (g *Guard) Credit(ctx context.Context, tx *sql.Tx, playerID uint64, amount int64, ref string) error {
	err := g.ledger.Credit(ctx, tx, playerID, amount, ref)
	if err != nil {
		return fmt.Errorf("credit %s: %w", ref, err)
	}

	return nil
}

// Balance reads a player's committed balance.
func (g *Guard) Balance(ctx context.Context, playerID uint64) (int64, error) {
	b, err := g.ledger.GetBalance(ctx, playerID)
	if err != nil {
		return 0, translate(err)
	}

	return b, nil
}

// BalanceIn reads the balance inside tx, locking the player row.
func (g *Guard) BalanceIn(ctx context.Context, tx *sql.Tx, playerID uint64) (int64, error) {
	b, err := g.ledger.LockAndGetBalance(ctx, tx, playerID)
	if err != nil {
		return 0, translate(err)
	}

	return b, nil
}

func translate(err error) error {
	switch {
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return gameerr.ErrInsufficientFunds
	case errors.Is(err, ledger.ErrPlayerNotFound):
		return gameerr.ErrPlayerNotFound
	default:
		return fmt.Errorf("ledger: %w", err)
	}
}
