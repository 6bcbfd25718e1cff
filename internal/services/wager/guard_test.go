package wager

import (
	"context"
	"database/sql"
	"testing"

	"github.com/fastprodman/wagerengine/internal/config"
	"github.com/fastprodman/wagerengine/internal/gameerr"
	"github.com/fastprodman/wagerengine/internal/infra/memstore"
	"github.com/fastprodman/wagerengine/internal/repos/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var limits = config.WagerLimits{Min: 10, Blackjack: 1000, Slots: 500, Coinflip: 1000, Lottery: 100}

type lockedFor map[uint64]bool

func (l lockedFor) HasActiveSession(_ context.Context, _ *sql.Tx, playerID uint64) (bool, error) {
	return l[playerID], nil
}

func TestValidate(t *testing.T) {
	t.Parallel()

	g := NewGuard(memstore.New().Ledger(), limits)

	tests := []struct {
		name   string
		game   string
		amount int64
		ok     bool
	}{
		{"zero", GameSlots, 0, false},
		{"negative", GameSlots, -5, false},
		{"below_minimum", GameSlots, 9, false},
		{"at_minimum", GameSlots, 10, true},
		{"at_ceiling", GameSlots, 500, true},
		{"above_ceiling", GameSlots, 501, false},
		{"other_game_ceiling", GameBlackjack, 1000, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := g.Validate(tt.game, tt.amount)
			if tt.ok {
				assert.NoError(t, err)

				return
			}

			assert.ErrorIs(t, err, gameerr.ErrInvalidAmount)
			assert.Equal(t, gameerr.KindValidation, gameerr.KindOf(err))
		})
	}
}

func TestReserve_Rejections(t *testing.T) {
	t.Parallel()

	store := memstore.New()
	store.SeedPlayer(1, 100)
	store.SeedPlayer(2, 100)

	g := NewGuard(store.Ledger(), limits)
	g.LockSessions(GameBlackjack, lockedFor{2: true})

	ctx := context.Background()

	_, err := g.Reserve(ctx, nil, 1, GameSlots, 200)
	require.ErrorIs(t, err, gameerr.ErrInsufficientFunds)

	_, err = g.Reserve(ctx, nil, 3, GameSlots, 20)
	require.ErrorIs(t, err, gameerr.ErrPlayerNotFound)

	_, err = g.Reserve(ctx, nil, 2, GameBlackjack, 20)
	require.ErrorIs(t, err, gameerr.ErrGameLocked)

	// the lock is per game
	_, err = g.Reserve(ctx, nil, 2, GameSlots, 20)
	require.NoError(t, err)

	// an additional stake on the locked game bypasses the lock
	_, err = g.ReserveAdditional(ctx, nil, 2, GameBlackjack, 20)
	require.NoError(t, err)

	require.Equal(t, int64(100), store.Balance(1))
	require.Equal(t, int64(60), store.Balance(2))
}

func TestSettleAndVoid(t *testing.T) {
	t.Parallel()

	store := memstore.New()
	store.SeedPlayer(1, 1000)

	g := NewGuard(store.Ledger(), limits)
	ctx := context.Background()

	won, err := g.Reserve(ctx, nil, 1, GameCoinflip, 100)
	require.NoError(t, err)
	refunded, err := g.Reserve(ctx, nil, 1, GameCoinflip, 100)
	require.NoError(t, err)

	require.NoError(t, g.Settle(ctx, nil, won.ID, 200))
	require.NoError(t, g.Void(ctx, nil, refunded.ID))

	err = g.Void(ctx, nil, refunded.ID)
	require.Error(t, err)
	require.Equal(t, gameerr.KindIntegrity, gameerr.KindOf(err))

	balance, err := g.Balance(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, int64(1100), balance)
}

// callLog records the order in which the guard touches the ledger and the
// session checker.
type callLog struct {
	ledger.Ledger

	calls []string
}

func (c *callLog) LockAndGetBalance(ctx context.Context, tx *sql.Tx, playerID uint64) (int64, error) {
	c.calls = append(c.calls, "lock")

	return c.Ledger.LockAndGetBalance(ctx, tx, playerID)
}

func (c *callLog) Reserve(ctx context.Context, tx *sql.Tx, playerID uint64, game string, amount int64) (ledger.Reservation, error) {
	c.calls = append(c.calls, "reserve")

	return c.Ledger.Reserve(ctx, tx, playerID, game, amount)
}

func (c *callLog) HasActiveSession(context.Context, *sql.Tx, uint64) (bool, error) {
	c.calls = append(c.calls, "check")

	return false, nil
}

func TestReserve_LocksPlayerBeforeSessionCheck(t *testing.T) {
	t.Parallel()

	store := memstore.New()
	store.SeedPlayer(1, 100)

	rec := &callLog{Ledger: store.Ledger()}
	g := NewGuard(rec, limits)
	g.LockSessions(GameBlackjack, rec)

	_, err := g.Reserve(context.Background(), nil, 1, GameBlackjack, 20)
	require.NoError(t, err)
	assert.Equal(t, []string{"lock", "check", "reserve"}, rec.calls)

	// games without a session lock go straight to the debit
	rec.calls = nil

	_, err = g.Reserve(context.Background(), nil, 1, GameSlots, 20)
	require.NoError(t, err)
	assert.Equal(t, []string{"reserve"}, rec.calls)

	_, err = g.Reserve(context.Background(), nil, 9, GameBlackjack, 20)
	require.ErrorIs(t, err, gameerr.ErrPlayerNotFound)
}
