package stats

import (
	"context"
	"testing"
	"time"

	"github.com/fastprodman/wagerengine/internal/config"
	"github.com/fastprodman/wagerengine/internal/gameerr"
	"github.com/fastprodman/wagerengine/internal/infra/memstore"
	"github.com/fastprodman/wagerengine/internal/repos/history"
	"github.com/fastprodman/wagerengine/internal/services/jackpot"
	"github.com/fastprodman/wagerengine/internal/services/lottery"
	"github.com/fastprodman/wagerengine/internal/services/wager"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type zeros struct{}

func (zeros) IntN(int) int { return 0 }

func newService(t *testing.T, store *memstore.Store) (*Service, *lottery.Service) {
	t.Helper()

	ctx := context.Background()
	guard := wager.NewGuard(store.Ledger(), config.WagerLimits{Min: 1, Lottery: 1000})

	jp := jackpot.New(store.Pools())
	require.NoError(t, jp.Init(ctx, 5000, decimal.RequireFromString("0.02")))

	lot, err := lottery.New(store, guard, store.Draws(), store.History(), zeros{}, config.LotteryConfig{
		Numbers:      3,
		MaxNumber:    10,
		TicketCost:   10,
		DrawInterval: time.Hour,
	})
	require.NoError(t, err)

	return New(guard, store.History(), jp, lot), lot
}

func record(t *testing.T, store *memstore.Store, playerID uint64, game string, wager, payout int64) {
	t.Helper()

	require.NoError(t, store.History().Record(context.Background(), nil, history.Record{
		ID:        uuid.New(),
		PlayerID:  playerID,
		Game:      game,
		Wager:     wager,
		Payout:    payout,
		CreatedAt: time.Now(),
	}))
}

func TestPlayerStats(t *testing.T) {
	t.Parallel()

	store := memstore.New()
	store.SeedPlayer(1, 1000)

	svc, _ := newService(t, store)

	record(t, store, 1, wager.GameSlots, 100, 0)
	record(t, store, 1, wager.GameSlots, 100, 500)
	record(t, store, 1, wager.GameBlackjack, 200, 400)
	record(t, store, 1, wager.GameBlackjack, 200, 200)
	record(t, store, 2, wager.GameSlots, 100, 10_000)

	st, err := svc.PlayerStats(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, int64(1000), st.Balance)
	require.Len(t, st.Games, 2)

	bj := st.Games[0]
	assert.Equal(t, wager.GameBlackjack, bj.Game)
	assert.Equal(t, int64(2), bj.Played)
	assert.Equal(t, int64(1), bj.Wins)
	assert.Equal(t, int64(200), bj.NetProfit)

	assert.Equal(t, Totals{
		Played:     4,
		Wins:       2,
		Wagered:    600,
		Won:        1100,
		NetProfit:  500,
		BiggestWin: 400,
	}, st.Overall)
}

func TestPlayerStats_UnknownPlayer(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t, memstore.New())

	_, err := svc.PlayerStats(context.Background(), 42)
	require.ErrorIs(t, err, gameerr.ErrPlayerNotFound)
}

func TestPools(t *testing.T) {
	t.Parallel()

	store := memstore.New()
	svc, lot := newService(t, store)
	ctx := context.Background()

	p, err := svc.Pools(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), p.Jackpot.CurrentPool)
	assert.Equal(t, "0.02", p.Jackpot.ContributionRate)
	assert.Nil(t, p.Lottery)

	draw, err := lot.EnsureOpenDraw(ctx)
	require.NoError(t, err)

	p, err = svc.Pools(ctx)
	require.NoError(t, err)
	require.NotNil(t, p.Lottery)
	assert.Equal(t, draw.ID, p.Lottery.ID)
}
