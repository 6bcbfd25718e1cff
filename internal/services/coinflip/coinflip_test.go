package coinflip

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fastprodman/wagerengine/internal/config"
	"github.com/fastprodman/wagerengine/internal/gameerr"
	"github.com/fastprodman/wagerengine/internal/infra/memstore"
	"github.com/fastprodman/wagerengine/internal/outcome"
	"github.com/fastprodman/wagerengine/internal/repos/coinflip"
	"github.com/fastprodman/wagerengine/internal/services/wager"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	alice = uint64(1)
	bob   = uint64(2)
	carol = uint64(3)
)

var epoch = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

// always lands on one side.
type always outcome.Side

func (a always) IntN(int) int {
	if outcome.Side(a) == outcome.Heads {
		return 0
	}

	return 1
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

func newService(t *testing.T, store *memstore.Store, side outcome.Side, rake string) (*Service, *clock) {
	t.Helper()

	limits := config.WagerLimits{Min: 1, Coinflip: 10_000}
	clk := &clock{now: epoch}

	svc := New(store, wager.NewGuard(store.Ledger(), limits), store.Challenges(), store.History(),
		always(side), 10*time.Minute, decimal.RequireFromString(rake))
	svc.now = clk.Now

	return svc, clk
}

func seed(players ...uint64) *memstore.Store {
	store := memstore.New()
	for _, p := range players {
		store.SeedPlayer(p, 1000)
	}

	return store
}

func TestAccept_CreatorWinsWholePot(t *testing.T) {
	t.Parallel()

	store := seed(alice, bob)
	svc, _ := newService(t, store, outcome.Heads, "0")
	ctx := context.Background()

	c, err := svc.Create(ctx, alice, 100, outcome.Heads)
	require.NoError(t, err)
	assert.Equal(t, coinflip.StatusOpen, c.Status)
	assert.Equal(t, int64(900), store.Balance(alice))

	res, err := svc.Accept(ctx, bob, c.ID)
	require.NoError(t, err)

	assert.Equal(t, outcome.Heads, res.Result)
	assert.Equal(t, alice, res.WinnerID)
	assert.Equal(t, int64(200), res.Prize)
	assert.Equal(t, int64(900), res.Balance)
	assert.Equal(t, coinflip.StatusResolved, res.Challenge.Status)

	assert.Equal(t, int64(1100), store.Balance(alice))
	assert.Equal(t, int64(900), store.Balance(bob))
	assert.Zero(t, store.HeldReservations())
	assert.Len(t, store.Records(), 2)
}

func TestAccept_RakeComesOutOfThePot(t *testing.T) {
	t.Parallel()

	store := seed(alice, bob)
	svc, _ := newService(t, store, outcome.Tails, "0.05")
	ctx := context.Background()

	c, err := svc.Create(ctx, alice, 100, outcome.Heads)
	require.NoError(t, err)

	res, err := svc.Accept(ctx, bob, c.ID)
	require.NoError(t, err)

	assert.Equal(t, bob, res.WinnerID)
	assert.Equal(t, int64(200), res.Pot)
	assert.Equal(t, int64(10), res.Rake)
	assert.Equal(t, int64(190), res.Prize)

	assert.Equal(t, int64(900), store.Balance(alice))
	assert.Equal(t, int64(1090), store.Balance(bob))
}

func TestCreate_Rejections(t *testing.T) {
	t.Parallel()

	store := seed(alice)
	svc, _ := newService(t, store, outcome.Heads, "0")
	ctx := context.Background()

	_, err := svc.Create(ctx, alice, 100, outcome.Side("edge"))
	require.ErrorIs(t, err, gameerr.ErrInvalidCall)

	_, err = svc.Create(ctx, alice, 0, outcome.Heads)
	require.ErrorIs(t, err, gameerr.ErrInvalidAmount)

	_, err = svc.Create(ctx, alice, 5000, outcome.Heads)
	require.ErrorIs(t, err, gameerr.ErrInsufficientFunds)

	_, err = svc.Create(ctx, alice, 100, outcome.Heads)
	require.NoError(t, err)

	_, err = svc.Create(ctx, alice, 100, outcome.Tails)
	require.ErrorIs(t, err, gameerr.ErrOpenChallengeExists)

	assert.Equal(t, int64(900), store.Balance(alice))
}

func TestCreate_ExpiresStaleChallengeFirst(t *testing.T) {
	t.Parallel()

	store := seed(alice)
	svc, clk := newService(t, store, outcome.Heads, "0")
	ctx := context.Background()

	old, err := svc.Create(ctx, alice, 300, outcome.Heads)
	require.NoError(t, err)

	clk.Advance(11 * time.Minute)

	fresh, err := svc.Create(ctx, alice, 100, outcome.Tails)
	require.NoError(t, err)
	assert.NotEqual(t, old.ID, fresh.ID)

	got, err := svc.Get(ctx, old.ID)
	require.NoError(t, err)
	assert.Equal(t, coinflip.StatusExpired, got.Status)
	assert.Equal(t, int64(900), store.Balance(alice))
	assert.Equal(t, 1, store.HeldReservations())
}

func TestAccept_Rejections(t *testing.T) {
	t.Parallel()

	store := seed(alice, bob)
	store.SeedPlayer(carol, 50)

	svc, clk := newService(t, store, outcome.Heads, "0")
	ctx := context.Background()

	c, err := svc.Create(ctx, alice, 100, outcome.Heads)
	require.NoError(t, err)

	_, err = svc.Accept(ctx, alice, c.ID)
	require.ErrorIs(t, err, gameerr.ErrSelfAccept)

	_, err = svc.Accept(ctx, bob, uuid.New())
	require.ErrorIs(t, err, gameerr.ErrNotFound)

	// a broke acceptor leaves the challenge open for someone else
	_, err = svc.Accept(ctx, carol, c.ID)
	require.ErrorIs(t, err, gameerr.ErrInsufficientFunds)

	got, err := svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, coinflip.StatusOpen, got.Status)
	assert.Nil(t, got.AcceptorID)
	assert.Equal(t, int64(50), store.Balance(carol))

	clk.Advance(10 * time.Minute)

	_, err = svc.Accept(ctx, bob, c.ID)
	require.ErrorIs(t, err, gameerr.ErrChallengeExpired)
	assert.Equal(t, int64(1000), store.Balance(bob))
}

func TestAccept_ConcurrentAcceptorsExactlyOneWins(t *testing.T) {
	t.Parallel()

	store := seed(alice, bob, carol)
	svc, _ := newService(t, store, outcome.Heads, "0")
	ctx := context.Background()

	c, err := svc.Create(ctx, alice, 100, outcome.Heads)
	require.NoError(t, err)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		won      []uint64
		rejected int
	)

	for _, p := range []uint64{bob, carol} {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := svc.Accept(ctx, p, c.ID)

			mu.Lock()
			defer mu.Unlock()

			switch {
			case err == nil:
				won = append(won, p)
			case gameerr.CodeOf(err) == gameerr.ErrAlreadyAccepted.Code:
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}

	wg.Wait()

	require.Len(t, won, 1)
	assert.Equal(t, 1, rejected)

	// alice won the flip, so only the accepting player paid
	assert.Equal(t, int64(1100), store.Balance(alice))
	assert.Equal(t, int64(1900), store.Balance(bob)+store.Balance(carol))
}

func TestCancel_RefundsExactlyOnce(t *testing.T) {
	t.Parallel()

	store := seed(alice, bob)
	svc, clk := newService(t, store, outcome.Heads, "0")
	ctx := context.Background()

	c, err := svc.Create(ctx, alice, 100, outcome.Heads)
	require.NoError(t, err)

	v, err := svc.Cancel(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, coinflip.StatusCancelled, v.Status)
	assert.Equal(t, int64(1000), store.Balance(alice))

	_, err = svc.Cancel(ctx, alice)
	require.ErrorIs(t, err, gameerr.ErrNotFound)

	_, err = svc.Accept(ctx, bob, c.ID)
	require.ErrorIs(t, err, gameerr.ErrAlreadyAccepted)

	clk.Advance(time.Hour)

	n, err := svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, int64(1000), store.Balance(alice))
	assert.Equal(t, int64(1000), store.Balance(bob))
}

func TestSweepExpired_IsIdempotentAndBatched(t *testing.T) {
	t.Parallel()

	const players = 250

	store := memstore.New()
	svc, clk := newService(t, store, outcome.Heads, "0")
	ctx := context.Background()

	for p := range uint64(players) {
		store.SeedPlayer(p+1, 1000)

		_, err := svc.Create(ctx, p+1, 100, outcome.Heads)
		require.NoError(t, err)
	}

	n, err := svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	open, err := svc.ListOpen(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, open, defaultLimit)

	clk.Advance(10 * time.Minute)

	n, err = svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, players, n)

	n, err = svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	assert.Zero(t, store.HeldReservations())

	for p := range uint64(players) {
		require.Equal(t, int64(1000), store.Balance(p+1))
	}

	open, err = svc.ListOpen(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestAccept_FailureLeavesEscrowUntouched(t *testing.T) {
	t.Parallel()

	store := seed(alice, bob)
	svc, _ := newService(t, store, outcome.Heads, "0")
	ctx := context.Background()

	c, err := svc.Create(ctx, alice, 100, outcome.Heads)
	require.NoError(t, err)

	store.FailNext("coinflip.resolve", assert.AnError)

	_, err = svc.Accept(ctx, bob, c.ID)
	require.ErrorIs(t, err, assert.AnError)

	got, err := svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, coinflip.StatusOpen, got.Status)
	assert.Equal(t, int64(900), store.Balance(alice))
	assert.Equal(t, int64(1000), store.Balance(bob))
	assert.Equal(t, 1, store.HeldReservations())
	assert.Empty(t, store.Records())
}
