package jackpot

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/fastprodman/wagerengine/internal/infra/memstore"
	"github.com/fastprodman/wagerengine/internal/repos/jackpot"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContribution_Floors(t *testing.T) {
	t.Parallel()

	rate := decimal.RequireFromString("0.02")

	tests := []struct {
		wager, want int64
	}{
		{1000, 20},
		{49, 0},
		{50, 1},
		{99, 1},
		{12345, 246},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Contribution(tt.wager, rate), "wager %d", tt.wager)
	}
}

func TestApplySpin_ContributesBeforePayingOut(t *testing.T) {
	t.Parallel()

	store := memstore.New()
	svc := New(store.Pools())
	ctx := context.Background()

	require.NoError(t, svc.Init(ctx, 10000, decimal.RequireFromString("0.02")))
	store.SetPool(5000)

	now := time.Now()

	var eff SpinEffect

	err := store.InTx(ctx, func(tx *sql.Tx) error {
		var err error
		eff, err = svc.ApplySpin(ctx, tx, 7, 1000, true, now)

		return err
	})
	require.NoError(t, err)

	assert.Equal(t, SpinEffect{Contribution: 20, Payout: 5020, PoolAfter: 10000}, eff)

	p, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), p.CurrentPool)
	require.NotNil(t, p.LastWinnerID)
	assert.Equal(t, uint64(7), *p.LastWinnerID)
	assert.Equal(t, int64(5020), *p.LastWinAmount)
}

func TestApplySpin_PoolTracksContributionsExactly(t *testing.T) {
	t.Parallel()

	store := memstore.New()
	rate := decimal.RequireFromString("0.03")
	svc := New(store.Pools())
	ctx := context.Background()

	require.NoError(t, svc.Init(ctx, 0, rate))

	var want int64

	for wager := int64(1); wager <= 300; wager++ {
		want += Contribution(wager, rate)

		err := store.InTx(ctx, func(tx *sql.Tx) error {
			_, err := svc.ApplySpin(ctx, tx, 1, wager, false, time.Now())

			return err
		})
		require.NoError(t, err)
	}

	p, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, p.CurrentPool)
}

func TestApplySpin_LostRaceIsRetried(t *testing.T) {
	t.Parallel()

	store := memstore.New()
	svc := New(store.Pools())
	ctx := context.Background()

	require.NoError(t, svc.Init(ctx, 100, decimal.RequireFromString("0.1")))
	store.FailNext("jackpot.update", jackpot.ErrVersionConflict)

	err := store.InTx(ctx, func(tx *sql.Tx) error {
		_, err := svc.ApplySpin(ctx, tx, 1, 100, false, time.Now())

		return err
	})
	require.NoError(t, err)

	p, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(110), p.CurrentPool, "contribution applied exactly once")
}

func TestInit_ReconfiguresExistingPool(t *testing.T) {
	t.Parallel()

	store := memstore.New()
	svc := New(store.Pools())
	ctx := context.Background()

	require.NoError(t, svc.Init(ctx, 100, decimal.RequireFromString("0.02")))
	store.SetPool(700)

	// a restart with new settings keeps the amount but takes the new seed and rate
	require.NoError(t, svc.Init(ctx, 300, decimal.RequireFromString("0.05")))

	var eff SpinEffect

	err := store.InTx(ctx, func(tx *sql.Tx) error {
		var err error
		eff, err = svc.ApplySpin(ctx, tx, 2, 100, true, time.Now())

		return err
	})
	require.NoError(t, err)

	assert.Equal(t, SpinEffect{Contribution: 5, Payout: 705, PoolAfter: 300}, eff)
}

func TestInit_RejectsNegativeSettings(t *testing.T) {
	t.Parallel()

	svc := New(memstore.New().Pools())

	require.Error(t, svc.Init(context.Background(), -1, decimal.RequireFromString("0.02")))
	require.Error(t, svc.Init(context.Background(), 100, decimal.RequireFromString("-0.01")))
}
