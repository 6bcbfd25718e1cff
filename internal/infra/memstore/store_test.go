package memstore

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/fastprodman/wagerengine/internal/repos/jackpot"
	"github.com/fastprodman/wagerengine/internal/repos/ledger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestInTx_RollsBackOnError(t *testing.T) {
	t.Parallel()

	s := New()
	s.SeedPlayer(1, 1000)

	ctx := context.Background()
	boom := errors.New("boom")

	err := s.InTx(ctx, func(tx *sql.Tx) error {
		rsv, err := s.Ledger().Reserve(ctx, tx, 1, "slots", 400)
		require.NoError(t, err)
		require.NoError(t, s.Ledger().Settle(ctx, tx, rsv.ID, 0))

		return boom
	})
	require.ErrorIs(t, err, boom)

	require.Equal(t, int64(1000), s.Balance(1))
	require.Empty(t, s.Entries())
	require.Zero(t, s.HeldReservations())
}

func TestFailNext_FiresOnce(t *testing.T) {
	t.Parallel()

	s := New()
	s.SeedPlayer(1, 100)

	ctx := context.Background()
	injected := errors.New("disk on fire")
	s.FailNext("ledger.reserve", injected)

	_, err := s.Ledger().Reserve(ctx, nil, 1, "coinflip", 10)
	require.ErrorIs(t, err, injected)

	_, err = s.Ledger().Reserve(ctx, nil, 1, "coinflip", 10)
	require.NoError(t, err)
	require.Equal(t, int64(90), s.Balance(1))
}

func TestLedger_VoidRefundsOnce(t *testing.T) {
	t.Parallel()

	s := New()
	s.SeedPlayer(1, 100)

	ctx := context.Background()

	rsv, err := s.Ledger().Reserve(ctx, nil, 1, "coinflip", 60)
	require.NoError(t, err)
	require.NoError(t, s.Ledger().Void(ctx, nil, rsv.ID))
	require.ErrorIs(t, s.Ledger().Void(ctx, nil, rsv.ID), ledger.ErrReservationClosed)
	require.Equal(t, int64(100), s.Balance(1))

	_, err = s.Ledger().Reserve(ctx, nil, 1, "coinflip", 101)
	require.ErrorIs(t, err, ledger.ErrInsufficientFunds)

	_, err = s.Ledger().Reserve(ctx, nil, 2, "coinflip", 1)
	require.ErrorIs(t, err, ledger.ErrPlayerNotFound)
}

func TestInTx_RetriesVersionConflicts(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	require.NoError(t, s.Pools().Ensure(ctx, 500, decimal.RequireFromString("0.01")))

	s.FailNext("jackpot.update", jackpot.ErrVersionConflict)

	attempts := 0
	err := s.InTx(ctx, func(tx *sql.Tx) error {
		attempts++

		p, err := s.Pools().Get(ctx, tx)
		if err != nil {
			return err
		}

		p.CurrentPool += 10

		return s.Pools().Update(ctx, tx, p)
	})
	require.NoError(t, err)
	require.Equal(t, 2, attempts)

	p, err := s.Pools().Snapshot(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(510), p.CurrentPool)
}
