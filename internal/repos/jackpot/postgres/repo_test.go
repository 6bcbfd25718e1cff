package jackpot

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fastprodman/wagerengine/internal/infra/pgutils"
	"github.com/fastprodman/wagerengine/internal/repos/jackpot"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestPools_UpdateStaleVersionIsRetryable(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE jackpot_pool`)).
		WithArgs(int64(3), int64(5020), nil, nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 0))

	tx, err := db.Begin()
	require.NoError(t, err)

	err = New(db).Update(context.Background(), tx, jackpot.Pool{CurrentPool: 5020, Version: 3})
	require.ErrorIs(t, err, jackpot.ErrVersionConflict)
	require.True(t, pgutils.IsRetryable(err))
}

func TestPools_SnapshotScansRate(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM jackpot_pool`)).
		WillReturnRows(sqlmock.NewRows([]string{
			"current_pool", "contribution_rate", "seed", "last_winner_id",
			"last_win_amount", "last_won_at", "version", "updated_at",
		}).AddRow(int64(12000), "0.020000", int64(10000), int64(7), int64(4100), now, int64(9), now))

	p, err := New(db).Snapshot(context.Background())
	require.NoError(t, err)

	require.Equal(t, int64(12000), p.CurrentPool)
	require.True(t, p.ContributionRate.Equal(decimal.RequireFromString("0.02")))
	require.NotNil(t, p.LastWinnerID)
	require.Equal(t, uint64(7), *p.LastWinnerID)
	require.Equal(t, int64(4100), *p.LastWinAmount)
	require.Equal(t, int64(9), p.Version)
}

func TestPools_GetLocksRow(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM jackpot_pool WHERE id = 1 FOR UPDATE`)).
		WillReturnRows(sqlmock.NewRows([]string{
			"current_pool", "contribution_rate", "seed", "last_winner_id",
			"last_win_amount", "last_won_at", "version", "updated_at",
		}).AddRow(int64(500), "0.020000", int64(500), nil, nil, nil, int64(1), now))

	tx, err := db.Begin()
	require.NoError(t, err)

	p, err := New(db).Get(context.Background(), tx)
	require.NoError(t, err)
	require.Equal(t, int64(500), p.CurrentPool)
	require.Nil(t, p.LastWinnerID)
	require.NoError(t, mock.ExpectationsWereMet())
}
