package coinflip

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fastprodman/wagerengine/internal/outcome"
	"github.com/fastprodman/wagerengine/internal/repos/coinflip"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var columns = []string{
	"id", "creator_id", "wager", "call", "status", "acceptor_id", "result", "winner_id",
	"creator_reservation", "acceptor_reservation", "created_at", "expires_at", "resolved_at",
}

func TestChallenges_MarkAcceptedLoserSeesStatusChanged(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	id := uuid.New()
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE coinflip_challenges`)).
		WithArgs(id, uint64(2), now).
		WillReturnRows(sqlmock.NewRows(columns))

	tx, err := db.Begin()
	require.NoError(t, err)

	_, err = New(db).MarkAccepted(context.Background(), tx, id, 2, now)
	require.ErrorIs(t, err, coinflip.ErrStatusChanged)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestChallenges_ListOpenMapsNullableColumns(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	open := uuid.New()
	rsv := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE status = 'open'`)).
		WithArgs(now, 50).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(open.String(), int64(1), int64(300), "heads", "open", nil, nil, nil,
				rsv.String(), nil, now, now.Add(10*time.Minute), nil))

	list, err := New(db).ListOpen(context.Background(), now, 50)
	require.NoError(t, err)
	require.Len(t, list, 1)

	c := list[0]
	assert.Equal(t, open, c.ID)
	assert.Equal(t, uint64(1), c.CreatorID)
	assert.Equal(t, outcome.Heads, c.Call)
	assert.Equal(t, coinflip.StatusOpen, c.Status)
	assert.Nil(t, c.AcceptorID)
	assert.Nil(t, c.Result)
	assert.Nil(t, c.AcceptorReservation)
	assert.Equal(t, rsv, c.CreatorReservation)
}

func TestChallenges_InsertSecondOpenIsRejected(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO coinflip_challenges`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	tx, err := db.Begin()
	require.NoError(t, err)

	err = New(db).Insert(context.Background(), tx, coinflip.Challenge{
		ID:                 uuid.New(),
		CreatorID:          1,
		Wager:              10,
		Call:               outcome.Tails,
		CreatorReservation: uuid.New(),
	})
	require.ErrorIs(t, err, coinflip.ErrOpenExists)
}

func TestChallenges_TransitionGuardLost(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	id := uuid.New()
	at := time.Now()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE coinflip_challenges`)).
		WithArgs(id, "open", "cancelled", at).
		WillReturnResult(sqlmock.NewResult(0, 0))

	tx, err := db.Begin()
	require.NoError(t, err)

	err = New(db).Transition(context.Background(), tx, id, coinflip.StatusOpen, coinflip.StatusCancelled, at)
	require.ErrorIs(t, err, coinflip.ErrStatusChanged)
}
