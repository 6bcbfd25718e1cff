package blackjack

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastprodman/wagerengine/internal/infra/pgutils"
	"github.com/fastprodman/wagerengine/internal/outcome"
	"github.com/fastprodman/wagerengine/internal/repos/blackjack"
	"github.com/google/uuid"
)

var _ blackjack.Sessions = (*sessionsRepo)(nil)

type sessionsRepo struct{ db *sql.DB }

func New(db *sql.DB) *sessionsRepo {
	return &sessionsRepo{db: db}
}

const sessionColumns = `id, player_id, status, player_hand, dealer_hand, shoe, wager, doubled, reservations, started_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (blackjack.Session, error) {
	var (
		s            blackjack.Session
		playerHand   pgutils.JSON[[]outcome.Card]
		dealerHand   pgutils.JSON[[]outcome.Card]
		shoe         pgutils.JSON[[]outcome.Card]
		reservations pgutils.JSON[[]uuid.UUID]
	)

	err := row.Scan(&s.ID, &s.PlayerID, &s.Status, &playerHand, &dealerHand, &shoe,
		&s.Wager, &s.Doubled, &reservations, &s.StartedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return blackjack.Session{}, blackjack.ErrSessionNotFound
		}

		return blackjack.Session{}, fmt.Errorf("scan session: %w", err)
	}

	s.PlayerHand = playerHand.V
	s.DealerHand = dealerHand.V
	s.Shoe = shoe.V
	s.Reservations = reservations.V

	return s, nil
}
