package memstore

import (
	"context"
	"database/sql"
	"slices"

	"github.com/fastprodman/wagerengine/internal/repos/blackjack"
	"github.com/google/uuid"
)

type sessionsView struct{ s *Store }

func cloneSession(s blackjack.Session) blackjack.Session {
	s.PlayerHand = slices.Clone(s.PlayerHand)
	s.DealerHand = slices.Clone(s.DealerHand)
	s.Shoe = slices.Clone(s.Shoe)
	s.Reservations = slices.Clone(s.Reservations)

	return s
}

func (v sessionsView) Insert(_ context.Context, _ *sql.Tx, sess blackjack.Session) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	if err := v.s.injected("blackjack.insert"); err != nil {
		return err
	}

	if _, ok := v.s.data.sessions[sess.PlayerID]; ok {
		return blackjack.ErrSessionExists
	}

	v.s.data.sessions[sess.PlayerID] = cloneSession(sess)

	return nil
}

func (v sessionsView) LockByPlayer(ctx context.Context, _ *sql.Tx, playerID uint64) (blackjack.Session, error) {
	return v.GetByPlayer(ctx, playerID)
}

func (v sessionsView) GetByPlayer(_ context.Context, playerID uint64) (blackjack.Session, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	sess, ok := v.s.data.sessions[playerID]
	if !ok {
		return blackjack.Session{}, blackjack.ErrSessionNotFound
	}

	return cloneSession(sess), nil
}

func (v sessionsView) ExistsForPlayer(_ context.Context, _ *sql.Tx, playerID uint64) (bool, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	_, ok := v.s.data.sessions[playerID]

	return ok, nil
}

func (v sessionsView) Update(_ context.Context, _ *sql.Tx, sess blackjack.Session) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	if err := v.s.injected("blackjack.update"); err != nil {
		return err
	}

	cur, ok := v.s.data.sessions[sess.PlayerID]
	if !ok || cur.ID != sess.ID {
		return blackjack.ErrSessionNotFound
	}

	v.s.data.sessions[sess.PlayerID] = cloneSession(sess)

	return nil
}

func (v sessionsView) Delete(_ context.Context, _ *sql.Tx, id uuid.UUID) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	if err := v.s.injected("blackjack.delete"); err != nil {
		return err
	}

	for player, sess := range v.s.data.sessions {
		if sess.ID == id {
			delete(v.s.data.sessions, player)

			return nil
		}
	}

	return blackjack.ErrSessionNotFound
}
