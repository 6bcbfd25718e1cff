package memstore

import (
	"context"
	"database/sql"
	"slices"
	"time"

	"github.com/fastprodman/wagerengine/internal/repos/coinflip"
	"github.com/google/uuid"
)

type challengesView struct{ s *Store }

func (v challengesView) Insert(_ context.Context, _ *sql.Tx, c coinflip.Challenge) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	if err := v.s.injected("coinflip.insert"); err != nil {
		return err
	}

	for _, other := range v.s.data.challenges {
		if other.CreatorID == c.CreatorID && other.Status == coinflip.StatusOpen {
			return coinflip.ErrOpenExists
		}
	}

	c.Status = coinflip.StatusOpen
	v.s.data.challenges[c.ID] = c

	return nil
}

func (v challengesView) Get(_ context.Context, id uuid.UUID) (coinflip.Challenge, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	c, ok := v.s.data.challenges[id]
	if !ok {
		return coinflip.Challenge{}, coinflip.ErrChallengeNotFound
	}

	return c, nil
}

func (v challengesView) Find(ctx context.Context, _ *sql.Tx, id uuid.UUID) (coinflip.Challenge, error) {
	return v.Get(ctx, id)
}

func (v challengesView) LockOpenByCreator(_ context.Context, _ *sql.Tx, creatorID uint64) (coinflip.Challenge, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	for _, c := range v.s.data.challenges {
		if c.CreatorID == creatorID && c.Status == coinflip.StatusOpen {
			return c, nil
		}
	}

	return coinflip.Challenge{}, coinflip.ErrChallengeNotFound
}

func (v challengesView) MarkAccepted(_ context.Context, _ *sql.Tx, id uuid.UUID, acceptorID uint64, now time.Time) (coinflip.Challenge, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	if err := v.s.injected("coinflip.accept"); err != nil {
		return coinflip.Challenge{}, err
	}

	c, ok := v.s.data.challenges[id]
	if !ok || c.Status != coinflip.StatusOpen || c.CreatorID == acceptorID || !c.ExpiresAt.After(now) {
		return coinflip.Challenge{}, coinflip.ErrStatusChanged
	}

	c.Status = coinflip.StatusAccepted
	c.AcceptorID = &acceptorID
	v.s.data.challenges[id] = c

	return c, nil
}

func (v challengesView) Resolve(_ context.Context, _ *sql.Tx, id uuid.UUID, res coinflip.Resolution) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	if err := v.s.injected("coinflip.resolve"); err != nil {
		return err
	}

	c, ok := v.s.data.challenges[id]
	if !ok || c.Status != coinflip.StatusAccepted {
		return coinflip.ErrStatusChanged
	}

	result, winner, rsv, at := res.Result, res.WinnerID, res.AcceptorReservation, res.At
	c.Status = coinflip.StatusResolved
	c.Result = &result
	c.WinnerID = &winner
	c.AcceptorReservation = &rsv
	c.ResolvedAt = &at
	v.s.data.challenges[id] = c

	return nil
}

func (v challengesView) Transition(_ context.Context, _ *sql.Tx, id uuid.UUID, from, to coinflip.Status, at time.Time) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	if err := v.s.injected("coinflip.transition"); err != nil {
		return err
	}

	c, ok := v.s.data.challenges[id]
	if !ok || c.Status != from {
		return coinflip.ErrStatusChanged
	}

	c.Status = to
	c.ResolvedAt = &at
	v.s.data.challenges[id] = c

	return nil
}

func (v challengesView) ListOpen(_ context.Context, now time.Time, limit int) ([]coinflip.Challenge, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	return v.filter(limit, func(c coinflip.Challenge) bool {
		return c.Status == coinflip.StatusOpen && c.ExpiresAt.After(now)
	}, func(a, b coinflip.Challenge) int { return a.CreatedAt.Compare(b.CreatedAt) }), nil
}

func (v challengesView) LockExpired(_ context.Context, _ *sql.Tx, now time.Time, limit int) ([]coinflip.Challenge, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	return v.filter(limit, func(c coinflip.Challenge) bool {
		return c.Status == coinflip.StatusOpen && !c.ExpiresAt.After(now)
	}, func(a, b coinflip.Challenge) int { return a.ExpiresAt.Compare(b.ExpiresAt) }), nil
}

func (v challengesView) filter(limit int, keep func(coinflip.Challenge) bool, cmp func(a, b coinflip.Challenge) int) []coinflip.Challenge {
	var out []coinflip.Challenge

	for _, c := range v.s.data.challenges {
		if keep(c) {
			out = append(out, c)
		}
	}

	slices.SortFunc(out, cmp)

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}

	return out
}
