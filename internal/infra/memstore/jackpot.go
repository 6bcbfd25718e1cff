package memstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/fastprodman/wagerengine/internal/repos/jackpot"
	"github.com/shopspring/decimal"
)

type poolsView struct{ s *Store }

func (v poolsView) Ensure(_ context.Context, seed int64, rate decimal.Decimal) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	if v.s.data.pool == nil {
		v.s.data.pool = &jackpot.Pool{CurrentPool: seed, UpdatedAt: time.Now()}
	}

	v.s.data.pool.Seed = seed
	v.s.data.pool.ContributionRate = rate

	return nil
}

func (v poolsView) Get(ctx context.Context, _ *sql.Tx) (jackpot.Pool, error) {
	return v.Snapshot(ctx)
}

func (v poolsView) Snapshot(_ context.Context) (jackpot.Pool, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	if v.s.data.pool == nil {
		return jackpot.Pool{}, jackpot.ErrPoolNotFound
	}

	return *v.s.data.pool, nil
}

func (v poolsView) Update(_ context.Context, _ *sql.Tx, p jackpot.Pool) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	if err := v.s.injected("jackpot.update"); err != nil {
		return err
	}

	cur := v.s.data.pool
	if cur == nil {
		return jackpot.ErrPoolNotFound
	}

	if cur.Version != p.Version {
		return jackpot.ErrVersionConflict
	}

	p.Seed = cur.Seed
	p.ContributionRate = cur.ContributionRate
	p.Version++
	p.UpdatedAt = time.Now()
	*cur = p

	return nil
}

// SetPool overwrites the jackpot amount, bumping its version.
func (s *Store) SetPool(amount int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data.pool == nil {
		s.data.pool = &jackpot.Pool{}
	}

	s.data.pool.CurrentPool = amount
	s.data.pool.Version++
}
