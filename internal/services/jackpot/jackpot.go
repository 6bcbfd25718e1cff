// Package jackpot manages the progressive pool fed by every slot spin.
//
// Ordering on a winning spin: the spin's own contribution is added first,
// then the whole post-contribution pool is paid and the pool resets to seed.
// A spin holds the pool row lock for its whole unit of work, so spins queue
// rather than race. Writes are still compare-and-swap on the pool version; a
// lost race surfaces as a retryable error and the caller's unit of work re-runs.
//
// Seed and contribution rate live on the pool row. Init writes them from
// configuration at startup; after that the row is the only source.
package jackpot

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fastprodman/wagerengine/internal/repos/jackpot"
	"github.com/shopspring/decimal"
)

type Service struct {
	pools jackpot.Pools
}

func New(pools jackpot.Pools) *Service {
	return &Service{pools: pools}
}

// Init creates the pool row at seed if it does not exist yet and stores seed
// and rate on it. An existing pool keeps its current amount.
func (s *Service) Init(ctx context.Context, seed int64, rate decimal.Decimal) error {
	if seed < 0 || rate.IsNegative() {
		return fmt.Errorf("jackpot: seed %d and rate %s must not be negative", seed, rate)
	}

	err := s.pools.Ensure(ctx, seed, rate)
	if err != nil {
		return fmt.Errorf("init jackpot pool: %w", err)
	}

	return nil
}

// Contribution is floor(wager * rate).
func Contribution(wager int64, rate decimal.Decimal) int64 {
	return decimal.NewFromInt(wager).Mul(rate).Floor().IntPart()
}

// SpinEffect is what one spin did to the pool.
type SpinEffect struct {
	Contribution int64
	Payout       int64
	PoolAfter    int64
}

// ApplySpin adds the spin's contribution and, when won is true, pays out and
// resets the pool. It must run inside the spin's unit of work.
func (s *Service) ApplySpin(ctx context.Context, tx *sql.Tx, playerID uint64, wager int64, won bool, now time.Time) (SpinEffect, error) {
	p, err := s.pools.Get(ctx, tx)
	if err != nil {
		return SpinEffect{}, fmt.Errorf("read jackpot pool: %w", err)
	}

	eff := SpinEffect{Contribution: Contribution(wager, p.ContributionRate)}
	p.CurrentPool += eff.Contribution

	if won {
		eff.Payout = p.CurrentPool
		p.CurrentPool = p.Seed
		p.LastWinnerID = &playerID
		p.LastWinAmount = &eff.Payout
		p.LastWonAt = &now
	}

	eff.PoolAfter = p.CurrentPool

	err = s.pools.Update(ctx, tx, p)
	if err != nil {
		return SpinEffect{}, fmt.Errorf("write jackpot pool: %w", err)
	}

	return eff, nil
}

// Snapshot reads the committed pool.
func (s *Service) Snapshot(ctx context.Context) (jackpot.Pool, error) {
	p, err := s.pools.Snapshot(ctx)
	if err != nil {
		return jackpot.Pool{}, fmt.Errorf("jackpot snapshot: %w", err)
	}

	return p, nil
}
