package slots

import (
	"context"
	"math"
	"testing"

	"github.com/fastprodman/wagerengine/internal/config"
	"github.com/fastprodman/wagerengine/internal/gameerr"
	"github.com/fastprodman/wagerengine/internal/infra/memstore"
	"github.com/fastprodman/wagerengine/internal/outcome"
	"github.com/fastprodman/wagerengine/internal/services/jackpot"
	"github.com/fastprodman/wagerengine/internal/services/wager"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var limits = config.WagerLimits{Min: 1, Blackjack: 1e6, Slots: 1e6, Coinflip: 1e6, Lottery: 1e6}

// fixedSource replays a fixed sequence of values.
type fixedSource struct {
	vals []int
	i    int
}

func (f *fixedSource) IntN(n int) int {
	v := f.vals[f.i%len(f.vals)] % n
	f.i++

	return v
}

func seeded(b byte) outcome.Source {
	var seed [32]byte
	seed[0] = b

	return outcome.NewSeededSource(seed)
}

// smallTable has three equally weighted symbols, so every tier is common
// enough to measure.
func smallTable() Paytable {
	return Paytable{
		Reels:             3,
		JackpotSymbol:     "SEVEN",
		PartialMultiplier: 2,
		Symbols: []Symbol{
			{Name: "CHERRY", Weight: 1, Multiplier: 5},
			{Name: "BELL", Weight: 1, Multiplier: 10},
			{Name: "SEVEN", Weight: 1},
		},
	}
}

func newService(t *testing.T, store *memstore.Store, src outcome.Source, table Paytable, seed int64, rate string) *Service {
	t.Helper()

	jp := jackpot.New(store.Pools())
	require.NoError(t, jp.Init(context.Background(), seed, decimal.RequireFromString(rate)))

	svc, err := New(store, wager.NewGuard(store.Ledger(), limits), jp, store.History(), src, table)
	require.NoError(t, err)

	return svc
}

func TestDefaultPaytableIsValid(t *testing.T) {
	t.Parallel()

	p := DefaultPaytable()
	require.NoError(t, p.Validate())

	probs := p.TierProbabilities()

	var sum float64
	for _, tier := range Tiers {
		sum += probs[tier]
	}

	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.InDelta(t, math.Pow(2.0/100, 3), probs[TierJackpot], 1e-12)
}

func TestParsePaytable_Rejects(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"bad_json":         `{`,
		"one_reel":         `{"reels":1,"jackpotSymbol":"A","symbols":[{"name":"A","weight":1}]}`,
		"missing_jackpot":  `{"reels":3,"jackpotSymbol":"Z","symbols":[{"name":"A","weight":1}]}`,
		"zero_weight":      `{"reels":3,"jackpotSymbol":"A","symbols":[{"name":"A","weight":0}]}`,
		"negative_payout":  `{"reels":3,"jackpotSymbol":"A","symbols":[{"name":"A","weight":1},{"name":"B","weight":1,"multiplier":-1}]}`,
		"duplicate_symbol": `{"reels":3,"jackpotSymbol":"A","symbols":[{"name":"A","weight":1},{"name":"A","weight":1}]}`,
	}

	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := ParsePaytable([]byte(raw))
			assert.Error(t, err)
		})
	}
}

func TestEvaluate(t *testing.T) {
	t.Parallel()

	p := smallTable()

	tests := []struct {
		line []string
		want Evaluation
	}{
		{[]string{"SEVEN", "SEVEN", "SEVEN"}, Evaluation{Tier: TierJackpot, Symbol: "SEVEN"}},
		{[]string{"BELL", "BELL", "BELL"}, Evaluation{Tier: TierFull, Symbol: "BELL", Multiplier: 10}},
		{[]string{"SEVEN", "BELL", "SEVEN"}, Evaluation{Tier: TierPartial, Symbol: "SEVEN", Multiplier: 2}},
		{[]string{"CHERRY", "BELL", "SEVEN"}, Evaluation{Tier: TierNone}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, p.Evaluate(tt.line), "%v", tt.line)
	}
}

func TestTierFrequenciesMatchTheory(t *testing.T) {
	t.Parallel()

	for _, p := range []Paytable{smallTable(), DefaultPaytable()} {
		reels, err := p.reelTable()
		require.NoError(t, err)

		src := seeded(42)
		want := p.TierProbabilities()

		const n = 100_000

		got := make(map[Tier]int)
		for range n {
			got[p.Evaluate(reels.Spin(src, p.Reels)).Tier]++
		}

		for _, tier := range Tiers {
			prob := want[tier]
			sigma := math.Sqrt(n * prob * (1 - prob))
			// five sigma, with a floor of one count for tiers rarer than 1/n
			tol := math.Max(5*sigma, 5)
			assert.InDelta(t, n*prob, float64(got[tier]), tol, "tier %s", tier)
		}
	}
}

func TestSpin_JackpotContributesThenPaysPool(t *testing.T) {
	t.Parallel()

	store := memstore.New()
	store.SeedPlayer(1, 10_000)

	// every draw lands on index 2, the SEVEN
	svc := newService(t, store, &fixedSource{vals: []int{2}}, smallTable(), 10_000, "0.02")
	store.SetPool(5000)

	res, err := svc.Spin(context.Background(), 1, 1000)
	require.NoError(t, err)

	assert.Equal(t, TierJackpot, res.Tier)
	assert.True(t, res.JackpotWon)
	assert.Equal(t, int64(20), res.Contribution)
	assert.Equal(t, int64(5020), res.Payout)
	assert.Equal(t, int64(10_000), res.JackpotPool)
	assert.Equal(t, int64(10_000-1000+5020), res.Balance)
	assert.Equal(t, res.Balance, store.Balance(1))
}

func TestSpin_ConservesCurrency(t *testing.T) {
	t.Parallel()

	store := memstore.New()
	store.SeedPlayer(1, 1_000_000)

	svc := newService(t, store, seeded(7), smallTable(), 500, "0.05")
	ctx := context.Background()

	pool := func() int64 {
		p, err := store.Pools().Snapshot(ctx)
		require.NoError(t, err)

		return p.CurrentPool
	}

	for i := range 300 {
		before, poolBefore := store.Balance(1), pool()
		amount := int64(10 + i)

		res, err := svc.Spin(ctx, 1, amount)
		require.NoError(t, err)

		require.Equal(t, before-amount+res.Payout, store.Balance(1), "spin %d", i)

		if res.JackpotWon {
			require.Equal(t, poolBefore+res.Contribution, res.Payout)
			require.Equal(t, int64(500), pool())
		} else {
			require.Equal(t, poolBefore+res.Contribution, pool())
			require.Equal(t, amount*res.Multiplier, res.Payout)
		}
	}

	require.Zero(t, store.HeldReservations())
	require.Len(t, store.Records(), 300)
}

func TestSpin_RejectionsHaveNoSideEffects(t *testing.T) {
	t.Parallel()

	store := memstore.New()
	store.SeedPlayer(1, 50)

	svc := newService(t, store, seeded(1), smallTable(), 100, "0.02")
	ctx := context.Background()

	_, err := svc.Spin(ctx, 1, 0)
	require.ErrorIs(t, err, gameerr.ErrInvalidAmount)

	_, err = svc.Spin(ctx, 1, 51)
	require.ErrorIs(t, err, gameerr.ErrInsufficientFunds)

	p, err := store.Pools().Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(100), p.CurrentPool)
	assert.Equal(t, int64(50), store.Balance(1))
	assert.Empty(t, store.Records())
}

func TestSpin_FailureAfterDebitRollsBack(t *testing.T) {
	t.Parallel()

	store := memstore.New()
	store.SeedPlayer(1, 1000)

	svc := newService(t, store, seeded(3), smallTable(), 100, "0.1")
	ctx := context.Background()

	store.FailNext("history.record", assert.AnError)

	_, err := svc.Spin(ctx, 1, 100)
	require.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, gameerr.KindIntegrity, gameerr.KindOf(err))

	p, err := store.Pools().Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(100), p.CurrentPool)
	assert.Equal(t, int64(1000), store.Balance(1))
	assert.Zero(t, store.HeldReservations())
	assert.Empty(t, store.Entries())
}
