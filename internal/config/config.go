package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type PostgresConfig struct {
	DSN             string        `env:"PG_DSN"`
	MaxOpenConns    int           `env:"PG_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int           `env:"PG_MAX_IDLE_CONNS" envDefault:"10"`
	ConnMaxIdleTime time.Duration `env:"PG_CONN_MAX_IDLE_TIME" envDefault:"5m"`
	ConnMaxLifetime time.Duration `env:"PG_CONN_MAX_LIFETIME" envDefault:"30m"`
	TxMaxAttempts   int           `env:"TX_MAX_ATTEMPTS" envDefault:"5"`
}

// WagerLimits bounds single wagers per game.
type WagerLimits struct {
	Min       int64 `env:"WAGER_MIN" envDefault:"1"`
	Blackjack int64 `env:"BLACKJACK_MAX_WAGER" envDefault:"100000"`
	Slots     int64 `env:"SLOTS_MAX_WAGER" envDefault:"50000"`
	Coinflip  int64 `env:"COINFLIP_MAX_WAGER" envDefault:"100000"`
	Lottery   int64 `env:"LOTTERY_MAX_COST" envDefault:"10000"`
}

type BlackjackConfig struct {
	Decks            int  `env:"BLACKJACK_DECKS" envDefault:"1"`
	DealerHitsSoft17 bool `env:"BLACKJACK_DEALER_HITS_SOFT_17" envDefault:"false"`
	// NaturalPayout is the total amount returned per unit staked on a natural,
	// stake included. The default 1.5 turns 100 into 150 (net +50); 2.5 gives
	// the casino-standard 3:2 net win.
	NaturalPayout decimal.Decimal `env:"BLACKJACK_NATURAL_PAYOUT" envDefault:"1.5"`
}

type SlotsConfig struct {
	// PaytablePath points at a JSON paytable; empty uses the embedded default.
	PaytablePath     string          `env:"SLOTS_PAYTABLE_PATH" envDefault:""`
	ContributionRate decimal.Decimal `env:"JACKPOT_CONTRIBUTION_RATE" envDefault:"0.02"`
	JackpotSeed      int64           `env:"JACKPOT_SEED" envDefault:"10000"`
}

type CoinflipConfig struct {
	TTL      time.Duration   `env:"COINFLIP_TTL" envDefault:"10m"`
	RakeRate decimal.Decimal `env:"COINFLIP_RAKE_RATE" envDefault:"0"`
}

type LotteryConfig struct {
	Numbers      int           `env:"LOTTERY_NUMBERS" envDefault:"3"`
	MaxNumber    int           `env:"LOTTERY_MAX_NUMBER" envDefault:"30"`
	TicketCost   int64         `env:"LOTTERY_TICKET_COST" envDefault:"100"`
	DrawInterval time.Duration `env:"LOTTERY_DRAW_INTERVAL" envDefault:"24h"`
	SeedPool     int64         `env:"LOTTERY_SEED_POOL" envDefault:"0"`
	RollOver     bool          `env:"LOTTERY_ROLLOVER" envDefault:"true"`
	PrizeTiers   PrizeTiers    `env:"LOTTERY_PRIZE_TIERS" envDefault:"2:500"`
}

type GamesConfig struct {
	Limits    WagerLimits
	Blackjack BlackjackConfig
	Slots     SlotsConfig
	Coinflip  CoinflipConfig
	Lottery   LotteryConfig
}

// PrizeTiers maps a partial match count to a fixed prize.
// Text form: "2:500,1:50".
type PrizeTiers map[int]int64

func (p *PrizeTiers) UnmarshalText(text []byte) error {
	out := make(PrizeTiers)

	raw := strings.TrimSpace(string(text))
	if raw == "" {
		*p = out

		return nil
	}

	for _, part := range strings.Split(raw, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), ":")
		if !ok {
			return fmt.Errorf("prize tier %q: want matches:amount", part)
		}

		matches, err := strconv.Atoi(strings.TrimSpace(k))
		if err != nil || matches <= 0 {
			return fmt.Errorf("prize tier %q: invalid match count", part)
		}

		amount, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil || amount < 0 {
			return fmt.Errorf("prize tier %q: invalid amount", part)
		}

		out[matches] = amount
	}

	*p = out

	return nil
}

// Counts returns the configured match counts in ascending order.
func (p PrizeTiers) Counts() []int {
	counts := make([]int, 0, len(p))
	for k := range p {
		counts = append(counts, k)
	}

	sort.Ints(counts)

	return counts
}

// Validate checks a lottery configuration for internal consistency.
func (c LotteryConfig) Validate() error {
	if c.Numbers <= 0 || c.MaxNumber < c.Numbers {
		return fmt.Errorf("lottery: need 0 < numbers (%d) <= max number (%d)", c.Numbers, c.MaxNumber)
	}

	if c.TicketCost <= 0 {
		return fmt.Errorf("lottery: ticket cost must be positive")
	}

	for _, k := range c.PrizeTiers.Counts() {
		if k >= c.Numbers {
			return fmt.Errorf("lottery: prize tier %d must be below the full match of %d", k, c.Numbers)
		}
	}

	return nil
}
