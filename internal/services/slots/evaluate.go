package slots

type Tier string

const (
	TierJackpot Tier = "jackpot"
	TierFull    Tier = "full"
	TierPartial Tier = "partial"
	TierNone    Tier = "none"
)

// Tiers lists every tier in evaluation priority order.
var Tiers = []Tier{TierJackpot, TierFull, TierPartial, TierNone}

// Evaluation is the paytable's verdict on one line of symbols.
// Multiplier is zero for the jackpot tier, which pays the pool instead.
type Evaluation struct {
	Tier       Tier
	Symbol     string
	Multiplier int64
}

// Evaluate classifies a line in fixed priority: full line of the jackpot
// symbol, full line of any other symbol, any symbol repeated on at least two
// reels, nothing.
func (p Paytable) Evaluate(line []string) Evaluation {
	if len(line) == 0 {
		return Evaluation{Tier: TierNone}
	}

	counts := make(map[string]int, len(line))
	best, bestCount := "", 0

	for _, s := range line {
		counts[s]++

		if counts[s] > bestCount {
			best, bestCount = s, counts[s]
		}
	}

	switch {
	case bestCount == len(line) && best == p.JackpotSymbol:
		return Evaluation{Tier: TierJackpot, Symbol: best}
	case bestCount == len(line):
		return Evaluation{Tier: TierFull, Symbol: best, Multiplier: p.multiplier(best)}
	case bestCount >= 2:
		return Evaluation{Tier: TierPartial, Symbol: best, Multiplier: p.PartialMultiplier}
	default:
		return Evaluation{Tier: TierNone}
	}
}

// TierProbabilities computes the exact chance of each tier by enumerating
// every reel combination weighted by symbol odds.
func (p Paytable) TierProbabilities() map[Tier]float64 {
	out := make(map[Tier]float64, len(Tiers))

	total := 0
	for _, s := range p.Symbols {
		total += s.Weight
	}

	line := make([]string, p.Reels)

	var walk func(reel int, prob float64)
	walk = func(reel int, prob float64) {
		if reel == p.Reels {
			out[p.Evaluate(line).Tier] += prob

			return
		}

		for _, s := range p.Symbols {
			line[reel] = s.Name
			walk(reel+1, prob*float64(s.Weight)/float64(total))
		}
	}

	walk(0, 1)

	return out
}
