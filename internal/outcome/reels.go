package outcome

import (
	"errors"
	"fmt"
)

type WeightedSymbol struct {
	Name   string
	Weight int
}

// ReelTable is the symbol strip shared by every reel. Each reel is an
// independent weighted draw over it.
type ReelTable struct {
	symbols []WeightedSymbol
	total   int
}

func NewReelTable(symbols []WeightedSymbol) (ReelTable, error) {
	if len(symbols) == 0 {
		return ReelTable{}, errors.New("reel table: no symbols")
	}

	seen := make(map[string]struct{}, len(symbols))
	total := 0

	for _, s := range symbols {
		if s.Name == "" {
			return ReelTable{}, errors.New("reel table: empty symbol name")
		}

		if s.Weight <= 0 {
			return ReelTable{}, fmt.Errorf("reel table: symbol %q has non-positive weight", s.Name)
		}

		if _, dup := seen[s.Name]; dup {
			return ReelTable{}, fmt.Errorf("reel table: duplicate symbol %q", s.Name)
		}

		seen[s.Name] = struct{}{}
		total += s.Weight
	}

	return ReelTable{symbols: append([]WeightedSymbol(nil), symbols...), total: total}, nil
}

// Draw picks one symbol.
func (t ReelTable) Draw(src Source) string {
	r := src.IntN(t.total)

	for _, s := range t.symbols {
		if r < s.Weight {
			return s.Name
		}

		r -= s.Weight
	}

	// unreachable while total is the sum of weights
	return t.symbols[len(t.symbols)-1].Name
}

// Spin draws one symbol per reel.
func (t ReelTable) Spin(src Source, reels int) []string {
	out := make([]string, reels)
	for i := range out {
		out[i] = t.Draw(src)
	}

	return out
}

// Probability is the chance a single reel lands on name.
func (t ReelTable) Probability(name string) float64 {
	for _, s := range t.symbols {
		if s.Name == name {
			return float64(s.Weight) / float64(t.total)
		}
	}

	return 0
}

func (t ReelTable) Symbols() []WeightedSymbol {
	return append([]WeightedSymbol(nil), t.symbols...)
}
