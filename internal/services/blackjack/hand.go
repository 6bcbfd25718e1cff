package blackjack

import "github.com/fastprodman/wagerengine/internal/outcome"

type Hand []outcome.Card

// Value is the best total: aces count 11 when that does not bust the hand.
// Soft reports that an ace is currently counted as 11.
func (h Hand) Value() (total int, soft bool) {
	hasAce := false

	for _, c := range h {
		total += c.Points()

		if c.Rank == outcome.Ace {
			hasAce = true
		}
	}

	if hasAce && total+10 <= 21 {
		return total + 10, true
	}

	return total, false
}

func (h Hand) Total() int {
	total, _ := h.Value()

	return total
}

func (h Hand) Busted() bool {
	return h.Total() > 21
}

// Natural is a two-card 21.
func (h Hand) Natural() bool {
	return len(h) == 2 && h.Total() == 21
}

func (h Hand) Strings() []string {
	out := make([]string, len(h))
	for i, c := range h {
		out[i] = c.String()
	}

	return out
}
